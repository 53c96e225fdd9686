package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-ladder/models"
	"github.com/Dosada05/tournament-ladder/services"
)

type MatchHandler struct {
	matchService  services.MatchService
	ratingService services.RatingService
}

func NewMatchHandler(ms services.MatchService, rs services.RatingService) *MatchHandler {
	return &MatchHandler{
		matchService:  ms,
		ratingService: rs,
	}
}

// GetHandler godoc
// @Summary Матч
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Матч не найден"
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getParamFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApplyResultHandler godoc
// @Summary Записать результат матча
// @Description Перезаписываются только переданные поля.
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID"
// @Param body body models.MatchResult true "Результат"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Матч не найден"
// @Failure 422 {object} map[string]interface{} "Ошибки по полям"
// @Security BearerAuth
// @Router /matches/{matchID} [patch]
func (h *MatchHandler) ApplyResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getParamFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input models.MatchResult
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ApplyResult(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateRatingsHandler godoc
// @Summary Пересчитать рейтинги участников матча
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} services.RatingUpdate
// @Failure 404 {object} map[string]string "Матч, турнир или игрок не найден"
// @Failure 409 {object} map[string]string "У матча нет победителя"
// @Security BearerAuth
// @Router /matches/{matchID}/ratings [post]
func (h *MatchHandler) UpdateRatingsHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getParamFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	update, err := h.ratingService.UpdateRatings(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ratings": update}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
