package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-ladder/middleware"
	"github.com/Dosada05/tournament-ladder/models"
	"github.com/Dosada05/tournament-ladder/services"
)

type PlayerHandler struct {
	playerService services.PlayerService
}

func NewPlayerHandler(ps services.PlayerService) *PlayerHandler {
	return &PlayerHandler{
		playerService: ps,
	}
}

// GetProfile godoc
// @Summary Профиль игрока
// @Description Рейтинг и последние изменения рейтинга.
// @Tags players
// @Produce json
// @Param name path string true "Player name"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Игрок не найден"
// @Router /players/{name} [get]
func (h *PlayerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	name, err := getParamFromURL(r, "name")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.playerService.GetProfile(r.Context(), name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateProfile godoc
// @Summary Обновить профиль игрока
// @Description Игрок может менять только свой профиль, администратор любой.
// @Tags players
// @Accept json
// @Produce json
// @Param name path string true "Player name"
// @Param body body services.UpdateProfileInput true "Изменяемые поля"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Чужой профиль"
// @Security BearerAuth
// @Router /players/{name} [patch]
func (h *PlayerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	name, err := getParamFromURL(r, "name")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentName, err := middleware.GetUserNameFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	currentRole, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user role")
		return
	}

	isAllowed := (name == currentName) || (currentRole == models.RoleAdmin)
	if !isAllowed {
		forbiddenResponse(w, r, "operation not allowed for the current user")
		return
	}

	var input services.UpdateProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Category == nil && input.Password == nil {
		badRequestResponse(w, r, errors.New("no fields provided for update"))
		return
	}

	player, err := h.playerService.UpdateProfile(r.Context(), name, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
