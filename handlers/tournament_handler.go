package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-ladder/middleware"
	"github.com/Dosada05/tournament-ladder/models"
	"github.com/Dosada05/tournament-ladder/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	bracketService    services.BracketService
}

func NewTournamentHandler(ts services.TournamentService, bs services.BracketService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		bracketService:    bs,
	}
}

type registerPlayerRequest struct {
	Player string `json:"player"`
}

// CreateHandler godoc
// @Summary Создать турнир
// @Tags tournaments
// @Accept json
// @Produce json
// @Param body body services.CreateTournamentInput true "Параметры турнира"
// @Success 201 {object} map[string]interface{} "Турнир создан"
// @Failure 400 {object} map[string]string "Некорректные параметры"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 409 {object} map[string]string "Имя турнира занято"
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	creator, err := middleware.GetUserNameFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create tournament")
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), creator, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler godoc
// @Summary Турнир с сеткой
// @Tags tournaments
// @Produce json
// @Param name path string true "Tournament name"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Router /tournaments/{name} [get]
func (h *TournamentHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	name, err := getParamFromURL(r, "name")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.tournamentService.GetTournament(r.Context(), name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RegisterPlayerHandler godoc
// @Summary Добавить игрока в пул турнира
// @Description Игрок регистрирует себя; администратор может указать любого игрока.
// @Tags tournaments
// @Accept json
// @Produce json
// @Param name path string true "Tournament name"
// @Param body body registerPlayerRequest false "Имя игрока (только для администратора)"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Игрок не проходит фильтры турнира"
// @Failure 404 {object} map[string]string "Турнир или игрок не найден"
// @Failure 409 {object} map[string]string "Уже зарегистрирован / пул заполнен"
// @Security BearerAuth
// @Router /tournaments/{name}/players [post]
func (h *TournamentHandler) RegisterPlayerHandler(w http.ResponseWriter, r *http.Request) {
	name, err := getParamFromURL(r, "name")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	self, err := middleware.GetUserNameFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input registerPlayerRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}
	player := input.Player
	if player == "" {
		player = self
	}
	if player != self && role != models.RoleAdmin {
		mapServiceErrorToHTTP(w, r, services.ErrForbiddenOperation)
		return
	}

	tournament, err := h.tournamentService.RegisterPlayer(r.Context(), name, player)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateRoundHandler godoc
// @Summary Сформировать следующий раунд сетки
// @Tags brackets
// @Produce json
// @Param name path string true "Tournament name"
// @Success 201 {object} map[string]interface{} "Раунд создан"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 409 {object} map[string]string "Предыдущий раунд не завершён / нет игроков / параллельное изменение"
// @Security BearerAuth
// @Router /tournaments/{name}/rounds [post]
func (h *TournamentHandler) GenerateRoundHandler(w http.ResponseWriter, r *http.Request) {
	name, err := getParamFromURL(r, "name")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.bracketService.GenerateRound(r.Context(), name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
