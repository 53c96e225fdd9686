package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-ladder/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type requestCodeInput struct {
	Email string `json:"email"`
}

type verifyCodeInput struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Register godoc
// @Summary Регистрация игрока
// @Tags auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Данные игрока"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Email или имя заняты"
// @Failure 422 {object} map[string]interface{} "Ошибки по полям"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Login godoc
// @Summary Вход по паролю
// @Tags auth
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Email и пароль"
// @Success 200 {object} map[string]string "token"
// @Failure 401 {object} map[string]string "Неверные данные"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	player, token, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": token, "player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RequestCode godoc
// @Summary Запросить одноразовый код входа
// @Tags auth
// @Accept json
// @Produce json
// @Param body body requestCodeInput true "Email"
// @Success 202 {object} map[string]string
// @Router /auth/otp/request [post]
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var input requestCodeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" {
		badRequestResponse(w, r, errors.New("email is required"))
		return
	}

	if err := h.authService.RequestCode(r.Context(), input.Email); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"message": "if the email is registered, a code has been sent"}
	if err := writeJSON(w, http.StatusAccepted, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// VerifyCode godoc
// @Summary Вход по одноразовому коду
// @Tags auth
// @Accept json
// @Produce json
// @Param body body verifyCodeInput true "Email и код"
// @Success 200 {object} map[string]string "token"
// @Failure 401 {object} map[string]string "Код неверный или истёк"
// @Router /auth/otp/verify [post]
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var input verifyCodeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" || input.Code == "" {
		badRequestResponse(w, r, errors.New("email and code are required"))
		return
	}

	player, token, err := h.authService.VerifyCode(r.Context(), input.Email, input.Code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": token, "player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
