package handler

import (
	"net/http"

	"qrmenu/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	uc *usecase.AuthUsecase
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// /auth/change-password のリクエストボディ。
type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) RegisterRoutes(api *echo.Group, adminOnly ...echo.MiddlewareFunc) {
	api.POST("/auth/login", h.login)

	api.GET("/auth/profile", h.profile, adminOnly...)
	api.PUT("/auth/change-password", h.changePassword, adminOnly...)
	api.POST("/auth/logout", h.logout, adminOnly...)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return writeFail(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.Login(c.Request().Context(), usecase.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusOK, out, "logged in")
}

func (h *AuthHandler) profile(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return writeFail(c, http.StatusUnauthorized, "unauthorized")
	}

	out, err := h.uc.Profile(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusOK, out, "")
}

func (h *AuthHandler) changePassword(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return writeFail(c, http.StatusUnauthorized, "unauthorized")
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return writeFail(c, http.StatusBadRequest, "invalid body")
	}

	if err := h.uc.ChangePassword(c.Request().Context(), userID, usecase.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		return writeError(c, err)
	}
	return writeMessage(c, "password changed, please log in again")
}

// トークンはサーバーに保存していないので、クライアント側で破棄する
func (h *AuthHandler) logout(c echo.Context) error {
	return writeMessage(c, "logged out")
}
