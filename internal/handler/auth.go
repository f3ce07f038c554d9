package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-planner/internal/middleware"
	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/service"
	"github.com/iliyamo/travel-planner/internal/utils"
)

// Credentials is implemented by *service.AuthService.
type Credentials interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.Account, utils.AccessToken, error)
	Login(ctx context.Context, email, password string) (utils.AccessToken, error)
	ChangePassword(ctx context.Context, acc *model.Account, in service.ChangePasswordInput) (utils.AccessToken, error)
	UpdateProfile(ctx context.Context, acc *model.Account, in service.ProfileInput) (*model.Account, error)
	CreateAccount(ctx context.Context, in service.CreateAccountInput) (*model.Account, error)
}

type AuthHandler struct {
	creds Credentials
}

func NewAuthHandler(creds Credentials) *AuthHandler {
	return &AuthHandler{creds: creds}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp creates a user account and returns a token with it.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req service.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	acc, tok, err := h.creds.Register(ctx, req)
	if err != nil {
		return err
	}
	return withToken(c, http.StatusCreated, tok.Token, acc)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	tok, err := h.creds.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return withToken(c, http.StatusOK, tok.Token, nil)
}

// UpdatePassword changes the caller's password and returns a replacement
// token; tokens issued earlier stop working.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	var req service.ChangePasswordInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	tok, err := h.creds.ChangePassword(ctx, middleware.CurrentAccount(c), req)
	if err != nil {
		return err
	}
	return withToken(c, http.StatusOK, tok.Token, nil)
}
