package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-planner/internal/logging"
	"github.com/iliyamo/travel-planner/internal/middleware"
	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/repository"
	"github.com/iliyamo/travel-planner/internal/service"
	"github.com/iliyamo/travel-planner/internal/storage"
)

// Accounts is implemented by *service.AccountService.
type Accounts interface {
	List(ctx context.Context, params url.Values) (repository.Page, error)
	Get(ctx context.Context, id string) (*model.Account, error)
	Update(ctx context.Context, id string, in service.AccountUpdate) (*model.Account, error)
	Delete(ctx context.Context, id, actorID string) error
	SetAvatar(ctx context.Context, acc *model.Account, key string) error
}

// Avatars is implemented by *storage.AvatarStore.
type Avatars interface {
	PresignUpload(ctx context.Context, accountID string) (key, uploadURL string, err error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

type AccountHandler struct {
	accounts Accounts
	creds    Credentials
	avatars  Avatars
	log      logging.Logger
}

// NewAccountHandler accepts a nil avatars store when uploads are disabled.
func NewAccountHandler(accounts Accounts, creds Credentials, avatars Avatars, log logging.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, creds: creds, avatars: avatars, log: log}
}

type accountView struct {
	*model.Account
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type avatarUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Me returns the caller's own account.
func (h *AccountHandler) Me(c echo.Context) error {
	acc := middleware.CurrentAccount(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	return ok(c, http.StatusOK, "", h.view(ctx, acc))
}

// UpdateMe changes the caller's name or email. Password fields are refused.
func (h *AccountHandler) UpdateMe(c echo.Context) error {
	var in service.ProfileInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	acc, err := h.creds.UpdateProfile(ctx, middleware.CurrentAccount(c), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "profile updated successfully", h.view(ctx, acc))
}

// Avatar issues a presigned upload URL and records the new key on the
// caller's account.
func (h *AccountHandler) Avatar(c echo.Context) error {
	acc := middleware.CurrentAccount(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	key, uploadURL, err := h.avatars.PresignUpload(ctx, acc.ID)
	if err != nil {
		return err
	}
	if err := h.accounts.SetAvatar(ctx, acc, key); err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "upload the image with PUT to uploadUrl", avatarUpload{
		Key: key, UploadURL: uploadURL, ExpiresAt: time.Now().UTC().Add(storage.PresignTTL),
	})
}

func (h *AccountHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	page, err := h.accounts.List(ctx, c.QueryParams())
	if err != nil {
		return err
	}
	return okList(c, "users retrieved successfully", len(page.Items), page.Total, page.Items)
}

func (h *AccountHandler) Create(c echo.Context) error {
	var in service.CreateAccountInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	acc, err := h.creds.CreateAccount(ctx, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "user created successfully", acc)
}

func (h *AccountHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	acc, err := h.accounts.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "", h.view(ctx, acc))
}

func (h *AccountHandler) Update(c echo.Context) error {
	var in service.AccountUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	acc, err := h.accounts.Update(ctx, c.Param("id"), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "user updated successfully", acc)
}

func (h *AccountHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.accounts.Delete(ctx, c.Param("id"), actorID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// view attaches a download URL for the avatar when one can be signed.
func (h *AccountHandler) view(ctx context.Context, acc *model.Account) accountView {
	v := accountView{Account: acc}
	if h.avatars == nil || acc.Avatar == nil {
		return v
	}
	u, err := h.avatars.PresignDownload(ctx, *acc.Avatar)
	if err != nil {
		h.log.Warn(ctx, "presign avatar download", "account_id", acc.ID, "error", err)
		return v
	}
	v.AvatarURL = u
	return v
}
