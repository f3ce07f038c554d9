// Package service holds the credential and account logic behind the HTTP
// handlers. Services never read the environment: every secret, TTL and cost
// is passed in at construction.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/travel-planner/internal/apperr"
	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/queue"
	"github.com/iliyamo/travel-planner/internal/repository"
	"github.com/iliyamo/travel-planner/internal/utils"
	"github.com/iliyamo/travel-planner/internal/validation"
)

// Client-facing messages of the credential flow.
const (
	MsgBadCredentials   = "incorrect email or password"
	MsgMissingLogin     = "please provide an email and password"
	MsgNotLoggedIn      = "you are not logged in! please log in to get access."
	MsgInvalidToken     = "invalid token. please log in again."
	MsgExpiredToken     = "your token has expired! please log in again."
	MsgAccountGone      = "the user belonging to this token no longer exists."
	MsgPasswordChanged  = "user recently changed password! please log in again."
	MsgForbidden        = "you do not have permission to perform this action"
	MsgWrongPassword    = "your current password is wrong."
	MsgEmailExists      = "email already exists"
	MsgNotPasswordRoute = "this route is not for password updates. please use /auth/updatePassword."
)

// AccountStore is the persistence the auth service needs.
// *repository.AccountRepo satisfies it.
type AccountStore interface {
	Create(ctx context.Context, a *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	Update(ctx context.Context, a *model.Account) error
	UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error
}

type AuthConfig struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
}

type AuthService struct {
	store  AccountStore
	cfg    AuthConfig
	events queue.Publisher
	v      *validation.Validator
	now    func() time.Time
}

func NewAuthService(store AccountStore, cfg AuthConfig, events queue.Publisher, v *validation.Validator) *AuthService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &AuthService{store: store, cfg: cfg, events: events, v: v, now: time.Now}
}

type RegisterInput struct {
	Name            string `json:"name" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=20,strongpassword"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (in *RegisterInput) normalize() {
	in.Name = strings.ToLower(strings.TrimSpace(in.Name))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

// CreateAccountInput is RegisterInput with an explicit role, used by admins
// and the bootstrap command.
type CreateAccountInput struct {
	RegisterInput
	Role string `json:"role" validate:"omitempty,oneof=user admin"`
}

type ChangePasswordInput struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password" validate:"required,min=8,max=20,strongpassword"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// ProfileInput is a partial update of the caller's own account. The password
// fields exist only so that a misdirected password change can be refused.
type ProfileInput struct {
	Name            *string `json:"name" validate:"omitempty,max=50"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"passwordConfirm"`
}

// Register creates a user-role account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.Account, utils.AccessToken, error) {
	acc, err := s.CreateAccount(ctx, CreateAccountInput{RegisterInput: in, Role: string(model.RoleUser)})
	if err != nil {
		return nil, utils.AccessToken{}, err
	}
	tok, err := s.issue(acc.ID)
	if err != nil {
		return nil, utils.AccessToken{}, err
	}
	return acc, tok, nil
}

// CreateAccount validates and persists a new account with the given role.
func (s *AuthService) CreateAccount(ctx context.Context, in CreateAccountInput) (*model.Account, error) {
	in.normalize()
	if err := s.v.Validate(in); err != nil {
		return nil, err
	}
	role, err := model.ParseRole(in.Role)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	acc := &model.Account{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: role}
	if err := s.store.Create(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, apperr.Validation(MsgEmailExists)
		}
		return nil, apperr.Internal(err)
	}
	s.events.Publish(ctx, queue.Event{Type: queue.AccountRegistered, AccountID: acc.ID, OccurredAt: s.now().UTC()})
	return acc, nil
}

// Login returns a fresh token. Unknown email and wrong password produce the
// same error, and take comparable time.
func (s *AuthService) Login(ctx context.Context, email, password string) (utils.AccessToken, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return utils.AccessToken{}, apperr.Validation(MsgMissingLogin)
	}
	acc, err := s.store.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.VerifyPassword("", password)
		return utils.AccessToken{}, apperr.Authentication(MsgBadCredentials)
	case err != nil:
		return utils.AccessToken{}, apperr.Internal(err)
	}
	if !utils.VerifyPassword(acc.PasswordHash, password) {
		return utils.AccessToken{}, apperr.Authentication(MsgBadCredentials)
	}
	return s.issue(acc.ID)
}

// Authenticate resolves a raw bearer token to its account.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*model.Account, error) {
	if raw == "" {
		return nil, apperr.Authentication(MsgNotLoggedIn)
	}
	claims, err := utils.ParseAccessToken(s.cfg.Secret, raw, s.now)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Authentication(MsgExpiredToken)
		}
		return nil, apperr.Authentication(MsgInvalidToken)
	}
	acc, err := s.store.GetByID(ctx, claims.Subject)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Authentication(MsgAccountGone)
	case err != nil:
		return nil, apperr.Internal(err)
	}
	if acc.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, apperr.Authentication(MsgPasswordChanged)
	}
	return acc, nil
}

// Authorize fails unless the account's role is in allowed.
func (s *AuthService) Authorize(acc *model.Account, allowed model.RoleSet) error {
	if acc == nil || !allowed.Has(acc.Role) {
		return apperr.Authorization(MsgForbidden)
	}
	return nil
}

// ChangePassword replaces the password of acc and returns a token that
// stays valid after the change. Tokens issued before the change second are
// rejected by Authenticate from then on.
func (s *AuthService) ChangePassword(ctx context.Context, acc *model.Account, in ChangePasswordInput) (utils.AccessToken, error) {
	if !utils.VerifyPassword(acc.PasswordHash, in.PasswordCurrent) {
		return utils.AccessToken{}, apperr.Authentication(MsgWrongPassword)
	}
	if err := s.v.Validate(in); err != nil {
		return utils.AccessToken{}, err
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return utils.AccessToken{}, apperr.Internal(err)
	}
	changedAt := s.now().UTC().Truncate(time.Millisecond)
	if err := s.store.UpdatePassword(ctx, acc.ID, hash, changedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.AccessToken{}, apperr.Authentication(MsgAccountGone)
		}
		return utils.AccessToken{}, apperr.Internal(err)
	}
	acc.PasswordHash = hash
	acc.PasswordChangedAt = &changedAt
	s.events.Publish(ctx, queue.Event{Type: queue.AccountPasswordChanged, AccountID: acc.ID, OccurredAt: changedAt})
	return s.issue(acc.ID)
}

// UpdateProfile applies name and email changes to the caller's account.
func (s *AuthService) UpdateProfile(ctx context.Context, acc *model.Account, in ProfileInput) (*model.Account, error) {
	if in.Password != "" || in.PasswordConfirm != "" {
		return nil, apperr.Validation(MsgNotPasswordRoute)
	}
	if in.Name != nil {
		n := strings.ToLower(strings.TrimSpace(*in.Name))
		in.Name = &n
	}
	if in.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &e
	}
	if err := s.v.Validate(in); err != nil {
		return nil, err
	}
	next := *acc
	if in.Name != nil && *in.Name != "" {
		next.Name = *in.Name
	}
	if in.Email != nil && *in.Email != "" {
		next.Email = *in.Email
	}
	if err := saveAccount(ctx, s.store, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *AuthService) issue(accountID string) (utils.AccessToken, error) {
	tok, err := utils.NewAccessToken(s.cfg.Secret, accountID, s.now(), s.cfg.TTL)
	if err != nil {
		return utils.AccessToken{}, apperr.Internal(err)
	}
	return tok, nil
}

func saveAccount(ctx context.Context, store AccountStore, a *model.Account) error {
	err := store.Update(ctx, a)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrEmailExists):
		return apperr.Validation(MsgEmailExists)
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("no user found with that id")
	default:
		return apperr.Internal(err)
	}
}
