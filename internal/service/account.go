package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/iliyamo/travel-planner/internal/apperr"
	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/query"
	"github.com/iliyamo/travel-planner/internal/queue"
	"github.com/iliyamo/travel-planner/internal/repository"
	"github.com/iliyamo/travel-planner/internal/validation"
)

const msgNoAccount = "no user found with that id"

// AccountDirectory extends AccountStore with the admin operations.
type AccountDirectory interface {
	AccountStore
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, read query.Read) (repository.Page, error)
}

// AccountService backs the admin user endpoints.
type AccountService struct {
	store  AccountDirectory
	events queue.Publisher
	v      *validation.Validator
}

func NewAccountService(store AccountDirectory, events queue.Publisher, v *validation.Validator) *AccountService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &AccountService{store: store, events: events, v: v}
}

// AccountUpdate is an admin edit. Passwords are never changed here.
type AccountUpdate struct {
	Name            *string `json:"name" validate:"omitempty,max=50"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Role            *string `json:"role" validate:"omitempty,oneof=user admin"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"passwordConfirm"`
}

func (s *AccountService) List(ctx context.Context, params url.Values) (repository.Page, error) {
	read, err := query.New(repository.AccountSchema, params).Filter().Sort().LimitFields().Paginate().Read()
	if err != nil {
		return repository.Page{}, err
	}
	page, err := s.store.List(ctx, read)
	if err != nil {
		return repository.Page{}, apperr.Internal(err)
	}
	return page, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*model.Account, error) {
	acc, err := s.store.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.NotFound(msgNoAccount)
	case err != nil:
		return nil, apperr.Internal(err)
	}
	return acc, nil
}

func (s *AccountService) Update(ctx context.Context, id string, in AccountUpdate) (*model.Account, error) {
	if in.Password != "" || in.PasswordConfirm != "" {
		return nil, apperr.Validation(MsgNotPasswordRoute)
	}
	for _, p := range []*string{in.Name, in.Email, in.Role} {
		if p != nil {
			*p = strings.ToLower(strings.TrimSpace(*p))
		}
	}
	if err := s.v.Validate(in); err != nil {
		return nil, err
	}
	acc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && *in.Name != "" {
		acc.Name = *in.Name
	}
	if in.Email != nil && *in.Email != "" {
		acc.Email = *in.Email
	}
	if in.Role != nil && *in.Role != "" {
		acc.Role = model.Role(*in.Role)
	}
	if err := saveAccount(ctx, s.store, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *AccountService) Delete(ctx context.Context, id, actorID string) error {
	err := s.store.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(msgNoAccount)
	case err != nil:
		return apperr.Internal(err)
	}
	s.events.Publish(ctx, queue.Event{Type: queue.AccountDeleted, AccountID: id, ActorID: actorID})
	return nil
}

// SetAvatar records the object key of an uploaded avatar.
func (s *AccountService) SetAvatar(ctx context.Context, acc *model.Account, key string) error {
	next := *acc
	next.Avatar = &key
	if err := saveAccount(ctx, s.store, &next); err != nil {
		return err
	}
	acc.Avatar = &key
	return nil
}
