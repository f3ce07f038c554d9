package handler

import (
	"context"
	"net/url"

	"github.com/iliyamo/travel-planner/internal/apperr"
	"github.com/iliyamo/travel-planner/internal/enrich"
	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/repository"
	"github.com/iliyamo/travel-planner/internal/service"
	"github.com/iliyamo/travel-planner/internal/utils"
)

type fakeCreds struct {
	registered service.RegisterInput
	err        error
}

func (f *fakeCreds) Register(_ context.Context, in service.RegisterInput) (*model.Account, utils.AccessToken, error) {
	f.registered = in
	if f.err != nil {
		return nil, utils.AccessToken{}, f.err
	}
	return &model.Account{ID: "acc-1", Name: in.Name, Email: in.Email, PasswordHash: "$2a$secret", Role: model.RoleUser},
		utils.AccessToken{Token: "tok-signup"}, nil
}

func (f *fakeCreds) Login(_ context.Context, email, password string) (utils.AccessToken, error) {
	if email != "ada@example.com" || password != "Passw0rd!" {
		return utils.AccessToken{}, apperr.Authentication(service.MsgBadCredentials)
	}
	return utils.AccessToken{Token: "tok-login"}, nil
}

func (f *fakeCreds) ChangePassword(_ context.Context, acc *model.Account, in service.ChangePasswordInput) (utils.AccessToken, error) {
	if in.PasswordCurrent != "Passw0rd!" {
		return utils.AccessToken{}, apperr.Authentication(service.MsgWrongPassword)
	}
	return utils.AccessToken{Token: "tok-" + acc.ID}, nil
}

func (f *fakeCreds) UpdateProfile(_ context.Context, acc *model.Account, in service.ProfileInput) (*model.Account, error) {
	if in.Password != "" {
		return nil, apperr.Validation(service.MsgNotPasswordRoute)
	}
	next := *acc
	if in.Name != nil {
		next.Name = *in.Name
	}
	return &next, nil
}

func (f *fakeCreds) CreateAccount(_ context.Context, in service.CreateAccountInput) (*model.Account, error) {
	return &model.Account{ID: "acc-2", Email: in.Email, Role: model.Role(in.Role)}, nil
}

type fakeTrips struct {
	trips     map[string]*model.Trip
	lastQ     repository.TripSearchQuery
	lastParam url.Values
	deleted   []string
}

func (f *fakeTrips) List(_ context.Context, params url.Values) (repository.Page, error) {
	f.lastParam = params
	return repository.Page{Items: []repository.Document{{"id": "t1"}}, Total: 7}, nil
}

func (f *fakeTrips) Search(_ context.Context, q repository.TripSearchQuery) ([]model.Trip, int64, error) {
	f.lastQ = q
	return []model.Trip{}, 0, nil
}

func (f *fakeTrips) Get(_ context.Context, id string) (*model.Trip, error) {
	t, ok := f.trips[id]
	if !ok {
		return nil, apperr.NotFound("no trip found with that id")
	}
	return t, nil
}

func (f *fakeTrips) Create(_ context.Context, t *model.Trip, _ string) error {
	t.ID = "t-new"
	return nil
}

func (f *fakeTrips) Update(ctx context.Context, id string, patch model.TripPatch, _ string) (*model.Trip, error) {
	t, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(t)
	return t, nil
}

func (f *fakeTrips) Delete(_ context.Context, id, _ string) error {
	if _, ok := f.trips[id]; !ok {
		return apperr.NotFound("no trip found with that id")
	}
	delete(f.trips, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeEnricher struct{ got enrich.Request }

func (f *fakeEnricher) Enrich(_ context.Context, req enrich.Request) enrich.Enrichment {
	f.got = req
	return enrich.Enrichment{Food: enrich.Result[[]enrich.Meal]{Available: true, Data: []enrich.Meal{{Name: "ramen"}}}}
}

type countingCache struct{ n int }

func (c *countingCache) Invalidate(context.Context) error { c.n++; return nil }

type fakeAccounts struct {
	byID   map[string]*model.Account
	avatar string
}

func (f *fakeAccounts) List(context.Context, url.Values) (repository.Page, error) {
	return repository.Page{Items: []repository.Document{}, Total: 0}, nil
}

func (f *fakeAccounts) Get(_ context.Context, id string) (*model.Account, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("no user found with that id")
	}
	return a, nil
}

func (f *fakeAccounts) Update(ctx context.Context, id string, in service.AccountUpdate) (*model.Account, error) {
	if in.Password != "" {
		return nil, apperr.Validation(service.MsgNotPasswordRoute)
	}
	return f.Get(ctx, id)
}

func (f *fakeAccounts) Delete(ctx context.Context, id, _ string) error {
	_, err := f.Get(ctx, id)
	return err
}

func (f *fakeAccounts) SetAvatar(_ context.Context, acc *model.Account, key string) error {
	f.avatar = key
	acc.Avatar = &key
	return nil
}

type fakeAvatars struct{}

func (fakeAvatars) PresignUpload(_ context.Context, accountID string) (string, string, error) {
	return "avatars/" + accountID + "/k", "https://s3.test/put", nil
}

func (fakeAvatars) PresignDownload(_ context.Context, key string) (string, error) {
	return "https://s3.test/get/" + key, nil
}
