package service

import (
	"context"
	"errors"
	"net/url"

	"github.com/iliyamo/travel-planner/internal/apperr"
	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/query"
	"github.com/iliyamo/travel-planner/internal/queue"
	"github.com/iliyamo/travel-planner/internal/repository"
	"github.com/iliyamo/travel-planner/internal/validation"
)

const msgNoTrip = "no trip found with that id"

// TripStore is satisfied by *repository.TripRepo.
type TripStore interface {
	Create(ctx context.Context, t *model.Trip) error
	GetByID(ctx context.Context, id string) (*model.Trip, error)
	Update(ctx context.Context, t *model.Trip) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, read query.Read) (repository.Page, error)
	Search(ctx context.Context, q repository.TripSearchQuery) ([]model.Trip, int64, error)
}

type TripService struct {
	store  TripStore
	events queue.Publisher
	v      *validation.Validator
}

func NewTripService(store TripStore, events queue.Publisher, v *validation.Validator) *TripService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &TripService{store: store, events: events, v: v}
}

// List runs the query-shaped listing: filter, sort, projection and page.
func (s *TripService) List(ctx context.Context, params url.Values) (repository.Page, error) {
	read, err := query.New(repository.TripSchema, params).Filter().Sort().LimitFields().Paginate().Read()
	if err != nil {
		return repository.Page{}, err
	}
	page, err := s.store.List(ctx, read)
	if err != nil {
		return repository.Page{}, apperr.Internal(err)
	}
	return page, nil
}

func (s *TripService) Search(ctx context.Context, q repository.TripSearchQuery) ([]model.Trip, int64, error) {
	if q.MaxDailyCost < 0 {
		return nil, 0, apperr.Validation("maxDailyCost must not be negative")
	}
	trips, total, err := s.store.Search(ctx, q)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return trips, total, nil
}

func (s *TripService) Get(ctx context.Context, id string) (*model.Trip, error) {
	t, err := s.store.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.NotFound(msgNoTrip)
	case err != nil:
		return nil, apperr.Internal(err)
	}
	return t, nil
}

// Create validates and stores a new trip. Client-supplied ids are ignored.
func (s *TripService) Create(ctx context.Context, t *model.Trip, actorID string) error {
	t.ID = ""
	t.Normalize()
	if err := s.v.Validate(t); err != nil {
		return err
	}
	if err := s.store.Create(ctx, t); err != nil {
		return apperr.Internal(err)
	}
	s.events.Publish(ctx, queue.Event{Type: queue.TripCreated, TripID: t.ID, ActorID: actorID})
	return nil
}

// Update merges patch into the stored trip, re-validates the result and
// persists it. DailyCost is recomputed from the merged components.
func (s *TripService) Update(ctx context.Context, id string, patch model.TripPatch, actorID string) (*model.Trip, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(t)
	if err := s.v.Validate(t); err != nil {
		return nil, err
	}
	err = s.store.Update(ctx, t)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.NotFound(msgNoTrip)
	case err != nil:
		return nil, apperr.Internal(err)
	}
	s.events.Publish(ctx, queue.Event{Type: queue.TripUpdated, TripID: t.ID, ActorID: actorID})
	return t, nil
}

func (s *TripService) Delete(ctx context.Context, id, actorID string) error {
	err := s.store.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(msgNoTrip)
	case err != nil:
		return apperr.Internal(err)
	}
	s.events.Publish(ctx, queue.Event{Type: queue.TripDeleted, TripID: id, ActorID: actorID})
	return nil
}
