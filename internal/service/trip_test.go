package service

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-planner/internal/apperr"
	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/query"
	"github.com/iliyamo/travel-planner/internal/queue"
	"github.com/iliyamo/travel-planner/internal/repository"
	"github.com/iliyamo/travel-planner/internal/validation"
)

type memTrips struct {
	byID     map[string]*model.Trip
	seq      int
	lastRead query.Read
	lastQ    repository.TripSearchQuery
}

func newMemTrips() *memTrips { return &memTrips{byID: map[string]*model.Trip{}} }

func (m *memTrips) Create(_ context.Context, t *model.Trip) error {
	m.seq++
	t.ID = fmt.Sprintf("trip-%d", m.seq)
	t.Version = 1
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTrips) GetByID(_ context.Context, id string) (*model.Trip, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTrips) Update(_ context.Context, t *model.Trip) error {
	if _, ok := m.byID[t.ID]; !ok {
		return repository.ErrNotFound
	}
	t.Version++
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTrips) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memTrips) List(_ context.Context, read query.Read) (repository.Page, error) {
	m.lastRead = read
	return repository.Page{Items: []repository.Document{}, Total: 0}, nil
}

func (m *memTrips) Search(_ context.Context, q repository.TripSearchQuery) ([]model.Trip, int64, error) {
	m.lastQ = q
	return nil, 0, nil
}

func sampleTrip() *model.Trip {
	return &model.Trip{
		DestinationName: " Kyoto ", Location: "Kyoto, Japan", Continent: "Asia",
		Language: "Japanese", Nationality: "Japanese", Images: []string{"kyoto.jpg"},
		Description: "temples", FlightCost: 900, AccommodationCost: 80, MealCost: 30,
		VisaCost: 0, TransportationCost: 10, CurrencyCode: "jpy",
		TransportationModes: []string{"Train"}, VisaRequirements: "none for 90 days",
		TimeZone: "Asia/Tokyo", BestTimeToVisit: "Spring", BestPlacesToVisit: []string{"Gion"},
	}
}

func newTrips() (*TripService, *memTrips, *recordingPublisher) {
	store := newMemTrips()
	pub := &recordingPublisher{}
	return NewTripService(store, pub, validation.New()), store, pub
}

func TestTripService_CreateNormalizesAndDerivesDailyCost(t *testing.T) {
	svc, store, pub := newTrips()
	tr := sampleTrip()

	require.NoError(t, svc.Create(context.Background(), tr, "admin-1"))
	assert.Equal(t, "kyoto", tr.DestinationName)
	assert.Equal(t, "JPY", tr.CurrencyCode)
	assert.InDelta(t, 1020, tr.DailyCost, 0.001)
	assert.Contains(t, store.byID, tr.ID)
	assert.Equal(t, []queue.EventType{queue.TripCreated}, pub.types())

	bad := sampleTrip()
	bad.Continent = "atlantis"
	bad.Images = nil
	err := svc.Create(context.Background(), bad, "admin-1")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "continent")
	assert.Contains(t, err.Error(), "images")
}

func TestTripService_UpdateIsPartial(t *testing.T) {
	svc, _, _ := newTrips()
	tr := sampleTrip()
	require.NoError(t, svc.Create(context.Background(), tr, ""))

	meal := 50.0
	got, err := svc.Update(context.Background(), tr.ID, model.TripPatch{MealCost: &meal}, "")
	require.NoError(t, err)
	assert.Equal(t, "kyoto", got.DestinationName)
	assert.InDelta(t, 1040, got.DailyCost, 0.001)
	assert.Equal(t, 2, got.Version)

	cont := "mars"
	_, err = svc.Update(context.Background(), tr.ID, model.TripPatch{Continent: &cont}, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Update(context.Background(), "missing", model.TripPatch{MealCost: &meal}, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTripService_DeleteMissingIsNotFound(t *testing.T) {
	svc, _, pub := newTrips()
	err := svc.Delete(context.Background(), "nope", "admin-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, pub.types())
}

func TestTripService_ListShapesQuery(t *testing.T) {
	svc, store, _ := newTrips()
	params, _ := url.ParseQuery("dailyCost[lte]=500&sort=dailyCost&fields=destinationName&page=3&limit=4")

	_, err := svc.List(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, store.lastRead.Where, 1)
	assert.Equal(t, query.Lte, store.lastRead.Where[0].Op)
	assert.Equal(t, 8, store.lastRead.Skip)
	assert.Equal(t, 4, store.lastRead.Limit)

	params, _ = url.ParseQuery("password=x")
	_, err = svc.List(context.Background(), params)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestTripService_SearchRejectsNegativeCeiling(t *testing.T) {
	svc, store, _ := newTrips()
	_, _, err := svc.Search(context.Background(), repository.TripSearchQuery{MaxDailyCost: -1})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = svc.Search(context.Background(), repository.TripSearchQuery{Destination: "par", Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, "par", store.lastQ.Destination)
}
