package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/query"
)

var tripCols = []string{
	"id", "destination_name", "location", "continent", "language", "nationality", "images", "description",
	"flight_cost", "accommodation_cost", "meal_cost", "visa_cost", "transportation_cost", "daily_cost", "currency_code",
	"transportation_modes", "visa_is_required", "visa_requirements", "time_zone", "best_time_to_visit", "best_places_to_visit",
	"version", "created_at", "updated_at",
}

func tripRow(rows *sqlmock.Rows, id, dest string, daily float64) *sqlmock.Rows {
	ts := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(id, dest, dest+", somewhere", "europe", "french", "french", []byte(`["a.jpg"]`), "nice",
		100.0, 50.0, 20.0, 0.0, 10.0, daily, "EUR",
		[]byte(`["metro","bus"]`), false, "none", "CET", "spring", []byte(`["louvre"]`),
		2, ts, ts)
}

func TestTripRepo_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepo(db)

	mock.ExpectQuery(`^SELECT id, destination_name, .* FROM trips WHERE id = \? LIMIT 1$`).
		WithArgs("t-1").
		WillReturnRows(tripRow(sqlmock.NewRows(tripCols), "t-1", "paris", 180))

	tr, err := repo.GetByID(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "paris", tr.DestinationName)
	assert.Equal(t, []string{"metro", "bus"}, tr.TransportationModes)
	assert.Equal(t, []string{"louvre"}, tr.BestPlacesToVisit)
	assert.Equal(t, 2, tr.Version)
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepo(db)

	mock.ExpectQuery(`FROM trips WHERE id = \?`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(tripCols))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTripRepo_CreateEncodesLists(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepo(db)

	tr := &model.Trip{DestinationName: "rome", Images: []string{"r.jpg"}, TransportationModes: []string{"bus"}, CurrencyCode: "EUR"}
	args := make([]driver.Value, 24)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	args[1] = "rome"
	args[6] = []byte(`["r.jpg"]`)
	args[15] = []byte(`["bus"]`)
	args[20] = []byte(`[]`)
	mock.ExpectExec(`^INSERT INTO trips \(id, destination_name`).WithArgs(args...).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), tr))
	assert.NotEmpty(t, tr.ID)
	assert.Zero(t, tr.Version)
}

func TestTripRepo_UpdateBumpsVersion(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepo(db)

	mock.ExpectExec(`(?s)^UPDATE trips SET.*version = version \+ 1.*WHERE id = \?$`).WillReturnResult(sqlmock.NewResult(0, 1))
	tr := &model.Trip{ID: "t-1", Version: 4}
	require.NoError(t, repo.Update(context.Background(), tr))
	assert.Equal(t, 5, tr.Version)

	mock.ExpectExec(`(?s)^UPDATE trips SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(context.Background(), &model.Trip{ID: "gone"}), ErrNotFound)
}

func TestTripRepo_Delete_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepo(db)

	mock.ExpectExec(`^DELETE FROM trips WHERE id = \?$`).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "gone"), ErrNotFound)
}

func TestTripRepo_Search(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM trips WHERE destination_name LIKE ? AND daily_cost <= ?")).
		WithArgs(`%pa\%r%`, 500.0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM trips WHERE destination_name LIKE \? AND daily_cost <= \? ORDER BY daily_cost ASC, destination_name ASC LIMIT \? OFFSET \?$`).
		WithArgs(`%pa\%r%`, 500.0, 20, 20).
		WillReturnRows(tripRow(sqlmock.NewRows(tripCols), "t-1", "pa%ris", 180))

	items, total, err := repo.Search(context.Background(), TripSearchQuery{Destination: "PA%R", MaxDailyCost: 500, Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "t-1", items[0].ID)
}

func TestTripRepo_List_DecodesProjectedKinds(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepo(db)

	p, err := url.ParseQuery("dailyCost[lte]=300&fields=dailyCost,images,visaIsRequired,createdAt")
	require.NoError(t, err)
	read, err := query.New(TripSchema, p).Filter().Sort().LimitFields().Paginate().Read()
	require.NoError(t, err)

	ts := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `trips` WHERE `daily_cost` <= ?")).
		WithArgs(300.0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`, `daily_cost`, `images`, `visa_is_required`, `created_at` FROM `trips` WHERE `daily_cost` <= ? ORDER BY `created_at` DESC LIMIT ? OFFSET ?")).
		WithArgs(300.0, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "daily_cost", "images", "visa_is_required", "created_at"}).
			AddRow("t-1", "180.00", []byte(`["a.jpg","b.jpg"]`), int64(1), ts))

	page, err := repo.List(context.Background(), read)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	doc := page.Items[0]
	assert.Equal(t, 180.0, doc["dailyCost"])
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, doc["images"])
	assert.Equal(t, true, doc["visaIsRequired"])
	assert.Equal(t, "2026-02-01T00:00:00Z", doc["createdAt"])
	assert.NotContains(t, doc, "version")
}

func TestTripRepo_List_PropagatesStoreError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepo(db)

	read, err := query.New(TripSchema, nil).Paginate().Read()
	require.NoError(t, err)

	boom := errors.New("too many connections")
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM`).WillReturnError(boom)

	_, err = repo.List(context.Background(), read)
	assert.ErrorIs(t, err, boom)
}
