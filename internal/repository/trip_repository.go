package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/query"
)

// TripSchema exposes every trip column to list reads. version is kept out of
// the default projection.
var TripSchema = query.NewSchema("trips", "-createdAt",
	query.Field{Name: "id", Column: "id"},
	query.Field{Name: "destinationName", Column: "destination_name"},
	query.Field{Name: "location", Column: "location"},
	query.Field{Name: "continent", Column: "continent"},
	query.Field{Name: "language", Column: "language"},
	query.Field{Name: "nationality", Column: "nationality"},
	query.Field{Name: "images", Column: "images", Kind: query.List},
	query.Field{Name: "description", Column: "description"},
	query.Field{Name: "flightCost", Column: "flight_cost", Kind: query.Number},
	query.Field{Name: "accommodationCost", Column: "accommodation_cost", Kind: query.Number},
	query.Field{Name: "mealCost", Column: "meal_cost", Kind: query.Number},
	query.Field{Name: "visaCost", Column: "visa_cost", Kind: query.Number},
	query.Field{Name: "transportationCost", Column: "transportation_cost", Kind: query.Number},
	query.Field{Name: "dailyCost", Column: "daily_cost", Kind: query.Number},
	query.Field{Name: "currencyCode", Column: "currency_code"},
	query.Field{Name: "transportationModes", Column: "transportation_modes", Kind: query.List},
	query.Field{Name: "visaIsRequired", Column: "visa_is_required", Kind: query.Bool},
	query.Field{Name: "visaRequirements", Column: "visa_requirements"},
	query.Field{Name: "timeZone", Column: "time_zone"},
	query.Field{Name: "bestTimeToVisit", Column: "best_time_to_visit"},
	query.Field{Name: "bestPlacesToVisit", Column: "best_places_to_visit", Kind: query.List},
	query.Field{Name: "createdAt", Column: "created_at", Kind: query.Time},
	query.Field{Name: "updatedAt", Column: "updated_at", Kind: query.Time},
	query.Field{Name: "version", Column: "version", Kind: query.Number, Hidden: true},
)

const tripColumns = "id, destination_name, location, continent, language, nationality, images, description, " +
	"flight_cost, accommodation_cost, meal_cost, visa_cost, transportation_cost, daily_cost, currency_code, " +
	"transportation_modes, visa_is_required, visa_requirements, time_zone, best_time_to_visit, best_places_to_visit, " +
	"version, created_at, updated_at"

type TripRepo struct{ db DBTX }

func NewTripRepo(db DBTX) *TripRepo { return &TripRepo{db: db} }

// Create assigns an id and timestamps and inserts t at version 0.
func (r *TripRepo) Create(ctx context.Context, t *model.Trip) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	t.CreatedAt, t.UpdatedAt, t.Version = now, now, 0

	lists, err := encodeLists(t)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO trips ("+tripColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		t.ID, t.DestinationName, t.Location, t.Continent, t.Language, t.Nationality, lists[0], t.Description,
		t.FlightCost, t.AccommodationCost, t.MealCost, t.VisaCost, t.TransportationCost, t.DailyCost, t.CurrencyCode,
		lists[1], t.VisaIsRequired, t.VisaRequirements, t.TimeZone, t.BestTimeToVisit, lists[2],
		t.Version, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

func (r *TripRepo) GetByID(ctx context.Context, id string) (*model.Trip, error) {
	t, err := scanTrip(r.db.QueryRowContext(ctx, "SELECT "+tripColumns+" FROM trips WHERE id = ? LIMIT 1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Update writes every mutable column and bumps the version.
func (r *TripRepo) Update(ctx context.Context, t *model.Trip) error {
	lists, err := encodeLists(t)
	if err != nil {
		return err
	}
	t.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.db.ExecContext(ctx, `UPDATE trips SET
		destination_name = ?, location = ?, continent = ?, language = ?, nationality = ?, images = ?, description = ?,
		flight_cost = ?, accommodation_cost = ?, meal_cost = ?, visa_cost = ?, transportation_cost = ?, daily_cost = ?,
		currency_code = ?, transportation_modes = ?, visa_is_required = ?, visa_requirements = ?, time_zone = ?,
		best_time_to_visit = ?, best_places_to_visit = ?, version = version + 1, updated_at = ?
		WHERE id = ?`,
		t.DestinationName, t.Location, t.Continent, t.Language, t.Nationality, lists[0], t.Description,
		t.FlightCost, t.AccommodationCost, t.MealCost, t.VisaCost, t.TransportationCost, t.DailyCost,
		t.CurrencyCode, lists[1], t.VisaIsRequired, t.VisaRequirements, t.TimeZone,
		t.BestTimeToVisit, lists[2], t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update trip: %w", err)
	}
	if err := affectedOne(res); err != nil {
		return err
	}
	t.Version++
	return nil
}

func (r *TripRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM trips WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	return affectedOne(res)
}

// List runs a shaped read built against TripSchema.
func (r *TripRepo) List(ctx context.Context, read query.Read) (Page, error) {
	return list(ctx, r.db, read)
}

// TripSearchQuery narrows trips by a destination substring and a daily cost
// ceiling. Zero values disable the matching filter.
type TripSearchQuery struct {
	Destination  string
	MaxDailyCost float64
	Page         int
	PageSize     int
}

// Search returns one page of matching trips, cheapest first, and the total
// number of matches.
func (r *TripRepo) Search(ctx context.Context, q TripSearchQuery) ([]model.Trip, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = query.DefaultLimit
	}
	where := []string{}
	args := []any{}
	if q.Destination != "" {
		where = append(where, "destination_name LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(q.Destination))+"%")
	}
	if q.MaxDailyCost > 0 {
		where = append(where, "daily_cost <= ?")
		args = append(args, q.MaxDailyCost)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count trips: %w", err)
	}

	offset := (q.Page - 1) * q.PageSize
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+tripColumns+" FROM trips WHERE "+cond+" ORDER BY daily_cost ASC, destination_name ASC LIMIT ? OFFSET ?",
		append(append([]any{}, args...), q.PageSize, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search trips: %w", err)
	}
	defer rows.Close()

	out := make([]model.Trip, 0, q.PageSize)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func encodeLists(t *model.Trip) ([3][]byte, error) {
	var out [3][]byte
	for i, l := range [][]string{t.Images, t.TransportationModes, t.BestPlacesToVisit} {
		if l == nil {
			l = []string{}
		}
		b, err := json.Marshal(l)
		if err != nil {
			return out, fmt.Errorf("encode trip lists: %w", err)
		}
		out[i] = b
	}
	return out, nil
}

func scanTrip(row rowScanner) (*model.Trip, error) {
	var (
		t                     model.Trip
		images, modes, places []byte
	)
	err := row.Scan(&t.ID, &t.DestinationName, &t.Location, &t.Continent, &t.Language, &t.Nationality, &images, &t.Description,
		&t.FlightCost, &t.AccommodationCost, &t.MealCost, &t.VisaCost, &t.TransportationCost, &t.DailyCost, &t.CurrencyCode,
		&modes, &t.VisaIsRequired, &t.VisaRequirements, &t.TimeZone, &t.BestTimeToVisit, &places,
		&t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	for _, l := range []struct {
		raw []byte
		dst *[]string
	}{{images, &t.Images}, {modes, &t.TransportationModes}, {places, &t.BestPlacesToVisit}} {
		*l.dst = []string{}
		if len(l.raw) > 0 {
			if err := json.Unmarshal(l.raw, l.dst); err != nil {
				return nil, fmt.Errorf("decode trip lists: %w", err)
			}
		}
	}
	return &t, nil
}
