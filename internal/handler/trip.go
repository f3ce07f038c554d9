package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-planner/internal/apperr"
	"github.com/iliyamo/travel-planner/internal/enrich"
	"github.com/iliyamo/travel-planner/internal/logging"
	"github.com/iliyamo/travel-planner/internal/middleware"
	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/query"
	"github.com/iliyamo/travel-planner/internal/repository"
)

// Trips is implemented by *service.TripService.
type Trips interface {
	List(ctx context.Context, params url.Values) (repository.Page, error)
	Search(ctx context.Context, q repository.TripSearchQuery) ([]model.Trip, int64, error)
	Get(ctx context.Context, id string) (*model.Trip, error)
	Create(ctx context.Context, t *model.Trip, actorID string) error
	Update(ctx context.Context, id string, patch model.TripPatch, actorID string) (*model.Trip, error)
	Delete(ctx context.Context, id, actorID string) error
}

type Enricher interface {
	Enrich(ctx context.Context, req enrich.Request) enrich.Enrichment
}

// CacheInvalidator drops cached public listings after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type TripHandler struct {
	trips    Trips
	enricher Enricher
	cache    CacheInvalidator
	log      logging.Logger
}

func NewTripHandler(trips Trips, enricher Enricher, cache CacheInvalidator, log logging.Logger) *TripHandler {
	return &TripHandler{trips: trips, enricher: enricher, cache: cache, log: log}
}

// TripDetail is a trip together with its live enrichment.
type TripDetail struct {
	*model.Trip
	Enrichment enrich.Enrichment `json:"enrichment"`
}

// List serves GET /trips with filtering, sorting, projection and paging
// taken from the query string.
func (h *TripHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	page, err := h.trips.List(ctx, c.QueryParams())
	if err != nil {
		return err
	}
	return okList(c, "trips retrieved successfully", len(page.Items), page.Total, page.Items)
}

// Search serves GET /trips/search?destination=&maxDailyCost=&page=&limit=.
func (h *TripHandler) Search(c echo.Context) error {
	q := repository.TripSearchQuery{
		Destination: strings.TrimSpace(c.QueryParam("destination")),
		Page:        atoiOr(c.QueryParam(query.ParamPage), query.DefaultPage),
		PageSize:    min(atoiOr(c.QueryParam(query.ParamLimit), query.DefaultLimit), query.MaxLimit),
	}
	if raw := c.QueryParam("maxDailyCost"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return apperr.Validationf("invalid maxDailyCost %q", raw)
		}
		q.MaxDailyCost = v
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	trips, total, err := h.trips.Search(ctx, q)
	if err != nil {
		return err
	}
	return okList(c, "trips retrieved successfully", len(trips), total, trips)
}

// Get returns one trip decorated with weather for ?startDate..endDate, local
// food and the rate from ?currency (or the default base) to the trip's
// currency.
func (h *TripHandler) Get(c echo.Context) error {
	start, err := enrich.ParseDay(c.QueryParam("startDate"))
	if err != nil {
		return apperr.Validation(err.Error())
	}
	end, err := enrich.ParseDay(c.QueryParam("endDate"))
	if err != nil {
		return apperr.Validation(err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.trips.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	detail := TripDetail{Trip: t}
	if h.enricher != nil {
		detail.Enrichment = h.enricher.Enrich(ctx, enrich.Request{
			Location:     t.Location,
			Nationality:  t.Nationality,
			CurrencyCode: t.CurrencyCode,
			BaseCurrency: c.QueryParam("currency"),
			Start:        start,
			End:          end,
		})
	}
	return ok(c, http.StatusOK, "trip retrieved successfully", detail)
}

func (h *TripHandler) Create(c echo.Context) error {
	var t model.Trip
	if err := bind(c, &t); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.trips.Create(ctx, &t, actorID(c)); err != nil {
		return err
	}
	h.invalidate(ctx)
	return ok(c, http.StatusCreated, "trip created successfully", t)
}

// Update applies a partial update; omitted fields keep their values.
func (h *TripHandler) Update(c echo.Context) error {
	var patch model.TripPatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.trips.Update(ctx, c.Param("id"), patch, actorID(c))
	if err != nil {
		return err
	}
	h.invalidate(ctx)
	return ok(c, http.StatusOK, "trip updated successfully", t)
}

func (h *TripHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.trips.Delete(ctx, c.Param("id"), actorID(c)); err != nil {
		return err
	}
	h.invalidate(ctx)
	return c.NoContent(http.StatusNoContent)
}

func (h *TripHandler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.log.Warn(ctx, "cache invalidation failed", "error", err)
	}
}

func actorID(c echo.Context) string {
	if acc := middleware.CurrentAccount(c); acc != nil {
		return acc.ID
	}
	return ""
}

func atoiOr(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
