// Package enrich decorates a trip with live weather, local food and an
// exchange rate. Every lookup degrades to an unavailable Result on any
// failure: enrichment never fails the request it decorates.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/travel-planner/internal/apperr"
	"github.com/iliyamo/travel-planner/internal/config"
	"github.com/iliyamo/travel-planner/internal/logging"
)

// forecastHorizon is how far ahead the climate forecast reaches.
const forecastHorizon = 30 * 24 * time.Hour

// Result marks whether a lookup succeeded. Data is the zero value when it
// did not.
type Result[T any] struct {
	Available bool `json:"available"`
	Data      T    `json:"data"`
}

func ok[T any](v T) Result[T] { return Result[T]{Available: true, Data: v} }

type WeatherDay struct {
	Date     string  `json:"date"`
	Dt       int64   `json:"dt"`
	Temp     Temp    `json:"temp"`
	Humidity float64 `json:"humidity"`
	Weather  []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

type Temp struct {
	Day float64 `json:"day"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Meal struct {
	ID    string `json:"idMeal"`
	Name  string `json:"strMeal"`
	Thumb string `json:"strMealThumb"`
}

type Rate struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

// Enrichment is attached to a single-trip response.
type Enrichment struct {
	Weather  Result[[]WeatherDay] `json:"weather"`
	Food     Result[[]Meal]       `json:"food"`
	Currency Result[*Rate]        `json:"currency"`
}

// Request carries the trip attributes and the caller's options. Start and
// End are calendar days; a nil bound disables the weather lookup.
type Request struct {
	Location     string
	Nationality  string
	CurrencyCode string
	BaseCurrency string
	Start, End   *time.Time
}

type Client struct {
	cfg  config.EnrichConfig
	http *http.Client
	log  logging.Logger
	now  func() time.Time
}

func New(cfg config.EnrichConfig, log logging.Logger) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log, now: time.Now}
}

// Enrich runs the three lookups concurrently.
func (c *Client) Enrich(ctx context.Context, req Request) Enrichment {
	var out Enrichment
	var g errgroup.Group
	g.Go(func() error {
		out.Weather = c.Weather(ctx, req.Location, req.Start, req.End)
		return nil
	})
	g.Go(func() error {
		out.Food = c.Food(ctx, req.Nationality)
		return nil
	})
	g.Go(func() error {
		base := req.BaseCurrency
		if base == "" {
			base = c.cfg.BaseCurrency
		}
		out.Currency = c.Currency(ctx, base, req.CurrencyCode)
		return nil
	})
	_ = g.Wait()
	return out
}

// Weather returns the forecast days within [start, end]. A start beyond the
// forecast horizon is an available, empty result.
func (c *Client) Weather(ctx context.Context, location string, start, end *time.Time) Result[[]WeatherDay] {
	if c.cfg.WeatherAPIKey == "" || location == "" || start == nil || end == nil || end.Before(*start) {
		return Result[[]WeatherDay]{}
	}
	if start.After(c.now().Add(forecastHorizon)) {
		return ok([]WeatherDay{})
	}
	q := url.Values{"q": {location}, "appid": {c.cfg.WeatherAPIKey}, "units": {"metric"}}
	var body struct {
		List []WeatherDay `json:"list"`
	}
	if err := c.getJSON(ctx, c.cfg.WeatherBaseURL+"?"+q.Encode(), &body); err != nil {
		c.degrade(ctx, "weather", err)
		return Result[[]WeatherDay]{}
	}
	from, to := day(*start), day(*end)
	days := make([]WeatherDay, 0, len(body.List))
	for _, d := range body.List {
		at := day(time.Unix(d.Dt, 0))
		if at.Before(from) || at.After(to) {
			continue
		}
		d.Date = at.Format(time.DateOnly)
		days = append(days, d)
	}
	return ok(days)
}

// Food lists dishes of the given cuisine.
func (c *Client) Food(ctx context.Context, nationality string) Result[[]Meal] {
	if c.cfg.MealAPIKey == "" || nationality == "" {
		return Result[[]Meal]{}
	}
	u := fmt.Sprintf("%s/%s/filter.php?%s", strings.TrimRight(c.cfg.MealBaseURL, "/"),
		url.PathEscape(c.cfg.MealAPIKey), url.Values{"a": {nationality}}.Encode())
	var body struct {
		Meals []Meal `json:"meals"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		c.degrade(ctx, "food", err)
		return Result[[]Meal]{}
	}
	if body.Meals == nil {
		body.Meals = []Meal{}
	}
	return ok(body.Meals)
}

// Currency returns the rate converting one unit of from into to.
func (c *Client) Currency(ctx context.Context, from, to string) Result[*Rate] {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return Result[*Rate]{}
	}
	if from == to {
		return ok(&Rate{From: from, To: to, Rate: 1})
	}
	if c.cfg.CurrencyAPIKey == "" {
		return Result[*Rate]{}
	}
	pair := from + "_" + to
	q := url.Values{"q": {pair}, "compact": {"ultra"}, "apiKey": {c.cfg.CurrencyAPIKey}}
	var body map[string]float64
	if err := c.getJSON(ctx, c.cfg.CurrencyBaseURL+"?"+q.Encode(), &body); err != nil {
		c.degrade(ctx, "currency", err)
		return Result[*Rate]{}
	}
	rate, found := body[pair]
	if !found {
		c.degrade(ctx, "currency", fmt.Errorf("pair %s missing from response", pair))
		return Result[*Rate]{}
	}
	return ok(&Rate{From: from, To: to, Rate: rate})
}

// getJSON fails with an apperr.ErrUpstream error naming the provider host.
func (c *Client) getJSON(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	provider := req.URL.Host
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Upstream(provider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return apperr.Upstream(provider, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(dst); err != nil {
		return apperr.Upstream(provider, fmt.Errorf("decode: %w", err))
	}
	return nil
}

func (c *Client) degrade(ctx context.Context, lookup string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	c.log.Warn(ctx, "enrichment unavailable", "lookup", lookup, "error", err)
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD query value. Empty input yields nil.
func ParseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return &t, nil
}
