package model

import (
	"strings"
	"time"
)

// Continents accepted for Trip.Continent.
var Continents = []string{
	"africa", "antarctica", "asia", "australia", "europe", "north america", "south america",
}

// Trip is a destination record. DailyCost is derived from the five cost
// components. Version increments on every update and is never rendered.
type Trip struct {
	ID                  string    `json:"id"`
	DestinationName     string    `json:"destinationName" validate:"required,max=100"`
	Location            string    `json:"location" validate:"required"`
	Continent           string    `json:"continent" validate:"required,oneof=africa antarctica asia australia europe 'north america' 'south america'"`
	Language            string    `json:"language" validate:"required"`
	Nationality         string    `json:"nationality" validate:"required"`
	Images              []string  `json:"images" validate:"required,min=1,dive,required"`
	Description         string    `json:"description" validate:"required"`
	FlightCost          float64   `json:"flightCost" validate:"gte=0"`
	AccommodationCost   float64   `json:"accommodationCost" validate:"gte=0"`
	MealCost            float64   `json:"mealCost" validate:"gte=0"`
	VisaCost            float64   `json:"visaCost" validate:"gte=0"`
	TransportationCost  float64   `json:"transportationCost" validate:"gte=0"`
	DailyCost           float64   `json:"dailyCost"`
	CurrencyCode        string    `json:"currencyCode" validate:"required,len=3,alpha"`
	TransportationModes []string  `json:"transportationModes" validate:"required,min=1,dive,required"`
	VisaIsRequired      bool      `json:"visaIsRequired"`
	VisaRequirements    string    `json:"visaRequirements" validate:"required"`
	TimeZone            string    `json:"timeZone" validate:"required"`
	BestTimeToVisit     string    `json:"bestTimeToVisit" validate:"required"`
	BestPlacesToVisit   []string  `json:"bestPlacesToVisit" validate:"required,min=1,dive,required"`
	Version             int       `json:"-"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Normalize trims every string field, lower-cases the descriptive ones,
// upper-cases the currency code and recomputes DailyCost.
func (t *Trip) Normalize() {
	lower := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	t.DestinationName = lower(t.DestinationName)
	t.Location = lower(t.Location)
	t.Continent = lower(t.Continent)
	t.Language = lower(t.Language)
	t.Nationality = lower(t.Nationality)
	t.BestTimeToVisit = lower(t.BestTimeToVisit)
	t.Description = strings.TrimSpace(t.Description)
	t.VisaRequirements = strings.TrimSpace(t.VisaRequirements)
	t.TimeZone = strings.TrimSpace(t.TimeZone)
	t.CurrencyCode = strings.ToUpper(strings.TrimSpace(t.CurrencyCode))
	for i := range t.Images {
		t.Images[i] = strings.TrimSpace(t.Images[i])
	}
	for i := range t.TransportationModes {
		t.TransportationModes[i] = lower(t.TransportationModes[i])
	}
	for i := range t.BestPlacesToVisit {
		t.BestPlacesToVisit[i] = lower(t.BestPlacesToVisit[i])
	}
	t.DailyCost = t.FlightCost + t.AccommodationCost + t.MealCost + t.VisaCost + t.TransportationCost
}

// TripPatch is a partial update. Nil fields are left untouched.
type TripPatch struct {
	DestinationName     *string   `json:"destinationName"`
	Location            *string   `json:"location"`
	Continent           *string   `json:"continent"`
	Language            *string   `json:"language"`
	Nationality         *string   `json:"nationality"`
	Images              *[]string `json:"images"`
	Description         *string   `json:"description"`
	FlightCost          *float64  `json:"flightCost"`
	AccommodationCost   *float64  `json:"accommodationCost"`
	MealCost            *float64  `json:"mealCost"`
	VisaCost            *float64  `json:"visaCost"`
	TransportationCost  *float64  `json:"transportationCost"`
	CurrencyCode        *string   `json:"currencyCode"`
	TransportationModes *[]string `json:"transportationModes"`
	VisaIsRequired      *bool     `json:"visaIsRequired"`
	VisaRequirements    *string   `json:"visaRequirements"`
	TimeZone            *string   `json:"timeZone"`
	BestTimeToVisit     *string   `json:"bestTimeToVisit"`
	BestPlacesToVisit   *[]string `json:"bestPlacesToVisit"`
}

// Apply copies the set fields onto t and re-normalizes it, so DailyCost
// always reflects the merged cost components.
func (p TripPatch) Apply(t *Trip) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setL := func(dst *[]string, src *[]string) {
		if src != nil {
			*dst = append([]string(nil), (*src)...)
		}
	}
	set(&t.DestinationName, p.DestinationName)
	set(&t.Location, p.Location)
	set(&t.Continent, p.Continent)
	set(&t.Language, p.Language)
	set(&t.Nationality, p.Nationality)
	setL(&t.Images, p.Images)
	set(&t.Description, p.Description)
	setF(&t.FlightCost, p.FlightCost)
	setF(&t.AccommodationCost, p.AccommodationCost)
	setF(&t.MealCost, p.MealCost)
	setF(&t.VisaCost, p.VisaCost)
	setF(&t.TransportationCost, p.TransportationCost)
	set(&t.CurrencyCode, p.CurrencyCode)
	setL(&t.TransportationModes, p.TransportationModes)
	if p.VisaIsRequired != nil {
		t.VisaIsRequired = *p.VisaIsRequired
	}
	set(&t.VisaRequirements, p.VisaRequirements)
	set(&t.TimeZone, p.TimeZone)
	set(&t.BestTimeToVisit, p.BestTimeToVisit)
	setL(&t.BestPlacesToVisit, p.BestPlacesToVisit)
	t.Normalize()
}
