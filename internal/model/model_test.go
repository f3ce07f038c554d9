package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_JSONOmitsSecrets(t *testing.T) {
	now := time.Now()
	a := Account{ID: "a1", Name: "ann", Email: "ann@example.com", PasswordHash: "$2a$12$xyz", Role: RoleUser, PasswordChangedAt: &now}

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "$2a$12$xyz")
	assert.NotContains(t, string(raw), "password")
}

func TestAccount_ChangedPasswordAfter(t *testing.T) {
	changed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := Account{PasswordChangedAt: &changed}

	assert.True(t, a.ChangedPasswordAfter(changed.Add(-time.Second)))
	assert.True(t, a.ChangedPasswordAfter(changed.Add(-400*time.Millisecond)))
	assert.False(t, a.ChangedPasswordAfter(changed))
	assert.False(t, a.ChangedPasswordAfter(changed.Add(500*time.Millisecond)))
	assert.False(t, (&Account{}).ChangedPasswordAfter(changed))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	r, err = ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, r)

	_, err = ParseRole("owner")
	assert.Error(t, err)

	assert.True(t, Roles(RoleAdmin).Has(RoleAdmin))
	assert.False(t, Roles(RoleAdmin).Has(RoleUser))
}

func TestTrip_NormalizeAndPatch(t *testing.T) {
	tr := Trip{
		DestinationName: "  Paris ", Continent: "Europe", CurrencyCode: "eur",
		FlightCost: 500, AccommodationCost: 120, MealCost: 40, VisaCost: 0, TransportationCost: 15,
		TransportationModes: []string{" Metro "},
	}
	tr.Normalize()
	assert.Equal(t, "paris", tr.DestinationName)
	assert.Equal(t, "europe", tr.Continent)
	assert.Equal(t, "EUR", tr.CurrencyCode)
	assert.Equal(t, []string{"metro"}, tr.TransportationModes)
	assert.InDelta(t, 675, tr.DailyCost, 0.001)

	meal := 60.0
	TripPatch{MealCost: &meal}.Apply(&tr)
	assert.InDelta(t, 695, tr.DailyCost, 0.001)
	assert.Equal(t, "paris", tr.DestinationName)
}

func TestTrip_JSONHidesVersion(t *testing.T) {
	raw, err := json.Marshal(Trip{ID: "t1", DestinationName: "lima", Version: 3})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "version")

	var back Trip
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","version":9}`), &back))
	assert.Zero(t, back.Version)
}
