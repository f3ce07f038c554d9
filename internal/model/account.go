// Package model holds the persisted entities of the travel planner.
package model

import "time"

// Account mirrors a row of the accounts table. PasswordHash never leaves the
// process: it has no JSON representation.
type Account struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Role              Role       `json:"role"`
	Avatar            *string    `json:"avatar,omitempty"`
	PasswordChangedAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// ChangedPasswordAfter reports whether the password was changed after a token
// issued at iat. Both sides are compared in milliseconds, the resolution of
// the token's iat claim and of the stored timestamp.
func (a *Account) ChangedPasswordAfter(iat time.Time) bool {
	if a.PasswordChangedAt == nil {
		return false
	}
	return iat.UnixMilli() < a.PasswordChangedAt.UnixMilli()
}
