// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account manages user records and the analytics computed over them.

It provides CRUD over the users.account table, a paginated listing, the
average-age calculator, and the demographics report (age brackets, top cities,
top occupations).

# Architecture

  - Entities: User (domain), Patch (partial update), Profile (aggregation input).
  - Engine: Age derivation, query building, bucketing and ranking are pure
    functions in age.go, query.go and stats.go.
  - Storage: [Repository] is implemented by Postgres (production) and an
    in-memory store; [ReportCache] is implemented by Redis.
*/
package account

import (
	"context"
	"encoding/json"
	"time"

	"github.com/taibuivan/userdir/pkg/pagination"
)

// # Domain Entities

// User is a stored user record.
//
// PasswordHash is never serialized. Age is derived from DateOfBirth on every
// marshal and never persisted.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DateOfBirth  time.Time `json:"dateOfBirth"`
	City         string    `json:"city"`
	Occupation   string    `json:"occupation"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MarshalJSON adds the derived age and renders dateOfBirth as a calendar date.
func (u User) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID          string    `json:"id"`
		Username    string    `json:"username"`
		Email       string    `json:"email"`
		DateOfBirth string    `json:"dateOfBirth"`
		Age         int       `json:"age"`
		City        string    `json:"city"`
		Occupation  string    `json:"occupation"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}
	return json.Marshal(wire{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DateOfBirth: u.DateOfBirth.Format(dateLayout),
		Age:         Age(u.DateOfBirth, time.Now().UTC()),
		City:        u.City,
		Occupation:  u.Occupation,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	})
}

// Patch carries the fields of a partial update. Nil means "leave unchanged".
// PasswordHash is set by the service, never by callers.
type Patch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	DateOfBirth  *time.Time
	City         *string
	Occupation   *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.PasswordHash == nil &&
		p.DateOfBirth == nil && p.City == nil && p.Occupation == nil
}

// Profile is the projection of a user needed by the aggregation engine.
type Profile struct {
	DateOfBirth time.Time
	City        string
	Occupation  string
}

// # Field Names

const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldDateOfBirth = "dateOfBirth"
	FieldCity        = "city"
	FieldOccupation  = "occupation"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
	FieldID          = "id"
)

const dateLayout = "2006-01-02"

// entityName names users in not-found errors.
const entityName = "User"

// # Repository Contracts

// Repository defines the persistence contract for user records.
type Repository interface {
	// Create inserts a user and assigns its ID and timestamps.
	Create(context context.Context, user *User) error

	// CreateMany inserts users in one batch; all or nothing.
	CreateMany(context context.Context, users []*User) error

	// FindByID returns apperr.NotFound when no record matches.
	FindByID(context context.Context, id string) (*User, error)

	// Update applies patch and returns the stored result, or apperr.NotFound.
	Update(context context.Context, id string, patch Patch) (*User, error)

	// Delete physically removes the record, or returns apperr.NotFound.
	Delete(context context.Context, id string) error

	// Paginate returns one page of matches plus the total match count.
	Paginate(context context.Context, query Query) ([]*User, int, error)

	// Find returns every record matching criteria, unpaginated.
	Find(context context.Context, criteria Criteria) ([]*User, error)

	// AgeDistribution counts users per age bracket as of asOf.
	AgeDistribution(context context.Context, asOf time.Time) ([]AgeBracketCount, error)

	// CityStats groups users by city and returns the top limit groups.
	CityStats(context context.Context, asOf time.Time, limit int) ([]CityStat, error)

	// OccupationStats groups users by occupation and returns the top limit groups.
	OccupationStats(context context.Context, asOf time.Time, limit int) ([]OccupationStat, error)
}

// ReportCache stores computed demographics reports between writes.
//
// Reports are filed under the write generation that was current when their
// aggregation started. Invalidate moves to a new generation, so a report
// computed from data older than the last write is never served again.
type ReportCache interface {
	Generation(context context.Context) (int64, error)
	Get(context context.Context, generation int64) (*Report, bool, error)
	Set(context context.Context, generation int64, report *Report, ttl time.Duration) error
	Invalidate(context context.Context) error
}

// UserPage is the envelope returned by the listing endpoint.
type UserPage = pagination.Page[*User]
