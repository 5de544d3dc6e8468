// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/taibuivan/userdir/internal/platform/apperr"
	"github.com/taibuivan/userdir/pkg/pointer"
	"github.com/taibuivan/userdir/pkg/slice"
	"github.com/taibuivan/userdir/pkg/uuidv7"
)

// MemoryRepository implements [Repository] over a guarded map. It backs the
// service tests and local runs without a database.
//
// Records are copied on the way in and out so callers never share state
// with the store.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
	now   func() time.Time
}

// NewMemoryRepository creates an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]*User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkEmail(user.Email, ""); err != nil {
		return err
	}
	r.insert(user)
	return nil
}

func (r *MemoryRepository) CreateMany(ctx context.Context, users []*User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(users))
	for _, user := range users {
		key := fold(user.Email)
		if _, dup := seen[key]; dup {
			return apperr.Conflict(FieldEmail, user.Email)
		}
		seen[key] = struct{}{}
		if err := r.checkEmail(user.Email, ""); err != nil {
			return err
		}
	}

	for _, user := range users {
		r.insert(user)
	}
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound(entityName)
	}
	clone := *user
	return &clone, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, patch Patch) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound(entityName)
	}

	if patch.Email != nil {
		if err := r.checkEmail(*patch.Email, id); err != nil {
			return nil, err
		}
	}

	updated := *user
	updated.Username = pointer.Fallback(patch.Username, user.Username)
	updated.Email = pointer.Fallback(patch.Email, user.Email)
	updated.PasswordHash = pointer.Fallback(patch.PasswordHash, user.PasswordHash)
	updated.DateOfBirth = pointer.Fallback(patch.DateOfBirth, user.DateOfBirth)
	updated.City = pointer.Fallback(patch.City, user.City)
	updated.Occupation = pointer.Fallback(patch.Occupation, user.Occupation)
	updated.UpdatedAt = r.now()

	r.users[id] = &updated
	clone := updated
	return &clone, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return apperr.NotFound(entityName)
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryRepository) Paginate(ctx context.Context, query Query) ([]*User, int, error) {
	r.mu.RLock()
	matches := r.match(query.Criteria)
	r.mu.RUnlock()

	compare := comparatorFor(query.SortBy)
	slices.SortFunc(matches, func(a, b *User) int {
		result := compare(a, b)
		if query.Order == SortDesc {
			result = -result
		}
		if result == 0 {
			return cmp.Compare(a.ID, b.ID)
		}
		return result
	})

	total := len(matches)
	start := max(0, min(query.Page.Offset(), total))
	end := min(start+query.Page.Limit, total)
	return matches[start:end], total, nil
}

func (r *MemoryRepository) Find(ctx context.Context, criteria Criteria) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.match(criteria)
	slices.SortFunc(matches, func(a, b *User) int { return cmp.Compare(a.ID, b.ID) })
	return matches, nil
}

func (r *MemoryRepository) AgeDistribution(ctx context.Context, asOf time.Time) ([]AgeBracketCount, error) {
	return SummarizeAges(r.profiles(), asOf), nil
}

func (r *MemoryRepository) CityStats(ctx context.Context, asOf time.Time, limit int) ([]CityStat, error) {
	return SummarizeCities(r.profiles(), asOf, limit), nil
}

func (r *MemoryRepository) OccupationStats(ctx context.Context, asOf time.Time, limit int) ([]OccupationStat, error) {
	return SummarizeOccupations(r.profiles(), asOf, limit), nil
}

// # Helpers

// insert stores a copy of user. Caller holds the write lock.
func (r *MemoryRepository) insert(user *User) {
	now := r.now()
	user.ID = uuidv7.New()
	user.CreatedAt, user.UpdatedAt = now, now

	clone := *user
	r.users[user.ID] = &clone
}

// checkEmail returns a Conflict if another record (not exceptID) owns email.
// Caller holds a lock.
func (r *MemoryRepository) checkEmail(email, exceptID string) error {
	key := fold(email)
	for id, existing := range r.users {
		if id != exceptID && fold(existing.Email) == key {
			return apperr.Conflict(FieldEmail, email)
		}
	}
	return nil
}

// match returns copies of the records satisfying criteria. Caller holds a lock.
func (r *MemoryRepository) match(criteria Criteria) []*User {
	needle := fold(criteria.UsernameContains)

	all := make([]*User, 0, len(r.users))
	for _, user := range r.users {
		all = append(all, user)
	}

	matches := slice.Filter(all, func(user *User) bool {
		return strings.Contains(fold(user.Username), needle) &&
			(criteria.Occupation == "" || user.Occupation == criteria.Occupation) &&
			(criteria.City == "" || user.City == criteria.City)
	})

	return slice.Map(matches, func(user *User) *User {
		clone := *user
		return &clone
	})
}

func (r *MemoryRepository) profiles() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profiles := make([]Profile, 0, len(r.users))
	for _, user := range r.users {
		profiles = append(profiles, Profile{DateOfBirth: user.DateOfBirth, City: user.City, Occupation: user.Occupation})
	}
	return profiles
}

// fold case-folds s for comparisons. A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// comparatorFor orders users by an API sort field, defaulting to createdAt.
func comparatorFor(field string) func(a, b *User) int {
	switch field {
	case FieldUsername:
		return func(a, b *User) int { return cmp.Compare(a.Username, b.Username) }
	case FieldEmail:
		return func(a, b *User) int { return cmp.Compare(a.Email, b.Email) }
	case FieldDateOfBirth:
		return func(a, b *User) int { return a.DateOfBirth.Compare(b.DateOfBirth) }
	case FieldCity:
		return func(a, b *User) int { return cmp.Compare(a.City, b.City) }
	case FieldOccupation:
		return func(a, b *User) int { return cmp.Compare(a.Occupation, b.Occupation) }
	case FieldUpdatedAt:
		return func(a, b *User) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	default:
		return func(a, b *User) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}
