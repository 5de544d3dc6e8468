// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/taibuivan/userdir/internal/platform/metrics"
	"github.com/taibuivan/userdir/internal/platform/validate"
	"github.com/taibuivan/userdir/pkg/pagination"
	"github.com/taibuivan/userdir/pkg/pointer"
)

// # Service Layer

// PasswordHasher turns a plain-text password into a storable hash.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
}

// CacheObserver is told the outcome of every report cache lookup.
type CacheObserver interface {
	ObserveCacheLookup(result string)
}

type noopObserver struct{}

func (noopObserver) ObserveCacheLookup(string) {}

// Service orchestrates validation, hashing, persistence and reporting for
// user records. It holds no per-request state.
type Service struct {
	repository Repository
	cache      ReportCache
	hasher     PasswordHasher
	logger     *slog.Logger
	cacheTTL   time.Duration
	observer   CacheObserver
	now        func() time.Time
}

// Option customizes a [Service].
type Option func(*Service)

// WithReportCache enables demographics caching for ttl. A zero ttl disables it.
func WithReportCache(cache ReportCache, ttl time.Duration) Option {
	return func(service *Service) {
		service.cache = cache
		service.cacheTTL = ttl
	}
}

// WithCacheObserver reports report cache hits and misses to observer.
func WithCacheObserver(observer CacheObserver) Option {
	return func(service *Service) { service.observer = observer }
}

// WithClock overrides the reference time used for age derivation.
func WithClock(now func() time.Time) Option {
	return func(service *Service) { service.now = now }
}

// NewService constructs a new [Service] with its dependencies.
func NewService(repository Repository, hasher PasswordHasher, logger *slog.Logger, options ...Option) *Service {
	service := &Service{
		repository: repository,
		hasher:     hasher,
		logger:     logger,
		observer:   noopObserver{},
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(service)
	}
	return service
}

// # Inputs

// CreateInput is the payload of a new user. Every field is required.
type CreateInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DateOfBirth string `json:"dateOfBirth"`
	City        string `json:"city"`
	Occupation  string `json:"occupation"`
}

// UpdateInput is the payload of a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	DateOfBirth *string `json:"dateOfBirth"`
	City        *string `json:"city"`
	Occupation  *string `json:"occupation"`
}

// # Validation Rules

const (
	passwordMinLength = 8
	passwordMaxLength = 64
	placeMinLength    = 3
)

func validateCreate(input CreateInput) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldUsername, input.Username).
		Required(FieldEmail, input.Email)

	if input.Email != "" {
		validator.Email(FieldEmail, input.Email)
	}

	validator.
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, passwordMinLength).
		MaxLen(FieldPassword, input.Password, passwordMaxLength).
		Required(FieldDateOfBirth, input.DateOfBirth)

	if input.DateOfBirth != "" {
		validator.Date(FieldDateOfBirth, input.DateOfBirth)
	}

	validator.
		Required(FieldCity, input.City).
		MinLen(FieldCity, input.City, placeMinLength).
		Required(FieldOccupation, input.Occupation).
		MinLen(FieldOccupation, input.Occupation, placeMinLength)

	return validator.Err()
}

func validateUpdate(input UpdateInput) error {
	validator := &validate.Validator{}

	if input.Username != nil {
		validator.Required(FieldUsername, *input.Username)
	}
	if input.Email != nil {
		validator.Email(FieldEmail, *input.Email)
	}
	if input.Password != nil {
		validator.
			MinLen(FieldPassword, *input.Password, passwordMinLength).
			MaxLen(FieldPassword, *input.Password, passwordMaxLength)
	}
	if input.DateOfBirth != nil {
		validator.Date(FieldDateOfBirth, *input.DateOfBirth)
	}
	if input.City != nil {
		validator.MinLen(FieldCity, *input.City, placeMinLength)
	}
	if input.Occupation != nil {
		validator.MinLen(FieldOccupation, *input.Occupation, placeMinLength)
	}

	return validator.Err()
}

// normalizeEmail lowercases an address before it is stored or compared.
func normalizeEmail(email string) string {
	return cases.Lower(language.Und).String(email)
}

// # CRUD

/*
Create validates a payload, hashes its password and stores the user.

Returns:
  - *User: The stored record with ID and timestamps
  - error: InvalidInput, Conflict on duplicate email, or storage failures
*/
func (service *Service) Create(context context.Context, input CreateInput) (*User, error) {
	user, err := service.newUser(input)
	if err != nil {
		return nil, err
	}

	if err := service.repository.Create(context, user); err != nil {
		return nil, fmt.Errorf("account_service_create_failed: %w", err)
	}

	service.invalidateReport(context)
	service.logger.Info("user_created", slog.String("user_id", user.ID))

	return user, nil
}

/*
CreateMany validates every payload and stores them in one batch.

Description: Validation runs for the whole batch before anything is written,
so one bad payload stores nothing.
*/
func (service *Service) CreateMany(context context.Context, inputs []CreateInput) ([]*User, error) {
	users := make([]*User, 0, len(inputs))
	for _, input := range inputs {
		user, err := service.newUser(input)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := service.repository.CreateMany(context, users); err != nil {
		return nil, fmt.Errorf("account_service_create_many_failed: %w", err)
	}

	service.invalidateReport(context)
	service.logger.Info("users_created", slog.Int("count", len(users)))

	return users, nil
}

// Get retrieves a single user by ID.
func (service *Service) Get(context context.Context, id string) (*User, error) {
	user, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_failed: %w", err)
	}
	return user, nil
}

/*
Update applies a partial change to a user.

Description: Only supplied fields are validated. The password is re-hashed
only when a new one is supplied. An empty payload returns the record as is.

Returns:
  - *User: The record after the update
  - error: InvalidInput, NotFound, Conflict, or storage failures
*/
func (service *Service) Update(context context.Context, id string, input UpdateInput) (*User, error) {
	if err := validateUpdate(input); err != nil {
		return nil, err
	}

	patch := Patch{
		Username:   input.Username,
		City:       input.City,
		Occupation: input.Occupation,
	}

	if input.Email != nil {
		patch.Email = pointer.To(normalizeEmail(*input.Email))
	}

	if input.DateOfBirth != nil {
		// Already validated above.
		dateOfBirth, _ := validate.ParseDate(*input.DateOfBirth)
		patch.DateOfBirth = pointer.To(dateOfBirth)
	}

	if input.Password != nil {
		hash, err := service.hasher.Hash(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("account_service_hash_failed: %w", err)
		}
		patch.PasswordHash = pointer.To(hash)
	}

	if patch.Empty() {
		return service.Get(context, id)
	}

	user, err := service.repository.Update(context, id, patch)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.invalidateReport(context)
	service.logger.Info("user_updated", slog.String("user_id", id))

	return user, nil
}

// Delete removes a user permanently.
func (service *Service) Delete(context context.Context, id string) error {
	if err := service.repository.Delete(context, id); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	service.invalidateReport(context)
	service.logger.Warn("user_deleted", slog.String("user_id", id))

	return nil
}

// # Listing

// List returns one page of users matching params.
func (service *Service) List(context context.Context, params ListParams) (*UserPage, error) {
	query := BuildQuery(params)

	users, total, err := service.repository.Paginate(context, query)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_failed: %w", err)
	}

	page := pagination.NewPage(users, total, query.Page)
	return &page, nil
}

// # Analytics

/*
AverageAge computes the mean age of the users matching params.

Returns:
  - float64: The unrounded mean age, or 0 when nothing matches
  - string: The human-readable outcome message
  - error: Storage failures
*/
func (service *Service) AverageAge(context context.Context, params FilterParams) (float64, string, error) {
	criteria := BuildCriteria(params)

	users, err := service.repository.Find(context, criteria)
	if err != nil {
		return 0, "", fmt.Errorf("account_service_average_age_failed: %w", err)
	}

	average, ok := MeanAge(users, service.now())
	if !ok {
		return 0, "No users found with the specified criteria.", nil
	}

	return average, fmt.Sprintf("Average age for %s calculated successfully.", DescribeFilter(criteria)), nil
}

/*
Demographics builds the age, city and occupation report.

Description: Serves a cached report while it is fresh. On a miss the three
aggregations run concurrently and any failure fails the whole report. Cache
failures are logged and never fail the request.
*/
func (service *Service) Demographics(context context.Context) (*Report, error) {
	// Read before aggregating so a write landing mid-aggregation moves the
	// cache past this report.
	generation, cacheable := service.reportGeneration(context)
	if cacheable {
		if report, ok := service.cachedReport(context, generation); ok {
			return report, nil
		}
	}

	asOf := service.now()
	report := &Report{GeneratedAt: asOf}

	group, groupContext := errgroup.WithContext(context)

	group.Go(func() error {
		distribution, err := service.repository.AgeDistribution(groupContext, asOf)
		report.AgeDistribution = distribution
		return err
	})

	group.Go(func() error {
		cities, err := service.repository.CityStats(groupContext, asOf, TopGroupLimit)
		report.TopCities = cities
		return err
	})

	group.Go(func() error {
		occupations, err := service.repository.OccupationStats(groupContext, asOf, TopGroupLimit)
		report.TopOccupations = occupations
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("account_service_demographics_failed: %w", err)
	}

	report.ensureSlices()
	if cacheable {
		service.storeReport(context, generation, report)
	}

	return report, nil
}

// ensureSlices keeps empty sections as [] rather than null in JSON.
func (r *Report) ensureSlices() {
	if r.AgeDistribution == nil {
		r.AgeDistribution = []AgeBracketCount{}
	}
	if r.TopCities == nil {
		r.TopCities = []CityStat{}
	}
	if r.TopOccupations == nil {
		r.TopOccupations = []OccupationStat{}
	}
}

// # Helpers

func (service *Service) newUser(input CreateInput) (*User, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	// Already validated above.
	dateOfBirth, _ := validate.ParseDate(input.DateOfBirth)

	hash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account_service_hash_failed: %w", err)
	}

	return &User{
		Username:     input.Username,
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		DateOfBirth:  dateOfBirth,
		City:         input.City,
		Occupation:   input.Occupation,
	}, nil
}

func (service *Service) cachingEnabled() bool {
	return service.cache != nil && service.cacheTTL > 0
}

func (service *Service) reportGeneration(context context.Context) (int64, bool) {
	if !service.cachingEnabled() {
		return 0, false
	}

	generation, err := service.cache.Generation(context)
	if err != nil {
		service.observer.ObserveCacheLookup(metrics.CacheError)
		service.logger.Warn("demographics_cache_read_failed", slog.Any("error", err))
		return 0, false
	}
	return generation, true
}

func (service *Service) cachedReport(context context.Context, generation int64) (*Report, bool) {
	report, ok, err := service.cache.Get(context, generation)
	if err != nil {
		service.observer.ObserveCacheLookup(metrics.CacheError)
		service.logger.Warn("demographics_cache_read_failed", slog.Any("error", err))
		return nil, false
	}
	if !ok {
		service.observer.ObserveCacheLookup(metrics.CacheMiss)
		service.logger.Debug("demographics_cache_miss")
		return nil, false
	}
	service.observer.ObserveCacheLookup(metrics.CacheHit)
	return report, true
}

func (service *Service) storeReport(context context.Context, generation int64, report *Report) {
	if err := service.cache.Set(context, generation, report, service.cacheTTL); err != nil {
		service.logger.Warn("demographics_cache_write_failed", slog.Any("error", err))
	}
}

func (service *Service) invalidateReport(context context.Context) {
	if service.cache == nil {
		return
	}
	if err := service.cache.Invalidate(context); err != nil {
		service.logger.Warn("demographics_cache_invalidate_failed", slog.Any("error", err))
	}
}
