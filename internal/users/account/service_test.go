// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/userdir/internal/platform/apperr"
	"github.com/taibuivan/userdir/internal/platform/metrics"
	"github.com/taibuivan/userdir/internal/platform/sec"
	"github.com/taibuivan/userdir/internal/users/account"
	"github.com/taibuivan/userdir/pkg/pointer"
)

func newTestService(t *testing.T, options ...account.Option) *account.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	options = append([]account.Option{account.WithClock(func() time.Time { return asOf })}, options...)
	return account.NewService(account.NewMemoryRepository(), sec.NewHasher(bcrypt.MinCost), logger, options...)
}

func validInput(username, email string) account.CreateInput {
	return account.CreateInput{
		Username:    username,
		Email:       email,
		Password:    "correct-horse",
		DateOfBirth: "1996-01-01",
		City:        "Lagos",
		Occupation:  "Engineer",
	}
}

func TestService_Create(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	user, err := service.Create(ctx, validInput("ada", "Ada@Example.COM"))
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))
	assert.False(t, user.CreatedAt.IsZero())

	stored, err := service.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, stored.Email)
}

func TestService_Create_DuplicateEmail(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, validInput("ada", "ada@example.com"))
	require.NoError(t, err)

	_, err = service.Create(ctx, validInput("ada2", "ADA@example.com"))
	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 409, appErr.HTTPStatus())
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "email", appErr.Details[0].Field)
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*account.CreateInput)
		field  string
	}{
		{"short password", func(in *account.CreateInput) { in.Password = "short" }, "password"},
		{"long password", func(in *account.CreateInput) { in.Password = string(make([]byte, 65)) }, "password"},
		{"missing username", func(in *account.CreateInput) { in.Username = "" }, "username"},
		{"bad email", func(in *account.CreateInput) { in.Email = "not-an-email" }, "email"},
		{"bad date", func(in *account.CreateInput) { in.DateOfBirth = "15/01/1990" }, "dateOfBirth"},
		{"short city", func(in *account.CreateInput) { in.City = "LA" }, "city"},
		{"missing occupation", func(in *account.CreateInput) { in.Occupation = "" }, "occupation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t)
			input := validInput("ada", "ada@example.com")
			tt.mutate(&input)

			_, err := service.Create(context.Background(), input)
			require.Error(t, err)

			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, 422, appErr.HTTPStatus())

			fields := make([]string, 0, len(appErr.Details))
			for _, detail := range appErr.Details {
				fields = append(fields, detail.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestService_Update(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	user, err := service.Create(ctx, validInput("ada", "ada@example.com"))
	require.NoError(t, err)

	updated, err := service.Update(ctx, user.ID, account.UpdateInput{City: pointer.To("Accra")})
	require.NoError(t, err)
	assert.Equal(t, "Accra", updated.City)
	assert.Equal(t, user.PasswordHash, updated.PasswordHash, "password untouched when not supplied")
	assert.Equal(t, "ada", updated.Username)

	password := "another-secret"
	updated, err = service.Update(ctx, user.ID, account.UpdateInput{Password: &password})
	require.NoError(t, err)
	assert.NotEqual(t, user.PasswordHash, updated.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(password)))
}

func TestService_Update_Errors(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	first, err := service.Create(ctx, validInput("ada", "ada@example.com"))
	require.NoError(t, err)
	_, err = service.Create(ctx, validInput("bob", "bob@example.com"))
	require.NoError(t, err)

	_, err = service.Update(ctx, first.ID, account.UpdateInput{Password: pointer.To("abc")})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

	_, err = service.Update(ctx, first.ID, account.UpdateInput{Email: pointer.To("BOB@example.com")})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	_, err = service.Update(ctx, "0192f0aa-7b3c-7d4e-8f90-a1b2c3d4e5f6", account.UpdateInput{City: pointer.To("Accra")})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestService_Delete(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	user, err := service.Create(ctx, validInput("ada", "ada@example.com"))
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, user.ID))

	_, err = service.Get(ctx, user.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	err = service.Delete(ctx, user.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestService_List(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := service.Create(ctx, validInput(name, name+"@example.com"))
		require.NoError(t, err)
	}

	t.Run("page beyond the end", func(t *testing.T) {
		page, err := service.List(ctx, account.ListParams{Page: 5, Limit: 10})
		require.NoError(t, err)

		assert.Empty(t, page.Docs)
		assert.Equal(t, 3, page.TotalDocs)
		assert.Equal(t, 1, page.TotalPages)
		assert.False(t, page.HasNextPage)
		assert.True(t, page.HasPrevPage)
		require.NotNil(t, page.PrevPage)
		assert.Equal(t, 4, *page.PrevPage)
	})

	t.Run("huge page number", func(t *testing.T) {
		params, err := account.ParseListParams(url.Values{"page": {"100000000000000001"}, "limit": {"100"}})
		require.NoError(t, err)

		page, err := service.List(ctx, params)
		require.NoError(t, err)

		assert.Empty(t, page.Docs)
		assert.Equal(t, 3, page.TotalDocs)
		assert.Equal(t, 100000000000000001, page.Page)
		assert.Positive(t, page.PagingCounter)
		assert.False(t, page.HasNextPage)
	})

	t.Run("sorted and paged", func(t *testing.T) {
		page, err := service.List(ctx, account.ListParams{Page: 1, Limit: 2, SortBy: "username"})
		require.NoError(t, err)

		require.Len(t, page.Docs, 2)
		assert.Equal(t, "alice", page.Docs[0].Username)
		assert.Equal(t, "bob", page.Docs[1].Username)
		assert.True(t, page.HasNextPage)
		assert.Equal(t, 2, page.TotalPages)

		desc, err := service.List(ctx, account.ListParams{SortBy: "username", Order: "desc"})
		require.NoError(t, err)
		assert.Equal(t, "carol", desc.Docs[0].Username)
	})

	t.Run("case-insensitive search", func(t *testing.T) {
		page, err := service.List(ctx, account.ListParams{Search: "LIC"})
		require.NoError(t, err)
		require.Len(t, page.Docs, 1)
		assert.Equal(t, "alice", page.Docs[0].Username)
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := service.List(ctx, account.ListParams{Limit: 2})
		require.NoError(t, err)
		second, err := service.List(ctx, account.ListParams{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("empty store", func(t *testing.T) {
		page, err := newTestService(t).List(ctx, account.ListParams{})
		require.NoError(t, err)
		assert.Equal(t, 0, page.TotalPages)
		assert.NotNil(t, page.Docs)
		assert.False(t, page.HasPrevPage)
	})
}

func TestService_AverageAge(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	average, message, err := service.AverageAge(ctx, account.FilterParams{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, average)
	assert.Equal(t, "No users found with the specified criteria.", message)

	lagos := validInput("ada", "ada@example.com")
	lagos.DateOfBirth = asOf.AddDate(-30, 0, 0).Format("2006-01-02")
	accra := validInput("bob", "bob@example.com")
	accra.City = "Accra"
	accra.DateOfBirth = asOf.AddDate(-41, 0, 0).Format("2006-01-02")
	_, err = service.CreateMany(ctx, []account.CreateInput{lagos, accra})
	require.NoError(t, err)

	average, message, err = service.AverageAge(ctx, account.FilterParams{})
	require.NoError(t, err)
	assert.Equal(t, 35.5, average)
	assert.Equal(t, "Average age for all users calculated successfully.", message)

	average, message, err = service.AverageAge(ctx, account.FilterParams{Occupation: "Engineer", City: "Accra"})
	require.NoError(t, err)
	assert.Equal(t, 41.0, average)
	assert.Equal(t, "Average age for Engineer users in Accra calculated successfully.", message)
}

func TestService_CreateMany_IsAtomic(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.CreateMany(ctx, []account.CreateInput{
		validInput("ada", "ada@example.com"),
		validInput("ada-again", "ada@example.com"),
	})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	page, err := service.List(ctx, account.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalDocs)
}

func TestService_Demographics(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	inputs := []account.CreateInput{}
	for i, years := range []int{10, 20, 30} {
		input := validInput(string(rune('a'+i))+"user", string(rune('a'+i))+"@example.com")
		input.DateOfBirth = asOf.AddDate(-years, 0, 0).Format("2006-01-02")
		inputs = append(inputs, input)
	}
	inputs[2].City = "Accra"
	_, err := service.CreateMany(ctx, inputs)
	require.NoError(t, err)

	report, err := service.Demographics(ctx)
	require.NoError(t, err)

	assert.Equal(t, []account.AgeBracketCount{
		{AgeBracket: "Under 18", TotalCount: 1},
		{AgeBracket: "18-24", TotalCount: 1},
		{AgeBracket: "25-34", TotalCount: 1},
	}, report.AgeDistribution)

	require.Len(t, report.TopCities, 2)
	assert.Equal(t, "Lagos", report.TopCities[0].City)
	assert.Equal(t, 2, report.TopCities[0].UserCount)
	assert.Equal(t, "Accra", report.TopCities[1].City)
	assert.Equal(t, 1, report.TopCities[1].UserCount)

	require.Len(t, report.TopOccupations, 1)
	assert.Equal(t, 3, report.TopOccupations[0].Count)
	assert.Equal(t, 2, report.TopOccupations[0].CityDiversity)
	assert.Equal(t, asOf, report.GeneratedAt)
}

// fakeCache records calls so tests can observe caching decisions. Reports
// are filed per generation like the Redis cache.
type fakeCache struct {
	mu          sync.Mutex
	generation  int64
	reports     map[int64]*account.Report
	gets        int
	sets        int
	invalidated int
}

func (f *fakeCache) Generation(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation, nil
}

func (f *fakeCache) Get(_ context.Context, generation int64) (*account.Report, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	report, ok := f.reports[generation]
	return report, ok, nil
}

func (f *fakeCache) Set(_ context.Context, generation int64, report *account.Report, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.reports == nil {
		f.reports = make(map[int64]*account.Report)
	}
	f.reports[generation] = report
	return nil
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	f.generation++
	return nil
}

// lookupLog records report cache lookup outcomes in order.
type lookupLog []string

func (l *lookupLog) ObserveCacheLookup(result string) { *l = append(*l, result) }

func TestService_Demographics_Cache(t *testing.T) {
	cache := &fakeCache{}
	lookups := &lookupLog{}
	service := newTestService(t, account.WithReportCache(cache, time.Minute), account.WithCacheObserver(lookups))
	ctx := context.Background()

	_, err := service.Create(ctx, validInput("ada", "ada@example.com"))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	first, err := service.Demographics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	second, err := service.Demographics(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.sets)

	_, err = service.Create(ctx, validInput("bob", "bob@example.com"))
	require.NoError(t, err)

	third, err := service.Demographics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, third.TopCities[0].UserCount)
	assert.Equal(t, 2, cache.sets)

	assert.Equal(t, lookupLog{metrics.CacheMiss, metrics.CacheHit, metrics.CacheMiss}, *lookups)
}

// midReportWriter runs onCityStats once, right after the city aggregation
// has read its data.
type midReportWriter struct {
	account.Repository
	once        sync.Once
	onCityStats func()
}

func (w *midReportWriter) CityStats(ctx context.Context, asOf time.Time, limit int) ([]account.CityStat, error) {
	stats, err := w.Repository.CityStats(ctx, asOf, limit)
	w.once.Do(w.onCityStats)
	return stats, err
}

func TestService_Demographics_WriteDuringAggregation(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repository := &midReportWriter{Repository: account.NewMemoryRepository()}
	service := account.NewService(repository, sec.NewHasher(bcrypt.MinCost), logger,
		account.WithClock(func() time.Time { return asOf }),
		account.WithReportCache(&fakeCache{}, time.Minute),
	)

	_, err := service.Create(ctx, validInput("ada", "ada@example.com"))
	require.NoError(t, err)

	repository.onCityStats = func() {
		_, err := service.Create(ctx, validInput("bob", "bob@example.com"))
		assert.NoError(t, err)
	}

	stale, err := service.Demographics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stale.TopCities[0].UserCount)

	fresh, err := service.Demographics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TopCities[0].UserCount, "the report computed before the write is not served after it")
}

func TestService_Demographics_UnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	lookups := &lookupLog{}
	service := newTestService(t,
		account.WithReportCache(account.NewRedisReportCache(client), time.Minute),
		account.WithCacheObserver(lookups),
	)
	ctx := context.Background()

	_, err := service.Create(ctx, validInput("ada", "ada@example.com"))
	require.NoError(t, err, "cache failures never fail writes")

	report, err := service.Demographics(ctx)
	require.NoError(t, err, "cache failures never fail reads")
	assert.Len(t, report.TopCities, 1)
	assert.Equal(t, lookupLog{metrics.CacheError}, *lookups)
}

func TestUser_JSONNeverContainsPassword(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	user, err := service.Create(ctx, validInput("ada", "ada@example.com"))
	require.NoError(t, err)

	updated, err := service.Update(ctx, user.ID, account.UpdateInput{City: pointer.To("Accra")})
	require.NoError(t, err)

	page, err := service.List(ctx, account.ListParams{})
	require.NoError(t, err)

	for _, value := range []any{user, *updated, page} {
		payload, err := json.Marshal(value)
		require.NoError(t, err)
		assert.NotContains(t, string(payload), "password")
		assert.NotContains(t, string(payload), user.PasswordHash)
	}
}

func TestUser_JSONShape(t *testing.T) {
	user := account.User{
		ID:          "0192f0aa-7b3c-7d4e-8f90-a1b2c3d4e5f6",
		Username:    "ada",
		DateOfBirth: date(1990, 4, 12),
	}

	payload, err := json.Marshal(user)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(payload, &body))
	assert.Equal(t, "1990-04-12", body["dateOfBirth"])
	assert.Contains(t, body, "age")
}
