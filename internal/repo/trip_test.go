package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
	"github.com/isratransfer/trip-manager/backend/internal/repo"
	"github.com/isratransfer/trip-manager/backend/testutil"
)

// newTestTripRepo opens a transaction against the test database and returns a
// TripRepo backed by that transaction. The transaction is automatically rolled
// back when the test finishes, giving free per-test isolation.
//
// Requires TEST_DATABASE_URL to be set; migrations are applied by TestMain.
func newTestTripRepo(t *testing.T) repo.TripRepo {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		// Rollback discards all changes made during the test — no cleanup SQL needed.
		_ = tx.Rollback(context.Background())
	})

	return repo.NewTripRepo(tx)
}

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture() domain.Trip {
	start := time.Date(2025, 10, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC)
	city := "London"
	country := "United Kingdom"
	return domain.Trip{
		Title:       "London October",
		DestCity:    &city,
		DestCountry: &country,
		StartDate:   &start,
		EndDate:     &end,
		Notes:       "Test notes",
	}
}

func TestTripRepo_Create(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	input := tripFixture()
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID, "ID should be DB-generated UUID")
	assert.Equal(t, input.Title, got.Title)
	require.NotNil(t, got.DestCity)
	assert.Equal(t, *input.DestCity, *got.DestCity)
	require.NotNil(t, got.StartDate, "StartDate should round-trip")
	assert.True(t, got.StartDate.Equal(*input.StartDate), "StartDate mismatch")
	require.NotNil(t, got.EndDate, "EndDate should round-trip")
	assert.True(t, got.EndDate.Equal(*input.EndDate), "EndDate mismatch")
	assert.Equal(t, input.Notes, got.Notes)
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set by DB")
	assert.False(t, got.UpdatedAt.IsZero(), "UpdatedAt should be set by DB")
}

func TestTripRepo_Create_NilDates(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	input := tripFixture()
	input.StartDate = nil
	input.EndDate = nil

	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.Nil(t, got.StartDate, "StartDate should be nil when not provided")
	assert.Nil(t, got.EndDate, "EndDate should be nil when not provided")
}

func TestTripRepo_GetByID(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	_, err := r.GetByID(ctx, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
