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

// newTestRecordRepos returns a TripRepo and RecordRepo sharing one rolled-back
// transaction. Domain records all hang off a trip, so tests create one first.
func newTestRecordRepos(t *testing.T) (repo.TripRepo, repo.RecordRepo) {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return repo.NewTripRepo(tx), repo.NewRecordRepo(tx)
}

func strPtr(s string) *string { return &s }

func TestRecordRepo_InsertFlight(t *testing.T) {
	trips, records := newTestRecordRepos(t)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture())
	require.NoError(t, err)

	depart := time.Date(2025, 10, 12, 14, 30, 0, 0, time.UTC)
	amount := 420.50
	got, err := records.InsertFlight(ctx, domain.Flight{
		TripID:        trip.ID,
		Carrier:       strPtr("British Airways"),
		FlightNumber:  strPtr("BA162"),
		DepartAirport: strPtr("TLV"),
		ArriveAirport: strPtr("LHR"),
		DepartTime:    &depart,
		CostAmount:    &amount,
		CostCurrency:  strPtr("GBP"),
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, "BA162", *got.FlightNumber)

	n, err := records.CountFlightsByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRecordRepo_InsertFlight_SparseFields(t *testing.T) {
	trips, records := newTestRecordRepos(t)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture())
	require.NoError(t, err)

	got, err := records.InsertFlight(ctx, domain.Flight{TripID: trip.ID})

	require.NoError(t, err)
	assert.Nil(t, got.Carrier)
	assert.Nil(t, got.DepartTime)
	assert.Nil(t, got.CostAmount)
}

func TestRecordRepo_InsertAccommodation(t *testing.T) {
	trips, records := newTestRecordRepos(t)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture())
	require.NoError(t, err)

	checkIn := time.Date(2025, 10, 12, 15, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, 10, 19, 11, 0, 0, 0, time.UTC)
	got, err := records.InsertAccommodation(ctx, domain.Accommodation{
		TripID:       trip.ID,
		Name:         strPtr("Premier Inn Hub Covent Garden"),
		Address:      strPtr("110 St Martin's Lane"),
		CheckIn:      &checkIn,
		CheckOut:     &checkOut,
		CostCurrency: strPtr("GBP"),
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, "Premier Inn Hub Covent Garden", *got.Name)
}

func TestRecordRepo_InsertTransport(t *testing.T) {
	trips, records := newTestRecordRepos(t)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture())
	require.NoError(t, err)

	got, err := records.InsertTransport(ctx, domain.Transport{
		TripID:   trip.ID,
		Mode:     strPtr("train"),
		FromCity: strPtr("London"),
		ToCity:   strPtr("Edinburgh"),
		Carrier:  strPtr("LNER"),
		Code:     strPtr("1S12"),
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, "train", *got.Mode)
}

func TestRecordRepo_InsertItineraryEvent(t *testing.T) {
	trips, records := newTestRecordRepos(t)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture())
	require.NoError(t, err)

	date := time.Date(2025, 10, 14, 0, 0, 0, 0, time.UTC)
	got, err := records.InsertItineraryEvent(ctx, domain.ItineraryEvent{
		TripID:    trip.ID,
		Title:     "British Museum",
		Date:      &date,
		StartTime: strPtr("10:00"),
		EndTime:   strPtr("13:00"),
		Location:  strPtr("Great Russell St"),
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, "British Museum", got.Title)
}

func TestRecordRepo_InsertNote(t *testing.T) {
	trips, records := newTestRecordRepos(t)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture())
	require.NoError(t, err)

	got, err := records.InsertNote(ctx, domain.Note{
		TripID:  &trip.ID,
		Content: "Pack a UK power adapter",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, "Pack a UK power adapter", got.Content)
}

func TestRecordRepo_InsertNote_NoTrip(t *testing.T) {
	_, records := newTestRecordRepos(t)
	ctx := context.Background()

	got, err := records.InsertNote(ctx, domain.Note{Content: "Standalone reminder"})

	require.NoError(t, err)
	assert.Nil(t, got.TripID)
}

func TestRecordRepo_CountFlightsByTrip_Empty(t *testing.T) {
	trips, records := newTestRecordRepos(t)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture())
	require.NoError(t, err)

	n, err := records.CountFlightsByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
