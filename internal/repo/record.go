package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
)

// RecordRepo defines the domain-table writes the proposal applier performs.
// One insert method per destination table; the applier picks the method from
// the proposal kind.
type RecordRepo interface {
	InsertFlight(ctx context.Context, f domain.Flight) (domain.Flight, error)
	InsertAccommodation(ctx context.Context, a domain.Accommodation) (domain.Accommodation, error)
	InsertTransport(ctx context.Context, t domain.Transport) (domain.Transport, error)
	InsertItineraryEvent(ctx context.Context, e domain.ItineraryEvent) (domain.ItineraryEvent, error)
	InsertNote(ctx context.Context, n domain.Note) (domain.Note, error)

	// CountFlightsByTrip reports the number of flight rows under a trip.
	// Used by idempotency checks in tests and diagnostics.
	CountFlightsByTrip(ctx context.Context, tripID uuid.UUID) (int64, error)
}

type pgRecordRepo struct {
	db DB
}

// NewRecordRepo constructs a RecordRepo backed by the provided db.
func NewRecordRepo(db DB) RecordRepo {
	return &pgRecordRepo{db: db}
}

func (r *pgRecordRepo) InsertFlight(ctx context.Context, f domain.Flight) (domain.Flight, error) {
	const q = `
		INSERT INTO flights (trip_id, carrier, flight_number, depart_airport, arrive_airport,
		                     depart_time, arrive_time, cost_amount, cost_currency)
		VALUES (@trip_id, @carrier, @flight_number, @depart_airport, @arrive_airport,
		        @depart_time, @arrive_time, @cost_amount, @cost_currency)
		RETURNING id, created_at`

	args := pgx.NamedArgs{
		"trip_id":        f.TripID,
		"carrier":        f.Carrier,
		"flight_number":  f.FlightNumber,
		"depart_airport": f.DepartAirport,
		"arrive_airport": f.ArriveAirport,
		"depart_time":    f.DepartTime,
		"arrive_time":    f.ArriveTime,
		"cost_amount":    f.CostAmount,
		"cost_currency":  f.CostCurrency,
	}

	if err := r.scanInserted(ctx, q, args, &f.ID, &f.CreatedAt); err != nil {
		return domain.Flight{}, fmt.Errorf("repo.RecordRepo.InsertFlight: %w", err)
	}
	return f, nil
}

func (r *pgRecordRepo) InsertAccommodation(ctx context.Context, a domain.Accommodation) (domain.Accommodation, error) {
	const q = `
		INSERT INTO accommodations (trip_id, name, address, check_in, check_out, cost_amount, cost_currency)
		VALUES (@trip_id, @name, @address, @check_in, @check_out, @cost_amount, @cost_currency)
		RETURNING id, created_at`

	args := pgx.NamedArgs{
		"trip_id":       a.TripID,
		"name":          a.Name,
		"address":       a.Address,
		"check_in":      a.CheckIn,
		"check_out":     a.CheckOut,
		"cost_amount":   a.CostAmount,
		"cost_currency": a.CostCurrency,
	}

	if err := r.scanInserted(ctx, q, args, &a.ID, &a.CreatedAt); err != nil {
		return domain.Accommodation{}, fmt.Errorf("repo.RecordRepo.InsertAccommodation: %w", err)
	}
	return a, nil
}

func (r *pgRecordRepo) InsertTransport(ctx context.Context, t domain.Transport) (domain.Transport, error) {
	const q = `
		INSERT INTO transports (trip_id, mode, from_city, to_city, depart_at, arrive_at,
		                        carrier, code, cost_amount, cost_currency)
		VALUES (@trip_id, @mode, @from_city, @to_city, @depart_at, @arrive_at,
		        @carrier, @code, @cost_amount, @cost_currency)
		RETURNING id, created_at`

	args := pgx.NamedArgs{
		"trip_id":       t.TripID,
		"mode":          t.Mode,
		"from_city":     t.FromCity,
		"to_city":       t.ToCity,
		"depart_at":     t.DepartAt,
		"arrive_at":     t.ArriveAt,
		"carrier":       t.Carrier,
		"code":          t.Code,
		"cost_amount":   t.CostAmount,
		"cost_currency": t.CostCurrency,
	}

	if err := r.scanInserted(ctx, q, args, &t.ID, &t.CreatedAt); err != nil {
		return domain.Transport{}, fmt.Errorf("repo.RecordRepo.InsertTransport: %w", err)
	}
	return t, nil
}

func (r *pgRecordRepo) InsertItineraryEvent(ctx context.Context, e domain.ItineraryEvent) (domain.ItineraryEvent, error) {
	const q = `
		INSERT INTO itinerary_events (trip_id, title, date, start_time, end_time, location, notes)
		VALUES (@trip_id, @title, @date, @start_time, @end_time, @location, @notes)
		RETURNING id, created_at`

	args := pgx.NamedArgs{
		"trip_id":    e.TripID,
		"title":      e.Title,
		"date":       e.Date,
		"start_time": e.StartTime,
		"end_time":   e.EndTime,
		"location":   e.Location,
		"notes":      e.Notes,
	}

	if err := r.scanInserted(ctx, q, args, &e.ID, &e.CreatedAt); err != nil {
		return domain.ItineraryEvent{}, fmt.Errorf("repo.RecordRepo.InsertItineraryEvent: %w", err)
	}
	return e, nil
}

func (r *pgRecordRepo) InsertNote(ctx context.Context, n domain.Note) (domain.Note, error) {
	const q = `
		INSERT INTO notes (trip_id, content)
		VALUES (@trip_id, @content)
		RETURNING id, created_at`

	args := pgx.NamedArgs{
		"trip_id": n.TripID, // nil becomes NULL: notes may exist before a trip
		"content": n.Content,
	}

	if err := r.scanInserted(ctx, q, args, &n.ID, &n.CreatedAt); err != nil {
		return domain.Note{}, fmt.Errorf("repo.RecordRepo.InsertNote: %w", err)
	}
	return n, nil
}

func (r *pgRecordRepo) CountFlightsByTrip(ctx context.Context, tripID uuid.UUID) (int64, error) {
	const q = `SELECT count(*) FROM flights WHERE trip_id = @trip_id`

	var n int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.RecordRepo.CountFlightsByTrip: %w", err)
	}
	return n, nil
}

// scanInserted runs an INSERT ... RETURNING id, created_at and maps the two
// generated columns back onto the caller's record.
func (r *pgRecordRepo) scanInserted(ctx context.Context, q string, args pgx.NamedArgs, id *uuid.UUID, createdAt any) error {
	var pgID pgtype.UUID
	err := r.db.QueryRow(ctx, q, args).Scan(&pgID, createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	*id = uuid.UUID(pgID.Bytes)
	return nil
}
