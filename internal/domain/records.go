package domain

import (
	"time"

	"github.com/google/uuid"
)

// Flight is one row in the flights table, created by applying a flight
// proposal. Departure/arrival times and costs stay optional because the
// extraction contract forbids fabricating fields the source did not contain.
type Flight struct {
	ID            uuid.UUID  `json:"id"`
	TripID        uuid.UUID  `json:"trip_id"`
	Carrier       *string    `json:"carrier,omitempty"`
	FlightNumber  *string    `json:"flight_number,omitempty"`
	DepartAirport *string    `json:"depart_airport,omitempty"`
	ArriveAirport *string    `json:"arrive_airport,omitempty"`
	DepartTime    *time.Time `json:"depart_time,omitempty"`
	ArriveTime    *time.Time `json:"arrive_time,omitempty"`
	CostAmount    *float64   `json:"cost_amount,omitempty"`
	CostCurrency  *string    `json:"cost_currency,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Accommodation is one row in the accommodations table.
type Accommodation struct {
	ID           uuid.UUID  `json:"id"`
	TripID       uuid.UUID  `json:"trip_id"`
	Name         *string    `json:"name,omitempty"`
	Address      *string    `json:"address,omitempty"`
	CheckIn      *time.Time `json:"check_in,omitempty"`
	CheckOut     *time.Time `json:"check_out,omitempty"`
	CostAmount   *float64   `json:"cost_amount,omitempty"`
	CostCurrency *string    `json:"cost_currency,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Transport is one row in the transports table (train, bus, taxi, rental).
type Transport struct {
	ID           uuid.UUID  `json:"id"`
	TripID       uuid.UUID  `json:"trip_id"`
	Mode         *string    `json:"mode,omitempty"`
	FromCity     *string    `json:"from_city,omitempty"`
	ToCity       *string    `json:"to_city,omitempty"`
	DepartAt     *time.Time `json:"depart_at,omitempty"`
	ArriveAt     *time.Time `json:"arrive_at,omitempty"`
	Carrier      *string    `json:"carrier,omitempty"`
	Code         *string    `json:"code,omitempty"`
	CostAmount   *float64   `json:"cost_amount,omitempty"`
	CostCurrency *string    `json:"cost_currency,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ItineraryEvent is one row in the itinerary_events table.
type ItineraryEvent struct {
	ID        uuid.UUID  `json:"id"`
	TripID    uuid.UUID  `json:"trip_id"`
	Title     string     `json:"title"`
	Date      *time.Time `json:"date,omitempty"`
	StartTime *string    `json:"start_time,omitempty"`
	EndTime   *string    `json:"end_time,omitempty"`
	Location  *string    `json:"location,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Note is one row in the notes table. TripID is optional: a note proposal may
// be applied before any trip is selected.
type Note struct {
	ID        uuid.UUID  `json:"id"`
	TripID    *uuid.UUID `json:"trip_id,omitempty"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}
