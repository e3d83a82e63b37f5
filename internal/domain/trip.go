package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip is the top-level aggregate; flights, accommodations, transports,
// itinerary events, and notes all belong to a trip.
type Trip struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	DestCity    *string    `json:"dest_city,omitempty"`
	DestCountry *string    `json:"dest_country,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
