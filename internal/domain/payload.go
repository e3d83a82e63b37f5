package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// allowedCurrencies is the closed set of currencies the system stores.
// Any other value the model emits is normalized to null, never stored verbatim.
var allowedCurrencies = map[string]bool{
	"GBP": true,
	"USD": true,
	"CAD": true,
	"EUR": true,
	"ILS": true,
}

// NormalizeCurrency returns the canonical upper-case currency code, or nil if
// the value is empty or outside the allowed set.
func NormalizeCurrency(s string) *string {
	c := strings.ToUpper(strings.TrimSpace(s))
	if !allowedCurrencies[c] {
		return nil
	}
	return &c
}

// TripPayload carries the fields of a trip proposal.
// Dates are ISO YYYY-MM-DD strings; the model omits fields it is not sure of.
type TripPayload struct {
	Title     string  `json:"title"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// FlightPayload carries the fields of a flight proposal after key
// canonicalization. Times are ISO 8601 strings.
type FlightPayload struct {
	Carrier       *string  `json:"carrier,omitempty"`
	FlightNumber  *string  `json:"flight_number,omitempty"`
	DepartAirport *string  `json:"depart_airport,omitempty"`
	ArriveAirport *string  `json:"arrive_airport,omitempty"`
	DepartTime    *string  `json:"depart_time,omitempty"`
	ArriveTime    *string  `json:"arrive_time,omitempty"`
	CostAmount    *float64 `json:"cost_amount,omitempty"`
	CostCurrency  *string  `json:"cost_currency,omitempty"`
}

// AccommodationPayload carries the fields of an accommodation proposal.
type AccommodationPayload struct {
	Name         *string  `json:"name,omitempty"`
	Address      *string  `json:"address,omitempty"`
	CheckIn      *string  `json:"check_in,omitempty"`
	CheckOut     *string  `json:"check_out,omitempty"`
	CostAmount   *float64 `json:"cost_amount,omitempty"`
	CostCurrency *string  `json:"cost_currency,omitempty"`
}

// TransportPayload carries the fields of a ground-transport proposal
// (train, bus, taxi, car rental).
type TransportPayload struct {
	Mode         *string  `json:"mode,omitempty"`
	FromCity     *string  `json:"from_city,omitempty"`
	ToCity       *string  `json:"to_city,omitempty"`
	DepartAt     *string  `json:"depart_at,omitempty"`
	ArriveAt     *string  `json:"arrive_at,omitempty"`
	Carrier      *string  `json:"carrier,omitempty"`
	Code         *string  `json:"code,omitempty"`
	CostAmount   *float64 `json:"cost_amount,omitempty"`
	CostCurrency *string  `json:"cost_currency,omitempty"`
}

// ItineraryEventPayload carries the fields of an itinerary event proposal.
// Title is the only required field.
type ItineraryEventPayload struct {
	Title     string  `json:"title"`
	Date      *string `json:"date,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Location  *string `json:"location,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// NotePayload carries the content of a note proposal.
type NotePayload struct {
	Content string `json:"content"`
}

// payloadSynonyms maps alternate key spellings the model (or older prompt
// revisions) emits to the canonical key per kind. A synonym never overwrites
// a canonical key that is already present.
var payloadSynonyms = map[Kind]map[string]string{
	KindFlight: {
		"airline":      "carrier",
		"flight_no":    "flight_number",
		"from_airport": "depart_airport",
		"to_airport":   "arrive_airport",
		"depart_at":    "depart_time",
		"arrive_at":    "arrive_time",
		"price":        "cost_amount",
		"currency":     "cost_currency",
	},
	KindAccommodation: {
		"hotel_name": "name",
		"price":      "cost_amount",
		"currency":   "cost_currency",
	},
	KindTransport: {
		"price":    "cost_amount",
		"currency": "cost_currency",
	},
	KindTrip: {
		"name": "title",
	},
	KindItineraryEvent: {
		"name": "title",
	},
	KindNote: {
		"text": "content",
	},
}

// CanonicalizePayload rewrites a raw payload into its canonical shape for the
// given kind: synonym keys are renamed, cost_amount strings are coerced to
// numbers, and cost_currency values outside the allowed set become null.
// A payload that is not a JSON object is returned unchanged; shape enforcement
// happens at decode time.
func CanonicalizePayload(kind Kind, raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return raw
	}

	for from, to := range payloadSynonyms[kind] {
		v, ok := m[from]
		if !ok {
			continue
		}
		delete(m, from)
		if _, exists := m[to]; !exists {
			m[to] = v
		}
	}

	if v, ok := m["cost_amount"]; ok {
		if s, isStr := v.(string); isStr {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				m["cost_amount"] = f
			} else {
				delete(m, "cost_amount")
			}
		}
	}

	if v, ok := m["cost_currency"]; ok {
		s, isStr := v.(string)
		if !isStr {
			m["cost_currency"] = nil
		} else if c := NormalizeCurrency(s); c != nil {
			m["cost_currency"] = *c
		} else {
			m["cost_currency"] = nil
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	return out
}

// decodePayload unmarshals a canonicalized payload into the typed struct for
// its kind. Unknown keys are ignored; this is the one place payload shape
// validation happens.
func decodePayload(kind Kind, raw json.RawMessage, dst any) error {
	canonical := CanonicalizePayload(kind, raw)
	if err := json.Unmarshal(canonical, dst); err != nil {
		return err
	}
	return nil
}

// DecodeTripPayload decodes a trip proposal payload.
func DecodeTripPayload(raw json.RawMessage) (TripPayload, error) {
	var p TripPayload
	err := decodePayload(KindTrip, raw, &p)
	return p, err
}

// DecodeFlightPayload decodes a flight proposal payload, accepting synonym
// keys (airline, flight_no, from_airport, …) for the canonical fields.
func DecodeFlightPayload(raw json.RawMessage) (FlightPayload, error) {
	var p FlightPayload
	err := decodePayload(KindFlight, raw, &p)
	return p, err
}

// DecodeAccommodationPayload decodes an accommodation proposal payload.
func DecodeAccommodationPayload(raw json.RawMessage) (AccommodationPayload, error) {
	var p AccommodationPayload
	err := decodePayload(KindAccommodation, raw, &p)
	return p, err
}

// DecodeTransportPayload decodes a transport proposal payload.
func DecodeTransportPayload(raw json.RawMessage) (TransportPayload, error) {
	var p TransportPayload
	err := decodePayload(KindTransport, raw, &p)
	return p, err
}

// DecodeItineraryEventPayload decodes an itinerary event proposal payload.
func DecodeItineraryEventPayload(raw json.RawMessage) (ItineraryEventPayload, error) {
	var p ItineraryEventPayload
	err := decodePayload(KindItineraryEvent, raw, &p)
	return p, err
}

// DecodeNotePayload decodes a note proposal payload.
func DecodeNotePayload(raw json.RawMessage) (NotePayload, error) {
	var p NotePayload
	err := decodePayload(KindNote, raw, &p)
	return p, err
}
