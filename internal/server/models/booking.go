package models

import "time"

// Booking statuses.
const (
	BookingStatusConfirmed = "confirmed"
)

// BookingSummary is the human-readable digest shown on the confirmation
// screen and stored with the booking.
type BookingSummary struct {
	Destination   string `json:"destination"`
	Dates         string `json:"dates"`
	Travelers     string `json:"travelers"`
	Package       string `json:"package"`
	Accommodation string `json:"accommodation"`
	Activities    string `json:"activities"`
	TotalPrice    string `json:"total_price"`
}

// Booking is created exactly once per completed session.
type Booking struct {
	ID             string
	Reference      string
	Name           string
	LocationID     string
	SessionID      string
	FlowToken      string
	Remarks        string
	Summary        BookingSummary
	EstimatedPrice int64
	Currency       string
	Status         string
	CreatedAt      time.Time
}

// Location is the reference location bookings attach to.
type Location struct {
	ID        string
	Code      string
	Name      string
	IsDefault bool
}
