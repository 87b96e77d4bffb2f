// Package model defines the core domain types for the field booking system.
package model

import "time"

// Roles carried by an authenticated actor.
const (
	RoleUser  = "user"
	RoleOwner = "owner"
)

// Actor is the already-authenticated caller of a core operation.
type Actor struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	Verified bool   `json:"is_verified"`
}

// Booking is a reservation of a field for the half-open interval [Start, End).
type Booking struct {
	ID          string    `json:"id"`
	FieldID     string    `json:"field_id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"keterangan"`
	Start       time.Time `json:"play_date_start"`
	End         time.Time `json:"play_date_end"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership is one user's participation in a booking. The creator of a
// booking does not get one automatically.
type Membership struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Player is a participant of a booking as shown on the booking detail.
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

// Venue is the read-only venue context attached to schedule entries.
type Venue struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Field is the read-only field context attached to schedule entries.
type Field struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Venue Venue  `json:"venue"`
}

// BookingView is a booking together with its roster.
type BookingView struct {
	Booking
	PlayersCount int      `json:"players_count"`
	Players      []Player `json:"players"`
}

// ScheduleEntry is one booking on a user's schedule, expanded with its
// field and venue.
type ScheduleEntry struct {
	Booking
	MembershipID string `json:"membership_id"`
	Field        Field  `json:"field"`
}

// BookingFilter narrows ListBookings. Empty fields are ignored; set fields
// are combined conjunctively.
type BookingFilter struct {
	UserID  string
	FieldID string
}

// ProposeBookingRequest is the payload for reserving a field.
type ProposeBookingRequest struct {
	FieldID     string `json:"fieldId"`
	Description string `json:"keterangan"`
	Start       string `json:"play_date_start"`
	End         string `json:"play_date_end"`
}

// ProposeBookingResult identifies a newly created booking.
type ProposeBookingResult struct {
	BookingID string `json:"booking_id"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse wraps a successful response with a short message.
type MessageResponse struct {
	Message string `json:"msg"`
	Data    any    `json:"data,omitempty"`
}
