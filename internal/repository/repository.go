// Package repository implements all database queries for the field booking
// system. Queries are built with goqu so one implementation serves both the
// PostgreSQL and the SQLite backends.
package repository

import (
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/Shivanand-hulikatti/field-booking/internal/database"
)

// ErrNotFound is returned when a referenced field, venue or booking does not exist.
var ErrNotFound = errors.New("not found")

// ErrScheduleConflict is returned when a proposed interval overlaps an
// existing booking on the same field.
var ErrScheduleConflict = errors.New("schedule conflicts with an existing booking")

// ErrAlreadyJoined is returned when a user joins a booking twice.
var ErrAlreadyJoined = errors.New("already joined this booking")

// ErrNotJoined is returned when a user leaves a booking they never joined.
var ErrNotJoined = errors.New("not joined this booking")

// ErrStorageUnavailable marks connectivity failures and aborted transactions.
// It is the only error kind a caller may retry transparently.
var ErrStorageUnavailable = errors.New("storage unavailable")

const (
	tableBookings  = "bookings"
	tableSchedules = "schedules"
	tableFields    = "fields"
	tableVenues    = "venues"
	tableUsers     = "users"

	colID            = "id"
	colDescription   = "keterangan"
	colUserID        = "user_id"
	colFieldID       = "field_id"
	colBookingID     = "booking_id"
	colVenueID       = "venue_id"
	colPlayDateStart = "play_date_start"
	colPlayDateEnd   = "play_date_end"
	colCreatedAt     = "created_at"
	colUpdatedAt     = "updated_at"
)

func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrScheduleConflict) ||
		errors.Is(err, ErrAlreadyJoined) ||
		errors.Is(err, ErrNotJoined)
}

// classify passes business outcomes through untouched and marks everything
// else as a storage fault.
func classify(op string, err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

// lockRow returns sel with a row lock when the backend supports one. SQLite
// transactions already hold the database write lock from their first read.
func lockRow(db database.DB, sel *goqu.SelectDataset, exclusive bool) *goqu.SelectDataset {
	if !db.SupportsRowLocks() {
		return sel
	}
	if exclusive {
		return sel.ForUpdate(exp.Wait)
	}
	return sel.ForShare(exp.Wait)
}

// bookingColumns is the column order scanBooking expects.
func bookingColumns(table string) []any {
	cols := []string{colID, colDescription, colUserID, colFieldID, colPlayDateStart, colPlayDateEnd, colCreatedAt, colUpdatedAt}
	out := make([]any, len(cols))
	for i, c := range cols {
		if table == "" {
			out[i] = goqu.C(c)
		} else {
			out[i] = goqu.I(table + "." + c)
		}
	}
	return out
}
