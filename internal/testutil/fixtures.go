// Package testutil provides an in-memory SQLite store and seed data for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/field-booking/internal/database"
)

// NewSQLiteDB opens a migrated in-memory database that is closed when t ends.
func NewSQLiteDB(t testing.TB) database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, database.MemoryPath)
	require.NoError(t, err, "error opening sqlite in test setup")
	t.Cleanup(db.Close)

	require.NoError(t, database.Migrate(ctx, db), "error migrating sqlite in test setup")
	return db
}

// GivenUniqueID returns a fresh id for test data.
func GivenUniqueID() string {
	return uuid.New().String()
}

// GivenVenueWithField inserts a venue and one field under it and returns
// their ids.
func GivenVenueWithField(t testing.TB, db database.DB) (venueID, fieldID string) {
	t.Helper()
	ctx := context.Background()

	venueID = GivenUniqueID()
	_, err := db.Exec(ctx,
		`INSERT INTO venues (id, name, address) VALUES (?, ?, ?)`,
		venueID, "GOR Senayan", "Jl. Pintu Satu Senayan",
	)
	require.NoError(t, err, "error in arranging venue")

	fieldID = GivenFieldInVenue(t, db, venueID, "Court A", "futsal")
	return venueID, fieldID
}

// GivenFieldInVenue inserts another field under venueID.
func GivenFieldInVenue(t testing.TB, db database.DB, venueID, name, fieldType string) string {
	t.Helper()

	fieldID := GivenUniqueID()
	_, err := db.Exec(context.Background(),
		`INSERT INTO fields (id, name, type, venue_id) VALUES (?, ?, ?, ?)`,
		fieldID, name, fieldType, venueID,
	)
	require.NoError(t, err, "error in arranging field")
	return fieldID
}

// GivenUser inserts a verified user with role "user".
func GivenUser(t testing.TB, db database.DB, name, email string) string {
	t.Helper()

	userID := GivenUniqueID()
	_, err := db.Exec(context.Background(),
		`INSERT INTO users (id, name, email, role, is_verified) VALUES (?, ?, ?, 'user', 1)`,
		userID, name, email,
	)
	require.NoError(t, err, "error in arranging user")
	return userID
}

// DeleteBooking removes a booking the way an administrator would, letting
// ON DELETE CASCADE clean up its memberships.
func DeleteBooking(t testing.TB, db database.DB, bookingID string) {
	t.Helper()

	_, err := db.Exec(context.Background(), `DELETE FROM bookings WHERE id = ?`, bookingID)
	require.NoError(t, err, "error deleting booking")
}
