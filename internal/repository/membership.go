package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/field-booking/internal/database"
	"github.com/Shivanand-hulikatti/field-booking/internal/model"
)

// MembershipRepository owns the schedules table: who joined which booking.
// It references bookings by id and never creates or deletes them.
type MembershipRepository struct {
	db database.DB
}

// NewMembershipRepository constructs a MembershipRepository.
func NewMembershipRepository(db database.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Join adds userID to the roster of bookingID.
//
// The booking row is share-locked so it cannot be deleted mid-join, the
// existing membership is checked, and the insert runs in the same
// transaction. Two concurrent joins by the same user can both pass the check;
// the unique (booking_id, user_id) index rejects the second insert, which is
// reported as ErrAlreadyJoined.
func (r *MembershipRepository) Join(ctx context.Context, bookingID, userID string) (*model.Membership, error) {
	now := time.Now().UTC()
	m := &model.Membership{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	dialect := r.db.Dialect()
	err := r.db.WithTx(ctx, func(q database.Querier) error {
		if err := r.lockBooking(ctx, q, bookingID); err != nil {
			return err
		}

		joined, err := r.isMember(ctx, q, bookingID, userID)
		if err != nil {
			return err
		}
		if joined {
			return ErrAlreadyJoined
		}

		query, args, err := dialect.Insert(tableSchedules).Prepared(true).
			Rows(goqu.Record{
				colID:        m.ID,
				colUserID:    m.UserID,
				colBookingID: m.BookingID,
				colCreatedAt: m.CreatedAt,
				colUpdatedAt: m.UpdatedAt,
			}).ToSQL()
		if err != nil {
			return fmt.Errorf("build insert membership: %w", err)
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			if r.db.IsUniqueViolation(err) {
				return ErrAlreadyJoined
			}
			return fmt.Errorf("insert membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify("join booking", err)
	}
	return m, nil
}

// Unjoin removes userID from the roster of bookingID.
func (r *MembershipRepository) Unjoin(ctx context.Context, bookingID, userID string) error {
	dialect := r.db.Dialect()
	err := r.db.WithTx(ctx, func(q database.Querier) error {
		if err := r.lockBooking(ctx, q, bookingID); err != nil {
			return err
		}

		query, args, err := dialect.Delete(tableSchedules).Prepared(true).
			Where(
				goqu.C(colBookingID).Eq(bookingID),
				goqu.C(colUserID).Eq(userID),
			).ToSQL()
		if err != nil {
			return fmt.Errorf("build delete membership: %w", err)
		}
		affected, err := q.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		if affected == 0 {
			return ErrNotJoined
		}
		return nil
	})
	return classify("unjoin booking", err)
}

// ScheduleFor returns every booking userID has joined, expanded with field
// and venue, ordered by start time ascending. Memberships whose booking is
// gone are dropped by the inner join.
func (r *MembershipRepository) ScheduleFor(ctx context.Context, userID string) ([]model.ScheduleEntry, error) {
	cols := append([]any{goqu.I("s.id")}, bookingColumns("b")...)
	cols = append(cols,
		goqu.COALESCE(goqu.I("f.name"), ""),
		goqu.COALESCE(goqu.I("f.type"), ""),
		goqu.COALESCE(goqu.I("v.id"), ""),
		goqu.COALESCE(goqu.I("v.name"), ""),
		goqu.COALESCE(goqu.I("v.address"), ""),
	)

	query, args, err := r.db.Dialect().
		From(goqu.T(tableSchedules).As("s")).Prepared(true).
		InnerJoin(goqu.T(tableBookings).As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("s.booking_id")))).
		LeftJoin(goqu.T(tableFields).As("f"), goqu.On(goqu.I("f.id").Eq(goqu.I("b.field_id")))).
		LeftJoin(goqu.T(tableVenues).As("v"), goqu.On(goqu.I("v.id").Eq(goqu.I("f.venue_id")))).
		Select(cols...).
		Where(goqu.I("s.user_id").Eq(userID)).
		Order(goqu.I("b.play_date_start").Asc(), goqu.I("b.id").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build schedule query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list schedule", err)
	}
	defer rows.Close()

	var entries []model.ScheduleEntry
	for rows.Next() {
		var e model.ScheduleEntry
		b := &e.Booking
		if err := rows.Scan(
			&e.MembershipID,
			&b.ID, &b.Description, &b.UserID, &b.FieldID, &b.Start, &b.End, &b.CreatedAt, &b.UpdatedAt,
			&e.Field.Name, &e.Field.Type,
			&e.Field.Venue.ID, &e.Field.Venue.Name, &e.Field.Venue.Address,
		); err != nil {
			return nil, classify("scan schedule", err)
		}
		e.Field.ID = b.FieldID
		b.Start, b.End = b.Start.UTC(), b.End.UTC()
		b.CreatedAt, b.UpdatedAt = b.CreatedAt.UTC(), b.UpdatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list schedule", err)
	}
	return entries, nil
}

func (r *MembershipRepository) lockBooking(ctx context.Context, q database.Querier, bookingID string) error {
	sel := r.db.Dialect().From(tableBookings).Prepared(true).
		Select(goqu.C(colID)).
		Where(goqu.C(colID).Eq(bookingID))
	query, args, err := lockRow(r.db, sel, false).ToSQL()
	if err != nil {
		return fmt.Errorf("build booking lock: %w", err)
	}
	var id string
	if err := q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock booking row: %w", err)
	}
	return nil
}

func (r *MembershipRepository) isMember(ctx context.Context, q database.Querier, bookingID, userID string) (bool, error) {
	query, args, err := r.db.Dialect().From(tableSchedules).Prepared(true).
		Select(goqu.COUNT("*")).
		Where(
			goqu.C(colBookingID).Eq(bookingID),
			goqu.C(colUserID).Eq(userID),
		).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build membership check: %w", err)
	}
	var n int
	if err := q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return n > 0, nil
}
