package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/field-booking/internal/database"
	"github.com/Shivanand-hulikatti/field-booking/internal/interval"
	"github.com/Shivanand-hulikatti/field-booking/internal/model"
)

// BookingRepository owns booking records.
type BookingRepository struct {
	db database.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create persists b unless it overlaps another booking on the same field.
//
// The read-check-write sequence runs in one transaction that first takes an
// exclusive lock on the field row (SELECT … FOR UPDATE). A second proposal on
// the same field blocks on that lock until the first commits, then sees the
// first booking when it loads the field's schedule. Proposals on different
// fields lock different rows and proceed in parallel.
func (r *BookingRepository) Create(ctx context.Context, b model.Booking) (*model.Booking, error) {
	now := time.Now().UTC()
	b.ID = uuid.New().String()
	b.Start = b.Start.UTC()
	b.End = b.End.UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	dialect := r.db.Dialect()
	err := r.db.WithTx(ctx, func(q database.Querier) error {
		// Step 1: lock the field row.
		sel := dialect.From(tableFields).Prepared(true).
			Select(goqu.C(colID)).
			Where(goqu.C(colID).Eq(b.FieldID))
		query, args, err := lockRow(r.db, sel, true).ToSQL()
		if err != nil {
			return fmt.Errorf("build field lock: %w", err)
		}
		var fieldID string
		if err := q.QueryRow(ctx, query, args...).Scan(&fieldID); err != nil {
			if errors.Is(err, database.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock field row: %w", err)
		}

		// Step 2: load the field's bookings and run the conflict check.
		existing, err := listBookings(ctx, q, dialect, model.BookingFilter{FieldID: b.FieldID})
		if err != nil {
			return err
		}
		if interval.HasConflict(b.FieldID, b.Start, b.End, existing) {
			return ErrScheduleConflict
		}

		// Step 3: insert.
		query, args, err = dialect.Insert(tableBookings).Prepared(true).
			Rows(goqu.Record{
				colID:            b.ID,
				colDescription:   b.Description,
				colUserID:        b.UserID,
				colFieldID:       b.FieldID,
				colPlayDateStart: b.Start,
				colPlayDateEnd:   b.End,
				colCreatedAt:     b.CreatedAt,
				colUpdatedAt:     b.UpdatedAt,
			}).ToSQL()
		if err != nil {
			return fmt.Errorf("build insert booking: %w", err)
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify("create booking", err)
	}
	return &b, nil
}

// GetByID returns a single booking or ErrNotFound.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	query, args, err := r.db.Dialect().From(tableBookings).Prepared(true).
		Select(bookingColumns("")...).
		Where(goqu.C(colID).Eq(id)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get booking: %w", err)
	}

	b, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify("get booking", err)
	}
	return b, nil
}

// List returns bookings matching filter ordered by start time ascending.
func (r *BookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	bookings, err := listBookings(ctx, r.db, r.db.Dialect(), filter)
	if err != nil {
		return nil, classify("list bookings", err)
	}
	return bookings, nil
}

// Players returns the roster of a booking, earliest joiner first. Users not
// known to the users table are listed with empty name and email.
func (r *BookingRepository) Players(ctx context.Context, bookingID string) ([]model.Player, error) {
	query, args, err := r.db.Dialect().
		From(goqu.T(tableSchedules).As("s")).Prepared(true).
		LeftJoin(goqu.T(tableUsers).As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("s.user_id")))).
		Select(
			goqu.I("s.user_id"),
			goqu.COALESCE(goqu.I("u.name"), ""),
			goqu.COALESCE(goqu.I("u.email"), ""),
			goqu.I("s.created_at"),
		).
		Where(goqu.I("s.booking_id").Eq(bookingID)).
		Order(goqu.I("s.created_at").Asc(), goqu.I("s.id").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list players: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list players", err)
	}
	defer rows.Close()

	var players []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.JoinedAt); err != nil {
			return nil, classify("scan player", err)
		}
		p.JoinedAt = p.JoinedAt.UTC()
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list players", err)
	}
	return players, nil
}

func listBookings(ctx context.Context, q database.Querier, dialect goqu.DialectWrapper, filter model.BookingFilter) ([]model.Booking, error) {
	sel := dialect.From(tableBookings).Prepared(true).Select(bookingColumns("")...)
	if filter.UserID != "" {
		sel = sel.Where(goqu.C(colUserID).Eq(filter.UserID))
	}
	if filter.FieldID != "" {
		sel = sel.Where(goqu.C(colFieldID).Eq(filter.FieldID))
	}
	query, args, err := sel.Order(goqu.C(colPlayDateStart).Asc(), goqu.C(colID).Asc()).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list bookings: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row database.Row) (*model.Booking, error) {
	var b model.Booking
	if err := row.Scan(&b.ID, &b.Description, &b.UserID, &b.FieldID, &b.Start, &b.End, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Start = b.Start.UTC()
	b.End = b.End.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}
