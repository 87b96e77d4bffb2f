// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/field-booking/internal/model"
	"github.com/Shivanand-hulikatti/field-booking/internal/repository"
)

// ErrValidationFailed is returned for malformed or missing input.
var ErrValidationFailed = errors.New("validation failed")

// ErrInvalidInterval is returned when start is not before end or start is
// not in the future.
var ErrInvalidInterval = errors.New("invalid booking interval")

// Layouts accepted for play dates. Values without an offset are read in the
// service's booking location.
var playDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// BookingLedger persists bookings and enforces the no-overlap rule per field.
type BookingLedger interface {
	Create(ctx context.Context, b model.Booking) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error)
	Players(ctx context.Context, bookingID string) ([]model.Player, error)
}

// Roster persists memberships.
type Roster interface {
	Join(ctx context.Context, bookingID, userID string) (*model.Membership, error)
	Unjoin(ctx context.Context, bookingID, userID string) error
	ScheduleFor(ctx context.Context, userID string) ([]model.ScheduleEntry, error)
}

// FieldRegistry is the venue service's view of which fields exist.
type FieldRegistry interface {
	FieldExists(ctx context.Context, fieldID, venueID string) (bool, error)
}

// BookingService orchestrates booking, roster and schedule operations.
type BookingService struct {
	bookings BookingLedger
	roster   Roster
	fields   FieldRegistry
	now      func() time.Time
	location *time.Location
	logger   *slog.Logger
}

// Option configures a BookingService.
type Option func(*BookingService)

// WithClock overrides the time source used for the "start in the future" rule.
func WithClock(now func() time.Time) Option {
	return func(s *BookingService) { s.now = now }
}

// WithLocation sets the zone for play dates sent without an offset.
func WithLocation(loc *time.Location) Option {
	return func(s *BookingService) { s.location = loc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *BookingService) { s.logger = logger }
}

// NewBookingService constructs a BookingService with its dependencies.
func NewBookingService(bookings BookingLedger, roster Roster, fields FieldRegistry, opts ...Option) *BookingService {
	s := &BookingService{
		bookings: bookings,
		roster:   roster,
		fields:   fields,
		now:      time.Now,
		location: time.UTC,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProposeBooking validates the request and reserves the field for actor.
// Input is checked before the interval, and the interval before any storage
// access, so a start in the past is rejected whatever the field's schedule.
func (s *BookingService) ProposeBooking(ctx context.Context, actor model.Actor, venueID string, req model.ProposeBookingRequest) (*model.ProposeBookingResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	venueID = strings.TrimSpace(venueID)
	req.FieldID = strings.TrimSpace(req.FieldID)
	req.Description = strings.TrimSpace(req.Description)
	if venueID == "" {
		return nil, fmt.Errorf("%w: venue id is required", ErrValidationFailed)
	}
	if req.FieldID == "" {
		return nil, fmt.Errorf("%w: fieldId is required", ErrValidationFailed)
	}
	if req.Description == "" {
		return nil, fmt.Errorf("%w: keterangan is required", ErrValidationFailed)
	}
	start, err := s.parsePlayDate("play_date_start", req.Start)
	if err != nil {
		return nil, err
	}
	end, err := s.parsePlayDate("play_date_end", req.End)
	if err != nil {
		return nil, err
	}

	if !start.Before(end) {
		return nil, fmt.Errorf("%w: play_date_end must be after play_date_start", ErrInvalidInterval)
	}
	if !start.After(s.now()) {
		return nil, fmt.Errorf("%w: play_date_start must be in the future", ErrInvalidInterval)
	}

	ok, err := s.fields.FieldExists(ctx, req.FieldID, venueID)
	if err != nil {
		return nil, fmt.Errorf("check field: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("field %s in venue %s: %w", req.FieldID, venueID, repository.ErrNotFound)
	}

	b, err := s.bookings.Create(ctx, model.Booking{
		FieldID:     req.FieldID,
		UserID:      actor.UserID,
		Description: req.Description,
		Start:       start,
		End:         end,
	})
	if err != nil {
		if errors.Is(err, repository.ErrScheduleConflict) {
			s.logger.Debug("booking rejected", "field_id", req.FieldID, "start", start, "end", end, "reason", err)
		}
		return nil, err
	}

	s.logger.Info("booking created", "booking_id", b.ID, "field_id", b.FieldID, "user_id", b.UserID, "start", b.Start, "end", b.End)
	return &model.ProposeBookingResult{BookingID: b.ID}, nil
}

// GetBooking returns a booking with its roster.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*model.BookingView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: booking id is required", ErrValidationFailed)
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	players, err := s.bookings.Players(ctx, id)
	if err != nil {
		return nil, err
	}
	if players == nil {
		players = []model.Player{}
	}
	return &model.BookingView{Booking: *b, PlayersCount: len(players), Players: players}, nil
}

// ListBookings returns bookings matching every set filter field.
func (s *BookingService) ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	filter.UserID = strings.TrimSpace(filter.UserID)
	filter.FieldID = strings.TrimSpace(filter.FieldID)
	return s.bookings.List(ctx, filter)
}

// Join adds actor to the roster of bookingID. Joining twice is an error.
func (s *BookingService) Join(ctx context.Context, actor model.Actor, bookingID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return fmt.Errorf("%w: booking id is required", ErrValidationFailed)
	}
	m, err := s.roster.Join(ctx, bookingID, actor.UserID)
	if err != nil {
		return err
	}
	s.logger.Info("booking joined", "booking_id", bookingID, "user_id", actor.UserID, "membership_id", m.ID)
	return nil
}

// Unjoin removes actor from the roster of bookingID.
func (s *BookingService) Unjoin(ctx context.Context, actor model.Actor, bookingID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return fmt.Errorf("%w: booking id is required", ErrValidationFailed)
	}
	if err := s.roster.Unjoin(ctx, bookingID, actor.UserID); err != nil {
		return err
	}
	s.logger.Info("booking left", "booking_id", bookingID, "user_id", actor.UserID)
	return nil
}

// MySchedule lists the bookings actor has joined, earliest start first.
// Bookings actor created but never joined are not included.
func (s *BookingService) MySchedule(ctx context.Context, actor model.Actor) ([]model.ScheduleEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	entries, err := s.roster.ScheduleFor(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(entries, func(a, b model.ScheduleEntry) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return entries, nil
}

func (s *BookingService) parsePlayDate(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", ErrValidationFailed, name)
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range playDateLayouts {
		if t, err := time.ParseInLocation(layout, value, s.location); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s must be formatted as yyyy-MM-ddTHH:mm:ss", ErrValidationFailed, name)
}

func requireActor(actor model.Actor) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return fmt.Errorf("%w: actor is required", ErrValidationFailed)
	}
	return nil
}
