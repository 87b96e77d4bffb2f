package repository

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/Shivanand-hulikatti/field-booking/internal/database"
)

// FieldRegistry answers existence questions about fields owned by the venue
// service.
type FieldRegistry struct {
	db database.DB
}

// NewFieldRegistry constructs a FieldRegistry.
func NewFieldRegistry(db database.DB) *FieldRegistry {
	return &FieldRegistry{db: db}
}

// FieldExists reports whether fieldID belongs to venueID.
func (r *FieldRegistry) FieldExists(ctx context.Context, fieldID, venueID string) (bool, error) {
	query, args, err := r.db.Dialect().From(tableFields).Prepared(true).
		Select(goqu.COUNT("*")).
		Where(
			goqu.C(colID).Eq(fieldID),
			goqu.C(colVenueID).Eq(venueID),
		).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build field lookup: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return false, classify("field lookup", err)
	}
	return n > 0, nil
}
