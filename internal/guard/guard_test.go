package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Shivanand-hulikatti/field-booking/internal/model"
)

func Test_Check(t *testing.T) {
	tests := []struct {
		name   string
		actor  model.Actor
		guards []Guard
		want   error
	}{
		{"reader ok", model.Actor{UserID: "u", Role: model.RoleOwner, Verified: true}, Reader(), nil},
		{"player ok", model.Actor{UserID: "u", Role: model.RoleUser, Verified: true}, Player(), nil},
		{"anonymous", model.Actor{}, Reader(), ErrUnauthenticated},
		{"unverified", model.Actor{UserID: "u", Role: model.RoleUser}, Player(), ErrNotVerified},
		{"owner cannot book", model.Actor{UserID: "u", Role: model.RoleOwner, Verified: true}, Player(), ErrForbidden},
		{"no guards", model.Actor{}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.actor, tt.guards...)

			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func Test_Check_StopsAtFirstFailure(t *testing.T) {
	calls := 0
	counting := func(model.Actor) error { calls++; return nil }

	err := Check(model.Actor{}, Authenticated(), counting)

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, 0, calls)
}
