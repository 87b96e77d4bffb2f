package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/field-booking/internal/auth"
	"github.com/Shivanand-hulikatti/field-booking/internal/database"
	. "github.com/Shivanand-hulikatti/field-booking/internal/handler"
	"github.com/Shivanand-hulikatti/field-booking/internal/model"
	"github.com/Shivanand-hulikatti/field-booking/internal/repository"
	"github.com/Shivanand-hulikatti/field-booking/internal/service"
	"github.com/Shivanand-hulikatti/field-booking/internal/testutil"
)

const secret = "handler-test-secret"

var fakeNow = time.Date(2030, time.March, 1, 8, 0, 0, 0, time.UTC)

type api struct {
	db      database.DB
	server  *httptest.Server
	venueID string
	fieldID string
}

func newAPI(t *testing.T) api {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	venueID, fieldID := testutil.GivenVenueWithField(t, db)
	logger := slog.New(slog.DiscardHandler)

	svc := service.NewBookingService(
		repository.NewBookingRepository(db),
		repository.NewMembershipRepository(db),
		repository.NewFieldRegistry(db),
		service.WithClock(func() time.Time { return fakeNow }),
		service.WithLogger(logger),
	)
	router := NewRouter(NewBookingHandler(svc, logger), auth.NewVerifier(secret), logger)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return api{db: db, server: server, venueID: venueID, fieldID: fieldID}
}

func token(t *testing.T, userID, role string, verified bool) string {
	t.Helper()
	claims := auth.Claims{
		Role:     role,
		Verified: verified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err, "error signing token in test setup")
	return signed
}

func userToken(t *testing.T, userID string) string {
	return token(t, userID, model.RoleUser, true)
}

func (a api) do(t *testing.T, method, path, bearer, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, a.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (a api) propose(t *testing.T, bearer, start, end string) (*http.Response, map[string]any) {
	body := fmt.Sprintf(`{"fieldId":%q,"keterangan":"main futsal","play_date_start":%q,"play_date_end":%q}`, a.fieldID, start, end)
	return a.do(t, http.MethodPost, "/api/v1/venues/"+a.venueID+"/bookings", bearer, body)
}

func bookingID(t *testing.T, body map[string]any) string {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has data object: %v", body)
	id, ok := data["booking_id"].(string)
	require.True(t, ok)
	return id
}

func Test_HealthCheck(t *testing.T) {
	a := newAPI(t)

	resp, body := a.do(t, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func Test_ProposeBooking_StatusCodes(t *testing.T) {
	a := newAPI(t)
	u1 := userToken(t, "u1")

	resp, body := a.propose(t, u1, "2030-03-04T10:00:00Z", "2030-03-04T11:00:00Z")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, bookingID(t, body))

	resp, _ = a.propose(t, userToken(t, "u2"), "2030-03-04T11:00:00Z", "2030-03-04T12:00:00Z")
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "back to back")

	resp, body = a.propose(t, userToken(t, "u3"), "2030-03-04T10:30:00Z", "2030-03-04T11:30:00Z")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	resp, _ = a.propose(t, u1, "2030-02-01T10:00:00Z", "2030-02-01T11:00:00Z")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "past start")

	resp, _ = a.propose(t, u1, "not-a-date", "2030-03-04T11:00:00Z")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = a.do(t, http.MethodPost, "/api/v1/venues/"+a.venueID+"/bookings", u1, `{"fieldId":"x",`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_ProposeBooking_UnknownVenue(t *testing.T) {
	a := newAPI(t)
	body := fmt.Sprintf(`{"fieldId":%q,"description":"main","play_date_start":"2030-03-04T10:00:00Z","play_date_end":"2030-03-04T11:00:00Z"}`, a.fieldID)

	resp, _ := a.do(t, http.MethodPost, "/api/v1/venues/other/bookings", userToken(t, "u1"), body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func Test_Guards(t *testing.T) {
	a := newAPI(t)

	resp, _ := a.propose(t, "", "2030-03-04T10:00:00Z", "2030-03-04T11:00:00Z")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "anonymous")

	resp, _ = a.propose(t, "garbage", "2030-03-04T10:00:00Z", "2030-03-04T11:00:00Z")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "bad token")

	resp, _ = a.propose(t, token(t, "u1", model.RoleUser, false), "2030-03-04T10:00:00Z", "2030-03-04T11:00:00Z")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "unverified")

	owner := token(t, "o1", model.RoleOwner, true)
	resp, _ = a.propose(t, owner, "2030-03-04T10:00:00Z", "2030-03-04T11:00:00Z")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "owner cannot book")

	resp, _ = a.do(t, http.MethodGet, "/api/v1/bookings", owner, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "owner can read")
}

func Test_JoinUnjoinAndSchedule(t *testing.T) {
	a := newAPI(t)
	_, body := a.propose(t, userToken(t, "creator"), "2030-03-04T10:00:00Z", "2030-03-04T11:00:00Z")
	id := bookingID(t, body)
	u1 := userToken(t, "u1")

	resp, _ := a.do(t, http.MethodPut, "/api/v1/bookings/"+id+"/join", u1, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = a.do(t, http.MethodPut, "/api/v1/bookings/"+id+"/join", u1, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "second join")

	resp, body = a.do(t, http.MethodGet, "/api/v1/bookings/"+id, u1, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["players_count"])
	assert.Len(t, data["players"], 1)

	resp, body = a.do(t, http.MethodGet, "/api/v1/schedules", u1, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := body["data"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, id, entry["id"])
	field := entry["field"].(map[string]any)
	assert.Equal(t, "Court A", field["name"])
	assert.Equal(t, "GOR Senayan", field["venue"].(map[string]any)["name"])

	resp, _ = a.do(t, http.MethodPut, "/api/v1/bookings/"+id+"/unjoin", u1, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = a.do(t, http.MethodPut, "/api/v1/bookings/"+id+"/unjoin", u1, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "second unjoin")

	resp, body = a.do(t, http.MethodGet, "/api/v1/schedules", u1, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["data"])
}

func Test_BookingNotFound(t *testing.T) {
	a := newAPI(t)
	u1 := userToken(t, "u1")

	resp, _ := a.do(t, http.MethodGet, "/api/v1/bookings/missing", u1, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = a.do(t, http.MethodPut, "/api/v1/bookings/missing/join", u1, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func Test_ListBookings_Filters(t *testing.T) {
	a := newAPI(t)
	_, _ = a.propose(t, userToken(t, "u1"), "2030-03-04T10:00:00Z", "2030-03-04T11:00:00Z")
	_, _ = a.propose(t, userToken(t, "u2"), "2030-03-04T12:00:00Z", "2030-03-04T13:00:00Z")
	reader := userToken(t, "reader")

	_, body := a.do(t, http.MethodGet, "/api/v1/bookings", reader, "")
	assert.Len(t, body["data"], 2)

	_, body = a.do(t, http.MethodGet, "/api/v1/bookings?userId=u2&fieldId="+a.fieldID, reader, "")
	assert.Len(t, body["data"], 1)

	_, body = a.do(t, http.MethodGet, "/api/v1/bookings?userId=nobody", reader, "")
	assert.Equal(t, []any{}, body["data"])
}

func Test_ProposeBooking_NumericFieldID(t *testing.T) {
	a := newAPI(t)
	numericField := "42"
	_, err := a.db.Exec(context.Background(),
		`INSERT INTO fields (id, name, type, venue_id) VALUES (?, ?, ?, ?)`, numericField, "Court 42", "futsal", a.venueID)
	require.NoError(t, err)
	body := `{"fieldId":42,"keterangan":"main","play_date_start":"2030-03-04T10:00:00Z","play_date_end":"2030-03-04T11:00:00Z"}`

	resp, _ := a.do(t, http.MethodPost, "/api/v1/venues/"+a.venueID+"/bookings", userToken(t, "u1"), body)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
