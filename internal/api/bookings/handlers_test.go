package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/api/apiutil"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/api/authz"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/booking"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/testutil"
)

type fakeService struct {
	err        error
	commit     *booking.CommitParams
	cancel     *booking.CancelParams
	confirmID  string
	guardianID *int64
	from, to   time.Time
	calls      int
}

func (f *fakeService) Evaluate(_ context.Context, athleteID, eventID int64) (booking.EligibilityResult, error) {
	f.calls++
	id := int64(3)
	return booking.EligibilityResult{CanBook: true, SourceType: booking.SourcePackage, SourceID: &id, Reason: "Punch Card"}, f.err
}

func (f *fakeService) Resolve(context.Context, int64, int64) ([]booking.PaymentSource, error) {
	f.calls++
	return nil, f.err
}

func (f *fakeService) Commit(_ context.Context, p booking.CommitParams) (booking.BookingResult, error) {
	f.calls++
	f.commit = &p
	if f.err != nil {
		return booking.BookingResult{}, f.err
	}
	return booking.BookingResult{BookingID: 42, SourceType: p.PaymentType, SourceID: p.PaymentID}, nil
}

func (f *fakeService) Cancel(_ context.Context, p booking.CancelParams) (booking.CancellationResult, error) {
	f.calls++
	f.cancel = &p
	if f.err != nil {
		return booking.CancellationResult{}, f.err
	}
	return booking.CancellationResult{BookingID: 42, Refunded: true, RefundAmountCents: 2500, RefundPercentage: 100, RefundStatus: "refunded"}, nil
}

func (f *fakeService) CreatePaymentIntent(context.Context, int64, int64) (booking.PaymentIntent, error) {
	f.calls++
	return booking.PaymentIntent{ID: "chrg_1", ClientSecret: "https://pay.example.com/chrg_1", AmountCents: 2500, Currency: "usd", Status: "pending"}, f.err
}

func (f *fakeService) ConfirmDropIn(_ context.Context, intentID string, _, _ int64, guardianID *int64) (booking.BookingResult, error) {
	f.calls++
	f.confirmID = intentID
	f.guardianID = guardianID
	return booking.BookingResult{BookingID: 43, SourceType: booking.SourceDropIn, AmountPaidCents: 2500}, f.err
}

func (f *fakeService) ListUpcomingEvents(_ context.Context, _ int64, from, to time.Time) ([]booking.EventSummary, error) {
	f.calls++
	f.from, f.to = from, to
	return nil, f.err
}

func (f *fakeService) ListAthleteBookings(context.Context, int64, time.Time) ([]booking.AthleteBooking, error) {
	f.calls++
	return []booking.AthleteBooking{{ID: 1, EventID: 2, Status: "confirmed", SourceType: booking.SourceDropIn}}, f.err
}

type testEnv struct {
	svc        *fakeService
	mux        *http.ServeMux
	now        time.Time
	orgID      int64
	athleteID  int64
	otherID    int64
	guardianID int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, database)

	env := &testEnv{
		svc: &fakeService{},
		mux: http.NewServeMux(),
		now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	env.orgID = fx.Organization("Atlantic Sports", "atlantic", nil)
	env.athleteID = fx.Athlete(env.orgID, "ava", "ava@example.com")
	env.otherID = fx.Athlete(env.orgID, "ben", "ben@example.com")
	env.guardianID = fx.Guardian(env.orgID, "parent@example.com", env.athleteID)

	handler := NewHandler(env.svc, database.Queries)
	handler.now = func() time.Time { return env.now }
	handler.Register(env.mux)
	return env
}

func (e *testEnv) athleteUser() *authz.AuthUser {
	id := e.athleteID
	return &authz.AuthUser{ID: "u-ava", Role: authz.RoleAthlete, OrganizationID: e.orgID, AthleteID: &id}
}

func (e *testEnv) guardianUser() *authz.AuthUser {
	id := e.guardianID
	return &authz.AuthUser{ID: "u-parent", Role: authz.RoleGuardian, OrganizationID: e.orgID, GuardianID: &id}
}

func (e *testEnv) do(t *testing.T, user *authz.AuthUser, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != nil {
		req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestEligibility(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.athleteUser(), http.MethodGet, fmt.Sprintf("/api/v1/athletes/%d/events/9/eligibility", env.athleteID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	got := decode[map[string]any](t, rec)
	if got["canBook"] != true || got["sourceType"] != "package" || got["reason"] != "Punch Card" {
		t.Fatalf("unexpected eligibility %v", got)
	}
}

func TestAccessControl(t *testing.T) {
	env := newTestEnv(t)
	path := fmt.Sprintf("/api/v1/athletes/%d/events/9/eligibility", env.otherID)

	if rec := env.do(t, nil, http.MethodGet, path, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", rec.Code)
	}
	if rec := env.do(t, env.athleteUser(), http.MethodGet, path, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another athlete, got %d", rec.Code)
	}
	if rec := env.do(t, env.guardianUser(), http.MethodGet, path, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unlinked guardian, got %d", rec.Code)
	}
	if env.svc.calls != 0 {
		t.Fatalf("service must not be called when access is denied, got %d calls", env.svc.calls)
	}

	staff := &authz.AuthUser{ID: "coach", Role: authz.RoleStaff, OrganizationID: env.orgID}
	if rec := env.do(t, staff, http.MethodGet, path, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected staff access, got %d", rec.Code)
	}
}

func TestPaymentMethodsEmptyList(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.athleteUser(), http.MethodGet, fmt.Sprintf("/api/v1/athletes/%d/events/9/payment-methods", env.athleteID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := bytes.TrimSpace(rec.Body.Bytes()); string(body) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", body)
	}
}

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)
	packageID := int64(5)
	rec := env.do(t, env.athleteUser(), http.MethodPost, "/api/v1/bookings", map[string]any{
		"athleteId":   env.athleteID,
		"eventId":     9,
		"paymentType": "package",
		"paymentId":   packageID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	got := decode[map[string]any](t, rec)
	if got["success"] != true || got["bookingId"] != float64(42) {
		t.Fatalf("unexpected response %v", got)
	}
	p := env.svc.commit
	if p == nil || p.PaymentType != booking.SourcePackage || p.PaymentID == nil || *p.PaymentID != packageID || p.GuardianID != nil {
		t.Fatalf("unexpected commit params %+v", p)
	}
}

func TestCreateBookingByGuardian(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.guardianUser(), http.MethodPost, "/api/v1/bookings", map[string]any{
		"athleteId":   env.athleteID,
		"eventId":     9,
		"paymentType": "drop_in",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	if g := env.svc.commit.GuardianID; g == nil || *g != env.guardianID {
		t.Fatalf("expected guardian %d on commit, got %v", env.guardianID, g)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body any
	}{
		{name: "malformed", body: `{"athleteId":`},
		{name: "unknown field", body: map[string]any{"athleteId": env.athleteID, "eventId": 9, "paymentType": "drop_in", "coupon": "x"}},
		{name: "missing event", body: map[string]any{"athleteId": env.athleteID, "paymentType": "drop_in"}},
		{name: "missing payment type", body: map[string]any{"athleteId": env.athleteID, "eventId": 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, env.athleteUser(), http.MethodPost, "/api/v1/bookings", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
			}
		})
	}
	if env.svc.calls != 0 {
		t.Fatalf("invalid requests must not reach the service")
	}
}

func TestCreateBookingRejected(t *testing.T) {
	env := newTestEnv(t)
	env.svc.err = fmt.Errorf("commit: %w", booking.ErrCapacityExceeded)
	rec := env.do(t, env.athleteUser(), http.MethodPost, "/api/v1/bookings", map[string]any{
		"athleteId":   env.athleteID,
		"eventId":     9,
		"paymentType": "drop_in",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	got := decode[map[string]any](t, rec)
	if got["success"] != false || got["error"] != "This class is full" {
		t.Fatalf("unexpected error body %v", got)
	}
}

func TestCancelBooking(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.athleteUser(), http.MethodDelete, "/api/v1/bookings", map[string]any{
		"athleteId": env.athleteID,
		"eventId":   9,
		"reason":    "  sick ",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	got := decode[map[string]any](t, rec)
	if got["success"] != true || got["refunded"] != true || got["refundAmount"] != float64(2500) {
		t.Fatalf("unexpected cancel response %v", got)
	}
	if env.svc.cancel.Reason != "sick" {
		t.Fatalf("expected trimmed reason, got %q", env.svc.cancel.Reason)
	}

	env.svc.err = booking.ErrNotFound
	rec = env.do(t, env.athleteUser(), http.MethodDelete, "/api/v1/bookings", map[string]any{"athleteId": env.athleteID, "eventId": 9})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing booking, got %d", rec.Code)
	}
}

func TestPaymentIntentFlow(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.athleteUser(), http.MethodPost, "/api/v1/payments/intents", map[string]any{"athleteId": env.athleteID, "eventId": 9})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	intent := decode[map[string]any](t, rec)
	if intent["paymentIntentId"] != "chrg_1" || intent["clientSecret"] == "" || intent["amountCents"] != float64(2500) {
		t.Fatalf("unexpected intent %v", intent)
	}

	rec = env.do(t, env.guardianUser(), http.MethodPost, "/api/v1/payments/intents/chrg_1/confirm", map[string]any{"athleteId": env.athleteID, "eventId": 9})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if env.svc.confirmID != "chrg_1" || env.svc.guardianID == nil || *env.svc.guardianID != env.guardianID {
		t.Fatalf("unexpected confirm call id=%q guardian=%v", env.svc.confirmID, env.svc.guardianID)
	}

	env.svc.err = fmt.Errorf("confirm: %w", booking.ErrPayment)
	rec = env.do(t, env.athleteUser(), http.MethodPost, "/api/v1/payments/intents/chrg_1/confirm", map[string]any{"athleteId": env.athleteID, "eventId": 9})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
}

func TestUpcomingEvents(t *testing.T) {
	env := newTestEnv(t)
	path := fmt.Sprintf("/api/v1/organizations/%d/events", env.orgID)

	rec := env.do(t, env.athleteUser(), http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if !env.svc.from.Equal(env.now) || !env.svc.to.Equal(env.now.Add(defaultEventWindow)) {
		t.Fatalf("unexpected default window %v - %v", env.svc.from, env.svc.to)
	}

	rec = env.do(t, env.athleteUser(), http.MethodGet, path+"?from=2026-06-01&to=2026-05-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted window, got %d", rec.Code)
	}

	rec = env.do(t, env.athleteUser(), http.MethodGet, fmt.Sprintf("/api/v1/organizations/%d/events", env.orgID+100), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another organization, got %d", rec.Code)
	}
}

func TestAthleteBookings(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, env.athleteUser(), http.MethodGet, fmt.Sprintf("/api/v1/athletes/%d/bookings", env.athleteID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	got := decode[[]map[string]any](t, rec)
	if len(got) != 1 || got[0]["sourceType"] != "drop_in" {
		t.Fatalf("unexpected bookings %v", got)
	}
}

func TestBookingErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{booking.ErrNotFound, http.StatusNotFound},
		{booking.ErrCapacityExceeded, http.StatusConflict},
		{booking.ErrDuplicateBooking, http.StatusConflict},
		{booking.ErrPackageDepleted, http.StatusConflict},
		{booking.ErrBookingClosed, http.StatusConflict},
		{booking.ErrRestrictionBlocked, http.StatusForbidden},
		{booking.ErrSourceUnavailable, http.StatusUnprocessableEntity},
		{booking.ErrPaymentRequired, http.StatusPaymentRequired},
		{booking.ErrPayment, http.StatusPaymentRequired},
		{booking.ErrTimeout, http.StatusGatewayTimeout},
		{booking.ErrUnavailable, http.StatusServiceUnavailable},
		{booking.ErrDataIntegrity, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		var handlerErr apiutil.HandlerError
		if !errors.As(bookingError(fmt.Errorf("op: %w", tt.err)), &handlerErr) {
			t.Fatalf("%v: expected HandlerError", tt.err)
		}
		if handlerErr.Status != tt.status {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.status, handlerErr.Status)
		}
		if handlerErr.Message != booking.UserMessage(tt.err) {
			t.Fatalf("%v: unexpected message %q", tt.err, handlerErr.Message)
		}
	}
}
