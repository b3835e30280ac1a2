// Package bookings serves the booking JSON API.
package bookings

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/api/apiutil"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/api/authz"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/booking"
	dbgen "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db/generated"
)

const (
	authzQueryTimeout  = 5 * time.Second
	defaultEventWindow = 14 * 24 * time.Hour
	maxEventWindow     = 90 * 24 * time.Hour
)

// BookingService is the subset of booking.Service the API calls.
type BookingService interface {
	Evaluate(ctx context.Context, athleteID, eventID int64) (booking.EligibilityResult, error)
	Resolve(ctx context.Context, athleteID, eventID int64) ([]booking.PaymentSource, error)
	Commit(ctx context.Context, params booking.CommitParams) (booking.BookingResult, error)
	Cancel(ctx context.Context, params booking.CancelParams) (booking.CancellationResult, error)
	CreatePaymentIntent(ctx context.Context, athleteID, eventID int64) (booking.PaymentIntent, error)
	ConfirmDropIn(ctx context.Context, intentID string, athleteID, eventID int64, guardianID *int64) (booking.BookingResult, error)
	ListUpcomingEvents(ctx context.Context, orgID int64, from, to time.Time) ([]booking.EventSummary, error)
	ListAthleteBookings(ctx context.Context, athleteID int64, from time.Time) ([]booking.AthleteBooking, error)
}

type Handler struct {
	svc     BookingService
	queries dbgen.Querier
	now     func() time.Time
}

func NewHandler(svc BookingService, queries dbgen.Querier) *Handler {
	return &Handler{svc: svc, queries: queries, now: time.Now}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/athletes/{athleteID}/events/{eventID}/eligibility", h.HandleEligibility)
	mux.HandleFunc("GET /api/v1/athletes/{athleteID}/events/{eventID}/payment-methods", h.HandlePaymentMethods)
	mux.HandleFunc("GET /api/v1/athletes/{athleteID}/bookings", h.HandleAthleteBookings)
	mux.HandleFunc("GET /api/v1/organizations/{orgID}/events", h.HandleUpcomingEvents)
	mux.HandleFunc("POST /api/v1/bookings", h.HandleCreateBooking)
	mux.HandleFunc("DELETE /api/v1/bookings", h.HandleCancelBooking)
	mux.HandleFunc("POST /api/v1/payments/intents", h.HandleCreatePaymentIntent)
	mux.HandleFunc("POST /api/v1/payments/intents/{intentID}/confirm", h.HandleConfirmPaymentIntent)
}

type bookingRequest struct {
	AthleteID       int64              `json:"athleteId"`
	EventID         int64              `json:"eventId"`
	PaymentType     booking.SourceType `json:"paymentType"`
	PaymentID       *int64             `json:"paymentId"`
	PaymentIntentID string             `json:"paymentIntentId"`
}

type cancelRequest struct {
	AthleteID int64  `json:"athleteId"`
	EventID   int64  `json:"eventId"`
	Reason    string `json:"reason"`
}

type athleteEventRequest struct {
	AthleteID int64 `json:"athleteId"`
	EventID   int64 `json:"eventId"`
}

type bookingResponse struct {
	Success bool `json:"success"`
	booking.BookingResult
}

type cancelResponse struct {
	Success bool `json:"success"`
	booking.CancellationResult
}

// GET /api/v1/athletes/{athleteID}/events/{eventID}/eligibility
func (h *Handler) HandleEligibility(w http.ResponseWriter, r *http.Request) {
	athleteID, eventID, ok := h.athleteEventFromPath(w, r)
	if !ok {
		return
	}
	result, err := h.svc.Evaluate(r.Context(), athleteID, eventID)
	if err != nil {
		apiutil.WriteError(w, r, bookingError(err))
		return
	}
	h.writeJSON(w, r, http.StatusOK, result)
}

// GET /api/v1/athletes/{athleteID}/events/{eventID}/payment-methods
func (h *Handler) HandlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	athleteID, eventID, ok := h.athleteEventFromPath(w, r)
	if !ok {
		return
	}
	sources, err := h.svc.Resolve(r.Context(), athleteID, eventID)
	if err != nil {
		apiutil.WriteError(w, r, bookingError(err))
		return
	}
	if sources == nil {
		sources = []booking.PaymentSource{}
	}
	h.writeJSON(w, r, http.StatusOK, sources)
}

// GET /api/v1/athletes/{athleteID}/bookings
func (h *Handler) HandleAthleteBookings(w http.ResponseWriter, r *http.Request) {
	athleteID, err := apiutil.PathInt64(r, "athleteID")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	from, err := apiutil.ParseTimeParam(r.URL.Query().Get("from"), "from", h.now().UTC())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if !h.authorizeAthlete(w, r, athleteID) {
		return
	}

	bookings, err := h.svc.ListAthleteBookings(r.Context(), athleteID, from)
	if err != nil {
		apiutil.WriteError(w, r, bookingError(err))
		return
	}
	if bookings == nil {
		bookings = []booking.AthleteBooking{}
	}
	h.writeJSON(w, r, http.StatusOK, bookings)
}

// GET /api/v1/organizations/{orgID}/events
func (h *Handler) HandleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	orgID, err := apiutil.PathInt64(r, "orgID")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if !authorize(w, r, authz.RequireOrganizationAccess(r.Context(), orgID)) {
		return
	}

	query := r.URL.Query()
	from, err := apiutil.ParseTimeParam(query.Get("from"), "from", h.now().UTC())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	to, err := apiutil.ParseTimeParam(query.Get("to"), "to", from.Add(defaultEventWindow))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if !to.After(from) || to.Sub(from) > maxEventWindow {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "to", Reason: "must be after from and within 90 days"})
		return
	}

	events, err := h.svc.ListUpcomingEvents(r.Context(), orgID, from, to)
	if err != nil {
		apiutil.WriteError(w, r, bookingError(err))
		return
	}
	if events == nil {
		events = []booking.EventSummary{}
	}
	h.writeJSON(w, r, http.StatusOK, events)
}

// POST /api/v1/bookings
func (h *Handler) HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, badRequest(err))
		return
	}
	if err := validateAthleteEvent(req.AthleteID, req.EventID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if req.PaymentType == booking.SourceNone {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "paymentType", Reason: "is required"})
		return
	}
	if !h.authorizeAthlete(w, r, req.AthleteID) {
		return
	}

	user := authz.UserFromContext(r.Context())
	result, err := h.svc.Commit(r.Context(), booking.CommitParams{
		AthleteID:       req.AthleteID,
		EventID:         req.EventID,
		PaymentType:     req.PaymentType,
		PaymentID:       req.PaymentID,
		PaymentIntentID: strings.TrimSpace(req.PaymentIntentID),
		GuardianID:      user.ActingGuardian(req.AthleteID),
	})
	if err != nil {
		apiutil.WriteError(w, r, bookingError(err))
		return
	}
	h.writeJSON(w, r, http.StatusCreated, bookingResponse{Success: true, BookingResult: result})
}

// DELETE /api/v1/bookings
func (h *Handler) HandleCancelBooking(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, badRequest(err))
		return
	}
	if err := validateAthleteEvent(req.AthleteID, req.EventID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if len(req.Reason) > 500 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "reason", Reason: "must be 500 characters or fewer"})
		return
	}
	if !h.authorizeAthlete(w, r, req.AthleteID) {
		return
	}

	result, err := h.svc.Cancel(r.Context(), booking.CancelParams{
		AthleteID: req.AthleteID,
		EventID:   req.EventID,
		Reason:    strings.TrimSpace(req.Reason),
	})
	if err != nil {
		apiutil.WriteError(w, r, bookingError(err))
		return
	}
	h.writeJSON(w, r, http.StatusOK, cancelResponse{Success: true, CancellationResult: result})
}

// POST /api/v1/payments/intents
func (h *Handler) HandleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req athleteEventRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, badRequest(err))
		return
	}
	if err := validateAthleteEvent(req.AthleteID, req.EventID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if !h.authorizeAthlete(w, r, req.AthleteID) {
		return
	}

	intent, err := h.svc.CreatePaymentIntent(r.Context(), req.AthleteID, req.EventID)
	if err != nil {
		apiutil.WriteError(w, r, bookingError(err))
		return
	}
	h.writeJSON(w, r, http.StatusCreated, intent)
}

// POST /api/v1/payments/intents/{intentID}/confirm
func (h *Handler) HandleConfirmPaymentIntent(w http.ResponseWriter, r *http.Request) {
	intentID := strings.TrimSpace(r.PathValue("intentID"))
	if intentID == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "intentID", Reason: "is required"})
		return
	}
	var req athleteEventRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, badRequest(err))
		return
	}
	if err := validateAthleteEvent(req.AthleteID, req.EventID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if !h.authorizeAthlete(w, r, req.AthleteID) {
		return
	}

	user := authz.UserFromContext(r.Context())
	result, err := h.svc.ConfirmDropIn(r.Context(), intentID, req.AthleteID, req.EventID, user.ActingGuardian(req.AthleteID))
	if err != nil {
		apiutil.WriteError(w, r, bookingError(err))
		return
	}
	h.writeJSON(w, r, http.StatusOK, bookingResponse{Success: true, BookingResult: result})
}

func (h *Handler) athleteEventFromPath(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	athleteID, err := apiutil.PathInt64(r, "athleteID")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return 0, 0, false
	}
	eventID, err := apiutil.PathInt64(r, "eventID")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return 0, 0, false
	}
	if !h.authorizeAthlete(w, r, athleteID) {
		return 0, 0, false
	}
	return athleteID, eventID, true
}

func (h *Handler) authorizeAthlete(w http.ResponseWriter, r *http.Request, athleteID int64) bool {
	ctx, cancel := context.WithTimeout(r.Context(), authzQueryTimeout)
	defer cancel()
	return authorize(w, r, authz.RequireAthleteAccess(ctx, h.queries, athleteID))
}

func authorize(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, authz.ErrUnauthenticated):
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusUnauthorized, Message: "Unauthorized", Err: err})
	case errors.Is(err, authz.ErrForbidden):
		log.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Msg("Booking access denied")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusForbidden, Message: "Forbidden", Err: err})
	default:
		apiutil.WriteError(w, r, apiutil.HandlerError{
			Status:  http.StatusServiceUnavailable,
			Message: booking.UserMessage(booking.ErrUnavailable),
			Err:     err,
		})
	}
	return false
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}

func validateAthleteEvent(athleteID, eventID int64) error {
	if athleteID <= 0 {
		return apiutil.FieldError{Field: "athleteId", Reason: "must be a positive integer"}
	}
	if eventID <= 0 {
		return apiutil.FieldError{Field: "eventId", Reason: "must be a positive integer"}
	}
	return nil
}

func badRequest(err error) error {
	return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err}
}

var statusByError = []struct {
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
}

// bookingError maps a booking failure to its HTTP status and athlete-facing message.
func bookingError(err error) error {
	status := http.StatusInternalServerError
	for _, s := range statusByError {
		if errors.Is(err, s.err) {
			status = s.status
			break
		}
	}
	return apiutil.HandlerError{Status: status, Message: booking.UserMessage(err), Err: err}
}
