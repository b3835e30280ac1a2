package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	dbgen "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db/generated"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/lock"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/payments"
)

const (
	intentRequiresPayment = "requires_payment"
	intentSucceeded       = "succeeded"
	intentFailed          = "failed"
	intentRefunded        = "refunded"
	intentExpired         = "expired"
)

// CreatePaymentIntent opens a gateway charge for the event's drop-in price.
// The athlete completes it at the returned client secret URL.
func (s *Service) CreatePaymentIntent(ctx context.Context, athleteID, eventID int64) (_ PaymentIntent, err error) {
	ctx, span := s.startSpan(ctx, "CreatePaymentIntent", athleteEventAttrs(athleteID, eventID)...)
	defer func() { endSpan(span, err) }()

	price, err := s.checkDropIn(ctx, athleteID, eventID)
	if err != nil {
		return PaymentIntent{}, err
	}

	charge, err := s.gateway.CreateCharge(ctx, payments.CreateChargeParams{
		AmountCents: price,
		Currency:    s.opts.Currency,
		Description: fmt.Sprintf("Drop-in for event %d", eventID),
		Metadata: map[string]any{
			"athlete_id": strconv.FormatInt(athleteID, 10),
			"event_id":   strconv.FormatInt(eventID, 10),
		},
	})
	if err != nil {
		return PaymentIntent{}, gatewayError("create charge", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	now := s.clock()
	intent, err := s.db.Queries.CreatePaymentIntent(ctx, dbgen.CreatePaymentIntentParams{
		ID:           charge.ID,
		AthleteID:    athleteID,
		EventID:      eventID,
		AmountCents:  price,
		Currency:     s.opts.Currency,
		ClientSecret: charge.AuthorizeURI,
		Status:       intentRequiresPayment,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return PaymentIntent{}, storeError("save payment intent", err)
	}

	log.Ctx(ctx).Info().
		Str("payment_intent_id", intent.ID).
		Int64("athlete_id", athleteID).
		Int64("event_id", eventID).
		Int64("amount", price).
		Msg("Payment intent created")

	return PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  intent.AmountCents,
		Currency:     intent.Currency,
		Status:       intent.Status,
	}, nil
}

// checkDropIn rejects a charge that could not lead to a booking.
func (s *Service) checkDropIn(ctx context.Context, athleteID, eventID int64) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := s.db.Queries
	athlete, event, err := loadAthleteAndEvent(ctx, q, athleteID, eventID)
	if err != nil {
		return 0, err
	}
	if len(athlete.MissingTags(event.RequiredTags)) > 0 {
		return 0, ErrRestrictionBlocked
	}
	if event.DropInPriceCents == nil {
		return 0, fmt.Errorf("drop-in not offered: %w", ErrSourceUnavailable)
	}
	if *event.DropInPriceCents == 0 {
		return 0, fmt.Errorf("drop-in is free: %w", ErrSourceUnavailable)
	}
	if event.Status != "scheduled" || !event.bookingOpen(s.clock()) {
		return 0, ErrBookingClosed
	}
	if _, err := q.GetActiveBookingForAthleteEvent(ctx, dbgen.GetActiveBookingForAthleteEventParams{
		AthleteID: athleteID,
		EventID:   eventID,
	}); err == nil {
		return 0, ErrDuplicateBooking
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, storeError("check duplicate booking", err)
	}
	if event.BookedCount >= event.Capacity {
		return 0, ErrCapacityExceeded
	}
	return *event.DropInPriceCents, nil
}

// ConfirmDropIn checks the charge with the gateway and, once paid, commits the
// drop-in booking. A capture that cannot be turned into a booking is refunded.
// Confirmations of one intent run one at a time; a repeat returns the booking
// the first one made.
func (s *Service) ConfirmDropIn(ctx context.Context, intentID string, athleteID, eventID int64, guardianID *int64) (_ BookingResult, err error) {
	ctx, span := s.startSpan(ctx, "ConfirmDropIn", append(athleteEventAttrs(athleteID, eventID),
		attribute.String("payment_intent.id", intentID))...)
	defer func() { endSpan(span, err) }()

	release, err := s.acquire(ctx, lock.PaymentKey(intentID))
	if err != nil {
		return BookingResult{}, err
	}
	defer release()

	intent, err := s.loadIntent(ctx, intentID)
	if err != nil {
		return BookingResult{}, err
	}
	if intent.AthleteID != athleteID || intent.EventID != eventID {
		return BookingResult{}, fmt.Errorf("payment %s: %w", intentID, ErrNotFound)
	}
	return s.confirmLocked(ctx, intent, guardianID)
}

// confirmLocked runs with the intent's payment lock held. Expired and failed
// intents are checked with the gateway too, so a late payment is booked or
// refunded rather than kept.
func (s *Service) confirmLocked(ctx context.Context, intent dbgen.PaymentIntent, guardianID *int64) (BookingResult, error) {
	switch intent.Status {
	case intentSucceeded:
		if intent.BookingID.Valid {
			return s.existingBookingResult(ctx, intent.BookingID.Int64)
		}
	case intentRequiresPayment, intentExpired, intentFailed:
		charge, err := s.gateway.RetrieveCharge(ctx, intent.ID)
		if err != nil {
			return BookingResult{}, gatewayError("retrieve charge", err)
		}
		if !charge.Paid {
			if intent.Status != intentRequiresPayment {
				return BookingResult{}, fmt.Errorf("payment %s is %s: %w", intent.ID, intent.Status, ErrPayment)
			}
			if charge.Status == "failed" || charge.Status == "expired" {
				_ = s.setIntentStatus(ctx, intent.ID, intentFailed)
				return BookingResult{}, fmt.Errorf("charge %s %s: %s: %w", intent.ID, charge.Status, charge.Failure, ErrPayment)
			}
			return BookingResult{}, fmt.Errorf("charge %s is %s: %w", intent.ID, charge.Status, ErrPaymentRequired)
		}
		claimed, err := s.claimIntent(ctx, intent)
		if err != nil {
			return BookingResult{}, err
		}
		intent = claimed
	default:
		return BookingResult{}, fmt.Errorf("payment %s is %s: %w", intent.ID, intent.Status, ErrPayment)
	}

	result, err := s.Commit(ctx, CommitParams{
		AthleteID:       intent.AthleteID,
		EventID:         intent.EventID,
		PaymentType:     SourceDropIn,
		PaymentIntentID: intent.ID,
		GuardianID:      guardianID,
	})
	if err == nil {
		return result, nil
	}
	if !refundableCommitFailure(err) {
		return BookingResult{}, err
	}

	// Only refund a charge that no booking holds.
	current, lerr := s.loadIntent(ctx, intent.ID)
	if lerr != nil {
		log.Ctx(ctx).Error().Err(lerr).
			Str("payment_intent_id", intent.ID).
			Msg("Could not recheck payment before refund")
		return BookingResult{}, err
	}
	if current.BookingID.Valid {
		return s.existingBookingResult(ctx, current.BookingID.Int64)
	}
	if current.Status != intentSucceeded {
		return BookingResult{}, err
	}
	s.refundUnbookedIntent(ctx, current)
	return BookingResult{}, err
}

// claimIntent moves a paid intent to succeeded. It fails if another
// confirmation changed the intent first.
func (s *Service) claimIntent(ctx context.Context, intent dbgen.PaymentIntent) (dbgen.PaymentIntent, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	claimed, err := s.db.Queries.ClaimPaymentIntent(ctx, dbgen.ClaimPaymentIntentParams{
		UpdatedAt: s.clock(),
		ID:        intent.ID,
		Status:    intent.Status,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.PaymentIntent{}, fmt.Errorf("payment %s is already being confirmed: %w", intent.ID, ErrPaymentRequired)
		}
		return dbgen.PaymentIntent{}, storeError("claim payment", err)
	}
	return claimed, nil
}

func refundableCommitFailure(err error) bool {
	for _, target := range []error{ErrCapacityExceeded, ErrDuplicateBooking, ErrRestrictionBlocked, ErrBookingClosed, ErrSourceUnavailable} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Service) refundUnbookedIntent(ctx context.Context, intent dbgen.PaymentIntent) {
	logger := log.Ctx(ctx)
	refunded, err := s.Refund(ctx, intent.ID, intent.AmountCents)
	if err != nil {
		logger.Error().Err(err).
			Str("payment_intent_id", intent.ID).
			Msg("Failed to refund payment for rejected booking")
		return
	}
	_ = s.setIntentStatus(ctx, intent.ID, intentRefunded)
	logger.Info().
		Str("payment_intent_id", intent.ID).
		Int64("amount", refunded).
		Msg("Refunded payment for rejected booking")
}

// Refund returns amountCents of a captured drop-in payment.
func (s *Service) Refund(ctx context.Context, paymentIntentID string, amountCents int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "Refund", attribute.String("payment_intent.id", paymentIntentID))
	defer func() { endSpan(span, err) }()

	if paymentIntentID == "" {
		return 0, fmt.Errorf("payment intent is required: %w", ErrNotFound)
	}
	if amountCents <= 0 {
		return 0, nil
	}
	refunded, err := s.gateway.Refund(ctx, paymentIntentID, amountCents)
	if err != nil {
		return 0, gatewayError("refund", err)
	}
	return refunded, nil
}

func (s *Service) loadIntent(ctx context.Context, intentID string) (dbgen.PaymentIntent, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	intent, err := s.db.Queries.GetPaymentIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.PaymentIntent{}, fmt.Errorf("payment %s: %w", intentID, ErrNotFound)
		}
		return dbgen.PaymentIntent{}, storeError("load payment", err)
	}
	return intent, nil
}

func (s *Service) setIntentStatus(ctx context.Context, intentID, status string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.QueryTimeout)
	defer cancel()
	if _, err := s.db.Queries.UpdatePaymentIntentStatus(ctx, dbgen.UpdatePaymentIntentStatusParams{
		Status:    status,
		UpdatedAt: s.clock(),
		ID:        intentID,
	}); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("payment_intent_id", intentID).Str("status", status).Msg("Failed to update payment status")
		return storeError("update payment status", err)
	}
	return nil
}

func (s *Service) existingBookingResult(ctx context.Context, bookingID int64) (BookingResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	b, err := s.db.Queries.GetBooking(ctx, bookingID)
	if err != nil {
		return BookingResult{}, storeError("load booking", err)
	}
	return BookingResult{
		BookingID:       b.ID,
		SourceType:      SourceType(b.SourceType),
		SourceID:        nullInt64Ptr(b.SourceID),
		AmountPaidCents: b.AmountPaidCents,
	}, nil
}
