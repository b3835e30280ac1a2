package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db"
	dbgen "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db/generated"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/lock"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/models"
)

const (
	refundNone     = "none"
	refundPending  = "pending"
	refundRefunded = "refunded"
	refundFailed   = "failed"
	// refundDeclined is terminal: the gateway refused the refund and staff must settle it.
	refundDeclined = "declined"
)

// Cancel voids the athlete's active booking for the event. A package use is
// restored in the same transaction. A paid drop-in inside the refund window is
// refunded through the gateway after the booking is voided; a failed refund
// is left for the retry job.
func (s *Service) Cancel(ctx context.Context, params CancelParams) (_ CancellationResult, err error) {
	ctx, span := s.startSpan(ctx, "Cancel", athleteEventAttrs(params.AthleteID, params.EventID)...)
	defer func() { endSpan(span, err) }()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	release, err := s.locker.Acquire(ctx, lock.EventKey(params.EventID))
	if err != nil {
		return CancellationResult{}, lockError(err)
	}
	defer release()

	now := s.clock()
	var (
		result    CancellationResult
		cancelled dbgen.Booking
	)
	err = s.db.RunInTx(ctx, func(tx *db.DB) error {
		var err error
		cancelled, result, err = s.cancelTx(ctx, tx.Queries, params, now)
		return err
	})
	release()
	if err != nil {
		return CancellationResult{}, storeError("cancel booking", err)
	}

	log.Ctx(ctx).Info().
		Int64("booking_id", cancelled.ID).
		Int64("athlete_id", params.AthleteID).
		Int64("event_id", params.EventID).
		Int64("refund_percentage", result.RefundPercentage).
		Msg("Booking cancelled")

	if result.RefundStatus == refundPending {
		amount := refundAmount(cancelled)
		refunded, err := s.refundBooking(ctx, cancelled, amount)
		if err != nil {
			result.RefundStatus = failedRefundStatus(err)
		} else {
			result.Refunded = refunded > 0
			result.RefundAmountCents = refunded
			result.RefundStatus = refundRefunded
		}
	}

	s.afterCancel(ctx, cancelled, result, now)
	return result, nil
}

func (s *Service) cancelTx(ctx context.Context, q dbgen.Querier, p CancelParams, now time.Time) (dbgen.Booking, CancellationResult, error) {
	active, err := q.GetActiveBookingForAthleteEvent(ctx, dbgen.GetActiveBookingForAthleteEventParams{
		AthleteID: p.AthleteID,
		EventID:   p.EventID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.Booking{}, CancellationResult{}, fmt.Errorf("no active booking: %w", ErrNotFound)
		}
		return dbgen.Booking{}, CancellationResult{}, storeError("load booking", err)
	}

	event, err := loadEvent(ctx, q, p.EventID)
	if err != nil {
		return dbgen.Booking{}, CancellationResult{}, err
	}

	result := CancellationResult{BookingID: active.ID, RefundStatus: refundNone}
	if SourceType(active.SourceType) == SourceDropIn && active.AmountPaidCents > 0 && active.PaymentIntentID.Valid {
		pct, err := s.refundPercentage(ctx, q, event, now)
		if err != nil {
			return dbgen.Booking{}, CancellationResult{}, err
		}
		result.RefundPercentage = pct
		if pct > 0 {
			result.RefundStatus = refundPending
		}
	}

	cancelled, err := q.CancelBooking(ctx, dbgen.CancelBookingParams{
		CancelledAt:      sql.NullTime{Time: now, Valid: true},
		CancelReason:     sql.NullString{String: p.Reason, Valid: p.Reason != ""},
		RefundStatus:     result.RefundStatus,
		RefundPercentage: result.RefundPercentage,
		ID:               active.ID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.Booking{}, CancellationResult{}, fmt.Errorf("booking %d already cancelled: %w", active.ID, ErrNotFound)
		}
		return dbgen.Booking{}, CancellationResult{}, storeError("void booking", err)
	}

	if SourceType(cancelled.SourceType) == SourcePackage && cancelled.SourceID.Valid {
		packageID := cancelled.SourceID.Int64
		_, err := models.RestorePackageUse(ctx, q, models.PackageUseParams{
			PackageID: packageID,
			BookingID: cancelled.ID,
			At:        now,
		})
		switch {
		case err == nil:
			result.RestoredPackageID = &packageID
		case errors.Is(err, models.ErrPackageUnavailable):
			log.Ctx(ctx).Warn().
				Int64("booking_id", cancelled.ID).
				Int64("package_id", packageID).
				Msg("Package for cancelled booking no longer exists")
		default:
			return dbgen.Booking{}, CancellationResult{}, storeError("restore package", err)
		}
	}

	return cancelled, result, nil
}

// refundPercentage applies the organization's cancellation tiers when it has
// any, and otherwise the all-or-nothing refund window.
func (s *Service) refundPercentage(ctx context.Context, q dbgen.Querier, event EventDetails, now time.Time) (int64, error) {
	until := event.StartTime.Sub(now)
	if until < 0 {
		return 0, nil
	}
	hoursBefore := int64(until / time.Hour)

	tiers, err := q.CountCancellationTiers(ctx, event.OrganizationID)
	if err != nil {
		return 0, storeError("count cancellation tiers", err)
	}
	if tiers > 0 {
		tier, err := q.GetApplicableCancellationTier(ctx, dbgen.GetApplicableCancellationTierParams{
			OrganizationID: event.OrganizationID,
			MinHoursBefore: hoursBefore,
		})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, nil
			}
			return 0, storeError("load cancellation tier", err)
		}
		return tier.RefundPercentage, nil
	}

	window := s.opts.RefundWindowHours
	if event.refundWindowHours != nil {
		window = *event.refundWindowHours
	}
	if hoursBefore >= window {
		return 100, nil
	}
	return 0, nil
}

func refundAmount(b dbgen.Booking) int64 {
	return b.AmountPaidCents * b.RefundPercentage / 100
}

// refundBooking sends the refund to the gateway and records the outcome on the
// booking and its payment.
func (s *Service) refundBooking(ctx context.Context, b dbgen.Booking, amount int64) (int64, error) {
	logger := log.Ctx(ctx)
	refunded, err := s.Refund(ctx, b.PaymentIntentID.String, amount)
	status := refundRefunded
	if err != nil {
		logger.Error().Err(err).
			Int64("booking_id", b.ID).
			Str("payment_intent_id", b.PaymentIntentID.String).
			Int64("amount", amount).
			Msg("Refund failed")
		status = failedRefundStatus(err)
		refunded = 0
	}

	// The booking is already cancelled; record the outcome even if ctx expired.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.QueryTimeout)
	defer cancel()
	if _, uerr := s.db.Queries.UpdateBookingRefund(recordCtx, dbgen.UpdateBookingRefundParams{
		RefundStatus:  status,
		RefundedCents: refunded,
		ID:            b.ID,
	}); uerr != nil {
		logger.Error().Err(uerr).Int64("booking_id", b.ID).Msg("Failed to record refund status")
	}
	if err == nil {
		if _, uerr := s.db.Queries.UpdatePaymentIntentStatus(recordCtx, dbgen.UpdatePaymentIntentStatusParams{
			Status:    intentRefunded,
			UpdatedAt: s.clock(),
			ID:        b.PaymentIntentID.String,
		}); uerr != nil {
			logger.Error().Err(uerr).Str("payment_intent_id", b.PaymentIntentID.String).Msg("Failed to mark payment refunded")
		}
	}
	return refunded, err
}

// failedRefundStatus keeps transient gateway failures queued for retry.
func failedRefundStatus(err error) string {
	if errors.Is(err, ErrPayment) {
		return refundDeclined
	}
	return refundFailed
}
