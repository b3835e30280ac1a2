package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	dbgen "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db/generated"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/lock"
)

const (
	// refundGrace keeps the retry job away from refunds Cancel is still sending.
	refundGrace      = 5 * time.Minute
	staleIntentBatch = 100
)

// ListAthleteBookings returns the athlete's active bookings for events starting at or after from.
func (s *Service) ListAthleteBookings(ctx context.Context, athleteID int64, from time.Time) ([]AthleteBooking, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Queries.ListAthleteBookings(ctx, dbgen.ListAthleteBookingsParams{
		AthleteID: athleteID,
		StartTime: from.UTC(),
	})
	if err != nil {
		return nil, storeError("list athlete bookings", err)
	}
	bookings := make([]AthleteBooking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, AthleteBooking{
			ID:              row.ID,
			EventID:         row.EventID,
			EventTitle:      row.EventTitle,
			StartTime:       row.EventStartTime,
			EndTime:         row.EventEndTime,
			Status:          row.Status,
			SourceType:      SourceType(row.SourceType),
			SourceID:        nullInt64Ptr(row.SourceID),
			AmountPaidCents: row.AmountPaidCents,
			CreatedAt:       row.CreatedAt,
		})
	}
	return bookings, nil
}

// ExpireEntitlements marks packages and memberships past their end date as expired.
func (s *Service) ExpireEntitlements(ctx context.Context) (packages, memberships int64, err error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := sql.NullTime{Time: s.clock(), Valid: true}
	packages, err = s.db.Queries.ExpirePackages(ctx, now)
	if err != nil {
		return 0, 0, storeError("expire packages", err)
	}
	memberships, err = s.db.Queries.ExpireMemberships(ctx, now)
	if err != nil {
		return packages, 0, storeError("expire memberships", err)
	}
	return packages, memberships, nil
}

// ExpireStaleIntents settles payment intents left unconfirmed past their TTL.
// Each charge is checked with the gateway first: a paid one is confirmed for
// the athlete, which books or refunds it, and an unpaid one is expired. It
// returns how many intents were expired.
func (s *Service) ExpireStaleIntents(ctx context.Context) (int64, error) {
	listCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	stale, err := s.db.Queries.ListStalePaymentIntents(listCtx, dbgen.ListStalePaymentIntentsParams{
		CreatedAt: s.clock().Add(-s.opts.PaymentIntentTTL),
		Limit:     staleIntentBatch,
	})
	if err != nil {
		return 0, storeError("list stale payment intents", err)
	}

	var expired int64
	for _, intent := range stale {
		if ctx.Err() != nil {
			break
		}
		ok, err := s.settleStaleIntent(ctx, intent.ID)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Str("payment_intent_id", intent.ID).
				Msg("Failed to settle stale payment intent")
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// settleStaleIntent reports whether the intent was expired.
func (s *Service) settleStaleIntent(ctx context.Context, intentID string) (bool, error) {
	release, err := s.acquire(ctx, lock.PaymentKey(intentID))
	if err != nil {
		return false, err
	}
	defer release()

	intent, err := s.loadIntent(ctx, intentID)
	if err != nil {
		return false, err
	}
	if intent.Status != intentRequiresPayment {
		return false, nil
	}

	result, err := s.confirmLocked(ctx, intent, nil)
	switch {
	case err == nil:
		log.Ctx(ctx).Info().
			Str("payment_intent_id", intentID).
			Int64("booking_id", result.BookingID).
			Msg("Booked paid drop-in left unconfirmed")
		return false, nil
	case errors.Is(err, ErrPaymentRequired), errors.Is(err, ErrPayment):
		// Unpaid, failed or unknown at the gateway.
	case refundableCommitFailure(err):
		return false, nil
	default:
		return false, err
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()
	n, err := s.db.Queries.ExpirePaymentIntent(qctx, dbgen.ExpirePaymentIntentParams{
		UpdatedAt: s.clock(),
		ID:        intentID,
	})
	if err != nil {
		return false, storeError("expire payment intent", err)
	}
	return n > 0, nil
}

// RetryRefunds resends refunds that failed or were left pending. It returns
// how many succeeded.
func (s *Service) RetryRefunds(ctx context.Context, limit int64) (int, error) {
	listCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	due, err := s.db.Queries.ListBookingsAwaitingRefund(listCtx, dbgen.ListBookingsAwaitingRefundParams{
		CancelledAt: sql.NullTime{Time: s.clock().Add(-refundGrace), Valid: true},
		Limit:       limit,
	})
	if err != nil {
		return 0, storeError("list refunds", err)
	}

	succeeded := 0
	for _, b := range due {
		if ctx.Err() != nil {
			break
		}
		amount := refundAmount(b)
		if _, err := s.refundBooking(ctx, b, amount); err != nil {
			continue
		}
		succeeded++
	}
	if len(due) > 0 {
		log.Ctx(ctx).Info().
			Int("due", len(due)).
			Int("succeeded", succeeded).
			Msg("Refund retry finished")
	}
	return succeeded, nil
}
