package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db"
	dbgen "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db/generated"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/lock"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/models"
)

// Commit books the event for the athlete with the chosen source. Every
// precondition is checked again under the event lock inside one transaction,
// so concurrent commits cannot overbook or double book, and a package debit
// never survives without its booking.
func (s *Service) Commit(ctx context.Context, params CommitParams) (_ BookingResult, err error) {
	ctx, span := s.startSpan(ctx, "Commit", append(athleteEventAttrs(params.AthleteID, params.EventID),
		attribute.String("payment.type", string(params.PaymentType)))...)
	defer func() { endSpan(span, err) }()

	if err := validateCommitParams(params); err != nil {
		return BookingResult{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	release, err := s.locker.Acquire(ctx, lock.EventKey(params.EventID))
	if err != nil {
		return BookingResult{}, lockError(err)
	}
	defer release()

	now := s.clock()
	var result BookingResult
	err = s.db.RunInTx(ctx, func(tx *db.DB) error {
		r, err := commitTx(ctx, tx.Queries, params, now)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		logger := log.Ctx(ctx)
		if isRejection(err) {
			logger.Info().
				Int64("athlete_id", params.AthleteID).
				Int64("event_id", params.EventID).
				Str("payment_type", string(params.PaymentType)).
				Str("outcome", err.Error()).
				Msg("Booking rejected")
		} else {
			logger.Error().Err(err).
				Int64("athlete_id", params.AthleteID).
				Int64("event_id", params.EventID).
				Msg("Booking commit failed")
		}
		return BookingResult{}, storeError("commit booking", err)
	}

	log.Ctx(ctx).Info().
		Int64("booking_id", result.BookingID).
		Int64("athlete_id", params.AthleteID).
		Int64("event_id", params.EventID).
		Str("source_type", string(result.SourceType)).
		Msg("Booking committed")

	s.afterCommit(ctx, params, result, now)
	return result, nil
}

func validateCommitParams(p CommitParams) error {
	if p.AthleteID <= 0 || p.EventID <= 0 {
		return fmt.Errorf("athlete and event are required: %w", ErrNotFound)
	}
	switch p.PaymentType {
	case SourceMembership, SourcePackage:
		if p.PaymentID == nil || *p.PaymentID <= 0 {
			return fmt.Errorf("%s booking needs a payment id: %w", p.PaymentType, ErrSourceUnavailable)
		}
	case SourceDropIn:
	default:
		return fmt.Errorf("unknown payment type %q: %w", p.PaymentType, ErrSourceUnavailable)
	}
	return nil
}

func commitTx(ctx context.Context, q dbgen.Querier, p CommitParams, now time.Time) (BookingResult, error) {
	athlete, event, err := loadAthleteAndEvent(ctx, q, p.AthleteID, p.EventID)
	if err != nil {
		return BookingResult{}, err
	}

	if p.GuardianID != nil {
		linked, err := q.IsGuardianOfAthlete(ctx, dbgen.IsGuardianOfAthleteParams{GuardianID: *p.GuardianID, AthleteID: p.AthleteID})
		if err != nil {
			return BookingResult{}, storeError("check guardian", err)
		}
		if linked == 0 {
			return BookingResult{}, fmt.Errorf("guardian %d is not linked to athlete %d: %w", *p.GuardianID, p.AthleteID, ErrNotFound)
		}
	}

	// Duplicate first: an athlete retrying a booking on a now-full class is
	// told they already hold a spot.
	if _, err := q.GetActiveBookingForAthleteEvent(ctx, dbgen.GetActiveBookingForAthleteEventParams{
		AthleteID: p.AthleteID,
		EventID:   p.EventID,
	}); err == nil {
		return BookingResult{}, ErrDuplicateBooking
	} else if !errors.Is(err, sql.ErrNoRows) {
		return BookingResult{}, storeError("check duplicate booking", err)
	}

	if event.BookedCount >= event.Capacity {
		return BookingResult{}, ErrCapacityExceeded
	}

	if missing := athlete.MissingTags(event.RequiredTags); len(missing) > 0 {
		return BookingResult{}, ErrRestrictionBlocked
	}

	if event.Status != "scheduled" || !event.bookingOpen(now) {
		return BookingResult{}, ErrBookingClosed
	}

	result := BookingResult{SourceType: p.PaymentType}
	insert := dbgen.CreateBookingParams{
		AthleteID:          p.AthleteID,
		EventID:            p.EventID,
		SourceType:         string(p.PaymentType),
		BookedByGuardianID: nullInt64(p.GuardianID),
		CreatedAt:          now,
	}

	switch p.PaymentType {
	case SourceMembership:
		if err := checkMembership(ctx, q, p, event, now); err != nil {
			return BookingResult{}, err
		}
		insert.SourceID = nullInt64(p.PaymentID)
	case SourcePackage:
		if err := checkPackage(ctx, q, p, event, now); err != nil {
			return BookingResult{}, err
		}
		insert.SourceID = nullInt64(p.PaymentID)
	case SourceDropIn:
		if event.DropInPriceCents == nil {
			return BookingResult{}, fmt.Errorf("drop-in not offered: %w", ErrSourceUnavailable)
		}
		if price := *event.DropInPriceCents; price > 0 {
			intent, err := checkPaymentIntent(ctx, q, p, price)
			if err != nil {
				return BookingResult{}, err
			}
			insert.PaymentIntentID = sql.NullString{String: intent.ID, Valid: true}
			insert.AmountPaidCents = intent.AmountCents
		}
	}

	booking, err := q.CreateBooking(ctx, insert)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return BookingResult{}, ErrDuplicateBooking
		}
		return BookingResult{}, storeError("create booking", err)
	}
	result.BookingID = booking.ID
	result.SourceID = nullInt64Ptr(booking.SourceID)
	result.AmountPaidCents = booking.AmountPaidCents

	switch {
	case p.PaymentType == SourcePackage:
		debit, err := models.DebitPackageUse(ctx, q, models.PackageUseParams{
			PackageID: *p.PaymentID,
			BookingID: booking.ID,
			At:        now,
		})
		if err != nil {
			if errors.Is(err, models.ErrPackageUnavailable) {
				return BookingResult{}, ErrPackageDepleted
			}
			return BookingResult{}, storeError("debit package", err)
		}
		if !debit.Package.Unlimited && debit.Package.UsesRemaining.Valid {
			remaining := debit.Package.UsesRemaining.Int64
			result.RemainingVisits = &remaining
		}
	case insert.PaymentIntentID.Valid:
		if _, err := q.AttachPaymentIntentBooking(ctx, dbgen.AttachPaymentIntentBookingParams{
			BookingID: sql.NullInt64{Int64: booking.ID, Valid: true},
			UpdatedAt: now,
			ID:        insert.PaymentIntentID.String,
		}); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return BookingResult{}, fmt.Errorf("payment already used: %w", ErrPaymentRequired)
			}
			return BookingResult{}, storeError("attach payment", err)
		}
	}

	return result, nil
}

func checkMembership(ctx context.Context, q dbgen.Querier, p CommitParams, event EventDetails, now time.Time) error {
	row, err := q.GetMembershipForAthlete(ctx, dbgen.GetMembershipForAthleteParams{ID: *p.PaymentID, AthleteID: p.AthleteID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("membership %d: %w", *p.PaymentID, ErrSourceUnavailable)
		}
		return storeError("load membership", err)
	}
	coverage, err := q.ListMembershipCoverage(ctx, row.MembershipTypeID)
	if err != nil {
		return storeError("load membership coverage", err)
	}
	m := membershipFromRow(row.ID, row.MembershipTypeID, row.TypeName.String, row.Status, row.EndsAt, coverage)
	if !m.Covers(event, now) {
		return fmt.Errorf("membership %d does not cover event %d: %w", m.ID, event.ID, ErrSourceUnavailable)
	}
	return nil
}

func checkPackage(ctx context.Context, q dbgen.Querier, p CommitParams, event EventDetails, now time.Time) error {
	row, err := q.GetPackageForAthlete(ctx, dbgen.GetPackageForAthleteParams{ID: *p.PaymentID, AthleteID: p.AthleteID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("package %d: %w", *p.PaymentID, ErrSourceUnavailable)
		}
		return storeError("load package", err)
	}
	rules, err := q.ListPackageRules(ctx, row.PackageTypeID)
	if err != nil {
		return storeError("load package rules", err)
	}
	pkg := packageFromRow(row, rules)
	if pkg.Status == "depleted" || !pkg.HasUses() {
		return ErrPackageDepleted
	}
	if !pkg.Covers(event, now) {
		return fmt.Errorf("package %d does not cover event %d: %w", pkg.ID, event.ID, ErrSourceUnavailable)
	}
	return nil
}

func checkPaymentIntent(ctx context.Context, q dbgen.Querier, p CommitParams, price int64) (dbgen.PaymentIntent, error) {
	if p.PaymentIntentID == "" {
		return dbgen.PaymentIntent{}, ErrPaymentRequired
	}
	intent, err := q.GetPaymentIntent(ctx, p.PaymentIntentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.PaymentIntent{}, fmt.Errorf("payment %s: %w", p.PaymentIntentID, ErrPaymentRequired)
		}
		return dbgen.PaymentIntent{}, storeError("load payment", err)
	}
	switch {
	case intent.AthleteID != p.AthleteID || intent.EventID != p.EventID:
		return dbgen.PaymentIntent{}, fmt.Errorf("payment %s belongs to another booking: %w", intent.ID, ErrPaymentRequired)
	case intent.Status != intentSucceeded:
		return dbgen.PaymentIntent{}, fmt.Errorf("payment %s is %s: %w", intent.ID, intent.Status, ErrPaymentRequired)
	case intent.BookingID.Valid:
		return dbgen.PaymentIntent{}, fmt.Errorf("payment %s already used: %w", intent.ID, ErrPaymentRequired)
	case intent.AmountCents < price:
		return dbgen.PaymentIntent{}, fmt.Errorf("payment %s is short of the %d cent price: %w", intent.ID, price, ErrPaymentRequired)
	}
	return intent, nil
}
