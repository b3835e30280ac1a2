package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/mq"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/payments"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/testutil"
)

// paidBooking books a paid drop-in through the gateway and returns the booking
// and its payment intent id.
func (h *harness) paidBooking(athleteID, eventID int64) (BookingResult, string) {
	h.t.Helper()
	ctx := context.Background()
	intent, err := h.svc.CreatePaymentIntent(ctx, athleteID, eventID)
	if err != nil {
		h.t.Fatalf("create payment intent: %v", err)
	}
	h.gateway.settle(intent.ID, "successful", true)
	result, err := h.svc.ConfirmDropIn(ctx, intent.ID, athleteID, eventID, nil)
	if err != nil {
		h.t.Fatalf("confirm drop-in: %v", err)
	}
	return result, intent.ID
}

func (h *harness) paidEvent(startsIn time.Duration) int64 {
	h.t.Helper()
	id, _ := h.event(5, startsIn, testutil.TemplateOptions{DropInPriceCents: testutil.Int64Ptr(2500)})
	return id
}

func (h *harness) ledgerBalance(packageID int64) int64 {
	h.t.Helper()
	var sum int64
	if err := h.db.QueryRow(`SELECT COALESCE(SUM(delta), 0) FROM package_ledger WHERE package_id = ?`, packageID).Scan(&sum); err != nil {
		h.t.Fatalf("sum ledger: %v", err)
	}
	return sum
}

func TestCancelRestoresPackageUse(t *testing.T) {
	tests := []struct {
		name          string
		uses          int64
		afterBooking  string
		usesAfterBook int64
	}{
		{name: "last use", uses: 1, afterBooking: "depleted", usesAfterBook: 0},
		{name: "several uses", uses: 3, afterBooking: "active", usesAfterBook: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			eventID, _ := h.event(5, 48*time.Hour, testutil.TemplateOptions{})
			athleteID := h.athlete("ava")
			typeID := h.fx.PackageType(h.orgID, "Pack", testutil.Coverage{Scope: "any"})
			packageID := h.fx.Package(athleteID, typeID, testutil.PackageOptions{UsesRemaining: testutil.Int64Ptr(tt.uses)})

			if _, err := h.svc.Commit(ctx, CommitParams{AthleteID: athleteID, EventID: eventID, PaymentType: SourcePackage, PaymentID: &packageID}); err != nil {
				t.Fatalf("commit: %v", err)
			}
			if status, uses := h.fx.PackageUses(packageID); status != tt.afterBooking || uses != tt.usesAfterBook {
				t.Fatalf("after booking expected %s/%d, got %s/%d", tt.afterBooking, tt.usesAfterBook, status, uses)
			}

			result, err := h.svc.Cancel(ctx, CancelParams{AthleteID: athleteID, EventID: eventID, Reason: "sick"})
			if err != nil {
				t.Fatalf("cancel: %v", err)
			}
			if result.RestoredPackageID == nil || *result.RestoredPackageID != packageID {
				t.Fatalf("expected restored package %d, got %v", packageID, result.RestoredPackageID)
			}
			if result.Refunded || result.RefundStatus != refundNone {
				t.Fatalf("package cancellation should not refund, got %+v", result)
			}
			if status, uses := h.fx.PackageUses(packageID); status != "active" || uses != tt.uses {
				t.Fatalf("after cancel expected active/%d, got %s/%d", tt.uses, status, uses)
			}
			if got := h.ledgerBalance(packageID); got != 0 {
				t.Fatalf("expected ledger to net to zero, got %d", got)
			}
			if got := h.fx.BookedCount(eventID); got != 0 {
				t.Fatalf("expected no active bookings, got %d", got)
			}

			_, err = h.svc.Cancel(ctx, CancelParams{AthleteID: athleteID, EventID: eventID})
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on second cancel, got %v", err)
			}
			if _, uses := h.fx.PackageUses(packageID); uses != tt.uses {
				t.Fatalf("second cancel must not restore again, got %d uses", uses)
			}
		})
	}
}

func TestCancelFreesSpot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	eventID := h.freeEvent(1)
	first := h.athlete("first")
	second := h.athlete("second")

	if _, err := h.svc.Commit(ctx, CommitParams{AthleteID: first, EventID: eventID, PaymentType: SourceDropIn}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := h.svc.Commit(ctx, CommitParams{AthleteID: second, EventID: eventID, PaymentType: SourceDropIn}); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if _, err := h.svc.Cancel(ctx, CancelParams{AthleteID: first, EventID: eventID}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := h.svc.Commit(ctx, CommitParams{AthleteID: second, EventID: eventID, PaymentType: SourceDropIn}); err != nil {
		t.Fatalf("commit after cancel: %v", err)
	}
	// Rebooking after a cancellation is allowed.
	if _, err := h.svc.Cancel(ctx, CancelParams{AthleteID: second, EventID: eventID}); err != nil {
		t.Fatalf("cancel second: %v", err)
	}
	if _, err := h.svc.Commit(ctx, CommitParams{AthleteID: first, EventID: eventID, PaymentType: SourceDropIn}); err != nil {
		t.Fatalf("rebook: %v", err)
	}
}

func TestCancelWithoutBooking(t *testing.T) {
	h := newHarness(t)
	eventID := h.freeEvent(1)
	athleteID := h.athlete("ava")

	_, err := h.svc.Cancel(context.Background(), CancelParams{AthleteID: athleteID, EventID: eventID})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelRefundsPaidDropIn(t *testing.T) {
	h := newHarness(t)
	eventID := h.paidEvent(48 * time.Hour)
	athleteID := h.athlete("ava")
	booked, intentID := h.paidBooking(athleteID, eventID)
	if booked.AmountPaidCents != 2500 {
		t.Fatalf("expected 2500 paid, got %d", booked.AmountPaidCents)
	}

	result, err := h.svc.Cancel(context.Background(), CancelParams{AthleteID: athleteID, EventID: eventID})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !result.Refunded || result.RefundAmountCents != 2500 || result.RefundPercentage != 100 || result.RefundStatus != refundRefunded {
		t.Fatalf("unexpected cancellation %+v", result)
	}
	calls := h.gateway.refundCalls()
	if len(calls) != 1 || calls[0].chargeID != intentID || calls[0].amount != 2500 {
		t.Fatalf("unexpected refund calls %+v", calls)
	}
	if status, refunded := h.bookingRefund(booked.BookingID); status != refundRefunded || refunded != 2500 {
		t.Fatalf("expected refunded/2500 on booking, got %s/%d", status, refunded)
	}
	if got := h.intentStatus(intentID); got != intentRefunded {
		t.Fatalf("expected refunded intent, got %s", got)
	}

	events := h.publisher.published()
	if last := events[len(events)-1]; last.Type != mq.KeyBookingRefunded || last.RefundAmountCents != 2500 {
		t.Fatalf("expected refunded event, got %+v", last)
	}
}

func TestCancelInsideRefundWindow(t *testing.T) {
	h := newHarness(t)
	eventID := h.paidEvent(12 * time.Hour)
	athleteID := h.athlete("ava")
	booked, _ := h.paidBooking(athleteID, eventID)

	result, err := h.svc.Cancel(context.Background(), CancelParams{AthleteID: athleteID, EventID: eventID})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.Refunded || result.RefundPercentage != 0 || result.RefundStatus != refundNone {
		t.Fatalf("expected no refund, got %+v", result)
	}
	if calls := h.gateway.refundCalls(); len(calls) != 0 {
		t.Fatalf("expected no gateway refunds, got %+v", calls)
	}
	if status, _ := h.bookingRefund(booked.BookingID); status != refundNone {
		t.Fatalf("expected refund status none, got %s", status)
	}
	if events := h.publisher.published(); events[len(events)-1].Type != mq.KeyBookingCancelled {
		t.Fatalf("expected cancelled event, got %+v", events[len(events)-1])
	}
}

func TestCancelUsesOrganizationRefundWindow(t *testing.T) {
	h := newHarness(t)
	orgID := h.fx.Organization("Short Window", "short", testutil.Int64Ptr(6))
	templateID := h.fx.Template(orgID, testutil.TemplateOptions{DropInPriceCents: testutil.Int64Ptr(2500)})
	eventID := h.fx.Event(orgID, testutil.EventOptions{TemplateID: templateID, Capacity: 5, Start: h.now.Add(12 * time.Hour)})
	athleteID := h.fx.Athlete(orgID, "ava", "ava@example.com")
	h.paidBooking(athleteID, eventID)

	result, err := h.svc.Cancel(context.Background(), CancelParams{AthleteID: athleteID, EventID: eventID})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.RefundPercentage != 100 || !result.Refunded {
		t.Fatalf("expected full refund under the organization window, got %+v", result)
	}
}

func TestCancelAppliesPolicyTiers(t *testing.T) {
	tests := []struct {
		name     string
		startsIn time.Duration
		pct      int64
		amount   int64
	}{
		{name: "full tier", startsIn: 72 * time.Hour, pct: 100, amount: 2500},
		{name: "partial tier", startsIn: 30 * time.Hour, pct: 50, amount: 1250},
		{name: "below every tier", startsIn: 10 * time.Hour, pct: 0, amount: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.fx.CancellationTier(h.orgID, 48, 100)
			h.fx.CancellationTier(h.orgID, 24, 50)
			eventID := h.paidEvent(tt.startsIn)
			athleteID := h.athlete("ava")
			h.paidBooking(athleteID, eventID)

			result, err := h.svc.Cancel(context.Background(), CancelParams{AthleteID: athleteID, EventID: eventID})
			if err != nil {
				t.Fatalf("cancel: %v", err)
			}
			if result.RefundPercentage != tt.pct || result.RefundAmountCents != tt.amount {
				t.Fatalf("expected %d%%/%d, got %d%%/%d", tt.pct, tt.amount, result.RefundPercentage, result.RefundAmountCents)
			}
		})
	}
}

func TestFailedRefundIsRetried(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	eventID := h.paidEvent(48 * time.Hour)
	athleteID := h.athlete("ava")
	booked, intentID := h.paidBooking(athleteID, eventID)

	h.gateway.failRefunds(payments.ErrUnavailable)
	result, err := h.svc.Cancel(ctx, CancelParams{AthleteID: athleteID, EventID: eventID})
	if err != nil {
		t.Fatalf("cancel must succeed when the refund fails: %v", err)
	}
	if result.Refunded || result.RefundStatus != refundFailed {
		t.Fatalf("expected failed refund, got %+v", result)
	}
	if got := h.fx.BookedCount(eventID); got != 0 {
		t.Fatalf("booking should be cancelled, got %d active", got)
	}
	if status, _ := h.bookingRefund(booked.BookingID); status != refundFailed {
		t.Fatalf("expected failed refund status, got %s", status)
	}

	// Still failing: nothing succeeds and the booking stays queued.
	if n, err := h.svc.RetryRefunds(ctx, 10); err != nil || n != 0 {
		t.Fatalf("expected no successful retries, got %d, %v", n, err)
	}

	h.gateway.failRefunds(nil)
	n, err := h.svc.RetryRefunds(ctx, 10)
	if err != nil {
		t.Fatalf("retry refunds: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one refund retried, got %d", n)
	}
	if status, refunded := h.bookingRefund(booked.BookingID); status != refundRefunded || refunded != 2500 {
		t.Fatalf("expected refunded/2500, got %s/%d", status, refunded)
	}
	if got := h.intentStatus(intentID); got != intentRefunded {
		t.Fatalf("expected refunded intent, got %s", got)
	}

	if n, err := h.svc.RetryRefunds(ctx, 10); err != nil || n != 0 {
		t.Fatalf("refunded bookings must not be retried, got %d, %v", n, err)
	}
}

func TestDeclinedRefundIsNotRetried(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	eventID := h.paidEvent(48 * time.Hour)
	athleteID := h.athlete("ava")
	booked, _ := h.paidBooking(athleteID, eventID)

	h.gateway.failRefunds(fmt.Errorf("%w: charge already refunded", payments.ErrDeclined))
	result, err := h.svc.Cancel(ctx, CancelParams{AthleteID: athleteID, EventID: eventID})
	if err != nil {
		t.Fatalf("cancel must succeed when the refund is declined: %v", err)
	}
	if result.Refunded || result.RefundStatus != refundDeclined {
		t.Fatalf("expected declined refund, got %+v", result)
	}
	if status, _ := h.bookingRefund(booked.BookingID); status != refundDeclined {
		t.Fatalf("expected declined refund status, got %s", status)
	}

	h.gateway.failRefunds(nil)
	h.now = h.now.Add(time.Hour)
	if n, err := h.svc.RetryRefunds(ctx, 10); err != nil || n != 0 {
		t.Fatalf("declined refunds must not be retried, got %d, %v", n, err)
	}
	if calls := h.gateway.refundCalls(); len(calls) != 0 {
		t.Fatalf("expected no refund sent to the gateway, got %+v", calls)
	}
}
