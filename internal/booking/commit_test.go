package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/mq"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/testutil"
)

func TestCommitConcurrentCapacity(t *testing.T) {
	const capacity, extra = 3, 4
	h := newHarness(t)
	eventID := h.freeEvent(capacity)

	athletes := make([]int64, capacity+extra)
	for i := range athletes {
		athletes[i] = h.athlete("athlete" + string(rune('a'+i)))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		full      int
		other     []error
	)
	start := make(chan struct{})
	for _, athleteID := range athletes {
		wg.Add(1)
		go func(athleteID int64) {
			defer wg.Done()
			<-start
			_, err := h.svc.Commit(context.Background(), CommitParams{AthleteID: athleteID, EventID: eventID, PaymentType: SourceDropIn})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrCapacityExceeded):
				full++
			default:
				other = append(other, err)
			}
		}(athleteID)
	}
	close(start)
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if successes != capacity || full != extra {
		t.Fatalf("expected %d successes and %d full, got %d and %d", capacity, extra, successes, full)
	}
	if got := h.fx.BookedCount(eventID); got != capacity {
		t.Fatalf("expected booked count %d, got %d", capacity, got)
	}
}

func TestCommitRejectsDuplicate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	eventID, templateID := h.event(1, 48*time.Hour, testutil.TemplateOptions{})
	athleteID := h.athlete("ava")
	typeID := h.fx.MembershipType(h.orgID, "Club", testutil.Coverage{Scope: "template", TargetID: templateID})
	membershipID := h.fx.Membership(athleteID, typeID, "active", nil)

	params := CommitParams{AthleteID: athleteID, EventID: eventID, PaymentType: SourceMembership, PaymentID: &membershipID}
	first, err := h.svc.Commit(ctx, params)
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if first.SourceType != SourceMembership || first.SourceID == nil || *first.SourceID != membershipID {
		t.Fatalf("unexpected result %+v", first)
	}

	// The event is now full; the athlete still hears they are already booked.
	if _, err := h.svc.Commit(ctx, params); !errors.Is(err, ErrDuplicateBooking) {
		t.Fatalf("expected ErrDuplicateBooking, got %v", err)
	}
	if got := h.fx.BookedCount(eventID); got != 1 {
		t.Fatalf("expected one booking, got %d", got)
	}
}

func TestPackageBookingScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	hitting := h.fx.Category(h.orgID, "hitting")
	templateID := h.fx.Template(h.orgID, testutil.TemplateOptions{Name: "Hitting Lab"})
	eventID := h.fx.Event(h.orgID, testutil.EventOptions{TemplateID: templateID, CategoryID: hitting, Capacity: 1, Start: h.now.Add(48 * time.Hour)})
	packageType := h.fx.PackageType(h.orgID, "Hitting 3 Pack", testutil.Coverage{Scope: "category", TargetID: hitting})

	first := h.athlete("first")
	packageID := h.fx.Package(first, packageType, testutil.PackageOptions{UsesRemaining: testutil.Int64Ptr(3)})

	result, err := h.svc.Evaluate(ctx, first, eventID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !result.CanBook || result.SourceType != SourcePackage || result.RemainingVisits == nil || *result.RemainingVisits != 3 {
		t.Fatalf("unexpected eligibility %+v", result)
	}

	booked, err := h.svc.Commit(ctx, CommitParams{AthleteID: first, EventID: eventID, PaymentType: SourcePackage, PaymentID: result.SourceID})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if booked.RemainingVisits == nil || *booked.RemainingVisits != 2 {
		t.Fatalf("expected 2 remaining visits, got %v", booked.RemainingVisits)
	}
	if status, uses := h.fx.PackageUses(packageID); status != "active" || uses != 2 {
		t.Fatalf("expected active package with 2 uses, got %s/%d", status, uses)
	}
	if got := h.fx.BookedCount(eventID); got != 1 {
		t.Fatalf("expected booked count 1, got %d", got)
	}

	second := h.athlete("second")
	secondPackage := h.fx.Package(second, packageType, testutil.PackageOptions{UsesRemaining: testutil.Int64Ptr(3)})
	_, err = h.svc.Commit(ctx, CommitParams{AthleteID: second, EventID: eventID, PaymentType: SourcePackage, PaymentID: &secondPackage})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if _, uses := h.fx.PackageUses(secondPackage); uses != 3 {
		t.Fatalf("rejected booking must not debit the package, got %d uses", uses)
	}
}

func TestCommitFreeDropIn(t *testing.T) {
	h := newHarness(t)
	eventID := h.freeEvent(5)
	athleteID := h.athlete("ava")

	result, err := h.svc.Commit(context.Background(), CommitParams{AthleteID: athleteID, EventID: eventID, PaymentType: SourceDropIn})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.SourceID != nil || result.AmountPaidCents != 0 {
		t.Fatalf("free drop-in should have no source and no charge, got %+v", result)
	}
}

func TestCommitRevalidatesSource(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	categoryID := h.fx.Category(h.orgID, "speed")
	otherCategory := h.fx.Category(h.orgID, "strength")
	templateID := h.fx.Template(h.orgID, testutil.TemplateOptions{})
	eventID := h.fx.Event(h.orgID, testutil.EventOptions{TemplateID: templateID, CategoryID: categoryID, Capacity: 5, Start: h.now.Add(48 * time.Hour)})
	athleteID := h.athlete("ava")
	someoneElse := h.athlete("ben")

	wrongType := h.fx.MembershipType(h.orgID, "Strength", testutil.Coverage{Scope: "category", TargetID: otherCategory})
	wrongMembership := h.fx.Membership(athleteID, wrongType, "active", nil)
	emptyType := h.fx.MembershipType(h.orgID, "Empty")
	emptyMembership := h.fx.Membership(athleteID, emptyType, "active", nil)
	goodType := h.fx.MembershipType(h.orgID, "Speed", testutil.Coverage{Scope: "category", TargetID: categoryID})
	pastDue := h.fx.Membership(athleteID, goodType, "past_due", nil)
	othersMembership := h.fx.Membership(someoneElse, goodType, "active", nil)

	anyPack := h.fx.PackageType(h.orgID, "Any", testutil.Coverage{Scope: "any"})
	depleted := h.fx.Package(athleteID, anyPack, testutil.PackageOptions{Status: "depleted", UsesRemaining: testutil.Int64Ptr(0)})
	expired := h.fx.Package(athleteID, anyPack, testutil.PackageOptions{UsesRemaining: testutil.Int64Ptr(2), ExpiresAt: testutil.TimePtr(h.now.Add(-time.Hour))})

	tests := []struct {
		name        string
		paymentType SourceType
		paymentID   int64
		want        error
	}{
		{name: "membership without coverage for category", paymentType: SourceMembership, paymentID: wrongMembership, want: ErrSourceUnavailable},
		{name: "membership with empty coverage", paymentType: SourceMembership, paymentID: emptyMembership, want: ErrSourceUnavailable},
		{name: "past due membership", paymentType: SourceMembership, paymentID: pastDue, want: ErrSourceUnavailable},
		{name: "someone else's membership", paymentType: SourceMembership, paymentID: othersMembership, want: ErrSourceUnavailable},
		{name: "depleted package", paymentType: SourcePackage, paymentID: depleted, want: ErrPackageDepleted},
		{name: "expired package", paymentType: SourcePackage, paymentID: expired, want: ErrSourceUnavailable},
		{name: "drop-in not offered", paymentType: SourceDropIn, want: ErrSourceUnavailable},
		{name: "unknown payment type", paymentType: SourceType("voucher"), paymentID: 1, want: ErrSourceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := CommitParams{AthleteID: athleteID, EventID: eventID, PaymentType: tt.paymentType}
			if tt.paymentID != 0 {
				id := tt.paymentID
				params.PaymentID = &id
			}
			if _, err := h.svc.Commit(ctx, params); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if got := h.fx.BookedCount(eventID); got != 0 {
		t.Fatalf("expected no bookings, got %d", got)
	}
}

func TestCommitEnforcesBookingWindow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	athleteID := h.athlete("ava")
	free := testutil.Int64Ptr(0)

	tooLate, _ := h.event(5, 2*time.Hour, testutil.TemplateOptions{BookingCutoffHours: 3, DropInPriceCents: free})
	tooEarly, _ := h.event(5, 10*24*time.Hour, testutil.TemplateOptions{MaxDaysAhead: 7, DropInPriceCents: free})
	started, _ := h.event(5, -30*time.Minute, testutil.TemplateOptions{DropInPriceCents: free})
	cancelledTemplate := h.fx.Template(h.orgID, testutil.TemplateOptions{DropInPriceCents: free})
	cancelledEvent := h.fx.Event(h.orgID, testutil.EventOptions{TemplateID: cancelledTemplate, Capacity: 5, Status: "cancelled", Start: h.now.Add(48 * time.Hour)})

	for name, eventID := range map[string]int64{"after cutoff": tooLate, "before open": tooEarly, "started": started, "cancelled": cancelledEvent} {
		t.Run(name, func(t *testing.T) {
			_, err := h.svc.Commit(ctx, CommitParams{AthleteID: athleteID, EventID: eventID, PaymentType: SourceDropIn})
			if !errors.Is(err, ErrBookingClosed) {
				t.Fatalf("expected ErrBookingClosed, got %v", err)
			}
		})
	}
}

func TestCommitByGuardian(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	eventID := h.freeEvent(5)
	child := h.athlete("kid")
	other := h.athlete("other")
	guardianID := h.fx.Guardian(h.orgID, "parent@example.com", child)

	if _, err := h.svc.Commit(ctx, CommitParams{AthleteID: other, EventID: eventID, PaymentType: SourceDropIn, GuardianID: &guardianID}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unlinked athlete, got %v", err)
	}

	result, err := h.svc.Commit(ctx, CommitParams{AthleteID: child, EventID: eventID, PaymentType: SourceDropIn, GuardianID: &guardianID})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	var bookedBy int64
	if err := h.db.QueryRow(`SELECT booked_by_guardian_id FROM bookings WHERE id = ?`, result.BookingID).Scan(&bookedBy); err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if bookedBy != guardianID {
		t.Fatalf("expected booked_by_guardian_id %d, got %d", guardianID, bookedBy)
	}

	h.notifier.mu.Lock()
	defer h.notifier.mu.Unlock()
	if len(h.notifier.confirmed) != 1 {
		t.Fatalf("expected one confirmation, got %d", len(h.notifier.confirmed))
	}
	recipients := h.notifier.confirmed[0].Recipients
	if len(recipients) != 2 || recipients[0] != "kid@example.com" || recipients[1] != "parent@example.com" {
		t.Fatalf("unexpected recipients %v", recipients)
	}
}

func TestCommitPublishesEvent(t *testing.T) {
	h := newHarness(t)
	eventID := h.freeEvent(5)
	athleteID := h.athlete("ava")

	result, err := h.svc.Commit(context.Background(), CommitParams{AthleteID: athleteID, EventID: eventID, PaymentType: SourceDropIn})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	events := h.publisher.published()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	ev := events[0]
	if ev.Type != mq.KeyBookingCreated || ev.BookingID != result.BookingID || ev.AthleteID != athleteID || ev.EventID != eventID {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestCommitSucceedsWhenPublishFails(t *testing.T) {
	h := newHarness(t)
	h.publisher.err = errors.New("broker down")
	eventID := h.freeEvent(5)
	athleteID := h.athlete("ava")

	if _, err := h.svc.Commit(context.Background(), CommitParams{AthleteID: athleteID, EventID: eventID, PaymentType: SourceDropIn}); err != nil {
		t.Fatalf("commit should not depend on the broker: %v", err)
	}
	if got := h.fx.BookedCount(eventID); got != 1 {
		t.Fatalf("expected booking to persist, got %d", got)
	}
}
