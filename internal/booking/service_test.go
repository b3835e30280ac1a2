package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/payments"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/testutil"
)

type harness struct {
	t         *testing.T
	db        *db.DB
	fx        *testutil.Fixtures
	svc       *Service
	gateway   *fakeGateway
	publisher *recordingPublisher
	notifier  *recordingNotifier
	now       time.Time
	orgID     int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithOptions(t, Options{RefundWindowHours: 24, Currency: "usd"})
}

func newHarnessWithOptions(t *testing.T, opts Options) *harness {
	t.Helper()
	database := testutil.NewTestDB(t)
	h := &harness{
		t:         t,
		db:        database,
		fx:        testutil.NewFixtures(t, database),
		gateway:   newFakeGateway(),
		publisher: &recordingPublisher{},
		notifier:  &recordingNotifier{},
		now:       time.Now().UTC().Truncate(time.Second),
	}
	svc, err := NewService(Deps{
		DB:        database,
		Gateway:   h.gateway,
		Publisher: h.publisher,
		Notifier:  h.notifier,
		Now:       func() time.Time { return h.now },
		Options:   opts,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	h.svc = svc
	h.orgID = h.fx.Organization("Atlantic Sports", "atlantic", nil)
	return h
}

func (h *harness) athlete(name string) int64 {
	h.t.Helper()
	return h.fx.Athlete(h.orgID, name, name+"@example.com")
}

// event creates a template and an event starting in startsIn.
func (h *harness) event(capacity int64, startsIn time.Duration, tmpl testutil.TemplateOptions) (eventID, templateID int64) {
	h.t.Helper()
	templateID = h.fx.Template(h.orgID, tmpl)
	eventID = h.fx.Event(h.orgID, testutil.EventOptions{
		TemplateID: templateID,
		Start:      h.now.Add(startsIn),
		Capacity:   capacity,
	})
	return eventID, templateID
}

func (h *harness) freeEvent(capacity int64) int64 {
	h.t.Helper()
	id, _ := h.event(capacity, 48*time.Hour, testutil.TemplateOptions{DropInPriceCents: testutil.Int64Ptr(0)})
	return id
}

func (h *harness) bookingRefund(bookingID int64) (status string, refunded int64) {
	h.t.Helper()
	if err := h.db.QueryRow(`SELECT refund_status, refunded_cents FROM bookings WHERE id = ?`, bookingID).Scan(&status, &refunded); err != nil {
		h.t.Fatalf("load booking %d: %v", bookingID, err)
	}
	return status, refunded
}

func (h *harness) intentStatus(id string) string {
	h.t.Helper()
	var status string
	if err := h.db.QueryRow(`SELECT status FROM payment_intents WHERE id = ?`, id).Scan(&status); err != nil {
		h.t.Fatalf("load payment intent %s: %v", id, err)
	}
	return status
}

type refundCall struct {
	chargeID string
	amount   int64
}

type fakeGateway struct {
	mu            sync.Mutex
	seq           int
	charges       map[string]payments.Charge
	refunds       []refundCall
	refundErr     error
	retrieveDelay time.Duration
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{charges: make(map[string]payments.Charge)}
}

func (g *fakeGateway) CreateCharge(_ context.Context, params payments.CreateChargeParams) (payments.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("chrg_test_%d", g.seq)
	ch := payments.Charge{
		ID:           id,
		AmountCents:  params.AmountCents,
		Currency:     params.Currency,
		Status:       "pending",
		AuthorizeURI: "https://pay.example.com/" + id,
	}
	g.charges[id] = ch
	return ch, nil
}

func (g *fakeGateway) RetrieveCharge(_ context.Context, chargeID string) (payments.Charge, error) {
	g.mu.Lock()
	delay := g.retrieveDelay
	g.mu.Unlock()
	time.Sleep(delay)

	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.charges[chargeID]
	if !ok {
		return payments.Charge{}, fmt.Errorf("%w: no charge %s", payments.ErrDeclined, chargeID)
	}
	return ch, nil
}

func (g *fakeGateway) Refund(_ context.Context, chargeID string, amountCents int64) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return 0, g.refundErr
	}
	g.refunds = append(g.refunds, refundCall{chargeID: chargeID, amount: amountCents})
	return amountCents, nil
}

func (g *fakeGateway) settle(chargeID, status string, paid bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := g.charges[chargeID]
	ch.Status = status
	ch.Paid = paid
	g.charges[chargeID] = ch
}

func (g *fakeGateway) refundCalls() []refundCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]refundCall(nil), g.refunds...)
}

func (g *fakeGateway) failRefunds(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundErr = err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	ev, ok := v.(Event)
	if !ok {
		return errors.New("unexpected payload")
	}
	if ev.Type != key {
		return fmt.Errorf("routing key %s does not match event type %s", key, ev.Type)
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) published() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []Notice
	cancelled []Notice
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, notice)
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, notice)
}

func TestNewServiceRequiresDatabase(t *testing.T) {
	if _, err := NewService(Deps{}); err == nil {
		t.Fatalf("expected error without database")
	}
}

func TestNewServiceDefaults(t *testing.T) {
	database := testutil.NewTestDB(t)
	svc, err := NewService(Deps{DB: database, Options: Options{Currency: "USD"}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if svc.opts.Currency != "usd" {
		t.Fatalf("expected lower-cased currency, got %q", svc.opts.Currency)
	}
	if svc.opts.QueryTimeout != defaultQueryTimeout {
		t.Fatalf("expected default query timeout, got %v", svc.opts.QueryTimeout)
	}
	if _, ok := svc.gateway.(payments.Disabled); !ok {
		t.Fatalf("expected disabled gateway by default, got %T", svc.gateway)
	}
}
