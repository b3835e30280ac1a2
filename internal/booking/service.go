// Package booking decides whether an athlete may book a scheduled event and
// commits, cancels and refunds reservations.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/lock"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/payments"
)

const tracerName = "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/booking"

const (
	defaultQueryTimeout     = 5 * time.Second
	defaultPaymentIntentTTL = 30 * time.Minute
	publishTimeout          = 3 * time.Second
)

// Publisher emits booking lifecycle events.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Notifier tells athletes and guardians about booking changes. Implementations
// must not block the caller on delivery.
type Notifier interface {
	BookingConfirmed(ctx context.Context, notice Notice)
	BookingCancelled(ctx context.Context, notice Notice)
}

type Options struct {
	RefundWindowHours int64
	Currency          string
	QueryTimeout      time.Duration
	PaymentIntentTTL  time.Duration
}

type Deps struct {
	DB        *db.DB
	Gateway   payments.Gateway
	Locker    lock.Locker
	Publisher Publisher
	Notifier  Notifier
	Now       func() time.Time
	Options   Options
}

type Service struct {
	db        *db.DB
	gateway   payments.Gateway
	locker    lock.Locker
	publisher Publisher
	notifier  Notifier
	now       func() time.Time
	opts      Options
	tracer    trace.Tracer
}

func NewService(deps Deps) (*Service, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	opts := deps.Options
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}
	if opts.PaymentIntentTTL <= 0 {
		opts.PaymentIntentTTL = defaultPaymentIntentTTL
	}
	if opts.RefundWindowHours < 0 {
		return nil, fmt.Errorf("refund window must not be negative")
	}
	opts.Currency = strings.ToLower(opts.Currency)
	if opts.Currency == "" {
		opts.Currency = "usd"
	}

	s := &Service{
		db:        deps.DB,
		gateway:   deps.Gateway,
		locker:    deps.Locker,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		now:       deps.Now,
		opts:      opts,
		tracer:    otel.Tracer(tracerName),
	}
	if s.gateway == nil {
		s.gateway = payments.Disabled{}
	}
	if s.locker == nil {
		s.locker = lock.NewLocal()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.QueryTimeout)
}

// acquire takes key on the service locker, waiting at most the query timeout.
func (s *Service) acquire(ctx context.Context, key string) (func(), error) {
	lockCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	release, err := s.locker.Acquire(lockCtx, key)
	if err != nil {
		return nil, lockError(err)
	}
	return release, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "booking."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func athleteEventAttrs(athleteID, eventID int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64("athlete.id", athleteID),
		attribute.Int64("event.id", eventID),
	}
}
