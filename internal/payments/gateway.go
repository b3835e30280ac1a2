// Package payments talks to the hosted payment gateway used for drop-in fees.
package payments

import (
	"context"
	"errors"
)

var (
	ErrDeclined      = errors.New("payment declined")
	ErrUnavailable   = errors.New("payment gateway unavailable")
	ErrTimeout       = errors.New("payment gateway timeout")
	ErrNotConfigured = errors.New("payment gateway not configured")
)

type Charge struct {
	ID           string
	AmountCents  int64
	Currency     string
	Paid         bool
	Status       string
	AuthorizeURI string
	Failure      string
}

type CreateChargeParams struct {
	AmountCents int64
	Currency    string
	Description string
	Metadata    map[string]any
}

// Gateway is the subset of the gateway API the booking engine uses.
type Gateway interface {
	CreateCharge(ctx context.Context, params CreateChargeParams) (Charge, error)
	RetrieveCharge(ctx context.Context, chargeID string) (Charge, error)
	Refund(ctx context.Context, chargeID string, amountCents int64) (int64, error)
}

// Disabled rejects every call. It is used when no provider is configured so
// that free drop-ins, memberships and packages keep working.
type Disabled struct{}

func (Disabled) CreateCharge(context.Context, CreateChargeParams) (Charge, error) {
	return Charge{}, ErrNotConfigured
}

func (Disabled) RetrieveCharge(context.Context, string) (Charge, error) {
	return Charge{}, ErrNotConfigured
}

func (Disabled) Refund(context.Context, string, int64) (int64, error) {
	return 0, ErrNotConfigured
}
