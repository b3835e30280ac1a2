package payments

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"github.com/rs/zerolog/log"
)

type OmiseOptions struct {
	SourceType string
	ReturnURI  string
	Timeout    time.Duration
}

type Omise struct {
	client     *omise.Client
	sourceType string
	returnURI  string
}

func NewOmise(publicKey, secretKey string, opts OmiseOptions) (*Omise, error) {
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("create omise client: %w", err)
	}
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}
	client.SetDebug(false)
	return &Omise{
		client:     client,
		sourceType: opts.SourceType,
		returnURI:  opts.ReturnURI,
	}, nil
}

// CreateCharge creates a source of the configured type and a charge against it.
// The charge stays pending until the athlete authorizes it at AuthorizeURI.
func (o *Omise) CreateCharge(ctx context.Context, params CreateChargeParams) (Charge, error) {
	if params.AmountCents <= 0 || params.Currency == "" {
		return Charge{}, fmt.Errorf("invalid charge params")
	}

	src := &omise.Source{}
	createSource := &operations.CreateSource{
		Type:     o.sourceType,
		Amount:   params.AmountCents,
		Currency: params.Currency,
	}
	if err := o.do(ctx, func() error { return o.client.Do(src, createSource) }); err != nil {
		return Charge{}, fmt.Errorf("create source: %w", err)
	}

	ch := &omise.Charge{}
	createCharge := &operations.CreateCharge{
		Amount:      params.AmountCents,
		Currency:    params.Currency,
		Source:      src.ID,
		Description: params.Description,
		ReturnURI:   o.returnURI,
		Metadata:    params.Metadata,
	}
	if err := o.do(ctx, func() error { return o.client.Do(ch, createCharge) }); err != nil {
		return Charge{}, fmt.Errorf("create charge: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("charge_id", ch.ID).
		Str("status", string(ch.Status)).
		Int64("amount", ch.Amount).
		Msg("Gateway charge created")
	return toCharge(ch), nil
}

func (o *Omise) RetrieveCharge(ctx context.Context, chargeID string) (Charge, error) {
	ch := &omise.Charge{}
	retrieve := &operations.RetrieveCharge{ChargeID: chargeID}
	if err := o.do(ctx, func() error { return o.client.Do(ch, retrieve) }); err != nil {
		return Charge{}, fmt.Errorf("retrieve charge %s: %w", chargeID, err)
	}
	return toCharge(ch), nil
}

func (o *Omise) Refund(ctx context.Context, chargeID string, amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, nil
	}
	refund := &omise.Refund{}
	createRefund := &operations.CreateRefund{
		ChargeID: chargeID,
		Amount:   amountCents,
	}
	if err := o.do(ctx, func() error { return o.client.Do(refund, createRefund) }); err != nil {
		return 0, fmt.Errorf("refund charge %s: %w", chargeID, err)
	}
	log.Ctx(ctx).Info().
		Str("charge_id", chargeID).
		Str("refund_id", refund.ID).
		Int64("amount", refund.Amount).
		Msg("Gateway refund created")
	return refund.Amount, nil
}

// do runs a client operation and stops waiting once ctx is done. The client's
// own timeout bounds the abandoned request.
func (o *Omise) do(ctx context.Context, call func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- call()
	}()
	select {
	case err := <-done:
		return classify(err)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		return ctx.Err()
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *omise.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s", ErrDeclined, apiErr.Message)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func toCharge(ch *omise.Charge) Charge {
	c := Charge{
		ID:           ch.ID,
		AmountCents:  ch.Amount,
		Currency:     ch.Currency,
		Paid:         ch.Paid,
		Status:       string(ch.Status),
		AuthorizeURI: ch.AuthorizeURI,
	}
	if ch.FailureMessage != nil {
		c.Failure = *ch.FailureMessage
	}
	return c
}
