package email

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/booking"
)

const defaultSendTimeout = 5 * time.Second

// Notifier emails booking confirmations and cancellations to the athlete and
// linked guardians. Sends run in the background and never fail a booking.
type Notifier struct {
	sender  Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotifier(sender Sender, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Notifier{sender: sender, timeout: timeout}
}

func (n *Notifier) BookingConfirmed(ctx context.Context, notice booking.Notice) {
	n.deliver(ctx, notice, BuildConfirmation(notice))
}

func (n *Notifier) BookingCancelled(ctx context.Context, notice booking.Notice) {
	n.deliver(ctx, notice, BuildCancellation(notice))
}

// Wait blocks until in-flight sends finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) deliver(ctx context.Context, notice booking.Notice, msg Message) {
	if n == nil || n.sender == nil || len(notice.Recipients) == 0 {
		return
	}
	logger := log.Ctx(ctx).With().Int64("booking_id", notice.BookingID).Logger()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := newSendContext(ctx, n.timeout)
		defer cancel()
		for _, recipient := range notice.Recipients {
			if err := n.sender.Send(sendCtx, recipient, msg.Subject, msg.Body); err != nil {
				logger.Error().Err(err).Str("recipient", recipient).Str("subject", msg.Subject).Msg("Failed to send booking email")
			}
		}
	}()
}
