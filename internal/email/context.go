package email

import (
	"context"
	"time"
)

// newSendContext detaches from the caller so a finished request does not
// abort a send that is still in flight.
func newSendContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
