package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/payments"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrCapacityExceeded   = errors.New("capacity exceeded")
	ErrDuplicateBooking   = errors.New("duplicate booking")
	ErrPackageDepleted    = errors.New("package depleted")
	ErrRestrictionBlocked = errors.New("restriction blocked")
	ErrBookingClosed      = errors.New("booking closed")
	ErrSourceUnavailable  = errors.New("payment source unavailable")
	ErrPaymentRequired    = errors.New("payment required")
	ErrPayment            = errors.New("payment failed")
	ErrUnavailable        = errors.New("service unavailable")
	ErrTimeout            = errors.New("timeout")
	ErrDataIntegrity      = errors.New("data integrity violation")
)

const unexpectedMessage = "An unexpected error occurred"

var userMessages = []struct {
	err error
	msg string
}{
	{ErrCapacityExceeded, "This class is full"},
	{ErrDuplicateBooking, "You are already booked for this class"},
	{ErrPackageDepleted, "This package has no sessions remaining"},
	{ErrRestrictionBlocked, "You need clearance before booking this class"},
	{ErrBookingClosed, "Booking is not open for this class"},
	{ErrSourceUnavailable, "That payment option can't be used for this class"},
	{ErrPaymentRequired, "Payment is required to book this class"},
	{ErrPayment, "Your payment could not be processed"},
	{ErrNotFound, "We couldn't find that class or booking"},
	{ErrTimeout, "The request timed out, please try again"},
	{ErrUnavailable, "We couldn't check right now, please try again"},
}

// UserMessage returns the short message shown to the athlete for err.
// Integrity and unclassified failures get a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return unexpectedMessage
}

// isDomainError reports whether err already carries one of the sentinels above.
func isDomainError(err error) bool {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return true
		}
	}
	return errors.Is(err, ErrDataIntegrity)
}

// isRejection reports whether err is a business outcome rather than a failure.
func isRejection(err error) bool {
	return isDomainError(err) &&
		!errors.Is(err, ErrDataIntegrity) &&
		!errors.Is(err, ErrUnavailable) &&
		!errors.Is(err, ErrTimeout)
}

// storeError classifies a datastore failure. Domain errors pass through.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	case errors.Is(err, context.DeadlineExceeded), db.IsBusy(err):
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
}

func gatewayError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, payments.ErrDeclined):
		return fmt.Errorf("%s: %w: %v", op, ErrPayment, err)
	case errors.Is(err, payments.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
}

// lockError classifies a failure to take a booking lock.
func lockError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("acquire booking lock: %w", ErrTimeout)
	}
	return fmt.Errorf("acquire booking lock: %w: %v", ErrUnavailable, err)
}
