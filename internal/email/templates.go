package email

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/booking"
)

type Message struct {
	Subject string
	Body    string
}

// FormatDateTimeRange renders the event time in the organization's zone.
// Unknown zones fall back to UTC.
func FormatDateTimeRange(start, end time.Time, timezone string) (string, string) {
	loc, err := time.LoadLocation(strings.TrimSpace(timezone))
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	start, end = start.In(loc), end.In(loc)
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s %s", start.Format("3:04 PM"), end.Format("3:04 PM"), start.Format("MST"))
	return date, timeRange
}

func SourceLabel(source booking.SourceType) string {
	switch source {
	case booking.SourceMembership:
		return "Membership"
	case booking.SourcePackage:
		return "Package"
	case booking.SourceDropIn:
		return "Drop-in"
	}
	return "Booking"
}

func BuildConfirmation(n booking.Notice) Message {
	org := orgName(n.OrganizationName)
	title := orDefault(n.EventTitle, "Session")
	date, timeRange := FormatDateTimeRange(n.EventStart, n.EventEnd, n.Timezone)

	lines := []string{
		fmt.Sprintf("%s is booked for %s.", orDefault(strings.TrimSpace(n.AthleteName), "Your athlete"), title),
		"",
		fmt.Sprintf("Facility: %s", org),
		fmt.Sprintf("Date: %s", date),
		fmt.Sprintf("Time: %s", timeRange),
		fmt.Sprintf("Paid with: %s", SourceLabel(n.SourceType)),
	}
	if n.AmountPaidCents > 0 {
		lines = append(lines, fmt.Sprintf("Amount paid: %s", booking.FormatPriceCents(n.AmountPaidCents)))
	}
	lines = append(lines, fmt.Sprintf("Booking reference: #%d", n.BookingID))

	return Message{
		Subject: fmt.Sprintf("Booking Confirmed: %s - %s", title, org),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildCancellation(n booking.Notice) Message {
	org := orgName(n.OrganizationName)
	title := orDefault(n.EventTitle, "Session")
	date, timeRange := FormatDateTimeRange(n.EventStart, n.EventEnd, n.Timezone)

	lines := []string{
		fmt.Sprintf("The booking for %s on %s has been cancelled.", orDefault(strings.TrimSpace(n.AthleteName), "your athlete"), title),
		"",
		fmt.Sprintf("Facility: %s", org),
		fmt.Sprintf("Date: %s", date),
		fmt.Sprintf("Time: %s", timeRange),
	}
	switch {
	case n.Refunded:
		lines = append(lines, fmt.Sprintf("Refund: %s", booking.FormatPriceCents(n.RefundAmountCents)))
	case n.SourceType == booking.SourcePackage:
		lines = append(lines, "Your package session has been returned.")
	case n.AmountPaidCents > 0:
		lines = append(lines, "Refund: none under the cancellation policy")
	}
	lines = append(lines, fmt.Sprintf("Booking reference: #%d", n.BookingID))

	return Message{
		Subject: fmt.Sprintf("Booking Cancelled: %s - %s", title, org),
		Body:    strings.Join(lines, "\n"),
	}
}

func orgName(name string) string {
	return orDefault(strings.TrimSpace(name), "your facility")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
