package booking

import (
	"encoding/json"
	"fmt"
	"time"
)

// FormatPriceCents renders a cent amount as dollars, e.g. 2500 -> "$25.00".
func FormatPriceCents(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

type SourceType string

const (
	SourceNone       SourceType = ""
	SourceMembership SourceType = "membership"
	SourcePackage    SourceType = "package"
	SourceDropIn     SourceType = "drop_in"
	SourceBlocked    SourceType = "blocked"
)

// MarshalJSON encodes SourceNone as null.
func (s SourceType) MarshalJSON() ([]byte, error) {
	if s == SourceNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *SourceType) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = SourceNone
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = SourceType(v)
	return nil
}

const (
	scopeAny      = "any"
	scopeCategory = "category"
	scopeTemplate = "template"
)

type Tag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// EventDetails is a scheduled event joined with its template and required tags.
type EventDetails struct {
	ID                 int64     `json:"id"`
	OrganizationID     int64     `json:"organizationId"`
	TemplateID         int64     `json:"templateId"`
	CategoryID         *int64    `json:"categoryId"`
	Title              string    `json:"title"`
	TemplateName       string    `json:"templateName"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	Status             string    `json:"status"`
	Capacity           int64     `json:"capacity"`
	BookedCount        int64     `json:"bookedCount"`
	RequiredTags       []Tag     `json:"requiredTags"`
	BookingCutoffHours int64     `json:"bookingCutoffHours"`
	MaxDaysAhead       int64     `json:"maxDaysAhead"`
	DropInPriceCents   *int64    `json:"dropInPriceCents"`

	refundWindowHours *int64
}

func (e EventDetails) SpotsLeft() int64 {
	if left := e.Capacity - e.BookedCount; left > 0 {
		return left
	}
	return 0
}

// BookingClosesAt is the last instant a booking may be committed.
func (e EventDetails) BookingClosesAt() time.Time {
	return e.StartTime.Add(-time.Duration(e.BookingCutoffHours) * time.Hour)
}

// BookingOpensAt is the first instant a booking may be committed. The bool is
// false when the template sets no limit.
func (e EventDetails) BookingOpensAt() (time.Time, bool) {
	if e.MaxDaysAhead <= 0 {
		return time.Time{}, false
	}
	return e.StartTime.AddDate(0, 0, -int(e.MaxDaysAhead)), true
}

func (e EventDetails) bookingOpen(now time.Time) bool {
	if now.After(e.BookingClosesAt()) {
		return false
	}
	if opens, ok := e.BookingOpensAt(); ok && now.Before(opens) {
		return false
	}
	return true
}

type AthleteProfile struct {
	ID             int64  `json:"id"`
	OrganizationID int64  `json:"organizationId"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email,omitempty"`
	Tags           []Tag  `json:"tags"`
}

// MissingTags returns the required tags the athlete does not hold, in the event's order.
func (a AthleteProfile) MissingTags(required []Tag) []Tag {
	held := make(map[int64]struct{}, len(a.Tags))
	for _, t := range a.Tags {
		held[t.ID] = struct{}{}
	}
	var missing []Tag
	for _, t := range required {
		if _, ok := held[t.ID]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

// Coverage is one membership coverage entry or package rule. TargetID is nil
// only for scope "any".
type Coverage struct {
	Scope    string
	TargetID *int64
}

func (c Coverage) matches(e EventDetails) bool {
	switch c.Scope {
	case scopeAny:
		return true
	case scopeCategory:
		return c.TargetID != nil && e.CategoryID != nil && *c.TargetID == *e.CategoryID
	case scopeTemplate:
		return c.TargetID != nil && *c.TargetID == e.TemplateID
	}
	return false
}

type MembershipEntitlement struct {
	ID       int64
	TypeID   int64
	TypeName string
	Status   string
	EndsAt   *time.Time
	Coverage []Coverage
}

// Covers reports whether the membership may pay for e at now. An empty
// coverage list covers nothing, and "any" is not a membership scope.
func (m MembershipEntitlement) Covers(e EventDetails, now time.Time) bool {
	if m.Status != "active" && m.Status != "trialing" {
		return false
	}
	if m.EndsAt != nil && !m.EndsAt.After(now) {
		return false
	}
	for _, c := range m.Coverage {
		if c.Scope == scopeAny {
			continue
		}
		if c.matches(e) {
			return true
		}
	}
	return false
}

type PackageEntitlement struct {
	ID            int64
	TypeID        int64
	TypeName      string
	Status        string
	Unlimited     bool
	UsesRemaining *int64
	ExpiresAt     *time.Time
	Rules         []Coverage
}

func (p PackageEntitlement) HasUses() bool {
	return p.Unlimited || p.UsesRemaining == nil || *p.UsesRemaining > 0
}

func (p PackageEntitlement) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !p.ExpiresAt.After(now)
}

func (p PackageEntitlement) Covers(e EventDetails, now time.Time) bool {
	if p.Status != "active" || !p.HasUses() || p.Expired(now) {
		return false
	}
	for _, r := range p.Rules {
		if r.matches(e) {
			return true
		}
	}
	return false
}

// PaymentSource is an entitlement usable for a specific event.
type PaymentSource struct {
	Type            SourceType `json:"type"`
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Subtitle        string     `json:"subtitle"`
	Status          string     `json:"status"`
	Unlimited       bool       `json:"unlimited"`
	RemainingVisits *int64     `json:"remainingVisits"`
	ExpiresAt       *time.Time `json:"expiresAt"`
}

type EligibilityResult struct {
	CanBook             bool       `json:"canBook"`
	SourceType          SourceType `json:"sourceType"`
	SourceID            *int64     `json:"sourceId"`
	Reason              string     `json:"reason"`
	RemainingVisits     *int64     `json:"remainingVisits"`
	MissingRestrictions []string   `json:"missingRestrictions"`
	DropInPriceCents    *int64     `json:"dropInPriceCents"`
	BookingOpensAt      *time.Time `json:"bookingOpensAt,omitempty"`
	BookingClosesAt     *time.Time `json:"bookingClosesAt,omitempty"`
}

type CommitParams struct {
	AthleteID       int64
	EventID         int64
	PaymentType     SourceType
	PaymentID       *int64
	PaymentIntentID string
	GuardianID      *int64
}

type BookingResult struct {
	BookingID       int64      `json:"bookingId"`
	SourceType      SourceType `json:"sourceType"`
	SourceID        *int64     `json:"sourceId"`
	AmountPaidCents int64      `json:"amountPaidCents"`
	RemainingVisits *int64     `json:"remainingVisits,omitempty"`
}

type CancelParams struct {
	AthleteID int64
	EventID   int64
	Reason    string
}

type CancellationResult struct {
	BookingID         int64  `json:"bookingId"`
	Refunded          bool   `json:"refunded"`
	RefundAmountCents int64  `json:"refundAmount"`
	RefundPercentage  int64  `json:"refundPercentage"`
	RefundStatus      string `json:"refundStatus"`
	RestoredPackageID *int64 `json:"restoredPackageId,omitempty"`
}

type PaymentIntent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

type EventSummary struct {
	ID               int64     `json:"id"`
	TemplateID       int64     `json:"templateId"`
	CategoryID       *int64    `json:"categoryId"`
	Title            string    `json:"title"`
	TemplateName     string    `json:"templateName"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	Status           string    `json:"status"`
	Capacity         int64     `json:"capacity"`
	BookedCount      int64     `json:"bookedCount"`
	SpotsLeft        int64     `json:"spotsLeft"`
	DropInPriceCents *int64    `json:"dropInPriceCents"`
}

type AthleteBooking struct {
	ID              int64      `json:"id"`
	EventID         int64      `json:"eventId"`
	EventTitle      string     `json:"eventTitle"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         time.Time  `json:"endTime"`
	Status          string     `json:"status"`
	SourceType      SourceType `json:"sourceType"`
	SourceID        *int64     `json:"sourceId"`
	AmountPaidCents int64      `json:"amountPaidCents"`
	CreatedAt       time.Time  `json:"createdAt"`
}
