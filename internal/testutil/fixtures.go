package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db"
)

// Fixtures inserts rows for tests with raw SQL. Every helper fails the test on error.
type Fixtures struct {
	t  *testing.T
	db *db.DB
}

func NewFixtures(t *testing.T, database *db.DB) *Fixtures {
	t.Helper()
	return &Fixtures{t: t, db: database}
}

type TemplateOptions struct {
	Name               string
	BookingCutoffHours int64
	MaxDaysAhead       int64
	DropInPriceCents   *int64
	RequiredTagIDs     []int64
}

type EventOptions struct {
	TemplateID int64
	CategoryID int64 // 0 leaves the category unset
	Title      string
	Start      time.Time
	Duration   time.Duration
	Capacity   int64
	Status     string
}

// Coverage is a membership coverage or package rule row. TargetID 0 stores NULL.
type Coverage struct {
	Scope    string
	TargetID int64
}

type PackageOptions struct {
	Status        string
	Unlimited     bool
	UsesRemaining *int64
	ExpiresAt     *time.Time
}

func Int64Ptr(v int64) *int64 { return &v }

func TimePtr(v time.Time) *time.Time { return &v }

func (f *Fixtures) insert(query string, args ...any) int64 {
	f.t.Helper()
	result, err := f.db.Exec(query, args...)
	if err != nil {
		f.t.Fatalf("fixture insert failed: %v\n%s", err, query)
	}
	id, err := result.LastInsertId()
	if err != nil {
		f.t.Fatalf("fixture insert id: %v", err)
	}
	return id
}

func (f *Fixtures) Organization(name, slug string, refundWindowHours *int64) int64 {
	f.t.Helper()
	window := sql.NullInt64{}
	if refundWindowHours != nil {
		window = sql.NullInt64{Int64: *refundWindowHours, Valid: true}
	}
	return f.insert(
		`INSERT INTO organizations (name, slug, timezone, refund_window_hours) VALUES (?, ?, 'UTC', ?)`,
		name, slug, window,
	)
}

func (f *Fixtures) Athlete(orgID int64, firstName, email string) int64 {
	f.t.Helper()
	return f.insert(
		`INSERT INTO athletes (organization_id, first_name, last_name, email) VALUES (?, ?, 'Test', ?)`,
		orgID, firstName, nullString(email),
	)
}

func (f *Fixtures) Guardian(orgID int64, email string, athleteIDs ...int64) int64 {
	f.t.Helper()
	guardianID := f.insert(
		`INSERT INTO guardians (organization_id, first_name, last_name, email) VALUES (?, 'Parent', 'Test', ?)`,
		orgID, nullString(email),
	)
	for _, athleteID := range athleteIDs {
		f.insert(`INSERT INTO guardian_athletes (guardian_id, athlete_id) VALUES (?, ?)`, guardianID, athleteID)
	}
	return guardianID
}

func (f *Fixtures) RestrictionTag(orgID int64, name string) int64 {
	f.t.Helper()
	return f.insert(`INSERT INTO restriction_tags (organization_id, name) VALUES (?, ?)`, orgID, name)
}

func (f *Fixtures) GrantTag(athleteID, tagID int64) {
	f.t.Helper()
	f.insert(`INSERT INTO athlete_restriction_tags (athlete_id, tag_id) VALUES (?, ?)`, athleteID, tagID)
}

func (f *Fixtures) Category(orgID int64, name string) int64 {
	f.t.Helper()
	return f.insert(`INSERT INTO event_categories (organization_id, name) VALUES (?, ?)`, orgID, name)
}

func (f *Fixtures) Template(orgID int64, opts TemplateOptions) int64 {
	f.t.Helper()
	name := opts.Name
	if name == "" {
		name = "Session"
	}
	price := sql.NullInt64{}
	if opts.DropInPriceCents != nil {
		price = sql.NullInt64{Int64: *opts.DropInPriceCents, Valid: true}
	}
	templateID := f.insert(
		`INSERT INTO event_templates (organization_id, name, booking_cutoff_hours, max_days_ahead, drop_in_price_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		orgID, name, opts.BookingCutoffHours, opts.MaxDaysAhead, price,
	)
	for _, tagID := range opts.RequiredTagIDs {
		f.insert(`INSERT INTO template_required_tags (template_id, tag_id) VALUES (?, ?)`, templateID, tagID)
	}
	return templateID
}

func (f *Fixtures) Event(orgID int64, opts EventOptions) int64 {
	f.t.Helper()
	start := opts.Start
	if start.IsZero() {
		start = time.Now().UTC().Add(48 * time.Hour)
	}
	duration := opts.Duration
	if duration == 0 {
		duration = time.Hour
	}
	title := opts.Title
	if title == "" {
		title = "Session"
	}
	status := opts.Status
	if status == "" {
		status = "scheduled"
	}
	category := sql.NullInt64{}
	if opts.CategoryID != 0 {
		category = sql.NullInt64{Int64: opts.CategoryID, Valid: true}
	}
	return f.insert(
		`INSERT INTO scheduled_events (organization_id, template_id, category_id, title, start_time, end_time, capacity, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		orgID, opts.TemplateID, category, title, start.UTC(), start.Add(duration).UTC(), opts.Capacity, status,
	)
}

func (f *Fixtures) MembershipType(orgID int64, name string, coverage ...Coverage) int64 {
	f.t.Helper()
	typeID := f.insert(`INSERT INTO membership_types (organization_id, name) VALUES (?, ?)`, orgID, name)
	for _, c := range coverage {
		f.insert(
			`INSERT INTO membership_type_coverage (membership_type_id, scope, target_id) VALUES (?, ?, ?)`,
			typeID, c.Scope, c.TargetID,
		)
	}
	return typeID
}

func (f *Fixtures) Membership(athleteID, typeID int64, status string, endsAt *time.Time) int64 {
	f.t.Helper()
	ends := sql.NullTime{}
	if endsAt != nil {
		ends = sql.NullTime{Time: endsAt.UTC(), Valid: true}
	}
	return f.insert(
		`INSERT INTO memberships (athlete_id, membership_type_id, status, starts_at, ends_at) VALUES (?, ?, ?, ?, ?)`,
		athleteID, typeID, status, time.Now().UTC().Add(-24*time.Hour), ends,
	)
}

func (f *Fixtures) PackageType(orgID int64, name string, rules ...Coverage) int64 {
	f.t.Helper()
	typeID := f.insert(`INSERT INTO package_types (organization_id, name) VALUES (?, ?)`, orgID, name)
	for _, rule := range rules {
		target := sql.NullInt64{}
		if rule.TargetID != 0 {
			target = sql.NullInt64{Int64: rule.TargetID, Valid: true}
		}
		f.insert(
			`INSERT INTO package_type_rules (package_type_id, scope, target_id) VALUES (?, ?, ?)`,
			typeID, rule.Scope, target,
		)
	}
	return typeID
}

func (f *Fixtures) Package(athleteID, typeID int64, opts PackageOptions) int64 {
	f.t.Helper()
	status := opts.Status
	if status == "" {
		status = "active"
	}
	uses := sql.NullInt64{}
	if opts.UsesRemaining != nil {
		uses = sql.NullInt64{Int64: *opts.UsesRemaining, Valid: true}
	}
	expires := sql.NullTime{}
	if opts.ExpiresAt != nil {
		expires = sql.NullTime{Time: opts.ExpiresAt.UTC(), Valid: true}
	}
	return f.insert(
		`INSERT INTO packages (athlete_id, package_type_id, status, unlimited, uses_remaining, expires_at, purchased_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		athleteID, typeID, status, opts.Unlimited, uses, expires, time.Now().UTC().Add(-time.Hour),
	)
}

func (f *Fixtures) CancellationTier(orgID, minHoursBefore, refundPercentage int64) int64 {
	f.t.Helper()
	return f.insert(
		`INSERT INTO cancellation_policy_tiers (organization_id, min_hours_before, refund_percentage) VALUES (?, ?, ?)`,
		orgID, minHoursBefore, refundPercentage,
	)
}

// PackageUses returns the package's status and remaining uses (-1 when NULL).
func (f *Fixtures) PackageUses(packageID int64) (string, int64) {
	f.t.Helper()
	var status string
	var uses sql.NullInt64
	if err := f.db.QueryRow(`SELECT status, uses_remaining FROM packages WHERE id = ?`, packageID).Scan(&status, &uses); err != nil {
		f.t.Fatalf("load package %d: %v", packageID, err)
	}
	if !uses.Valid {
		return status, -1
	}
	return status, uses.Int64
}

func (f *Fixtures) BookedCount(eventID int64) int64 {
	f.t.Helper()
	var count int64
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM bookings WHERE event_id = ? AND status = 'booked'`, eventID).Scan(&count); err != nil {
		f.t.Fatalf("count bookings for event %d: %v", eventID, err)
	}
	return count
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
