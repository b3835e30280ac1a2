package booking

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	dbgen "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db/generated"
)

// Resolve lists the memberships and packages the athlete may use for the
// event, best first. An outage is returned as ErrUnavailable or ErrTimeout and
// never as an empty list.
func (s *Service) Resolve(ctx context.Context, athleteID, eventID int64) (_ []PaymentSource, err error) {
	ctx, span := s.startSpan(ctx, "Resolve", athleteEventAttrs(athleteID, eventID)...)
	defer func() { endSpan(span, err) }()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := s.db.Queries
	_, event, err := loadAthleteAndEvent(ctx, q, athleteID, eventID)
	if err != nil {
		return nil, err
	}
	return resolveSources(ctx, q, athleteID, event, s.clock())
}

func resolveSources(ctx context.Context, q dbgen.Querier, athleteID int64, event EventDetails, now time.Time) ([]PaymentSource, error) {
	memberships, err := loadMemberships(ctx, q, athleteID)
	if err != nil {
		return nil, err
	}
	packages, err := loadPackages(ctx, q, athleteID)
	if err != nil {
		return nil, err
	}

	var sources []PaymentSource
	for _, m := range memberships {
		if m.Covers(event, now) {
			sources = append(sources, membershipSource(m))
		}
	}
	for _, p := range packages {
		if p.Covers(event, now) {
			sources = append(sources, packageSource(p))
		}
	}
	slices.SortStableFunc(sources, RankSources)
	return sources, nil
}

// RankSources orders payment sources for default selection. Memberships come
// before packages. Active memberships beat trials. Packages that expire sooner
// are used first and packages without expiry last. IDs break ties.
func RankSources(a, b PaymentSource) int {
	if c := cmp.Compare(sourceRank(a.Type), sourceRank(b.Type)); c != 0 {
		return c
	}
	switch a.Type {
	case SourceMembership:
		if c := cmp.Compare(membershipStatusRank(a.Status), membershipStatusRank(b.Status)); c != 0 {
			return c
		}
	case SourcePackage:
		if c := compareExpiry(a.ExpiresAt, b.ExpiresAt); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID, b.ID)
}

func sourceRank(t SourceType) int {
	switch t {
	case SourceMembership:
		return 0
	case SourcePackage:
		return 1
	default:
		return 2
	}
}

func membershipStatusRank(status string) int {
	if status == "active" {
		return 0
	}
	return 1
}

func compareExpiry(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func loadMemberships(ctx context.Context, q dbgen.Querier, athleteID int64) ([]MembershipEntitlement, error) {
	rows, err := q.ListUsableMembershipsForAthlete(ctx, athleteID)
	if err != nil {
		return nil, storeError("list memberships", err)
	}

	memberships := make([]MembershipEntitlement, 0, len(rows))
	for _, row := range rows {
		if !row.TypeName.Valid {
			log.Ctx(ctx).Warn().
				Int64("athlete_id", athleteID).
				Int64("membership_id", row.ID).
				Int64("membership_type_id", row.MembershipTypeID).
				Msg("Skipping membership with missing type")
			continue
		}
		coverage, err := q.ListMembershipCoverage(ctx, row.MembershipTypeID)
		if err != nil {
			return nil, storeError("list membership coverage", err)
		}
		memberships = append(memberships, membershipFromRow(row.ID, row.MembershipTypeID, row.TypeName.String, row.Status, row.EndsAt, coverage))
	}
	return memberships, nil
}

func membershipFromRow(id, typeID int64, typeName, status string, endsAt sql.NullTime, coverage []dbgen.MembershipTypeCoverage) MembershipEntitlement {
	m := MembershipEntitlement{
		ID:       id,
		TypeID:   typeID,
		TypeName: typeName,
		Status:   status,
		EndsAt:   nullTimePtr(endsAt),
	}
	for _, c := range coverage {
		target := c.TargetID
		m.Coverage = append(m.Coverage, Coverage{Scope: c.Scope, TargetID: &target})
	}
	return m
}

func loadPackages(ctx context.Context, q dbgen.Querier, athleteID int64) ([]PackageEntitlement, error) {
	rows, err := q.ListActivePackagesForAthlete(ctx, athleteID)
	if err != nil {
		return nil, storeError("list packages", err)
	}

	packages := make([]PackageEntitlement, 0, len(rows))
	for _, row := range rows {
		if !row.TypeName.Valid {
			log.Ctx(ctx).Warn().
				Int64("athlete_id", athleteID).
				Int64("package_id", row.ID).
				Int64("package_type_id", row.PackageTypeID).
				Msg("Skipping package with missing type")
			continue
		}
		rules, err := q.ListPackageRules(ctx, row.PackageTypeID)
		if err != nil {
			return nil, storeError("list package rules", err)
		}
		packages = append(packages, packageFromRow(dbgen.GetPackageForAthleteRow(row), rules))
	}
	return packages, nil
}

func packageFromRow(row dbgen.GetPackageForAthleteRow, rules []dbgen.PackageTypeRule) PackageEntitlement {
	p := PackageEntitlement{
		ID:            row.ID,
		TypeID:        row.PackageTypeID,
		TypeName:      row.TypeName.String,
		Status:        row.Status,
		Unlimited:     row.Unlimited,
		UsesRemaining: nullInt64Ptr(row.UsesRemaining),
		ExpiresAt:     nullTimePtr(row.ExpiresAt),
	}
	for _, r := range rules {
		p.Rules = append(p.Rules, Coverage{Scope: r.Scope, TargetID: nullInt64Ptr(r.TargetID)})
	}
	return p
}

func membershipSource(m MembershipEntitlement) PaymentSource {
	return PaymentSource{
		Type:      SourceMembership,
		ID:        m.ID,
		Name:      m.TypeName,
		Subtitle:  membershipSubtitle(m),
		Status:    m.Status,
		Unlimited: true,
		ExpiresAt: m.EndsAt,
	}
}

func packageSource(p PackageEntitlement) PaymentSource {
	src := PaymentSource{
		Type:      SourcePackage,
		ID:        p.ID,
		Name:      p.TypeName,
		Subtitle:  packageSubtitle(p),
		Status:    p.Status,
		Unlimited: p.Unlimited || p.UsesRemaining == nil,
		ExpiresAt: p.ExpiresAt,
	}
	if !src.Unlimited {
		remaining := *p.UsesRemaining
		src.RemainingVisits = &remaining
	}
	return src
}

func membershipSubtitle(m MembershipEntitlement) string {
	switch {
	case m.EndsAt != nil:
		return "Expires " + m.EndsAt.Format("Jan 2, 2006")
	case m.Status == "trialing":
		return "Trial membership"
	default:
		return "Active membership"
	}
}

func packageSubtitle(p PackageEntitlement) string {
	if p.Unlimited || p.UsesRemaining == nil {
		return "Unlimited sessions"
	}
	if *p.UsesRemaining == 1 {
		return "1 session remaining"
	}
	return fmt.Sprintf("%d sessions remaining", *p.UsesRemaining)
}
