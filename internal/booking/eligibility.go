package booking

import (
	"context"
	"strings"
	"time"

	dbgen "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db/generated"
)

const (
	reasonNoEntitlement = "No active membership or package"
	reasonFreeSession   = "Free session"
)

// Evaluate decides whether the athlete may book the event and with which
// source. It has no side effects and its result must not be cached.
func (s *Service) Evaluate(ctx context.Context, athleteID, eventID int64) (_ EligibilityResult, err error) {
	ctx, span := s.startSpan(ctx, "Evaluate", athleteEventAttrs(athleteID, eventID)...)
	defer func() { endSpan(span, err) }()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := s.db.Queries
	athlete, event, err := loadAthleteAndEvent(ctx, q, athleteID, eventID)
	if err != nil {
		return EligibilityResult{}, err
	}
	return evaluate(ctx, q, athlete, event, s.clock())
}

// evaluate runs the cascade. The first matching branch wins:
// restriction gate, entitlement, drop-in, hard fail.
func evaluate(ctx context.Context, q dbgen.Querier, athlete AthleteProfile, event EventDetails, now time.Time) (EligibilityResult, error) {
	result := EligibilityResult{MissingRestrictions: []string{}}
	closes := event.BookingClosesAt()
	result.BookingClosesAt = &closes
	if opens, ok := event.BookingOpensAt(); ok {
		result.BookingOpensAt = &opens
	}

	if missing := athlete.MissingTags(event.RequiredTags); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, t := range missing {
			names = append(names, t.Name)
		}
		result.SourceType = SourceBlocked
		result.MissingRestrictions = names
		result.Reason = "Requires " + strings.Join(names, ", ")
		return result, nil
	}

	sources, err := resolveSources(ctx, q, athlete.ID, event, now)
	if err != nil {
		return EligibilityResult{}, err
	}
	if len(sources) > 0 {
		chosen := sources[0]
		id := chosen.ID
		result.CanBook = true
		result.SourceType = chosen.Type
		result.SourceID = &id
		result.RemainingVisits = chosen.RemainingVisits
		result.Reason = chosen.Name + " (" + chosen.Subtitle + ")"
		return result, nil
	}

	if event.DropInPriceCents != nil {
		price := *event.DropInPriceCents
		result.CanBook = true
		result.SourceType = SourceDropIn
		result.DropInPriceCents = &price
		if price == 0 {
			result.Reason = reasonFreeSession
		} else {
			result.Reason = FormatPriceCents(price)
		}
		return result, nil
	}

	result.SourceType = SourceNone
	result.Reason = reasonNoEntitlement
	return result, nil
}
