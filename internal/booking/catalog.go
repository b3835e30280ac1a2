package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	dbgen "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db/generated"
)

// LoadEvent returns the event with its template rules, required tags and
// current booked count.
func (s *Service) LoadEvent(ctx context.Context, eventID int64) (_ EventDetails, err error) {
	ctx, span := s.startSpan(ctx, "LoadEvent", attribute.Int64("event.id", eventID))
	defer func() { endSpan(span, err) }()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return loadEvent(ctx, s.db.Queries, eventID)
}

func (s *Service) LoadAthlete(ctx context.Context, athleteID int64) (_ AthleteProfile, err error) {
	ctx, span := s.startSpan(ctx, "LoadAthlete", attribute.Int64("athlete.id", athleteID))
	defer func() { endSpan(span, err) }()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return loadAthlete(ctx, s.db.Queries, athleteID)
}

// ListUpcomingEvents lists an organization's events starting in [from, to).
func (s *Service) ListUpcomingEvents(ctx context.Context, orgID int64, from, to time.Time) (_ []EventSummary, err error) {
	ctx, span := s.startSpan(ctx, "ListUpcomingEvents", attribute.Int64("organization.id", orgID))
	defer func() { endSpan(span, err) }()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if !to.After(from) {
		return nil, fmt.Errorf("window end must be after start")
	}
	rows, err := s.db.Queries.ListUpcomingEvents(ctx, dbgen.ListUpcomingEventsParams{
		OrganizationID: orgID,
		WindowStart:    from.UTC(),
		WindowEnd:      to.UTC(),
	})
	if err != nil {
		return nil, storeError("list upcoming events", err)
	}

	events := make([]EventSummary, 0, len(rows))
	for _, row := range rows {
		summary := EventSummary{
			ID:               row.ID,
			TemplateID:       row.TemplateID,
			CategoryID:       nullInt64Ptr(row.CategoryID),
			Title:            row.Title,
			TemplateName:     row.TemplateName,
			StartTime:        row.StartTime,
			EndTime:          row.EndTime,
			Status:           row.Status,
			Capacity:         row.Capacity,
			BookedCount:      row.BookedCount,
			DropInPriceCents: nullInt64Ptr(row.DropInPriceCents),
		}
		if left := row.Capacity - row.BookedCount; left > 0 {
			summary.SpotsLeft = left
		}
		events = append(events, summary)
	}
	return events, nil
}

func loadEvent(ctx context.Context, q dbgen.Querier, eventID int64) (EventDetails, error) {
	event, err := q.GetScheduledEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EventDetails{}, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
		}
		return EventDetails{}, storeError("load event", err)
	}

	template, err := q.GetEventTemplate(ctx, event.TemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EventDetails{}, integrityError(ctx, "event references missing template", eventID, event.TemplateID)
		}
		return EventDetails{}, storeError("load event template", err)
	}
	if template.OrganizationID != event.OrganizationID {
		return EventDetails{}, integrityError(ctx, "event template belongs to another organization", eventID, template.ID)
	}

	org, err := q.GetOrganization(ctx, event.OrganizationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EventDetails{}, integrityError(ctx, "event references missing organization", eventID, event.OrganizationID)
		}
		return EventDetails{}, storeError("load organization", err)
	}

	required, err := q.ListTemplateRequiredTags(ctx, template.ID)
	if err != nil {
		return EventDetails{}, storeError("load required tags", err)
	}

	booked, err := q.CountActiveBookingsForEvent(ctx, eventID)
	if err != nil {
		return EventDetails{}, storeError("count bookings", err)
	}

	return EventDetails{
		ID:                 event.ID,
		OrganizationID:     event.OrganizationID,
		TemplateID:         template.ID,
		CategoryID:         nullInt64Ptr(event.CategoryID),
		Title:              event.Title,
		TemplateName:       template.Name,
		StartTime:          event.StartTime,
		EndTime:            event.EndTime,
		Status:             event.Status,
		Capacity:           event.Capacity,
		BookedCount:        booked,
		RequiredTags:       toTags(required),
		BookingCutoffHours: template.BookingCutoffHours,
		MaxDaysAhead:       template.MaxDaysAhead,
		DropInPriceCents:   nullInt64Ptr(template.DropInPriceCents),
		refundWindowHours:  nullInt64Ptr(org.RefundWindowHours),
	}, nil
}

func loadAthlete(ctx context.Context, q dbgen.Querier, athleteID int64) (AthleteProfile, error) {
	athlete, err := q.GetAthlete(ctx, athleteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AthleteProfile{}, fmt.Errorf("athlete %d: %w", athleteID, ErrNotFound)
		}
		return AthleteProfile{}, storeError("load athlete", err)
	}

	tags, err := q.ListAthleteRestrictionTags(ctx, athleteID)
	if err != nil {
		return AthleteProfile{}, storeError("load athlete tags", err)
	}

	return AthleteProfile{
		ID:             athlete.ID,
		OrganizationID: athlete.OrganizationID,
		FirstName:      athlete.FirstName,
		LastName:       athlete.LastName,
		Email:          athlete.Email.String,
		Tags:           toTags(tags),
	}, nil
}

// loadAthleteAndEvent loads both records. Events of another organization are
// reported as not found.
func loadAthleteAndEvent(ctx context.Context, q dbgen.Querier, athleteID, eventID int64) (AthleteProfile, EventDetails, error) {
	athlete, err := loadAthlete(ctx, q, athleteID)
	if err != nil {
		return AthleteProfile{}, EventDetails{}, err
	}
	event, err := loadEvent(ctx, q, eventID)
	if err != nil {
		return AthleteProfile{}, EventDetails{}, err
	}
	if athlete.OrganizationID != event.OrganizationID {
		return AthleteProfile{}, EventDetails{}, fmt.Errorf("event %d not offered to athlete %d: %w", eventID, athleteID, ErrNotFound)
	}
	return athlete, event, nil
}

func integrityError(ctx context.Context, msg string, eventID, refID int64) error {
	log.Ctx(ctx).Error().
		Int64("event_id", eventID).
		Int64("ref_id", refID).
		Msg(msg)
	return fmt.Errorf("%s (event %d, ref %d): %w", msg, eventID, refID, ErrDataIntegrity)
}

func toTags(rows []dbgen.RestrictionTag) []Tag {
	tags := make([]Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, Tag{ID: row.ID, Name: row.Name, Description: row.Description.String})
	}
	return tags
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
