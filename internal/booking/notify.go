package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	dbgen "github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db/generated"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/mq"
)

// Notice carries what a confirmation or cancellation message needs.
type Notice struct {
	BookingID         int64
	OrganizationName  string
	Timezone          string
	AthleteName       string
	Recipients        []string
	EventTitle        string
	EventStart        time.Time
	EventEnd          time.Time
	SourceType        SourceType
	AmountPaidCents   int64
	Refunded          bool
	RefundAmountCents int64
}

// Event is the message published for booking lifecycle changes.
type Event struct {
	Type              string     `json:"type"`
	BookingID         int64      `json:"bookingId"`
	AthleteID         int64      `json:"athleteId"`
	EventID           int64      `json:"eventId"`
	SourceType        SourceType `json:"sourceType"`
	SourceID          *int64     `json:"sourceId,omitempty"`
	AmountPaidCents   int64      `json:"amountPaidCents"`
	RefundAmountCents int64      `json:"refundAmountCents,omitempty"`
	OccurredAt        time.Time  `json:"occurredAt"`
}

func (s *Service) afterCommit(ctx context.Context, p CommitParams, result BookingResult, now time.Time) {
	s.publish(ctx, Event{
		Type:            mq.KeyBookingCreated,
		BookingID:       result.BookingID,
		AthleteID:       p.AthleteID,
		EventID:         p.EventID,
		SourceType:      result.SourceType,
		SourceID:        result.SourceID,
		AmountPaidCents: result.AmountPaidCents,
		OccurredAt:      now,
	})

	if s.notifier == nil {
		return
	}
	notice, ok := s.buildNotice(ctx, result.BookingID, p.AthleteID, p.EventID)
	if !ok {
		return
	}
	notice.SourceType = result.SourceType
	notice.AmountPaidCents = result.AmountPaidCents
	s.notifier.BookingConfirmed(ctx, notice)
}

func (s *Service) afterCancel(ctx context.Context, b dbgen.Booking, result CancellationResult, now time.Time) {
	key := mq.KeyBookingCancelled
	if result.Refunded {
		key = mq.KeyBookingRefunded
	}
	s.publish(ctx, Event{
		Type:              key,
		BookingID:         b.ID,
		AthleteID:         b.AthleteID,
		EventID:           b.EventID,
		SourceType:        SourceType(b.SourceType),
		SourceID:          nullInt64Ptr(b.SourceID),
		AmountPaidCents:   b.AmountPaidCents,
		RefundAmountCents: result.RefundAmountCents,
		OccurredAt:        now,
	})

	if s.notifier == nil {
		return
	}
	notice, ok := s.buildNotice(ctx, b.ID, b.AthleteID, b.EventID)
	if !ok {
		return
	}
	notice.SourceType = SourceType(b.SourceType)
	notice.AmountPaidCents = b.AmountPaidCents
	notice.Refunded = result.Refunded
	notice.RefundAmountCents = result.RefundAmountCents
	s.notifier.BookingCancelled(ctx, notice)
}

// publish never fails the booking; a lost event is logged.
func (s *Service) publish(ctx context.Context, ev Event) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishJSON(pubCtx, ev.Type, ev); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("event_type", ev.Type).
			Int64("booking_id", ev.BookingID).
			Msg("Failed to publish booking event")
	}
}

func (s *Service) buildNotice(ctx context.Context, bookingID, athleteID, eventID int64) (Notice, bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.QueryTimeout)
	defer cancel()
	logger := log.Ctx(ctx)

	athlete, err := s.db.Queries.GetAthlete(ctx, athleteID)
	if err != nil {
		logger.Error().Err(err).Int64("athlete_id", athleteID).Msg("Failed to load athlete for booking notice")
		return Notice{}, false
	}
	event, err := s.db.Queries.GetScheduledEvent(ctx, eventID)
	if err != nil {
		logger.Error().Err(err).Int64("event_id", eventID).Msg("Failed to load event for booking notice")
		return Notice{}, false
	}
	org, err := s.db.Queries.GetOrganization(ctx, event.OrganizationID)
	if err != nil {
		logger.Warn().Err(err).Int64("organization_id", event.OrganizationID).Msg("Failed to load organization for booking notice")
	}
	guardianEmails, err := s.db.Queries.ListGuardianEmailsForAthlete(ctx, athleteID)
	if err != nil {
		logger.Error().Err(err).Int64("athlete_id", athleteID).Msg("Failed to load guardian emails")
	}

	var recipients []string
	if athlete.Email.Valid && athlete.Email.String != "" {
		recipients = append(recipients, athlete.Email.String)
	}
	for _, email := range guardianEmails {
		if email.Valid && email.String != "" {
			recipients = append(recipients, email.String)
		}
	}
	if len(recipients) == 0 {
		return Notice{}, false
	}

	return Notice{
		BookingID:        bookingID,
		OrganizationName: org.Name,
		Timezone:         org.Timezone,
		AthleteName:      athlete.FirstName + " " + athlete.LastName,
		Recipients:       recipients,
		EventTitle:       event.Title,
		EventStart:       event.StartTime,
		EventEnd:         event.EndTime,
	}, true
}
