package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/config"
)

const (
	JobExpireEntitlements = "expire_entitlements"
	JobExpireIntents      = "expire_payment_intents"
	JobRetryRefunds       = "retry_refunds"
)

// Maintainer is the booking housekeeping the scheduler drives.
type Maintainer interface {
	ExpireEntitlements(ctx context.Context) (packages, memberships int64, err error)
	ExpireStaleIntents(ctx context.Context) (int64, error)
	RetryRefunds(ctx context.Context, limit int64) (int, error)
}

// RegisterBookingJobs registers the booking housekeeping jobs on the singleton scheduler.
func RegisterBookingJobs(m Maintainer, cfg config.SchedulerConfig, refundBatchSize int64) error {
	svc, err := ServiceInstance()
	if err != nil {
		return err
	}
	return svc.RegisterBookingJobs(m, cfg, refundBatchSize)
}

func (s *Service) RegisterBookingJobs(m Maintainer, cfg config.SchedulerConfig, refundBatchSize int64) error {
	if m == nil {
		return fmt.Errorf("booking jobs require a maintainer")
	}
	jobs := []struct {
		name    string
		cron    string
		timeout time.Duration
		task    func(context.Context)
	}{
		{JobExpireEntitlements, cfg.ExpireEntitlements, time.Minute, expireEntitlementsTask(m)},
		{JobExpireIntents, cfg.ExpireIntents, time.Minute, expireIntentsTask(m)},
		{JobRetryRefunds, cfg.RetryRefunds, 5 * time.Minute, retryRefundsTask(m, refundBatchSize)},
	}
	for _, job := range jobs {
		if _, err := s.AddJob(job.name, job.cron, job.timeout, job.task); err != nil {
			return fmt.Errorf("register %s: %w", job.name, err)
		}
	}
	return nil
}

func expireEntitlementsTask(m Maintainer) func(context.Context) {
	return func(ctx context.Context) {
		logger := log.Ctx(ctx)
		packages, memberships, err := m.ExpireEntitlements(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to expire entitlements")
			return
		}
		if packages+memberships > 0 {
			logger.Info().
				Int64("packages", packages).
				Int64("memberships", memberships).
				Msg("Expired entitlements")
		}
	}
}

func expireIntentsTask(m Maintainer) func(context.Context) {
	return func(ctx context.Context) {
		logger := log.Ctx(ctx)
		n, err := m.ExpireStaleIntents(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to expire payment intents")
			return
		}
		if n > 0 {
			logger.Info().Int64("count", n).Msg("Expired unpaid payment intents")
		}
	}
}

func retryRefundsTask(m Maintainer, batch int64) func(context.Context) {
	if batch <= 0 {
		batch = 50
	}
	return func(ctx context.Context) {
		if _, err := m.RetryRefunds(ctx, batch); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to retry refunds")
		}
	}
}
