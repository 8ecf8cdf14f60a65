package scheduler

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/config"
)

const (
	JobBookingExpiry    = "booking_expiry"
	JobBookingReminders = "booking_reminders"
	JobWaitlistCleanup  = "waitlist_cleanup"
)

// BookingScanner is the set of idempotent scan-and-mutate passes the
// scheduler drives. Each returns how many records it changed.
type BookingScanner interface {
	ExpireOverdue(ctx context.Context) (int, error)
	SendReminders(ctx context.Context) (int, error)
	CleanupWaitlists(ctx context.Context) (int, error)
}

// RegisterBookingJobs registers the expiry and reminder ticks and the
// waitlist cleanup. A job never overlaps with its own previous run; the
// three jobs may run concurrently with each other and with requests.
func RegisterBookingJobs(s *Service, scanner BookingScanner, cfg config.SchedulerConfig) error {
	if scanner == nil {
		return fmt.Errorf("booking jobs require a scanner")
	}
	singleton := gocron.WithSingletonMode(gocron.LimitModeReschedule)

	if _, err := s.AddIntervalJob(JobBookingExpiry, cfg.ExpiryInterval,
		countingTask("expired_bookings", scanner.ExpireOverdue), singleton); err != nil {
		return fmt.Errorf("add booking expiry job: %w", err)
	}
	if _, err := s.AddIntervalJob(JobBookingReminders, cfg.ReminderInterval,
		countingTask("reminders_sent", scanner.SendReminders), singleton); err != nil {
		return fmt.Errorf("add booking reminder job: %w", err)
	}
	if _, err := s.AddJob(JobWaitlistCleanup, cfg.WaitlistCleanup,
		countingTask("expired_waitlist_entries", scanner.CleanupWaitlists), singleton); err != nil {
		return fmt.Errorf("add waitlist cleanup job: %w", err)
	}
	return nil
}

// countingTask adapts a scan to a Task and logs how many records it touched.
// A scan that changed some records and failed on others reports both.
func countingTask(field string, scan func(context.Context) (int, error)) Task {
	return func(ctx context.Context) error {
		n, err := scan(ctx)
		if n > 0 {
			log.Ctx(ctx).Info().Int(field, n).Msg("Scan pass changed records")
		}
		return err
	}
}
