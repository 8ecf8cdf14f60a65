package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/codr1/campusbook/internal/db"
	"github.com/codr1/campusbook/internal/db/dbq"
	"github.com/codr1/campusbook/internal/notify"
	"github.com/codr1/campusbook/internal/slot"
)

// ExpireOverdue moves every CONFIRMED or ACTIVE booking whose end has passed
// to EXPIRED. Each booking is expired by its own guarded update, so a failure
// on one does not stop the rest and a second pass changes nothing. It returns
// the number of bookings expired by this call.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.clock()
	rows, err := s.db.Queries.ListExpiryCandidates(ctx, slot.DateOf(now).String())
	if err != nil {
		return 0, fmt.Errorf("list expiry candidates: %w", err)
	}
	candidates, err := bookingsFromRows(rows)
	if err != nil {
		return 0, err
	}

	logger := log.Ctx(ctx)
	var (
		expired int
		errs    []error
	)
	for _, b := range candidates {
		if !b.EndsAt(s.loc).Before(now) {
			continue
		}
		affected, err := s.db.Queries.ExpireBooking(ctx, dbq.ExpireBookingParams{ID: b.ID, ExpiredAt: now})
		if err != nil {
			logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to expire booking")
			errs = append(errs, fmt.Errorf("expire booking %d: %w", b.ID, err))
			continue
		}
		if affected == 0 {
			continue
		}
		expired++
		b.Status = StatusExpired
		b.ExpiredAt = &now
		logger.Info().
			Int64("booking_id", b.ID).
			Int("extensions_used", b.ExtensionCount).
			Msg("Booking expired")
		s.send(ctx, []notify.Notification{expiredNotice(b, s.facilityName(ctx, b.FacilityID))})
	}
	return expired, errors.Join(errs...)
}

// SendReminders notifies owners of CONFIRMED or ACTIVE bookings that end
// within the reminder lead. The reminder flag is claimed before sending, so a
// booking is reminded at most once until it is extended.
func (s *Service) SendReminders(ctx context.Context) (int, error) {
	now := s.clock()
	horizon := now.Add(s.reminderLead)
	rows, err := s.db.Queries.ListReminderCandidates(ctx, dbq.ListReminderCandidatesParams{
		FromDate: slot.DateOf(now).String(),
		ToDate:   slot.DateOf(horizon).String(),
	})
	if err != nil {
		return 0, fmt.Errorf("list reminder candidates: %w", err)
	}
	candidates, err := bookingsFromRows(rows)
	if err != nil {
		return 0, err
	}

	logger := log.Ctx(ctx)
	var (
		sent int
		errs []error
	)
	for _, b := range candidates {
		end := b.EndsAt(s.loc)
		if !end.After(now) || !end.Before(horizon) {
			continue
		}
		affected, err := s.db.Queries.MarkReminderSent(ctx, dbq.MarkReminderSentParams{ID: b.ID, UpdatedAt: now})
		if err != nil {
			logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to mark reminder sent")
			errs = append(errs, fmt.Errorf("mark reminder for booking %d: %w", b.ID, err))
			continue
		}
		if affected == 0 {
			continue
		}
		sent++
		logger.Debug().Int64("booking_id", b.ID).Time("ends_at", end).Msg("Reminder sent")
		s.send(ctx, []notify.Notification{reminderNotice(b, s.facilityName(ctx, b.FacilityID), s.reminderLead)})
	}
	return sent, errors.Join(errs...)
}

// CleanupWaitlists expires WAITING entries whose slot has already started.
// Every entry of a (facility, date, start time) queue goes stale at the same
// moment, so whole queues are retired and no positions need renumbering.
func (s *Service) CleanupWaitlists(ctx context.Context) (int, error) {
	now := s.clock()
	today := slot.DateOf(now)
	started := slot.TimeOfDay(now.Hour()*60 + now.Minute())

	var expired int
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		rows, err := tx.Queries.ListStaleWaitingEntries(ctx, today.String())
		if err != nil {
			return fmt.Errorf("list stale waitlist entries: %w", err)
		}
		entries, err := waitlistFromRows(rows)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Date == today && e.StartTime > started {
				continue
			}
			affected, err := tx.Queries.UpdateWaitlistStatus(ctx, dbq.UpdateWaitlistStatusParams{
				ID:     e.ID,
				Status: string(WaitlistExpired),
			})
			if err != nil {
				return fmt.Errorf("expire waitlist entry %d: %w", e.ID, err)
			}
			expired += int(affected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		log.Ctx(ctx).Info().Int("expired_entries", expired).Msg("Expired stale waitlist entries")
	}
	return expired, nil
}
