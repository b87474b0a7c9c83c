package services

import (
	"context"
	"log"
	"time"

	"clean-cloak/internal/config"
	"clean-cloak/internal/models"
	"clean-cloak/internal/repository"
)

type CronJobService struct {
	Bookings     repository.BookingRepository
	Transactions repository.TransactionRepository
	Users        repository.UserRepository
	Notifier     Notifier
	Cfg          config.CronConfig
	now          func() time.Time
}

func NewCronJobService(bookings repository.BookingRepository, transactions repository.TransactionRepository, users repository.UserRepository, notifier Notifier, cfg config.CronConfig) *CronJobService {
	return &CronJobService{
		Bookings:     bookings,
		Transactions: transactions,
		Users:        users,
		Notifier:     notifier,
		Cfg:          cfg,
		now:          time.Now,
	}
}

func (s *CronJobService) Start(ctx context.Context) {
	go s.startPayoutSweepJob(ctx)
	go s.startReminderJob(ctx)
}

func (s *CronJobService) startPayoutSweepJob(ctx context.Context) {
	ticker := time.NewTicker(s.Cfg.PayoutSweepInterval)
	for {
		select {
		case <-ticker.C:
			s.sweepStalePayouts(ctx)
		case <-ctx.Done():
			log.Println("[CRON] Stopping payout sweep job")
			ticker.Stop()
			return
		}
	}
}

func (s *CronJobService) startReminderJob(ctx context.Context) {
	ticker := time.NewTicker(s.Cfg.ReminderInterval)
	for {
		select {
		case <-ticker.C:
			s.sendReminderNotifications(ctx)
		case <-ctx.Done():
			log.Println("[CRON] Stopping reminder job")
			ticker.Stop()
			return
		}
	}
}

// sweepStalePayouts alerts admins about payout entries stuck in pending.
// Entries are reported, never retried.
func (s *CronJobService) sweepStalePayouts(ctx context.Context) int {
	stale, err := s.Transactions.PendingPayoutsBefore(ctx, s.now().Add(-s.Cfg.StalePayoutAge))
	if err != nil {
		log.Println("[CRON] Failed to fetch pending payouts:", err)
		return 0
	}
	if len(stale) == 0 {
		return 0
	}

	ids := make([]string, 0, len(stale))
	var total float64
	for _, tx := range stale {
		ids = append(ids, tx.TransactionID)
		total += tx.Amount
	}
	log.Printf("[CRON] %d payouts pending longer than %s", len(stale), s.Cfg.StalePayoutAge)

	admins, err := s.Users.ListIDsByRole(ctx, models.RoleAdmin)
	if err != nil {
		log.Println("[CRON] Failed to list admins:", err)
		return len(stale)
	}
	for _, id := range admins {
		s.Notifier.Send(ctx, Notice{
			UserID: id,
			Type:   models.EventStalePayouts,
			Payload: map[string]interface{}{
				"count":           len(stale),
				"total":           total,
				"transaction_ids": ids,
			},
		})
	}
	return len(stale)
}

// sendReminderNotifications reminds both sides of confirmed bookings
// scheduled in the hour that starts a day from now.
func (s *CronJobService) sendReminderNotifications(ctx context.Context) int {
	from := s.now().Add(24 * time.Hour).Truncate(time.Hour)
	to := from.Add(time.Hour)

	bookings, err := s.Bookings.ScheduledBetween(ctx, from, to)
	if err != nil {
		log.Println("[CRON] Failed to fetch upcoming bookings:", err)
		return 0
	}
	for i := range bookings {
		b := &bookings[i]
		s.Notifier.SendToParticipants(ctx, b, models.EventBookingReminder, map[string]interface{}{
			"booking_id":     b.ID.Hex(),
			"scheduled_date": b.ScheduledDate,
			"scheduled_time": b.ScheduledTime,
		})
	}
	return len(bookings)
}
