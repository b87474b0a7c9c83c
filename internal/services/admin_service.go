package services

import (
	"context"
	"log"
	"time"

	"clean-cloak/internal/models"
	"clean-cloak/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	dashboardStatsKey = "admin:dashboard_stats"
	dashboardStatsTTL = 5 * time.Minute
)

type AdminService struct {
	cleaners     repository.CleanerRepository
	bookings     repository.BookingRepository
	users        repository.UserRepository
	transactions repository.TransactionRepository
	stats        repository.StatsRepository
	notifier     Notifier
	cache        Cache
	now          func() time.Time
}

func NewAdminService(
	cleaners repository.CleanerRepository,
	bookings repository.BookingRepository,
	users repository.UserRepository,
	transactions repository.TransactionRepository,
	stats repository.StatsRepository,
	notifier Notifier,
	cache Cache,
) *AdminService {
	return &AdminService{
		cleaners:     cleaners,
		bookings:     bookings,
		users:        users,
		transactions: transactions,
		stats:        stats,
		notifier:     notifier,
		cache:        cache,
		now:          time.Now,
	}
}

// ListCleaners pages through profiles in one approval state, pending by default.
// Approved profiles come newest approval first, the others oldest signup first.
func (s *AdminService) ListCleaners(ctx context.Context, q models.CleanerQuery, page models.Page) ([]models.CleanerProfile, models.Pagination, error) {
	if q.Status == "" {
		q.Status = models.ApprovalPending
	}
	profiles, total, err := s.cleaners.ListByStatus(ctx, q, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return profiles, page.Result(total), nil
}

func (s *AdminService) GetCleaner(ctx context.Context, id string) (*models.CleanerProfile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	return s.cleaners.GetByID(ctx, oid)
}

func (s *AdminService) Approve(ctx context.Context, adminID, id, notes string) (*models.CleanerProfile, error) {
	profile, err := s.GetCleaner(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := profile.Approve(adminID, notes, s.now()); err != nil {
		return nil, err
	}
	return s.saveDecision(ctx, profile, models.EventProfileApproved)
}

func (s *AdminService) Reject(ctx context.Context, adminID, id, notes string) (*models.CleanerProfile, error) {
	profile, err := s.GetCleaner(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := profile.Reject(adminID, notes, s.now()); err != nil {
		return nil, err
	}
	return s.saveDecision(ctx, profile, models.EventProfileRejected)
}

func (s *AdminService) saveDecision(ctx context.Context, profile *models.CleanerProfile, event string) (*models.CleanerProfile, error) {
	saved, err := s.cleaners.SetApproval(ctx, profile)
	if err != nil {
		return nil, err
	}
	profile = saved
	log.Printf("[ADMIN] Cleaner %s is now %s", profile.UserID, profile.ApprovalStatus)

	if s.cache != nil {
		if err := s.cache.DeletePattern(ctx, cleanerListPrefix+"*"); err != nil {
			log.Printf("[CACHE] Invalidate cleaner lists failed: %v", err)
		}
		_ = s.cache.Delete(ctx, dashboardStatsKey)
	}

	s.notifier.Send(ctx, Notice{
		UserID: profile.UserID,
		Type:   event,
		Payload: map[string]interface{}{
			"status": profile.ApprovalStatus,
			"notes":  profile.ApprovalNotes,
		},
	})
	return profile, nil
}

// Clients lists clients with their booking totals, newest activity first.
func (s *AdminService) Clients(ctx context.Context, page models.Page) ([]models.ClientSummary, models.Pagination, error) {
	summaries, total, err := s.bookings.ClientSummaries(ctx, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	ids := make([]string, 0, len(summaries))
	for _, c := range summaries {
		ids = append(ids, c.ClientID)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		log.Printf("[ADMIN] Cannot load client names: %v", err)
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID.Hex()] = u
	}
	for i := range summaries {
		if u, ok := byID[summaries[i].ClientID]; ok {
			summaries[i].Name = u.Name
			summaries[i].Phone = u.Phone
		}
	}
	return summaries, page.Result(total), nil
}

func (s *AdminService) Bookings(ctx context.Context, filter models.BookingFilter, page models.Page) ([]models.Booking, models.Pagination, error) {
	bookings, total, err := s.bookings.Search(ctx, filter, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return bookings, page.Result(total), nil
}

// DashboardStats serves the cached aggregate, computing it on a miss.
func (s *AdminService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	if s.cache != nil {
		var cached models.DashboardStats
		if err := s.cache.Get(ctx, dashboardStatsKey, &cached); err == nil {
			return &cached, nil
		}
	}
	return s.RefreshDashboardStats(ctx)
}

func (s *AdminService) RefreshDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.stats.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	stats.GeneratedAt = s.now()
	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardStatsKey, stats, dashboardStatsTTL); err != nil {
			log.Printf("[CACHE] Failed to cache dashboard stats: %v", err)
		}
	}
	return stats, nil
}

// StalePayouts returns payout entries still pending after olderThan.
func (s *AdminService) StalePayouts(ctx context.Context, olderThan time.Duration) ([]models.Transaction, error) {
	return s.transactions.PendingPayoutsBefore(ctx, s.now().Add(-olderThan))
}
