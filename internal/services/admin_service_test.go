package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"clean-cloak/internal/config"
	"clean-cloak/internal/models"
)

type fakeStats struct {
	calls int
}

func (f *fakeStats) Dashboard(context.Context) (*models.DashboardStats, error) {
	f.calls++
	return &models.DashboardStats{TotalBookings: 12, PendingCleaners: 3}, nil
}

func TestAdminApproveAndReject(t *testing.T) {
	profile := &models.CleanerProfile{UserID: "cleaner-1", ApprovalStatus: models.ApprovalPending}
	cleaners := newFakeCleaners(profile)
	notifier := &recordingNotifier{}
	cache := newMemoryCache()
	cache.data[cleanerListPrefix+"abc"] = []models.CleanerProfile{}
	svc := NewAdminService(cleaners, newFakeBookings(), newFakeUsers(), &fakeTransactions{}, &fakeStats{}, notifier, cache)
	ctx := context.Background()
	id := profile.ID.Hex()

	approved, err := svc.Approve(ctx, "admin-1", id, "Documents verified")
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if approved.ApprovalStatus != models.ApprovalApproved || approved.ApprovedAt == nil || len(approved.ApprovalHistory) != 1 {
		t.Errorf("approved = %+v", approved)
	}
	if _, ok := cache.data[cleanerListPrefix+"abc"]; ok {
		t.Error("cleaner list cache not invalidated")
	}
	if n := notifier.ofType(models.EventProfileApproved); len(n) != 1 || n[0].UserID != "cleaner-1" {
		t.Errorf("profile_approved notices = %+v", n)
	}

	if _, err := svc.Approve(ctx, "admin-1", id, ""); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("second approve error = %v, want ErrInvalidState", err)
	}
	if _, err := svc.Reject(ctx, "admin-1", id, ""); !errors.Is(err, models.ErrValidation) {
		t.Errorf("reject without reason error = %v, want ErrValidation", err)
	}
	rejected, err := svc.Reject(ctx, "admin-1", id, "Blurry ID")
	if err != nil {
		t.Fatal(err)
	}
	if rejected.ApprovalStatus != models.ApprovalRejected || rejected.ApprovedAt != nil || len(rejected.ApprovalHistory) != 2 {
		t.Errorf("rejected = %+v", rejected)
	}
	if _, err := svc.GetCleaner(ctx, "zzz"); !errors.Is(err, models.ErrInvalidID) {
		t.Errorf("bad id error = %v, want ErrInvalidID", err)
	}
}

func TestAdminApprove_KeepsConcurrentWrites(t *testing.T) {
	profile := &models.CleanerProfile{UserID: "cleaner-1", ApprovalStatus: models.ApprovalPending, CompletedJobs: 3}
	cleaners := &racingCleaners{fakeCleaners: newFakeCleaners(profile)}
	svc := NewAdminService(cleaners, newFakeBookings(), newFakeUsers(), &fakeTransactions{}, &fakeStats{}, &recordingNotifier{}, nil)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "admin-1", profile.ID.Hex(), ""); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	stored := cleaners.profiles["cleaner-1"]
	if stored.ApprovalStatus != models.ApprovalApproved {
		t.Errorf("status = %v, want approved", stored.ApprovalStatus)
	}
	if want := 3 + cleaners.jobs; stored.CompletedJobs != want {
		t.Errorf("completed jobs = %d, want %d", stored.CompletedJobs, want)
	}
}

func TestAdminApprove_LosesRaceToConcurrentDecision(t *testing.T) {
	profile := &models.CleanerProfile{UserID: "cleaner-1", ApprovalStatus: models.ApprovalPending}
	cleaners := newFakeCleaners(profile)
	svc := NewAdminService(cleaners, newFakeBookings(), newFakeUsers(), &fakeTransactions{}, &fakeStats{}, &recordingNotifier{}, nil)
	ctx := context.Background()

	stale, _ := cleaners.GetByID(ctx, profile.ID)
	if _, err := svc.Approve(ctx, "admin-1", profile.ID.Hex(), ""); err != nil {
		t.Fatal(err)
	}
	_ = stale.Approve("admin-2", "", time.Now())
	if _, err := cleaners.SetApproval(ctx, stale); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("second approval error = %v, want ErrInvalidState", err)
	}
	if got := len(cleaners.profiles["cleaner-1"].ApprovalHistory); got != 1 {
		t.Errorf("history entries = %d, want 1", got)
	}
}

func TestAdminListCleaners_Approved(t *testing.T) {
	cleaners := newFakeCleaners(
		&models.CleanerProfile{UserID: "c1", ApprovalStatus: models.ApprovalApproved, City: "Nairobi", Services: []string{models.ServiceHomeCleaning}},
		&models.CleanerProfile{UserID: "c2", ApprovalStatus: models.ApprovalApproved, City: "Mombasa", Services: []string{models.ServiceHomeCleaning}},
		&models.CleanerProfile{UserID: "c3", ApprovalStatus: models.ApprovalApproved, City: "Nairobi", Services: []string{models.ServiceCarDetailing}},
		&models.CleanerProfile{UserID: "c4", ApprovalStatus: models.ApprovalPending, City: "Nairobi", Services: []string{models.ServiceHomeCleaning}},
	)
	svc := NewAdminService(cleaners, newFakeBookings(), newFakeUsers(), &fakeTransactions{}, &fakeStats{}, &recordingNotifier{}, nil)
	ctx := context.Background()
	page := models.Page{Page: 1, Limit: 10}

	all, pagination, err := svc.ListCleaners(ctx, models.CleanerQuery{Status: models.ApprovalApproved}, page)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || pagination.Total != 3 {
		t.Errorf("approved = %d (total %d), want 3", len(all), pagination.Total)
	}

	filtered, _, err := svc.ListCleaners(ctx, models.CleanerQuery{
		Status:  models.ApprovalApproved,
		City:    "nairobi",
		Service: models.ServiceHomeCleaning,
	}, page)
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].UserID != "c1" {
		t.Errorf("filtered = %+v, want only c1", filtered)
	}

	pending, _, err := svc.ListCleaners(ctx, models.CleanerQuery{}, page)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].UserID != "c4" {
		t.Errorf("default listing = %+v, want only pending c4", pending)
	}
}

func TestCleanerUpdateMine_PartialKeepsOtherFields(t *testing.T) {
	cleaners := newFakeCleaners(&models.CleanerProfile{
		UserID:           "c1",
		FirstName:        "Asha",
		LastName:         "Mwangi",
		Phone:            "0712345678",
		City:             "Nairobi",
		Services:         []string{models.ServiceHomeCleaning},
		MpesaPhoneNumber: "254712345678",
		ApprovalStatus:   models.ApprovalApproved,
	})
	svc := NewCleanerService(cleaners, nil)

	updated, err := svc.UpdateMine(context.Background(), "c1", &models.CleanerProfileInput{Bio: strPtr("Ten years of deep cleans")})
	if err != nil {
		t.Fatalf("UpdateMine() error = %v", err)
	}
	stored := cleaners.profiles["c1"]
	if stored.Bio != "Ten years of deep cleans" || updated.Bio != stored.Bio {
		t.Errorf("bio = %q", stored.Bio)
	}
	if stored.MpesaPhoneNumber != "254712345678" || stored.City != "Nairobi" || stored.FirstName != "Asha" || len(stored.Services) != 1 {
		t.Errorf("absent fields changed: %+v", stored)
	}

	if _, err := svc.UpdateMine(context.Background(), "c1", &models.CleanerProfileInput{FirstName: strPtr("")}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("blank first name error = %v, want ErrValidation", err)
	}
	if cleaners.profiles["c1"].FirstName != "Asha" {
		t.Errorf("rejected edit was stored")
	}
}

func TestAdminDashboardStatsCached(t *testing.T) {
	stats := &fakeStats{}
	cache := newMemoryCache()
	svc := NewAdminService(newFakeCleaners(), newFakeBookings(), newFakeUsers(), &fakeTransactions{}, stats, &recordingNotifier{}, cache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := svc.DashboardStats(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got.TotalBookings != 12 {
			t.Errorf("total bookings = %d, want 12", got.TotalBookings)
		}
	}
	if stats.calls != 1 {
		t.Errorf("aggregations = %d, want 1", stats.calls)
	}

	NewCacheRefresher(svc, time.Minute).refreshDashboardStats(ctx)
	if stats.calls != 2 {
		t.Errorf("aggregations after refresh = %d, want 2", stats.calls)
	}
}

func TestCleanerListAvailable_Cache(t *testing.T) {
	cleaners := newFakeCleaners(
		&models.CleanerProfile{UserID: "c1", ApprovalStatus: models.ApprovalApproved, IsAvailable: true, Rating: 4.5},
		&models.CleanerProfile{UserID: "c2", ApprovalStatus: models.ApprovalPending, IsAvailable: true},
	)
	cache := newMemoryCache()
	svc := NewCleanerService(cleaners, cache)
	ctx := context.Background()

	list, err := svc.ListAvailable(ctx, models.CleanerFilter{MinRating: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].UserID != "c1" {
		t.Errorf("available = %+v, want only c1", list)
	}
	if _, err := svc.ListAvailable(ctx, models.CleanerFilter{MinRating: 4}); err != nil {
		t.Fatal(err)
	}
	if cache.sets != 1 {
		t.Errorf("cache writes = %d, want 1", cache.sets)
	}

	if _, err := svc.UpdateMine(ctx, "c1", &models.CleanerProfileInput{
		FirstName:        strPtr("Asha"),
		LastName:         strPtr("Mwangi"),
		Phone:            strPtr("0712345678"),
		MpesaPhoneNumber: strPtr("0712345678"),
	}); err != nil {
		t.Fatalf("UpdateMine() error = %v", err)
	}
	if len(cache.data) != 0 {
		t.Errorf("cache entries after update = %d, want 0", len(cache.data))
	}
	if got := cleaners.profiles["c1"].MpesaPhoneNumber; got != "254712345678" {
		t.Errorf("mpesa number = %q, want 254712345678", got)
	}
}

func TestCleanerCreateProfile(t *testing.T) {
	svc := NewCleanerService(newFakeCleaners(), nil)
	ctx := context.Background()
	input := &models.CleanerProfileInput{
		FirstName: strPtr("Asha"),
		LastName:  strPtr("Mwangi"),
		Phone:     strPtr("0712345678"),
		Services:  []string{models.ServiceCarDetailing},
	}

	p, err := svc.CreateProfile(ctx, "c9", input)
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if p.ApprovalStatus != models.ApprovalPending || !p.IsAvailable {
		t.Errorf("new profile = %v available=%v", p.ApprovalStatus, p.IsAvailable)
	}
	if _, err := svc.CreateProfile(ctx, "c9", input); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate error = %v, want ErrConflict", err)
	}
	input.MpesaPhoneNumber = strPtr("0812345678")
	if _, err := svc.CreateProfile(ctx, "c10", input); !errors.Is(err, models.ErrValidation) {
		t.Errorf("non-Safaricom number error = %v, want ErrValidation", err)
	}
}

func TestCronSweepStalePayouts(t *testing.T) {
	txs := &fakeTransactions{}
	old := models.Transaction{BookingID: "b1", Type: models.TransactionPayout, Status: models.TransactionPending, Amount: 600, TransactionID: "PAYOUT_1_b1"}
	if err := txs.Create(context.Background(), &old); err != nil {
		t.Fatal(err)
	}
	txs.txs[0].CreatedAt = time.Now().Add(-2 * time.Hour)
	fresh := models.Transaction{BookingID: "b2", Type: models.TransactionPayout, Status: models.TransactionPending, Amount: 900}
	_ = txs.Create(context.Background(), &fresh)

	users := newFakeUsers(&models.User{Name: "Root", Role: models.RoleAdmin})
	notifier := &recordingNotifier{}
	cron := NewCronJobService(newFakeBookings(), txs, users, notifier, config.CronConfig{StalePayoutAge: time.Hour})

	if got := cron.sweepStalePayouts(context.Background()); got != 1 {
		t.Errorf("stale payouts = %d, want 1", got)
	}
	alerts := notifier.ofType(models.EventStalePayouts)
	if len(alerts) != 1 || alerts[0].Payload["count"] != 1 {
		t.Errorf("alerts = %+v", alerts)
	}
	if txs.txs[0].Status != models.TransactionPending {
		t.Errorf("stale entry status = %v, want untouched", txs.txs[0].Status)
	}
}

func TestCronReminders(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	inWindow := now.Add(24 * time.Hour)
	outside := now.Add(48 * time.Hour)
	cleanerID := "cleaner-1"
	bookings := newFakeBookings(
		&models.Booking{ClientID: "c1", CleanerID: &cleanerID, Status: models.BookingConfirmed, ScheduledDate: &inWindow},
		&models.Booking{ClientID: "c2", Status: models.BookingConfirmed, ScheduledDate: &outside},
	)
	notifier := &recordingNotifier{}
	cron := NewCronJobService(bookings, &fakeTransactions{}, newFakeUsers(), notifier, config.CronConfig{})
	cron.now = func() time.Time { return now }

	if got := cron.sendReminderNotifications(context.Background()); got != 1 {
		t.Errorf("reminded bookings = %d, want 1", got)
	}
	if got := len(notifier.ofType(models.EventBookingReminder)); got != 2 {
		t.Errorf("reminders = %d, want 2", got)
	}
}
