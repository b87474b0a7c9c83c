package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"clean-cloak/internal/models"
	"clean-cloak/internal/realtime"
	"clean-cloak/internal/utils"
	"clean-cloak/internal/utils/intasend"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeBookings struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Booking
}

func newFakeBookings(bookings ...*models.Booking) *fakeBookings {
	f := &fakeBookings{byID: map[primitive.ObjectID]*models.Booking{}}
	for _, b := range bookings {
		if b.ID.IsZero() {
			b.ID = primitive.NewObjectID()
		}
		f.byID[b.ID] = b
	}
	return f
}

func (f *fakeBookings) get(id primitive.ObjectID) *models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func (f *fakeBookings) Create(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = primitive.NewObjectID()
	b.CreatedAt = time.Now()
	f.byID[b.ID] = b
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id primitive.ObjectID) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) list(match func(*models.Booking) bool) []models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Booking{}
	for _, b := range f.byID {
		if match(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out
}

func (f *fakeBookings) ListByClient(_ context.Context, clientID string) ([]models.Booking, error) {
	return f.list(func(b *models.Booking) bool { return b.ClientID == clientID }), nil
}

func (f *fakeBookings) ListByCleaner(_ context.Context, cleanerID string, statuses ...models.BookingStatus) ([]models.Booking, error) {
	return f.list(func(b *models.Booking) bool {
		if b.CleanerIDValue() != cleanerID {
			return false
		}
		if len(statuses) == 0 {
			return true
		}
		for _, s := range statuses {
			if b.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakeBookings) ListOpportunities(_ context.Context, services []string) ([]models.Booking, error) {
	return f.list(func(b *models.Booking) bool {
		if b.Status != models.BookingPending || b.CleanerID != nil {
			return false
		}
		if len(services) == 0 {
			return true
		}
		for _, s := range services {
			if s == b.ServiceCategory {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakeBookings) Search(_ context.Context, filter models.BookingFilter, page models.Page) ([]models.Booking, int64, error) {
	all := f.list(func(b *models.Booking) bool {
		return (filter.Status == "" || string(b.Status) == filter.Status) &&
			(filter.ServiceCategory == "" || b.ServiceCategory == filter.ServiceCategory)
	})
	return all, int64(len(all)), nil
}

func (f *fakeBookings) ScheduledBetween(_ context.Context, from, to time.Time) ([]models.Booking, error) {
	return f.list(func(b *models.Booking) bool {
		return b.Status == models.BookingConfirmed && b.ScheduledDate != nil &&
			!b.ScheduledDate.Before(from) && b.ScheduledDate.Before(to)
	}), nil
}

func (f *fakeBookings) Accept(_ context.Context, id primitive.ObjectID, cleanerID string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok || b.Status != models.BookingPending || b.CleanerID != nil {
		return nil, models.ErrInvalidState
	}
	b.CleanerID = &cleanerID
	b.Status = models.BookingConfirmed
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.BookingStatus, completedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	b.Status = status
	if completedAt != nil {
		b.CompletedAt = completedAt
	}
	return nil
}

func (f *fakeBookings) SetRating(_ context.Context, id primitive.ObjectID, rating int, review string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok || b.Status != models.BookingCompleted || b.Rating != 0 {
		return false, nil
	}
	b.Rating = rating
	b.Review = review
	return true, nil
}

func (f *fakeBookings) MarkPaid(_ context.Context, id primitive.ObjectID, txID string, paidAt time.Time, split models.PaymentSplit) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok || b.Paid {
		return false, nil
	}
	b.Paid = true
	b.PaidAt = &paidAt
	b.PaymentStatus = models.PaymentPaid
	b.TransactionID = txID
	b.PlatformFee = split.PlatformFee
	b.CleanerPayout = split.CleanerPayout
	return true, nil
}

func (f *fakeBookings) ClaimPayout(_ context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok || !b.Paid || b.PayoutStatus != "" {
		return false, nil
	}
	b.PayoutStatus = models.PayoutPending
	return true, nil
}

func (f *fakeBookings) SetPayoutStatus(_ context.Context, id primitive.ObjectID, status models.PayoutStatus, at *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	b.PayoutStatus = status
	if at != nil {
		b.PayoutProcessedAt = at
	}
	return nil
}

func (f *fakeBookings) SetPaymentMethod(_ context.Context, id primitive.ObjectID, method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.byID[id]; ok {
		b.PaymentMethod = method
		return nil
	}
	return models.ErrNotFound
}

func (f *fakeBookings) ClientSummaries(context.Context, models.Page) ([]models.ClientSummary, int64, error) {
	return []models.ClientSummary{}, 0, nil
}

type fakeTransactions struct {
	mu  sync.Mutex
	txs []models.Transaction
}

// Create mirrors the partial unique index on completed payments.
func (f *fakeTransactions) Create(_ context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tx.Type == models.TransactionPayment && tx.Status == models.TransactionCompleted {
		for _, existing := range f.txs {
			if existing.BookingID == tx.BookingID && existing.Type == models.TransactionPayment && existing.Status == models.TransactionCompleted {
				return models.ErrConflict
			}
		}
	}
	tx.ID = primitive.NewObjectID()
	tx.CreatedAt = time.Now()
	f.txs = append(f.txs, *tx)
	return nil
}

// failingPayments rejects the first n completed payment inserts.
type failingPayments struct {
	*fakeTransactions
	mu       sync.Mutex
	failures int
}

func (f *failingPayments) Create(ctx context.Context, tx *models.Transaction) error {
	if tx.Type == models.TransactionPayment {
		f.mu.Lock()
		fail := f.failures > 0
		if fail {
			f.failures--
		}
		f.mu.Unlock()
		if fail {
			return errors.New("mongo: connection reset")
		}
	}
	return f.fakeTransactions.Create(ctx, tx)
}

func (f *fakeTransactions) MarkCompleted(_ context.Context, id primitive.ObjectID, providerID string, at time.Time, resp map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.txs {
		if f.txs[i].ID == id && f.txs[i].Status == models.TransactionPending {
			f.txs[i].Status = models.TransactionCompleted
			f.txs[i].ProcessedAt = &at
			f.txs[i].Metadata.ProviderID = providerID
			f.txs[i].Metadata.ProviderResponse = resp
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeTransactions) ListByBooking(_ context.Context, bookingID string) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Transaction{}
	for _, tx := range f.txs {
		if tx.BookingID == bookingID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeTransactions) PendingPayoutsBefore(_ context.Context, cutoff time.Time) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Transaction{}
	for _, tx := range f.txs {
		if tx.Type == models.TransactionPayout && tx.Status == models.TransactionPending && tx.CreatedAt.Before(cutoff) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeTransactions) byType(t models.TransactionType) []models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for _, tx := range f.txs {
		if tx.Type == t {
			out = append(out, tx)
		}
	}
	return out
}

type fakeCleaners struct {
	mu       sync.Mutex
	profiles map[string]*models.CleanerProfile
	docs     map[string]string
}

func newFakeCleaners(profiles ...*models.CleanerProfile) *fakeCleaners {
	f := &fakeCleaners{profiles: map[string]*models.CleanerProfile{}, docs: map[string]string{}}
	for _, p := range profiles {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		f.profiles[p.UserID] = p
	}
	return f
}

func (f *fakeCleaners) Create(_ context.Context, p *models.CleanerProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.UserID]; ok {
		return models.ErrConflict
	}
	p.ID = primitive.NewObjectID()
	f.profiles[p.UserID] = p
	return nil
}

func (f *fakeCleaners) GetByID(_ context.Context, id primitive.ObjectID) (*models.CleanerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeCleaners) GetByUserID(_ context.Context, userID string) (*models.CleanerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCleaners) UpdateProfile(_ context.Context, userID string, input *models.CleanerProfileInput) (*models.CleanerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	p.ApplyUpdate(input)
	cp := *p
	return &cp, nil
}

func (f *fakeCleaners) AddRating(_ context.Context, userID string, rating int) (*models.CleanerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if err := p.UpdateRating(rating); err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCleaners) SetApproval(_ context.Context, decided *models.CleanerProfile) (*models.CleanerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.ID != decided.ID {
			continue
		}
		if p.ApprovalStatus == decided.ApprovalStatus {
			return nil, models.ErrInvalidState
		}
		p.ApprovalStatus = decided.ApprovalStatus
		p.ApprovalNotes = decided.ApprovalNotes
		p.Verified = decided.Verified
		p.ApprovedAt = decided.ApprovedAt
		p.RejectedAt = decided.RejectedAt
		p.ApprovalHistory = append(p.ApprovalHistory, decided.ApprovalHistory[len(decided.ApprovalHistory)-1])
		cp := *p
		return &cp, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeCleaners) ListAvailable(_ context.Context, filter models.CleanerFilter) ([]models.CleanerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.CleanerProfile{}
	for _, p := range f.profiles {
		if p.ApprovalStatus == models.ApprovalApproved && p.IsAvailable && p.Rating >= filter.MinRating {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeCleaners) ListByStatus(_ context.Context, q models.CleanerQuery, page models.Page) ([]models.CleanerProfile, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.CleanerProfile{}
	for _, p := range f.profiles {
		if p.ApprovalStatus != q.Status {
			continue
		}
		if q.City != "" && !strings.EqualFold(p.City, q.City) {
			continue
		}
		if q.Service != "" && !containsString(p.Services, q.Service) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, int64(len(out)), nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (f *fakeCleaners) SetDocument(_ context.Context, userID, field string, list bool, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[userID]; !ok {
		return models.ErrNotFound
	}
	f.docs[field] = url
	return nil
}

func (f *fakeCleaners) RecordJob(_ context.Context, userID string, completed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return models.ErrNotFound
	}
	if completed {
		p.CompletedJobs++
	} else {
		p.TotalJobs++
	}
	return nil
}

// racingCleaners records a completed job right after every profile read, the
// way a concurrent accept lands between a read and a write.
type racingCleaners struct {
	*fakeCleaners
	jobs int
}

func (r *racingCleaners) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CleanerProfile, error) {
	p, err := r.fakeCleaners.GetByID(ctx, id)
	if err == nil {
		r.race(ctx, p.UserID)
	}
	return p, err
}

func (r *racingCleaners) GetByUserID(ctx context.Context, userID string) (*models.CleanerProfile, error) {
	p, err := r.fakeCleaners.GetByUserID(ctx, userID)
	if err == nil {
		r.race(ctx, userID)
	}
	return p, err
}

func (r *racingCleaners) race(ctx context.Context, userID string) {
	if err := r.fakeCleaners.RecordJob(ctx, userID, true); err == nil {
		r.jobs++
	}
}

func strPtr(s string) *string { return &s }

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*models.User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		f.users[u.ID.Hex()] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Phone == u.Phone {
			return models.ErrConflict
		}
	}
	u.ID = primitive.NewObjectID()
	f.users[u.ID.Hex()] = u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByIDs(_ context.Context, ids []string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) GetByPhoneOrName(_ context.Context, identifier string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Phone == identifier || u.Name == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUsers) AddDeviceToken(_ context.Context, id, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.ErrNotFound
	}
	for _, t := range u.DeviceTokens {
		if t == token {
			return nil
		}
	}
	u.DeviceTokens = append(u.DeviceTokens, token)
	return nil
}

func (f *fakeUsers) RemoveDeviceTokens(_ context.Context, id string, tokens []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil
	}
	drop := map[string]bool{}
	for _, t := range tokens {
		drop[t] = true
	}
	kept := u.DeviceTokens[:0]
	for _, t := range u.DeviceTokens {
		if !drop[t] {
			kept = append(kept, t)
		}
	}
	u.DeviceTokens = kept
	return nil
}

func (f *fakeUsers) ListIDsByRole(_ context.Context, role models.Role) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, u := range f.users {
		if u.Role == role {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeChats struct {
	mu    sync.Mutex
	rooms map[string]*models.ChatRoom
}

func newFakeChats() *fakeChats {
	return &fakeChats{rooms: map[string]*models.ChatRoom{}}
}

func (f *fakeChats) Create(_ context.Context, room *models.ChatRoom) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[room.BookingID]; ok {
		return models.ErrConflict
	}
	room.ID = primitive.NewObjectID()
	cp := *room
	f.rooms[room.BookingID] = &cp
	return nil
}

func (f *fakeChats) GetByBookingID(_ context.Context, bookingID string) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[bookingID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *r
	cp.Messages = append([]models.ChatMessage(nil), r.Messages...)
	return &cp, nil
}

func (f *fakeChats) ListForUser(_ context.Context, userID string) ([]models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ChatRoom{}
	for _, r := range f.rooms {
		if r.Active && (r.ClientID == userID || r.CleanerID == userID) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeChats) AppendMessage(_ context.Context, bookingID string, msg models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[bookingID]
	if !ok {
		return models.ErrNotFound
	}
	r.Messages = append(r.Messages, msg)
	if msg.SenderRole == models.RoleClient {
		r.UnreadCleanerCount++
	} else {
		r.UnreadClientCount++
	}
	r.LastMessage = msg.Message
	return nil
}

func (f *fakeChats) MarkRead(_ context.Context, bookingID string, reader models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[bookingID]
	if !ok {
		return models.ErrNotFound
	}
	r.MarkAsRead(reader)
	return nil
}

type fakeTrackings struct {
	mu    sync.Mutex
	items map[string]*models.Tracking
}

func newFakeTrackings() *fakeTrackings {
	return &fakeTrackings{items: map[string]*models.Tracking{}}
}

func (f *fakeTrackings) Create(_ context.Context, t *models.Tracking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[t.BookingID]; ok {
		return models.ErrConflict
	}
	cp := *t
	f.items[t.BookingID] = &cp
	return nil
}

func (f *fakeTrackings) GetByBookingID(_ context.Context, bookingID string) (*models.Tracking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[bookingID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTrackings) UpdateLocation(_ context.Context, bookingID string, p models.GeoPoint, eta *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[bookingID]
	if !ok {
		return models.ErrNotFound
	}
	t.CurrentLocation = &p
	t.LocationHistory = append(t.LocationHistory, p)
	if eta != nil {
		t.EstimatedArrival = eta
	}
	return nil
}

func (f *fakeTrackings) UpdateStatus(_ context.Context, bookingID string, status models.TrackingStatus, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[bookingID]
	if !ok {
		return models.ErrNotFound
	}
	t.Status = status
	return nil
}

type fakeNotificationStore struct {
	mu    sync.Mutex
	items []models.Notification
}

func (f *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = primitive.NewObjectID()
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotificationStore) List(_ context.Context, userID string, limit int64) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Notification{}
	for _, n := range f.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkAsRead(_ context.Context, id primitive.ObjectID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].UserID == userID {
			f.items[i].Read = true
			return nil
		}
	}
	return models.ErrNotFound
}

// recordingNotifier captures every notice instead of delivering it.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recordingNotifier) Send(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) SendToParticipants(ctx context.Context, b *models.Booking, eventType string, payload map[string]interface{}) {
	r.Send(ctx, Notice{UserID: b.ClientID, Type: eventType, BookingID: b.ID.Hex(), Payload: payload})
	if b.CleanerID != nil {
		r.Send(ctx, Notice{UserID: *b.CleanerID, Type: eventType, BookingID: b.ID.Hex(), Payload: payload})
	}
}

func (r *recordingNotifier) ofType(t string) []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notice
	for _, n := range r.notices {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type fakeTransfer struct {
	mu      sync.Mutex
	calls   []intasend.TransferRequest
	ctxErrs []error
	err     error
}

func (f *fakeTransfer) Transfer(ctx context.Context, req intasend.TransferRequest) (*intasend.TransferResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if f.err != nil {
		return nil, f.err
	}
	return &intasend.TransferResponse{TrackingID: "TRK-1", Status: "Processing"}, nil
}

type fakeSTK struct {
	calls []intasend.STKPushRequest
}

func (f *fakeSTK) STKPush(_ context.Context, req intasend.STKPushRequest) (*intasend.STKPushResponse, error) {
	f.calls = append(f.calls, req)
	return &intasend.STKPushResponse{Invoice: intasend.Invoice{InvoiceID: "INV-1", State: "PENDING"}}, nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	amounts []float64
}

func (f *fakeDispatcher) Dispatch(_ context.Context, _ *models.Booking, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amounts = append(f.amounts, amount)
	return nil
}

type fakeSMS struct {
	sent []string
}

func (f *fakeSMS) Send(to, body string) error {
	f.sent = append(f.sent, to)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (f *fakePublisher) Publish(_ context.Context, ev realtime.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

type fakePush struct {
	tokens []string
	titles []string
	stale  []string
}

func (f *fakePush) SendMulticast(_ context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	f.tokens = append(f.tokens, tokens...)
	f.titles = append(f.titles, title)
	return f.stale, nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string]interface{}
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]interface{}{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return utils.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *[]models.CleanerProfile:
		*d = v.([]models.CleanerProfile)
	case *models.DashboardStats:
		*d = *(v.(*models.DashboardStats))
	case *models.User:
		*d = *(v.(*models.User))
	default:
		return errors.New("unsupported cache type")
	}
	return nil
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := pattern
	if n := len(prefix); n > 0 && prefix[n-1] == '*' {
		prefix = prefix[:n-1]
	}
	for k := range m.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.data, k)
		}
	}
	return nil
}

type fakeStore struct {
	keys []string
}

func (f *fakeStore) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	f.keys = append(f.keys, key)
	return "http://files/" + key, nil
}
