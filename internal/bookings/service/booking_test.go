package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	bookingserrors "birshibpur/internal/bookings/errors"
	"birshibpur/internal/bookings/validator"
	"birshibpur/internal/realtime"
	"birshibpur/pkg/config"
	apperrors "birshibpur/pkg/errors"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/model"
)

// ────────────────────────────────────────────────
// In-memory repository for testing
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*model.Booking

	countFunc func(ctx context.Context, filter model.BookingFilter) (int64, error)
}

func newMockRepo() *mockBookingRepository {
	return &mockBookingRepository{bookings: map[string]*model.Booking{}}
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if sameSlot(b, booking) && b.Status != model.BookingRejected {
			return bookingserrors.ErrDuplicateSlot
		}
	}
	m.seq++
	booking.ID = fmt.Sprintf("%024x", m.seq)
	booking.CreatedAt = time.Now().UTC()
	booking.UpdatedAt = booking.CreatedAt
	cp := *booking
	m.bookings[booking.ID] = &cp
	return nil
}

func sameSlot(a, b *model.Booking) bool {
	return a.UserID == b.UserID && a.ServiceID == b.ServiceID && a.Date.Equal(b.Date) && a.Time == b.Time
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(id) != 24 {
		return nil, bookingserrors.ErrInvalidID
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockBookingRepository) FindAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if matches(b, filter) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.bookings {
		if matches(b, filter) {
			n++
		}
	}
	return n, nil
}

func matches(b *model.Booking, f model.BookingFilter) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	if f.CreatedSince != nil && b.CreatedAt.Before(*f.CreatedSince) {
		return false
	}
	return true
}

func (m *mockBookingRepository) ExistsActiveSlot(ctx context.Context, userID string, serviceID int, date time.Time, slot string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	candidate := &model.Booking{UserID: userID, ServiceID: serviceID, Date: date, Time: slot}
	for _, b := range m.bookings {
		if sameSlot(b, candidate) && b.Status != model.BookingRejected {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, status string, reason string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(id) != 24 {
		return nil, bookingserrors.ErrInvalidID
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if b.Status != model.BookingPending {
		return nil, bookingserrors.ErrNotPending
	}
	b.Status = status
	if status == model.BookingRejected {
		b.RejectionReason = reason
	} else {
		b.RejectionReason = ""
	}
	cp := *b
	return &cp, nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(id) != 24 {
		return nil, bookingserrors.ErrInvalidID
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	delete(m.bookings, id)
	return b, nil
}

// ────────────────────────────────────────────────
// Recording notifier, presence and user directory
// ────────────────────────────────────────────────

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	stats  []*model.BookingStats
}

func (n *recordingNotifier) record(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) BookingCreated(_ context.Context, b *model.Booking) {
	n.record(realtime.EventNewBooking + ":" + b.ID)
}

func (n *recordingNotifier) BookingStatusChanged(_ context.Context, b *model.Booking) {
	n.record(b.Status + ":" + b.ID)
}

func (n *recordingNotifier) BookingDeleted(_ context.Context, b *model.Booking) {
	n.record(realtime.EventBookingDeleted + ":" + b.ID)
}

func (n *recordingNotifier) StatsUpdated(_ context.Context, stats *model.BookingStats) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stats = append(n.stats, stats)
}

type fixedPresence struct {
	admins, users int
}

func (p fixedPresence) RoomSize(room string) int {
	if room == realtime.AdminRoom {
		return p.admins
	}
	return 0
}

func (p fixedPresence) CountRoomsWithPrefix(prefix string) int {
	if prefix == realtime.UserRoomPrefix {
		return p.users
	}
	return 0
}

type mockUserDirectory struct {
	users map[string]*model.User
}

func (m *mockUserDirectory) FindUserByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

// ────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────

var templeTZ = time.FixedZone("IST", 5*3600+1800)

func newTestService(t *testing.T, now time.Time) (*bookingService, *mockBookingRepository, *recordingNotifier) {
	t.Helper()
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:          log,
		Location:     templeTZ,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	repo := newMockRepo()
	notifier := &recordingNotifier{}
	users := &mockUserDirectory{users: map[string]*model.User{
		"user-1": {ID: "user-1", Name: "Ramesh Ghosh", Email: "Ramesh@Example.com", Phone: "098300 12345"},
	}}

	svc := NewBookingService(repo, validator.NewBookingValidator(log, templeTZ), users, notifier, fixedPresence{admins: 2, users: 5}, cfg).(*bookingService)
	svc.now = func() time.Time { return now }
	return svc, repo, notifier
}

func requester() *identity.Identity {
	return &identity.Identity{UserID: "user-1", Kind: identity.KindFirebase, Role: identity.RoleUser, Name: "Token Name"}
}

func admin() *identity.Identity {
	return &identity.Identity{UserID: "admin-1", Kind: identity.KindSession, Role: identity.RoleAdmin}
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus != status {
		t.Fatalf("expected status %d, got %d (%v)", status, appErr.HTTPStatus, err)
	}
}

// 2025-03-09 22:00 IST
var testNow = time.Date(2025, 3, 9, 22, 0, 0, 0, templeTZ)

// ────────────────────────────────────────────────
// Tests for Create()
// ────────────────────────────────────────────────

func TestCreate_RejectsTodayAndPast(t *testing.T) {
	svc, repo, notifier := newTestService(t, testNow)

	for _, date := range []string{"2025-03-09", "2025-03-01", "2024-12-31"} {
		_, err := svc.Create(context.Background(), requester(), &model.BookingRequest{Service: 1, Date: date, Time: "10:00"})
		assertStatus(t, err, http.StatusBadRequest)
		if !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Errorf("date %s: expected validation error, got %v", date, err)
		}
	}

	if len(repo.bookings) != 0 || len(notifier.events) != 0 {
		t.Error("rejected requests must not persist or notify")
	}
}

func TestCreate_UsesTempleTimeZoneForToday(t *testing.T) {
	// 2025-03-09 20:00 UTC is already 2025-03-10 in the temple's zone.
	svc, _, _ := newTestService(t, time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC))

	_, err := svc.Create(context.Background(), requester(), &model.BookingRequest{Service: 1, Date: "2025-03-10", Time: "10:00"})
	assertStatus(t, err, http.StatusBadRequest)

	if _, err := svc.Create(context.Background(), requester(), &model.BookingRequest{Service: 1, Date: "2025-03-11", Time: "10:00"}); err != nil {
		t.Fatalf("tomorrow should be accepted: %v", err)
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	svc, _, _ := newTestService(t, testNow)

	tests := []struct {
		name string
		req  model.BookingRequest
	}{
		{"unknown service", model.BookingRequest{Service: 9, Date: "2025-03-10", Time: "10:00"}},
		{"missing time", model.BookingRequest{Service: 1, Date: "2025-03-10"}},
		{"malformed date", model.BookingRequest{Service: 1, Date: "10-03-2025", Time: "10:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), requester(), &tt.req)
			assertStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestCreate_PersistsPendingWithSnapshot(t *testing.T) {
	svc, repo, notifier := newTestService(t, testNow)

	summary, err := svc.Create(context.Background(), requester(), &model.BookingRequest{
		Service: 2,
		Date:    "2025-03-10",
		Time:    "10:00",
		Message: "  for my son  ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Status != model.BookingPending || summary.Date != "2025-03-10" || summary.Time != "10:00" {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.ServiceName != model.Services[2] {
		t.Errorf("service name = %q", summary.ServiceName)
	}

	stored := repo.bookings[summary.ID]
	if stored == nil {
		t.Fatal("booking not persisted")
	}
	if !stored.Date.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, templeTZ)) {
		t.Errorf("date should be local midnight, got %v", stored.Date)
	}
	if stored.Name != "Ramesh Ghosh" || stored.Email != "ramesh@example.com" || stored.Phone != "+919830012345" {
		t.Errorf("contact snapshot not taken from profile: %+v", stored)
	}
	if stored.Message != "for my son" {
		t.Errorf("message not cleaned: %q", stored.Message)
	}

	if len(notifier.events) != 1 || notifier.events[0] != realtime.EventNewBooking+":"+summary.ID {
		t.Errorf("unexpected notifications %v", notifier.events)
	}
	if len(notifier.stats) != 1 {
		t.Errorf("expected a stats refresh, got %d", len(notifier.stats))
	}
}

func TestCreate_DuplicateSlotUntilRejected(t *testing.T) {
	svc, _, _ := newTestService(t, testNow)
	ctx := context.Background()
	req := model.BookingRequest{Service: 1, Date: "2025-03-10", Time: "10:00"}

	first, err := svc.Create(ctx, requester(), &req)
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	_, err = svc.Create(ctx, requester(), &req)
	assertStatus(t, err, http.StatusBadRequest)
	if !apperrors.HasCode(err, apperrors.CodeDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	other := req
	other.Time = "11:00"
	if _, err := svc.Create(ctx, requester(), &other); err != nil {
		t.Fatalf("different slot should be allowed: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, first.ID, &model.BookingStatusUpdate{Status: model.BookingRejected, RejectionReason: "সময় পরিবর্তন"}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	again, err := svc.Create(ctx, requester(), &req)
	if err != nil {
		t.Fatalf("slot should be free after rejection: %v", err)
	}
	if again.ID == first.ID {
		t.Error("expected a new booking")
	}
}

func TestCreate_StoreLevelDuplicateMapsToBadRequest(t *testing.T) {
	svc, repo, _ := newTestService(t, testNow)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, templeTZ)
	// Simulate a concurrent insert that the pre-check did not see.
	repo.bookings["race"] = &model.Booking{ID: "race", UserID: "user-1", ServiceID: 1, Date: date, Time: "10:00", Status: model.BookingPending}
	svc.repo = &raceRepo{mockBookingRepository: repo}

	_, err := svc.Create(context.Background(), requester(), &model.BookingRequest{Service: 1, Date: "2025-03-10", Time: "10:00"})
	if !apperrors.HasCode(err, apperrors.CodeDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

type raceRepo struct {
	*mockBookingRepository
}

func (r *raceRepo) ExistsActiveSlot(context.Context, string, int, time.Time, string) (bool, error) {
	return false, nil
}

// ────────────────────────────────────────────────
// Tests for UpdateStatus()
// ────────────────────────────────────────────────

func TestUpdateStatus_ApproveClearsReason(t *testing.T) {
	svc, repo, notifier := newTestService(t, testNow)
	created, err := svc.Create(context.Background(), requester(), &model.BookingRequest{Service: 3, Date: "2025-03-12", Time: "08:00"})
	if err != nil {
		t.Fatal(err)
	}
	repo.bookings[created.ID].RejectionReason = "stale"

	got, err := svc.UpdateStatus(context.Background(), created.ID, &model.BookingStatusUpdate{Status: "Approved", RejectionReason: "ignored"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != model.BookingApproved || got.RejectionReason != "" {
		t.Errorf("unexpected booking %+v", got)
	}
	if last := notifier.events[len(notifier.events)-1]; last != model.BookingApproved+":"+created.ID {
		t.Errorf("last event = %q", last)
	}
}

func TestUpdateStatus_RejectStoresReason(t *testing.T) {
	svc, _, notifier := newTestService(t, testNow)
	created, err := svc.Create(context.Background(), requester(), &model.BookingRequest{Service: 1, Date: "2025-03-10", Time: "10:00"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.UpdateStatus(context.Background(), created.ID, &model.BookingStatusUpdate{Status: model.BookingRejected, RejectionReason: "সময় পরিবর্তন"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RejectionReason != "সময় পরিবর্তন" {
		t.Errorf("reason = %q", got.RejectionReason)
	}
	if last := notifier.events[len(notifier.events)-1]; last != model.BookingRejected+":"+created.ID {
		t.Errorf("last event = %q", last)
	}
}

func TestUpdateStatus_OnlyOnce(t *testing.T) {
	svc, _, _ := newTestService(t, testNow)
	created, err := svc.Create(context.Background(), requester(), &model.BookingRequest{Service: 1, Date: "2025-03-10", Time: "10:00"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateStatus(context.Background(), created.ID, &model.BookingStatusUpdate{Status: model.BookingApproved}); err != nil {
		t.Fatal(err)
	}

	_, err = svc.UpdateStatus(context.Background(), created.ID, &model.BookingStatusUpdate{Status: model.BookingRejected})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestUpdateStatus_Errors(t *testing.T) {
	svc, _, _ := newTestService(t, testNow)

	tests := []struct {
		name   string
		id     string
		status string
		want   int
	}{
		{"unknown id", "65f000000000000000000099", model.BookingApproved, http.StatusNotFound},
		{"malformed id", "abc", model.BookingApproved, http.StatusNotFound},
		{"empty id", "", model.BookingApproved, http.StatusBadRequest},
		{"bad status", "65f000000000000000000099", "completed", http.StatusBadRequest},
		{"back to pending", "65f000000000000000000099", model.BookingPending, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateStatus(context.Background(), tt.id, &model.BookingStatusUpdate{Status: tt.status})
			assertStatus(t, err, tt.want)
		})
	}
}

// ────────────────────────────────────────────────
// Tests for Delete(), GetByID() and Stats()
// ────────────────────────────────────────────────

func TestDelete(t *testing.T) {
	svc, repo, notifier := newTestService(t, testNow)
	created, err := svc.Create(context.Background(), requester(), &model.BookingRequest{Service: 1, Date: "2025-03-10", Time: "10:00"})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.bookings[created.ID]; ok {
		t.Error("booking still stored")
	}
	if last := notifier.events[len(notifier.events)-1]; last != realtime.EventBookingDeleted+":"+created.ID {
		t.Errorf("last event = %q", last)
	}

	assertStatus(t, svc.Delete(context.Background(), created.ID), http.StatusNotFound)
	assertStatus(t, svc.Delete(context.Background(), "not-an-object-id"), http.StatusNotFound)
}

func TestGetByID_OwnerOrAdmin(t *testing.T) {
	svc, _, _ := newTestService(t, testNow)
	created, err := svc.Create(context.Background(), requester(), &model.BookingRequest{Service: 1, Date: "2025-03-10", Time: "10:00"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GetByID(context.Background(), requester(), created.ID); err != nil {
		t.Errorf("owner should see booking: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), admin(), created.ID); err != nil {
		t.Errorf("admin should see booking: %v", err)
	}

	stranger := &identity.Identity{UserID: "user-2", Role: identity.RoleUser}
	_, err = svc.GetByID(context.Background(), stranger, created.ID)
	assertStatus(t, err, http.StatusForbidden)

	_, err = svc.GetByID(context.Background(), admin(), "abc")
	assertStatus(t, err, http.StatusNotFound)
	if svc.CanWatchBooking(context.Background(), stranger, created.ID) {
		t.Error("stranger must not watch the booking")
	}
}

func TestStats(t *testing.T) {
	svc, repo, _ := newTestService(t, testNow)
	startOfDay := time.Date(2025, 3, 9, 0, 0, 0, 0, templeTZ)

	add := func(id, status string, created time.Time) {
		repo.bookings[id] = &model.Booking{ID: id, Status: status, CreatedAt: created}
	}
	add("a", model.BookingPending, startOfDay.Add(time.Hour))
	add("b", model.BookingApproved, startOfDay.Add(-48*time.Hour))
	add("c", model.BookingRejected, startOfDay.AddDate(0, -1, 0))
	add("d", model.BookingPending, startOfDay.Add(-time.Minute))

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := model.BookingStats{Total: 4, Pending: 2, Today: 1, ThisMonth: 3, ConnectedAdmins: 2, ConnectedUsers: 5}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}
}

func TestStats_RepositoryFailure(t *testing.T) {
	svc, repo, _ := newTestService(t, testNow)
	repo.countFunc = func(ctx context.Context, filter model.BookingFilter) (int64, error) {
		return 0, errors.New("connection reset")
	}

	_, err := svc.Stats(context.Background())
	assertStatus(t, err, http.StatusInternalServerError)
}

func TestListAll_RejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(t, testNow)

	_, _, err := svc.ListAll(context.Background(), model.BookingFilter{Status: "done"}, 10, 0)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestListMine_OnlyOwnBookings(t *testing.T) {
	svc, repo, _ := newTestService(t, testNow)
	repo.bookings["x"] = &model.Booking{ID: "x", UserID: "user-1", Status: model.BookingPending}
	repo.bookings["y"] = &model.Booking{ID: "y", UserID: "user-2", Status: model.BookingPending}

	bookings, total, err := svc.ListMine(context.Background(), requester(), 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(bookings) != 1 || bookings[0].ID != "x" {
		t.Errorf("unexpected result total=%d bookings=%v", total, bookings)
	}
}
