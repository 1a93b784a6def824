package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	bookingserrors "birshibpur/internal/bookings/errors"
	"birshibpur/internal/bookings/repository"
	"birshibpur/internal/bookings/validator"
	"birshibpur/internal/realtime"
	"birshibpur/pkg/config"
	apperrors "birshibpur/pkg/errors"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/model"
	"birshibpur/pkg/sanitizer"
)

// Notifier fans booking changes out to realtime rooms, mail and the
// inbox. Implementations log their own failures and never return them.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingStatusChanged(ctx context.Context, booking *model.Booking)
	BookingDeleted(ctx context.Context, booking *model.Booking)
	StatsUpdated(ctx context.Context, stats *model.BookingStats)
}

// Presence reports live realtime connections.
type Presence interface {
	RoomSize(room string) int
	CountRoomsWithPrefix(prefix string) int
}

// UserDirectory resolves a requester's stored profile.
type UserDirectory interface {
	FindUserByID(ctx context.Context, id string) (*model.User, error)
}

type BookingService interface {
	Create(ctx context.Context, requester *identity.Identity, req *model.BookingRequest) (*model.BookingSummary, error)
	GetByID(ctx context.Context, requester *identity.Identity, id string) (*model.Booking, error)
	ListMine(ctx context.Context, requester *identity.Identity, limit int, offset int64) ([]*model.Booking, int64, error)
	ListAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*model.BookingStats, error)
	Export(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	CanWatchBooking(ctx context.Context, requester *identity.Identity, bookingID string) bool
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	users     UserDirectory
	notifier  Notifier
	presence  Presence
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	validator *validator.BookingValidator,
	users UserDirectory,
	notifier Notifier,
	presence Presence,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		validator: validator,
		users:     users,
		notifier:  notifier,
		presence:  presence,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, requester *identity.Identity, req *model.BookingRequest) (*model.BookingSummary, error) {
	date, err := s.validator.ValidateRequest(req, s.now())
	if err != nil {
		s.cfg.Log.Warn("Booking validation failed", "user_id", requester.UserID, "error", err)
		return nil, apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
	}
	serviceName, _ := model.ServiceName(req.Service)

	taken, err := s.repo.ExistsActiveSlot(ctx, requester.UserID, req.Service, date, req.Time)
	if err != nil {
		return nil, apperrors.Internal("Failed to check booking slot", err)
	}
	if taken {
		return nil, duplicateSlot()
	}

	booking := &model.Booking{
		UserID:      requester.UserID,
		ServiceID:   req.Service,
		ServiceName: serviceName,
		Date:        date,
		Time:        req.Time,
		Message:     sanitizer.CleanMultiline(req.Message),
		Status:      model.BookingPending,
	}
	s.snapshotContact(ctx, requester, booking)

	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrDuplicateSlot) {
			return nil, duplicateSlot()
		}
		s.cfg.Log.Error("Failed to create booking", "user_id", requester.UserID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"user_id", booking.UserID,
		"service_id", booking.ServiceID,
		"date", req.Date,
		"time", booking.Time,
	)

	s.notifier.BookingCreated(ctx, booking)
	s.publishStats(ctx)

	summary := booking.Summary(s.cfg.Location)
	return &summary, nil
}

func duplicateSlot() error {
	return apperrors.Duplicate("You already have a booking for this service at the selected date and time")
}

// snapshotContact copies the requester's current profile onto the
// booking, falling back to the token claims when no profile is stored.
func (s *bookingService) snapshotContact(ctx context.Context, requester *identity.Identity, booking *model.Booking) {
	booking.Name = requester.Name
	booking.Email = requester.Email
	booking.Phone = requester.Phone

	if s.users != nil {
		user, err := s.users.FindUserByID(ctx, requester.UserID)
		if err != nil {
			s.cfg.Log.Warn("Failed to load requester profile", "user_id", requester.UserID, logger.Err(err))
		} else if user != nil {
			if user.Name != "" {
				booking.Name = user.Name
			}
			if user.Email != "" {
				booking.Email = user.Email
			}
			if user.Phone != "" {
				booking.Phone = user.Phone
			}
		}
	}

	booking.Name = sanitizer.CleanText(booking.Name)
	booking.Email = sanitizer.SanitizeEmail(booking.Email)
	if phone := sanitizer.SanitizePhone(booking.Phone); phone != "" {
		booking.Phone = phone
	}
}

func (s *bookingService) GetByID(ctx context.Context, requester *identity.Identity, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id, "Failed to retrieve booking")
	}

	if !requester.IsAdmin() && booking.UserID != requester.UserID {
		return nil, apperrors.Forbidden("You can only view your own bookings")
	}
	return booking, nil
}

func (s *bookingService) CanWatchBooking(ctx context.Context, requester *identity.Identity, bookingID string) bool {
	_, err := s.GetByID(ctx, requester, bookingID)
	return err == nil
}

func (s *bookingService) ListMine(ctx context.Context, requester *identity.Identity, limit int, offset int64) ([]*model.Booking, int64, error) {
	return s.list(ctx, model.BookingFilter{UserID: requester.UserID}, limit, offset)
}

func (s *bookingService) ListAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, 0, apperrors.InvalidInput("Invalid status filter: " + filter.Status)
	}
	return s.list(ctx, filter, limit, offset)
}

func (s *bookingService) list(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	update.Status = strings.ToLower(strings.TrimSpace(update.Status))
	update.RejectionReason = sanitizer.CleanText(update.RejectionReason)
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		s.cfg.Log.Warn("Booking status validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid status update", map[string]any{"error": err.Error()})
	}

	booking, err := s.repo.UpdateStatus(ctx, id, update.Status, update.RejectionReason)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotPending) {
			return nil, apperrors.InvalidInput("Only pending bookings can be approved or rejected")
		}
		s.logUnexpected("Failed to update booking status", id, err)
		return nil, mapRepoError(err, id, "Failed to update booking status")
	}

	s.cfg.Log.Info("Booking status updated", "id", id, "status", booking.Status)

	s.notifier.BookingStatusChanged(ctx, booking)
	s.publishStats(ctx)
	return booking, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logUnexpected("Failed to delete booking", id, err)
		return mapRepoError(err, id, "Failed to delete booking")
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id, "status", booking.Status)

	s.notifier.BookingDeleted(ctx, booking)
	s.publishStats(ctx)
	return nil
}

// Stats is recomputed on every call.
func (s *bookingService) Stats(ctx context.Context) (*model.BookingStats, error) {
	local := s.now().In(s.cfg.Location)
	startOfDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.cfg.Location)
	startOfMonth := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.cfg.Location)

	filters := []model.BookingFilter{
		{},
		{Status: model.BookingPending},
		{CreatedSince: &startOfDay},
		{CreatedSince: &startOfMonth},
	}
	counts := make([]int64, len(filters))
	errs := make([]error, len(filters))

	var wg sync.WaitGroup
	for i, f := range filters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counts[i], errs[i] = s.repo.Count(ctx, f)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		s.cfg.Log.Error("Failed to compute booking stats", "error", err)
		return nil, apperrors.Internal("Failed to compute booking stats", err)
	}

	stats := &model.BookingStats{
		Total:     counts[0],
		Pending:   counts[1],
		Today:     counts[2],
		ThisMonth: counts[3],
	}
	if s.presence != nil {
		stats.ConnectedAdmins = s.presence.RoomSize(realtime.AdminRoom)
		stats.ConnectedUsers = s.presence.CountRoomsWithPrefix(realtime.UserRoomPrefix)
	}
	return stats, nil
}

func (s *bookingService) Export(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, apperrors.InvalidInput("Invalid status filter: " + filter.Status)
	}
	bookings, err := s.repo.FindAll(ctx, filter, 0, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to export bookings", "error", err)
		return nil, apperrors.Internal("Failed to export bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) publishStats(ctx context.Context) {
	stats, err := s.Stats(ctx)
	if err != nil {
		s.cfg.Log.Warn("Skipping realtime stats refresh", "error", err)
		return
	}
	s.notifier.StatsUpdated(ctx, stats)
}

func (s *bookingService) logUnexpected(msg, id string, err error) {
	if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
		return
	}
	s.cfg.Log.Error(msg, "id", id, "error", err)
}

// mapRepoError treats an id that cannot be an ObjectID as not found. No
// booking can exist under it.
func mapRepoError(err error, id, internalMsg string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound),
		errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.NotFoundWithID("Booking", id)
	default:
		return apperrors.Internal(internalMsg, err)
	}
}

func validStatus(status string) bool {
	switch status {
	case model.BookingPending, model.BookingApproved, model.BookingRejected:
		return true
	}
	return false
}
