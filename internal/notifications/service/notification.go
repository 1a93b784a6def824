package service

import (
	"context"
	"errors"

	notificationserrors "birshibpur/internal/notifications/errors"
	"birshibpur/internal/notifications/repository"
	"birshibpur/internal/realtime"
	"birshibpur/pkg/config"
	apperrors "birshibpur/pkg/errors"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/mailer"
	"birshibpur/pkg/model"
	"birshibpur/pkg/sanitizer"
	"birshibpur/pkg/validation"
)

// Broadcaster pushes envelopes into realtime rooms.
type Broadcaster interface {
	Emit(room, event string, data any)
	EmitPrefix(prefix, event string, data any)
}

type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, to string, tmpl mailer.Template, data any) error
	SendBatch(ctx context.Context, recipients []string, tmpl mailer.Template, data any) []mailer.Result
}

// Directory lists e-mail addresses of registered accounts.
type Directory interface {
	AdminEmails(ctx context.Context) ([]string, error)
	UserEmails(ctx context.Context) ([]string, error)
}

type NotificationService interface {
	List(ctx context.Context, requester *identity.Identity, limit int, offset int64) ([]*model.Notification, int64, error)
	MarkRead(ctx context.Context, requester *identity.Identity, id string) error
	Announce(ctx context.Context, admin *identity.Identity, input *model.AnnouncementInput) (*model.Notification, error)
	Delete(ctx context.Context, id string) error
}

type notificationService struct {
	repo      repository.NotificationRepository
	hub       Broadcaster
	mailer    Mailer
	directory Directory
	validator *validation.Validator
	cfg       *config.Config
	async     func(func())
}

func NewNotificationService(
	repo repository.NotificationRepository,
	hub Broadcaster,
	mailer Mailer,
	directory Directory,
	cfg *config.Config,
) NotificationService {
	return &notificationService{
		repo:      repo,
		hub:       hub,
		mailer:    mailer,
		directory: directory,
		validator: validation.New(cfg.Log),
		cfg:       cfg,
		async:     func(f func()) { go f() },
	}
}

func (s *notificationService) List(ctx context.Context, requester *identity.Identity, limit int, offset int64) ([]*model.Notification, int64, error) {
	var (
		items    []*model.Notification
		count    int64
		errFind  error
		errCount error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		count, errCount = s.repo.CountForUser(ctx, requester.UserID)
	}()
	items, errFind = s.repo.FindForUser(ctx, requester.UserID, limit, offset)
	<-done

	if err := errors.Join(errFind, errCount); err != nil {
		s.cfg.Log.Error("Failed to list notifications", "user_id", requester.UserID, logger.Err(err))
		return nil, 0, apperrors.Internal("Failed to retrieve notifications", err)
	}
	return items, count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, requester *identity.Identity, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Notification ID cannot be empty")
	}
	if err := s.repo.MarkRead(ctx, id, requester.UserID); err != nil {
		return s.mapRepoError(err, id, "Failed to mark notification read")
	}
	return nil
}

// Announce stores a global notice, pushes it to every connected devotee
// and optionally e-mails all registered users in throttled batches.
func (s *notificationService) Announce(ctx context.Context, admin *identity.Identity, input *model.AnnouncementInput) (*model.Notification, error) {
	input.Title = sanitizer.CleanText(input.Title)
	input.Message = sanitizer.CleanMultiline(input.Message)
	if err := s.validator.Struct(input); err != nil {
		s.cfg.Log.Warn("Announcement validation failed", "admin_id", admin.UserID, "error", err)
		return nil, apperrors.Validation("Invalid announcement", map[string]any{"error": err.Error()})
	}

	n := &model.Notification{
		Title:   input.Title,
		Message: input.Message,
		Type:    model.NotificationAnnouncement,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.cfg.Log.Error("Failed to store announcement", "admin_id", admin.UserID, logger.Err(err))
		return nil, apperrors.Internal("Failed to create announcement", err)
	}

	s.cfg.Log.Info("Announcement created", "id", n.ID, "admin_id", admin.UserID, "send_email", input.SendEmail)
	s.hub.EmitPrefix(realtime.UserRoomPrefix, realtime.EventNotification, n)

	if input.SendEmail && s.mailer.Enabled() {
		data := mailer.AnnouncementData{Title: n.Title, Message: n.Message}
		bg := context.WithoutCancel(ctx)
		s.async(func() { s.mailEveryone(bg, n.ID, data) })
	}
	return n, nil
}

func (s *notificationService) mailEveryone(ctx context.Context, id string, data mailer.AnnouncementData) {
	recipients, err := s.directory.UserEmails(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load announcement recipients", "id", id, logger.Err(err))
		return
	}
	results := s.mailer.SendBatch(ctx, recipients, mailer.TemplateAnnouncement, data)
	logResults(s.cfg.Log, "announcement", id, results)
}

func (s *notificationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Notification ID cannot be empty")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id, "Failed to delete notification")
	}
	s.cfg.Log.Info("Notification deleted", "id", id)
	return nil
}

func (s *notificationService) mapRepoError(err error, id, internalMsg string) error {
	switch {
	case errors.Is(err, notificationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Notification", id)
	case errors.Is(err, notificationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid notification ID format")
	default:
		s.cfg.Log.Error(internalMsg, "id", id, logger.Err(err))
		return apperrors.Internal(internalMsg, err)
	}
}

// logResults records per-recipient delivery outcomes.
func logResults(log *logger.Logger, kind, ref string, results []mailer.Result) {
	failed := mailer.Failed(results)
	for _, r := range failed {
		log.Warn("Email delivery failed", "kind", kind, "ref", ref, "recipient", r.Recipient, logger.Err(r.Err))
	}
	log.Info("Email fan-out finished", "kind", kind, "ref", ref, "sent", len(results)-len(failed), "failed", len(failed))
}
