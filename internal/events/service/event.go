package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	eventserrors "birshibpur/internal/events/errors"
	"birshibpur/internal/events/repository"
	"birshibpur/internal/events/validator"
	"birshibpur/pkg/config"
	apperrors "birshibpur/pkg/errors"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/media"
	"birshibpur/pkg/model"
	"birshibpur/pkg/sanitizer"
)

const mediaKind = "events"

// MediaStore persists uploaded images and removes them again.
type MediaStore interface {
	Save(kind, filename string, src io.Reader) (*media.Saved, error)
	Delete(urls ...string)
}

type EventService interface {
	Create(ctx context.Context, requester *identity.Identity, input *model.EventInput, image *media.Upload) (*model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, filter model.EventFilter, limit int, offset int64) ([]*model.Event, int64, error)
	Update(ctx context.Context, id string, input *model.EventInput, image *media.Upload) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

type eventService struct {
	repo      repository.EventRepository
	validator *validator.EventValidator
	media     MediaStore
	cfg       *config.Config
	now       func() time.Time
}

func NewEventService(
	repo repository.EventRepository,
	validator *validator.EventValidator,
	store MediaStore,
	cfg *config.Config,
) EventService {
	return &eventService{
		repo:      repo,
		validator: validator,
		media:     store,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *eventService) Create(ctx context.Context, requester *identity.Identity, input *model.EventInput, image *media.Upload) (*model.Event, error) {
	event, err := s.build(input)
	if err != nil {
		return nil, err
	}
	event.CreatedBy = requester.UserID

	saved, err := s.saveImage(image)
	if err != nil {
		return nil, err
	}
	if saved != nil {
		event.ImageURL = saved.URL
		event.ThumbnailURL = saved.ThumbnailURL
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.discard(saved)
		s.cfg.Log.Error("Failed to create event", "title", event.Title, logger.Err(err))
		return nil, apperrors.Internal("Failed to create event", err)
	}

	s.cfg.Log.Info("Event created successfully", "id", event.ID, "title", event.Title, "created_by", event.CreatedBy)
	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}

	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logUnexpected("Failed to retrieve event", id, err)
		return nil, mapRepoError(err, id, "Failed to retrieve event")
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context, filter model.EventFilter, limit int, offset int64) ([]*model.Event, int64, error) {
	switch filter.When {
	case "", model.EventsUpcoming, model.EventsPast:
	default:
		return nil, 0, apperrors.InvalidInput("Invalid when filter: " + filter.When)
	}
	today := s.startOfToday()

	var count int64
	var events []*model.Event
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter, today)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count events", "error", errCount)
			errCount = apperrors.Internal("Failed to count events", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		events, errFind = s.repo.FindAll(ctx, filter, today, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list events", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve events", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return events, count, nil
}

// Update replaces the event's fields. A new image supersedes the stored
// one, whose files are removed once the update succeeds.
func (s *eventService) Update(ctx context.Context, id string, input *model.EventInput, image *media.Upload) (*model.Event, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}
	event, err := s.build(input)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logUnexpected("Failed to load event for update", id, err)
		return nil, mapRepoError(err, id, "Failed to update event")
	}

	saved, err := s.saveImage(image)
	if err != nil {
		return nil, err
	}
	if saved != nil {
		event.ImageURL = saved.URL
		event.ThumbnailURL = saved.ThumbnailURL
	}

	updated, err := s.repo.Update(ctx, id, event)
	if err != nil {
		s.discard(saved)
		s.logUnexpected("Failed to update event", id, err)
		return nil, mapRepoError(err, id, "Failed to update event")
	}
	if saved != nil {
		s.media.Delete(current.ImageURL, current.ThumbnailURL)
	}

	s.cfg.Log.Info("Event updated successfully", "id", id, "image_replaced", saved != nil)
	return updated, nil
}

// Delete removes the event, unlinks its gallery items and then removes
// its image files. File removal is best-effort.
func (s *eventService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Event ID cannot be empty")
	}

	event, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logUnexpected("Failed to delete event", id, err)
		return mapRepoError(err, id, "Failed to delete event")
	}
	s.media.Delete(event.ImageURL, event.ThumbnailURL)

	s.cfg.Log.Info("Event deleted successfully", "id", id, "title", event.Title)
	return nil
}

func (s *eventService) build(input *model.EventInput) (*model.Event, error) {
	input.Title = sanitizer.CleanText(input.Title)
	input.Description = sanitizer.CleanMultiline(input.Description)
	input.Location = sanitizer.CleanText(input.Location)

	start, end, err := s.validator.Validate(input)
	if err != nil {
		s.cfg.Log.Warn("Event validation failed", "error", err)
		return nil, apperrors.Validation("Invalid event input", map[string]any{"error": err.Error()})
	}

	return &model.Event{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		StartDate:   start,
		EndDate:     end,
	}, nil
}

func (s *eventService) saveImage(image *media.Upload) (*media.Saved, error) {
	if image == nil {
		return nil, nil
	}
	saved, err := s.media.Save(mediaKind, image.Filename, image.Body)
	if err != nil {
		if media.IsRejected(err) {
			return nil, apperrors.Validation("Invalid image", map[string]any{"image": err.Error()})
		}
		s.cfg.Log.Error("Failed to store event image", "filename", image.Filename, logger.Err(err))
		return nil, apperrors.Internal("Failed to store image", err)
	}
	return saved, nil
}

func (s *eventService) discard(saved *media.Saved) {
	if saved != nil {
		s.media.Delete(saved.URL, saved.ThumbnailURL)
	}
}

func (s *eventService) startOfToday() time.Time {
	local := s.now().In(s.cfg.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.cfg.Location)
}

func (s *eventService) logUnexpected(msg, id string, err error) {
	if errors.Is(err, eventserrors.ErrNotFound) || errors.Is(err, eventserrors.ErrInvalidID) {
		return
	}
	s.cfg.Log.Error(msg, "id", id, "error", err)
}

func mapRepoError(err error, id, internalMsg string) error {
	switch {
	case errors.Is(err, eventserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Event", id)
	case errors.Is(err, eventserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid event ID format")
	default:
		return apperrors.Internal(internalMsg, err)
	}
}
