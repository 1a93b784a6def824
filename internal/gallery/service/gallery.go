package service

import (
	"context"
	"errors"
	"io"
	"sync"

	galleryerrors "birshibpur/internal/gallery/errors"
	"birshibpur/internal/gallery/repository"
	"birshibpur/internal/gallery/validator"
	"birshibpur/pkg/config"
	apperrors "birshibpur/pkg/errors"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/media"
	"birshibpur/pkg/model"
	"birshibpur/pkg/sanitizer"
)

const mediaKind = "gallery"

type MediaStore interface {
	Save(kind, filename string, src io.Reader) (*media.Saved, error)
	Delete(urls ...string)
}

type GalleryService interface {
	Upload(ctx context.Context, requester *identity.Identity, input *model.GalleryInput, image *media.Upload) (*model.GalleryItem, error)
	List(ctx context.Context, filter model.GalleryFilter, limit int, offset int64) ([]*model.GalleryItem, int64, error)
	Delete(ctx context.Context, id string) error
}

type galleryService struct {
	repo      repository.GalleryRepository
	validator *validator.GalleryValidator
	media     MediaStore
	cfg       *config.Config
}

func NewGalleryService(
	repo repository.GalleryRepository,
	validator *validator.GalleryValidator,
	store MediaStore,
	cfg *config.Config,
) GalleryService {
	return &galleryService{
		repo:      repo,
		validator: validator,
		media:     store,
		cfg:       cfg,
	}
}

func (s *galleryService) Upload(ctx context.Context, requester *identity.Identity, input *model.GalleryInput, image *media.Upload) (*model.GalleryItem, error) {
	input.Title = sanitizer.CleanText(input.Title)
	input.Category = sanitizer.SanitizeCategory(input.Category)
	input.EventID = sanitizer.CleanText(input.EventID)

	if err := s.validator.Validate(input); err != nil {
		s.cfg.Log.Warn("Gallery validation failed", "error", err)
		return nil, apperrors.Validation("Invalid gallery input", map[string]any{"error": err.Error()})
	}
	if image == nil {
		return nil, apperrors.Validation("Invalid gallery input", map[string]any{"image": "image is required"})
	}

	if input.EventID != "" {
		exists, err := s.repo.EventExists(ctx, input.EventID)
		if err != nil {
			s.cfg.Log.Error("Failed to check gallery event", "event_id", input.EventID, logger.Err(err))
			return nil, apperrors.Internal("Failed to check event", err)
		}
		if !exists {
			return nil, apperrors.NotFoundWithID("Event", input.EventID)
		}
	}

	saved, err := s.media.Save(mediaKind, image.Filename, image.Body)
	if err != nil {
		if media.IsRejected(err) {
			return nil, apperrors.Validation("Invalid image", map[string]any{"image": err.Error()})
		}
		s.cfg.Log.Error("Failed to store gallery image", "filename", image.Filename, logger.Err(err))
		return nil, apperrors.Internal("Failed to store image", err)
	}

	item := &model.GalleryItem{
		Title:        input.Title,
		Category:     input.Category,
		EventID:      input.EventID,
		ImageURL:     saved.URL,
		ThumbnailURL: saved.ThumbnailURL,
		CreatedBy:    requester.UserID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		s.media.Delete(saved.URL, saved.ThumbnailURL)
		s.cfg.Log.Error("Failed to create gallery item", "title", item.Title, logger.Err(err))
		return nil, apperrors.Internal("Failed to create gallery item", err)
	}

	s.cfg.Log.Info("Gallery item uploaded",
		"id", item.ID,
		"category", item.Category,
		"event_id", item.EventID,
		"created_by", item.CreatedBy,
	)
	return item, nil
}

func (s *galleryService) List(ctx context.Context, filter model.GalleryFilter, limit int, offset int64) ([]*model.GalleryItem, int64, error) {
	if filter.Category != "" {
		filter.Category = sanitizer.SanitizeCategory(filter.Category)
	}

	var count int64
	var items []*model.GalleryItem
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count gallery items", "error", errCount)
			errCount = apperrors.Internal("Failed to count gallery items", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		items, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list gallery items", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve gallery items", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return items, count, nil
}

func (s *galleryService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Gallery item ID cannot be empty")
	}

	item, err := s.repo.Delete(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, galleryerrors.ErrNotFound):
			return apperrors.NotFoundWithID("Gallery item", id)
		case errors.Is(err, galleryerrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid gallery item ID format")
		default:
			s.cfg.Log.Error("Failed to delete gallery item", "id", id, "error", err)
			return apperrors.Internal("Failed to delete gallery item", err)
		}
	}
	s.media.Delete(item.ImageURL, item.ThumbnailURL)

	s.cfg.Log.Info("Gallery item deleted", "id", id)
	return nil
}
