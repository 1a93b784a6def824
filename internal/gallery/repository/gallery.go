package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	galleryerrors "birshibpur/internal/gallery/errors"
	"birshibpur/pkg/config"
	mongotx "birshibpur/pkg/db/mongo"
	"birshibpur/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName       = "Gallery"
	EventsCollectionName = "Events"
)

type mongoGalleryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	events     *mongo.Collection
}

type GalleryRepository interface {
	Create(ctx context.Context, item *model.GalleryItem) error
	FindAll(ctx context.Context, filter model.GalleryFilter, limit int, offset int64) ([]*model.GalleryItem, error)
	Count(ctx context.Context, filter model.GalleryFilter) (int64, error)
	Delete(ctx context.Context, id string) (*model.GalleryItem, error)
	EventExists(ctx context.Context, eventID string) (bool, error)
}

func NewMongoGalleryRepository(cfg *config.Config) GalleryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoGalleryRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		events:     db.Collection(EventsCollectionName),
	}
}

func (r *mongoGalleryRepository) Create(ctx context.Context, item *model.GalleryItem) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	item.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to create gallery item: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		item.ID = oid.Hex()
	}
	return nil
}

func (r *mongoGalleryRepository) FindAll(ctx context.Context, filter model.GalleryFilter, limit int, offset int64) ([]*model.GalleryItem, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find gallery items: %w", err)
	}
	defer cursor.Close(ctx)

	items := []*model.GalleryItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode gallery items: %w", err)
	}
	return items, nil
}

func (r *mongoGalleryRepository) Count(ctx context.Context, filter model.GalleryFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count gallery items: %w", err)
	}
	return count, nil
}

func (r *mongoGalleryRepository) Delete(ctx context.Context, id string) (*model.GalleryItem, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", galleryerrors.ErrInvalidID, id)
	}

	var item model.GalleryItem
	err = r.collection.FindOneAndDelete(ctx, bson.M{"_id": objectID}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, galleryerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete gallery item: %w", err)
	}
	return &item, nil
}

// EventExists reports whether eventID names a stored event. Malformed ids
// simply do not exist.
func (r *mongoGalleryRepository) EventExists(ctx context.Context, eventID string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return false, nil
	}

	count, err := r.events.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check event: %w", err)
	}
	return count > 0, nil
}

func buildFilter(f model.GalleryFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.EventID != "" {
		filter["event_id"] = f.EventID
	}
	return filter
}
