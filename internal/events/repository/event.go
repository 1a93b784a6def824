package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	eventserrors "birshibpur/internal/events/errors"
	"birshibpur/pkg/config"
	mongotx "birshibpur/pkg/db/mongo"
	"birshibpur/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName        = "Events"
	GalleryCollectionName = "Gallery"
)

type mongoEventRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	gallery    *mongo.Collection
	txManager  mongotx.TransactionManager
}

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	FindByID(ctx context.Context, id string) (*model.Event, error)
	FindAll(ctx context.Context, filter model.EventFilter, now time.Time, limit int, offset int64) ([]*model.Event, error)
	Count(ctx context.Context, filter model.EventFilter, now time.Time) (int64, error)
	Update(ctx context.Context, id string, event *model.Event) (*model.Event, error)
	Delete(ctx context.Context, id string) (*model.Event, error)
}

func NewMongoEventRepository(cfg *config.Config, txManager mongotx.TransactionManager) EventRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEventRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		gallery:    db.Collection(GalleryCollectionName),
		txManager:  txManager,
	}
}

func (r *mongoEventRepository) Create(ctx context.Context, event *model.Event) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	event.CreatedAt = now
	event.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid.Hex()
	}
	return nil
}

func (r *mongoEventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}

	var event model.Event
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, eventserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return &event, nil
}

// FindAll lists upcoming events soonest first and past events most recent
// first. An unfiltered listing follows the upcoming order.
func (r *mongoEventRepository) FindAll(ctx context.Context, filter model.EventFilter, now time.Time, limit int, offset int64) ([]*model.Event, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	direction := 1
	if filter.When == model.EventsPast {
		direction = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "start_date", Value: direction}, {Key: "_id", Value: 1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, buildFilter(filter, now), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*model.Event{}
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

func (r *mongoEventRepository) Count(ctx context.Context, filter model.EventFilter, now time.Time) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter, now))
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// Update replaces the editable fields and returns the stored event.
func (r *mongoEventRepository) Update(ctx context.Context, id string, event *model.Event) (*model.Event, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"title":       event.Title,
		"description": event.Description,
		"location":    event.Location,
		"start_date":  event.StartDate,
		"updated_at":  time.Now().UTC().Truncate(time.Millisecond),
	}
	unset := bson.M{}
	if event.EndDate != nil {
		set["end_date"] = *event.EndDate
	} else {
		unset["end_date"] = ""
	}
	if event.ImageURL != "" {
		set["image_url"] = event.ImageURL
		set["thumbnail_url"] = event.ThumbnailURL
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var updated model.Event
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, eventserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return &updated, nil
}

// Delete removes the event and unlinks its gallery items in one
// transaction. Gallery items themselves are kept.
func (r *mongoEventRepository) Delete(ctx context.Context, id string) (*model.Event, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	var deleted model.Event
	err = r.txManager.ExecuteTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := r.collection.FindOneAndDelete(sc, bson.M{"_id": objectID}).Decode(&deleted); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return eventserrors.ErrNotFound
			}
			return fmt.Errorf("failed to delete event: %w", err)
		}

		if _, err := r.gallery.UpdateMany(sc,
			bson.M{"event_id": id},
			bson.M{"$unset": bson.M{"event_id": ""}},
		); err != nil {
			return fmt.Errorf("failed to unlink gallery items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func buildFilter(f model.EventFilter, now time.Time) bson.M {
	switch f.When {
	case model.EventsUpcoming:
		return bson.M{"$or": bson.A{
			bson.M{"start_date": bson.M{"$gte": now}},
			bson.M{"end_date": bson.M{"$gte": now}},
		}}
	case model.EventsPast:
		return bson.M{
			"start_date": bson.M{"$lt": now},
			"$or": bson.A{
				bson.M{"end_date": bson.M{"$exists": false}},
				bson.M{"end_date": bson.M{"$lt": now}},
			},
		}
	default:
		return bson.M{}
	}
}
