package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	calcerrors "birshibpur/internal/calculations/errors"
	"birshibpur/pkg/config"
	mongotx "birshibpur/pkg/db/mongo"
	"birshibpur/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName         = "Calculations"
	CountersCollectionName = "Counters"
)

type mongoCalculationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	counters   *mongo.Collection
}

type CalculationRepository interface {
	NextSequence(ctx context.Context, counter string) (int64, error)
	Create(ctx context.Context, calc *model.Calculation) error
	FindByID(ctx context.Context, id string) (*model.Calculation, error)
	FindAll(ctx context.Context, filter model.CalculationFilter, limit int, offset int64) ([]*model.Calculation, error)
	Count(ctx context.Context, filter model.CalculationFilter) (int64, error)
	Update(ctx context.Context, id string, calc *model.Calculation) (*model.Calculation, error)
	Delete(ctx context.Context, id string) error
	TotalsByCategory(ctx context.Context, filter model.CalculationFilter) ([]model.CategoryTotal, error)
}

func NewMongoCalculationRepository(cfg *config.Config) CalculationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCalculationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		counters:   db.Collection(CountersCollectionName),
	}
}

// NextSequence atomically increments the named counter, creating it at 1.
func (r *mongoCalculationRepository) NextSequence(ctx context.Context, counter string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": counter},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to advance counter %s: %w", counter, err)
	}
	return doc.Seq, nil
}

func (r *mongoCalculationRepository) Create(ctx context.Context, calc *model.Calculation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	calc.CreatedAt = now
	calc.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, calc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return calcerrors.ErrDuplicateReceipt
		}
		return fmt.Errorf("failed to create calculation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		calc.ID = oid.Hex()
	}
	return nil
}

func (r *mongoCalculationRepository) FindByID(ctx context.Context, id string) (*model.Calculation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", calcerrors.ErrInvalidID, id)
	}

	var calc model.Calculation
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&calc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, calcerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find calculation: %w", err)
	}
	return &calc, nil
}

func (r *mongoCalculationRepository) FindAll(ctx context.Context, filter model.CalculationFilter, limit int, offset int64) ([]*model.Calculation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find calculations: %w", err)
	}
	defer cursor.Close(ctx)

	calcs := []*model.Calculation{}
	if err = cursor.All(ctx, &calcs); err != nil {
		return nil, fmt.Errorf("failed to decode calculations: %w", err)
	}
	return calcs, nil
}

func (r *mongoCalculationRepository) Count(ctx context.Context, filter model.CalculationFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count calculations: %w", err)
	}
	return count, nil
}

// Update rewrites the editable fields. The receipt number and creator
// never change.
func (r *mongoCalculationRepository) Update(ctx context.Context, id string, calc *model.Calculation) (*model.Calculation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", calcerrors.ErrInvalidID, id)
	}

	set := bson.M{
		"type":       calc.Type,
		"category":   calc.Category,
		"amount":     calc.Amount,
		"name":       calc.Name,
		"date":       calc.Date,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	unset := bson.M{}
	optional := map[string]string{"phone": calc.Phone, "note": calc.Note}
	for field, value := range optional {
		if value != "" {
			set[field] = value
		} else {
			unset[field] = ""
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var updated model.Calculation
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, calcerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update calculation: %w", err)
	}
	return &updated, nil
}

func (r *mongoCalculationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", calcerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete calculation: %w", err)
	}
	if result.DeletedCount == 0 {
		return calcerrors.ErrNotFound
	}
	return nil
}

// TotalsByCategory sums amounts per (type, category) for the entries
// matching filter, largest totals first.
func (r *mongoCalculationRepository) TotalsByCategory(ctx context.Context, filter model.CalculationFilter) ([]model.CategoryTotal, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(filter)}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"type": "$type", "category": "$category"},
			"total": bson.M{"$sum": "$amount"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":      0,
			"type":     "$_id.type",
			"category": "$_id.category",
			"total":    1,
			"count":    1,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "type", Value: 1}, {Key: "total", Value: -1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate calculations: %w", err)
	}
	defer cursor.Close(ctx)

	totals := []model.CategoryTotal{}
	if err = cursor.All(ctx, &totals); err != nil {
		return nil, fmt.Errorf("failed to decode calculation totals: %w", err)
	}
	return totals, nil
}

func buildFilter(f model.CalculationFilter) bson.M {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.From != nil || f.To != nil {
		date := bson.M{}
		if f.From != nil {
			date["$gte"] = *f.From
		}
		if f.To != nil {
			date["$lte"] = *f.To
		}
		filter["date"] = date
	}
	return filter
}
