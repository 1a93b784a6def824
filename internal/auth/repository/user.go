package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	autherrors "birshibpur/internal/auth/errors"
	"birshibpur/pkg/config"
	mongotx "birshibpur/pkg/db/mongo"
	"birshibpur/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollectionName = "Users"
)

// FirebaseProfile is what a verified ID token tells us about a devotee.
type FirebaseProfile struct {
	UID   string
	Name  string
	Email string
	Phone string
}

type UserRepository interface {
	UpsertFromFirebase(ctx context.Context, profile FirebaseProfile) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id string, update *model.UserProfileUpdate) (*model.User, error)
	Emails(ctx context.Context) ([]string, error)
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(UsersCollectionName),
	}
}

// UpsertFromFirebase runs on every Firebase-authenticated request, so the
// common case is a single indexed read. Profile fields the devotee may
// edit are only seeded on insert; the e-mail follows the token.
func (r *mongoUserRepository) UpsertFromFirebase(ctx context.Context, p FirebaseProfile) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	var user model.User
	err := r.collection.FindOne(ctx, bson.M{"firebase_uid": p.UID}).Decode(&user)
	switch {
	case err == nil:
		if p.Email == "" || p.Email == user.Email {
			return &user, nil
		}
		return r.refreshEmail(ctx, user.ID, p.Email)
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	onInsert := bson.M{
		"firebase_uid": p.UID,
		"name":         p.Name,
		"created_at":   now,
		"updated_at":   now,
	}
	if p.Email != "" {
		onInsert["email"] = p.Email
	}
	if p.Phone != "" {
		onInsert["phone"] = p.Phone
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"firebase_uid": p.UID},
		bson.M{"$setOnInsert": onInsert},
		opts,
	).Decode(&user)
	if err != nil {
		// A concurrent first request won the unique index race.
		if mongo.IsDuplicateKeyError(err) {
			if err = r.collection.FindOne(ctx, bson.M{"firebase_uid": p.UID}).Decode(&user); err == nil {
				return &user, nil
			}
		}
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) refreshEmail(ctx context.Context, id string, email string) (*model.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", autherrors.ErrInvalidID, id)
	}

	var user model.User
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"email": email, "updated_at": time.Now().UTC().Truncate(time.Millisecond)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh user email: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", autherrors.ErrInvalidID, id)
	}

	var user model.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, autherrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// Update sets only the fields present in update.
func (r *mongoUserRepository) Update(ctx context.Context, id string, update *model.UserProfileUpdate) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", autherrors.ErrInvalidID, id)
	}

	fields := bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Phone != nil {
		fields["phone"] = *update.Phone
	}
	if update.Address != nil {
		fields["address"] = *update.Address
	}
	var user model.User
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, autherrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) Emails(ctx context.Context) ([]string, error) {
	return distinctEmails(ctx, r.collection, r.cfg.ReadTimeout)
}

func distinctEmails(ctx context.Context, collection *mongo.Collection, timeout time.Duration) ([]string, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, timeout)
	defer cancel()

	values, err := collection.Distinct(ctx, "email", bson.M{"email": bson.M{"$nin": bson.A{"", nil}}})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s emails: %w", collection.Name(), err)
	}

	emails := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			emails = append(emails, s)
		}
	}
	return emails, nil
}
