package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

type UserRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{db: db, coll: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID           int64  `bson:"_id"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
}

func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// checked before taking an id so a rejected email leaves the counter alone
	n, err := r.coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return 0, fmt.Errorf("check email: %w", err)
	}
	if n > 0 {
		return 0, domain.ErrDuplicateEmail
	}

	id, err := nextID(ctx, r.db, collectionUsers)
	if err != nil {
		return 0, err
	}

	_, err = r.coll.InsertOne(ctx, mongoUser{ID: id, Email: email, PasswordHash: passwordHash})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, domain.ErrDuplicateEmail
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &domain.User{ID: mu.ID, Email: mu.Email, PasswordHash: mu.PasswordHash}, nil
}
