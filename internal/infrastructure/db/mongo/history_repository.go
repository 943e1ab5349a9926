package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

type HistoryRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewHistoryRepository(db *mongo.Database) *HistoryRepository {
	return &HistoryRepository{db: db, coll: db.Collection(collectionHistory)}
}

type historyDoc struct {
	ID                       int64     `bson:"_id"`
	UserID                   int64     `bson:"user_id"`
	DiseaseName              string    `bson:"disease_name"`
	Confidence               string    `bson:"confidence"`
	Symptoms                 []string  `bson:"symptoms"`
	Treatment                string    `bson:"treatment"`
	FertilizerRecommendation string    `bson:"fertilizer_recommendation"`
	PreventionTips           []string  `bson:"prevention_tips"`
	Timestamp                time.Time `bson:"timestamp"`
}

func (d historyDoc) toDomain() domain.HistoryRecord {
	return domain.HistoryRecord{
		ID:     d.ID,
		UserID: d.UserID,
		Report: domain.Report{
			DiseaseName:              d.DiseaseName,
			Confidence:               d.Confidence,
			Symptoms:                 d.Symptoms,
			Treatment:                d.Treatment,
			FertilizerRecommendation: d.FertilizerRecommendation,
			PreventionTips:           d.PreventionTips,
		}.Normalized(),
		Timestamp: d.Timestamp.UTC(),
	}
}

func (r *HistoryRepository) Insert(ctx context.Context, rec *domain.HistoryRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, collectionHistory)
	if err != nil {
		return 0, err
	}

	rep := rec.Report.Normalized()
	doc := historyDoc{
		ID:                       id,
		UserID:                   rec.UserID,
		DiseaseName:              rep.DiseaseName,
		Confidence:               rep.Confidence,
		Symptoms:                 rep.Symptoms,
		Treatment:                rep.Treatment,
		FertilizerRecommendation: rep.FertilizerRecommendation,
		PreventionTips:           rep.PreventionTips,
		Timestamp:                rec.Timestamp.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}
	rec.ID = id
	return id, nil
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.HistoryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer cur.Close(ctx)

	records := make([]domain.HistoryRecord, 0, limit)
	for cur.Next(ctx) {
		var d historyDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		records = append(records, d.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

func (r *HistoryRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return false, fmt.Errorf("delete history: %w", err)
	}
	return res.DeletedCount > 0, nil
}
