package workStatusRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"glowbook/database/repository"
	"glowbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWorkStatusRepo implements WorkStatusRepository using MongoDB.
type MongoWorkStatusRepo struct {
	coll *mongo.Collection
}

func NewMongoWorkStatusRepo(db *mongo.Database) *MongoWorkStatusRepo {
	return &MongoWorkStatusRepo{coll: db.Collection("work_status")}
}

func (r *MongoWorkStatusRepo) Get(ctx context.Context, stylistID string) (*models.WorkStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	var ws models.WorkStatus
	if err := r.coll.FindOne(ctx, bson.M{"stylist_id": stylistID}).Decode(&ws); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching work status for %s: %w", stylistID, err)
	}
	return &ws, nil
}

func (r *MongoWorkStatusRepo) Save(ctx context.Context, ws *models.WorkStatus, expectedVersion int) error {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	next := *ws
	next.Version = expectedVersion + 1

	if expectedVersion == 0 {
		if _, err := r.coll.InsertOne(ctx, next); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("error creating work status for %s: %w", ws.StylistID, err)
		}
		ws.Version = next.Version
		return nil
	}

	filter := bson.M{"stylist_id": ws.StylistID, "version": expectedVersion}
	res, err := r.coll.ReplaceOne(ctx, filter, next)
	if err != nil {
		return fmt.Errorf("error updating work status for %s: %w", ws.StylistID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrConflict
	}
	ws.Version = next.Version
	return nil
}

func (r *MongoWorkStatusRepo) ListAlertDue(ctx context.Context, cutoff time.Time) ([]models.WorkStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	filter := bson.M{
		"status":                 models.WorkWorking,
		"alert_sent":             false,
		"estimated_available_at": bson.M{"$lte": cutoff},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "estimated_available_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error finding due work alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.WorkStatus
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding work statuses: %w", err)
	}
	return out, nil
}

// EnsureIndexes creates the unique stylist index and the alert scan index.
func (r *MongoWorkStatusRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "stylist_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_stylist_id"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "alert_sent", Value: 1}, {Key: "estimated_available_at", Value: 1}},
			Options: options.Index().SetName("alert_due_idx"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create work status indexes: %w", err)
	}
	return nil
}
