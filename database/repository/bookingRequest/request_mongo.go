package bookingRequestRepo

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

// MongoBookingRequestRepo implements BookingRequestRepository using MongoDB.
type MongoBookingRequestRepo struct {
	client   *mongo.Client
	coll     *mongo.Collection
	bookings *mongo.Collection
}

// NewMongoBookingRequestRepo wires the request collection together with the bookings collection
// so confirmations can commit both in one transaction.
func NewMongoBookingRequestRepo(client *mongo.Client, db *mongo.Database) *MongoBookingRequestRepo {
	return &MongoBookingRequestRepo{
		client:   client,
		coll:     db.Collection("booking_requests"),
		bookings: db.Collection("bookings"),
	}
}

func (r *MongoBookingRequestRepo) Create(ctx context.Context, req *models.BookingRequest) error {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("error creating booking request: %w", err)
	}
	return nil
}

func (r *MongoBookingRequestRepo) GetByID(ctx context.Context, id string) (*models.BookingRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	var req models.BookingRequest
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking request %s: %w", id, err)
	}
	return &req, nil
}

func transitionUpdate(t models.RequestTransition) bson.M {
	set := bson.M{"status": t.To}
	if t.StylistRespondedAt != nil {
		set["stylist_responded_at"] = *t.StylistRespondedAt
	}
	if t.StylistResponse != nil {
		set["stylist_response"] = *t.StylistResponse
	}
	if t.DeclineReason != "" {
		set["decline_reason"] = t.DeclineReason
	}
	if t.ConfirmBy != nil {
		set["confirm_by"] = *t.ConfirmBy
	}
	if t.CancelReason != "" {
		set["cancel_reason"] = t.CancelReason
	}
	if t.BookingID != "" {
		set["booking_id"] = t.BookingID
	}
	if t.ResolvedAt != nil {
		set["resolved_at"] = *t.ResolvedAt
	}
	return bson.M{"$set": set, "$inc": bson.M{"version": 1}}
}

func (r *MongoBookingRequestRepo) Transition(ctx context.Context, id string, from models.BookingRequestStatus, version int, t models.RequestTransition) (*models.BookingRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()
	return r.transition(ctx, id, from, version, t)
}

func (r *MongoBookingRequestRepo) transition(ctx context.Context, id string, from models.BookingRequestStatus, version int, t models.RequestTransition) (*models.BookingRequest, error) {
	filter := bson.M{"id": id, "status": from, "version": version}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.BookingRequest
	err := r.coll.FindOneAndUpdate(ctx, filter, transitionUpdate(t), opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("error transitioning booking request %s: %w", id, err)
	}
	return &updated, nil
}

func (r *MongoBookingRequestRepo) TransitionWithBooking(ctx context.Context, id string, from models.BookingRequestStatus, version int, t models.RequestTransition, booking *models.Booking) (*models.BookingRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		updated, err := r.transition(sessCtx, id, from, version, t)
		if err != nil {
			return nil, err
		}
		if _, err := r.bookings.InsertOne(sessCtx, booking); err != nil {
			return nil, fmt.Errorf("error inserting booking: %w", err)
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.BookingRequest), nil
}

func (r *MongoBookingRequestRepo) ListByStylist(ctx context.Context, stylistID string, status models.BookingRequestStatus) ([]models.BookingRequest, error) {
	filter := bson.M{"stylist_id": stylistID}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *MongoBookingRequestRepo) ListByClient(ctx context.Context, clientID string, status models.BookingRequestStatus) ([]models.BookingRequest, error) {
	filter := bson.M{"client_id": clientID}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *MongoBookingRequestRepo) ListPendingExpired(ctx context.Context, now time.Time, limit int) ([]models.BookingRequest, error) {
	filter := bson.M{"status": models.RequestPending, "expires_at": bson.M{"$lt": now}}
	opts := options.Find().SetSort(bson.D{{Key: "expires_at", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *MongoBookingRequestRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.BookingRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.QueryTimeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding booking requests: %w", err)
	}
	defer cursor.Close(ctx)

	var reqs []models.BookingRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("error decoding booking requests: %w", err)
	}
	return reqs, nil
}
