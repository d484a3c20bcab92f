package db

import (
	"context"
	"errors"
	"time"

	"github.com/kd-debug/fix-my-ride/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrAlreadyClaimed is returned when a request was claimed by another
	// mechanic between read and write.
	ErrAlreadyClaimed = errors.New("request already claimed")
	// ErrStatusChanged is returned when a transition lost a race against a
	// concurrent status update.
	ErrStatusChanged = errors.New("request status changed concurrently")
)

// RequestCollection defines the interface for service request database
// operations
type RequestCollection interface {
	InsertRequest(ctx context.Context, req *models.ServiceRequest) error
	FindRequestByID(ctx context.Context, id string) (*models.ServiceRequest, error)
	FindRequests(ctx context.Context, filter bson.M) ([]models.ServiceRequest, error)
	ClaimRequest(ctx context.Context, id string, mechanicID primitive.ObjectID) (*models.ServiceRequest, error)
	UpdateRequestStatus(ctx context.Context, id string, from, to models.RequestStatus) (*models.ServiceRequest, error)
}

// MongoRequestCollection implements RequestCollection for MongoDB
type MongoRequestCollection struct {
	Collection *mongo.Collection
}

// InsertRequest inserts a new service request with status pending and no
// assigned mechanic.
func (c *MongoRequestCollection) InsertRequest(ctx context.Context, req *models.ServiceRequest) error {
	req.Status = models.RequestPending
	req.AssignedMechanicID = nil
	req.CompletedAt = nil
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, req)
	return err
}

// FindRequestByID finds a service request by its ID
func (c *MongoRequestCollection) FindRequestByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var req models.ServiceRequest
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindRequests returns requests matching a filter, newest first.
func (c *MongoRequestCollection) FindRequests(ctx context.Context, filter bson.M) ([]models.ServiceRequest, error) {
	cursor, err := c.Collection.Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []models.ServiceRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// ClaimRequest moves a pending, unassigned request to in-progress and
// assigns the claiming mechanic in one conditional write. First claimer
// wins; everyone else gets ErrAlreadyClaimed.
func (c *MongoRequestCollection) ClaimRequest(ctx context.Context, id string, mechanicID primitive.ObjectID) (*models.ServiceRequest, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{
		"_id":                  objectID,
		"status":               models.RequestPending,
		"assigned_mechanic_id": nil,
	}
	update := bson.M{"$set": bson.M{
		"status":               models.RequestInProgress,
		"assigned_mechanic_id": mechanicID,
		"updated_at":           time.Now(),
	}}

	var req models.ServiceRequest
	err = c.Collection.FindOneAndUpdate(
		ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if exists := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Err(); exists == nil {
				return nil, ErrAlreadyClaimed
			}
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// UpdateRequestStatus moves a request from one status to another. The
// filter pins the expected current status so a concurrent transition
// surfaces as ErrStatusChanged instead of clobbering state. Completion
// stamps completed_at.
func (c *MongoRequestCollection) UpdateRequestStatus(ctx context.Context, id string, from, to models.RequestStatus) (*models.ServiceRequest, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"status": to, "updated_at": time.Now()}
	if to == models.RequestCompleted {
		set["completed_at"] = time.Now()
	}

	var req models.ServiceRequest
	err = c.Collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "status": from},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if exists := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Err(); exists == nil {
				return nil, ErrStatusChanged
			}
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}
