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
	// ErrAlreadyApplied is returned when a user submits a second application.
	ErrAlreadyApplied = errors.New("application already submitted")
	// ErrAlreadyDecided is returned when deciding an application that is no
	// longer pending.
	ErrAlreadyDecided = errors.New("application already decided")
)

// ApplicationCollection defines the interface for mechanic application
// database operations
type ApplicationCollection interface {
	InsertApplication(ctx context.Context, app *models.MechanicApplication) error
	HasApplication(ctx context.Context, userID primitive.ObjectID) (bool, error)
	FindApplicationByID(ctx context.Context, id string) (*models.MechanicApplication, error)
	FindApplications(ctx context.Context) ([]models.MechanicApplication, error)
	DecideApplication(ctx context.Context, id string, status models.ApplicationStatus) (*models.MechanicApplication, error)
}

// MongoApplicationCollection implements ApplicationCollection for MongoDB
type MongoApplicationCollection struct {
	Collection *mongo.Collection
}

// InsertApplication inserts a new application. The unique index on user_id
// makes a concurrent double-submit fail here rather than create two records.
func (c *MongoApplicationCollection) InsertApplication(ctx context.Context, app *models.MechanicApplication) error {
	now := time.Now()
	app.Status = models.ApplicationPending
	app.AppliedAt = now
	app.CreatedAt = now
	app.UpdatedAt = now

	_, err := c.Collection.InsertOne(ctx, app)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyApplied
	}
	return err
}

// HasApplication reports whether a user already has an application on file.
func (c *MongoApplicationCollection) HasApplication(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	err := c.Collection.FindOne(ctx, bson.M{"user_id": userID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindApplicationByID finds an application by its ID
func (c *MongoApplicationCollection) FindApplicationByID(ctx context.Context, id string) (*models.MechanicApplication, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var app models.MechanicApplication
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

// FindApplications returns all applications, newest first.
func (c *MongoApplicationCollection) FindApplications(ctx context.Context) ([]models.MechanicApplication, error) {
	cursor, err := c.Collection.Find(ctx, bson.M{}, newestFirst())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	apps := []models.MechanicApplication{}
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// DecideApplication records an approve/reject decision. The filter only
// matches a pending application, so a decision lands exactly once even if
// two admins race.
func (c *MongoApplicationCollection) DecideApplication(ctx context.Context, id string, status models.ApplicationStatus) (*models.MechanicApplication, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var app models.MechanicApplication
	err = c.Collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "status": models.ApplicationPending},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Either the application does not exist, or it is already decided.
			if exists := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Err(); exists == nil {
				return nil, ErrAlreadyDecided
			}
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}
