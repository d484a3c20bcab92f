// Command seed bootstraps the admin account used to review mechanic
// applications. It is idempotent: an existing admin with the configured
// email is left untouched.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/kd-debug/fix-my-ride/internal/auth"
	"github.com/kd-debug/fix-my-ride/internal/config"
	"github.com/kd-debug/fix-my-ride/internal/db"
	"github.com/kd-debug/fix-my-ride/internal/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func main() {
	cfg := config.Load()
	cfg.SetupLogger()

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	client, err := db.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(context.Background(), database); err != nil {
		log.WithError(err).Fatal("Failed to create indexes")
	}

	users := &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if existing, err := users.FindUserByEmail(ctx, email); err == nil {
		log.WithFields(log.Fields{
			"user_id": existing.ID.Hex(),
			"role":    existing.Role,
		}).Info("Admin account already exists, nothing to do")
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		log.WithError(err).Fatal("Failed to look up admin account")
	}

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	hash, err := authService.HashPassword(password)
	if err != nil {
		log.WithError(err).Fatal("Failed to hash admin password")
	}

	admin := models.User{
		ID:       primitive.NewObjectID(),
		Name:     envOr("ADMIN_NAME", "Administrator"),
		Email:    email,
		Password: hash,
		Role:     models.RoleAdmin,
	}
	if err := users.InsertUser(ctx, &admin); err != nil {
		log.WithError(err).Fatal("Failed to create admin account")
	}

	log.WithField("user_id", admin.ID.Hex()).Info("Admin account created")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
