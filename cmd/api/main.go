package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kd-debug/fix-my-ride/internal/auth"
	"github.com/kd-debug/fix-my-ride/internal/cache"
	"github.com/kd-debug/fix-my-ride/internal/config"
	"github.com/kd-debug/fix-my-ride/internal/db"
	"github.com/kd-debug/fix-my-ride/internal/events"
	"github.com/kd-debug/fix-my-ride/internal/handlers"
	"github.com/kd-debug/fix-my-ride/internal/middleware"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	cfg.SetupLogger()

	client, err := db.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(context.Background(), database); err != nil {
		log.WithError(err).Fatal("Failed to create indexes")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.MQTTBroker != "" {
		mqttPub, err := events.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			log.WithError(err).Warn("MQTT broker unreachable, lifecycle events disabled")
		} else {
			publisher = mqttPub
			defer mqttPub.Close()
		}
	}

	listingCache := cache.New(cfg.RedisAddr, cfg.RedisTTL)
	defer listingCache.Close()
	if cfg.RedisAddr != "" {
		log.WithField("addr", cfg.RedisAddr).Info("Mechanic listing cache enabled")
	}

	users := &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)}
	applications := &db.MongoApplicationCollection{Collection: database.Collection(db.ApplicationsCollection)}
	requests := &db.MongoRequestCollection{Collection: database.Collection(db.RequestsCollection)}

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:        middleware.NewAuthMiddleware(authService),
		RateLimit:   middleware.NewRateLimitMiddleware(),
		Users:       handlers.NewUserHandler(authService, users),
		Mechanics:   handlers.NewMechanicHandler(users, applications, publisher, listingCache),
		Services:    handlers.NewServiceHandler(requests, publisher),
		Health:      handlers.NewHealthHandler(client),
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
