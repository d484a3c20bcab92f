package handlers

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	client *mongo.Client
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(client *mongo.Client) *HealthHandler {
	return &HealthHandler{client: client}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "mongo": "up"}
	code := http.StatusOK
	if h.client == nil || h.client.Ping(ctx, nil) != nil {
		status["status"] = "degraded"
		status["mongo"] = "down"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, status)
}
