package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kd-debug/fix-my-ride/internal/db"
	"github.com/kd-debug/fix-my-ride/internal/events"
	"github.com/kd-debug/fix-my-ride/internal/middleware"
	"github.com/kd-debug/fix-my-ride/internal/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceHandler handles the service request lifecycle
type ServiceHandler struct {
	requests  db.RequestCollection
	publisher events.Publisher
}

// NewServiceHandler creates a new service request handler
func NewServiceHandler(requests db.RequestCollection, publisher events.Publisher) *ServiceHandler {
	return &ServiceHandler{
		requests:  requests,
		publisher: publisher,
	}
}

// Create submits a new service request. It always starts pending and
// unassigned.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid user identity")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req models.CreateServiceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.CustomerName == "" || req.VehicleType == "" || req.VehicleModel == "" ||
		req.Issue == "" || req.Location == "" {
		respondError(w, http.StatusBadRequest, "Customer name, vehicle type, vehicle model, issue, and location are required")
		return
	}

	serviceRequest := models.ServiceRequest{
		ID:                primitive.NewObjectID(),
		UserID:            userID,
		CustomerName:      req.CustomerName,
		VehicleType:       req.VehicleType,
		VehicleModel:      req.VehicleModel,
		Issue:             req.Issue,
		Location:          req.Location,
		AdditionalDetails: req.AdditionalDetails,
	}

	if err := h.requests.InsertRequest(r.Context(), &serviceRequest); err != nil {
		log.WithError(err).Error("Failed to insert service request")
		respondError(w, http.StatusInternalServerError, "Failed to create service request")
		return
	}

	h.publisher.Publish(events.ServiceTopic(serviceRequest.ID.Hex()), events.ServiceCreated, serviceRequest)

	log.WithFields(log.Fields{
		"request_id": serviceRequest.ID.Hex(),
		"user_id":    claims.UserID,
		"vehicle":    serviceRequest.VehicleType,
	}).Info("Service request created")
	respondJSON(w, http.StatusCreated, serviceRequest)
}

// ListMine returns the acting user's own requests, newest first.
func (h *ServiceHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid user identity")
		return
	}

	h.list(w, r, bson.M{"user_id": userID})
}

// ListPending returns unclaimed requests for mechanics to browse.
func (h *ServiceHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, bson.M{"status": models.RequestPending})
}

// ListMechanicActive returns the acting mechanic's in-progress requests.
func (h *ServiceHandler) ListMechanicActive(w http.ResponseWriter, r *http.Request) {
	h.listAssigned(w, r, models.RequestInProgress)
}

// ListMechanicCompleted returns the acting mechanic's completed requests.
func (h *ServiceHandler) ListMechanicCompleted(w http.ResponseWriter, r *http.Request) {
	h.listAssigned(w, r, models.RequestCompleted)
}

// ListAll returns every request. Admin only.
func (h *ServiceHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, bson.M{})
}

func (h *ServiceHandler) listAssigned(w http.ResponseWriter, r *http.Request, status models.RequestStatus) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	mechanicID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid user identity")
		return
	}

	h.list(w, r, bson.M{"assigned_mechanic_id": mechanicID, "status": status})
}

func (h *ServiceHandler) list(w http.ResponseWriter, r *http.Request, filter bson.M) {
	requests, err := h.requests.FindRequests(r.Context(), filter)
	if err != nil {
		log.WithError(err).Error("Failed to list service requests")
		respondError(w, http.StatusInternalServerError, "Failed to list service requests")
		return
	}
	respondJSON(w, http.StatusOK, requests)
}

// UpdateStatus moves a request through its lifecycle. Claiming (the move
// to in-progress) assigns the acting mechanic atomically; the first
// claimer wins and the assignment is never overwritten.
func (h *ServiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}

	id := chi.URLParam(r, "id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req models.TransitionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !models.IsValidRequestStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	current, err := h.requests.FindRequestByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Service request not found")
		return
	}

	if !models.CanTransition(current.Status, req.Status, claims.Role) {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("Cannot move request from %s to %s", current.Status, req.Status))
		return
	}

	var updated *models.ServiceRequest
	if req.Status == models.RequestInProgress {
		mechanicID, idErr := primitive.ObjectIDFromHex(claims.UserID)
		if idErr != nil {
			respondError(w, http.StatusUnauthorized, "Invalid user identity")
			return
		}
		updated, err = h.requests.ClaimRequest(r.Context(), id, mechanicID)
	} else {
		updated, err = h.requests.UpdateRequestStatus(r.Context(), id, current.Status, req.Status)
	}

	if err != nil {
		switch {
		case errors.Is(err, db.ErrAlreadyClaimed):
			respondError(w, http.StatusBadRequest, "Request already claimed by another mechanic")
		case errors.Is(err, db.ErrStatusChanged):
			respondError(w, http.StatusBadRequest, "Request status changed, reload and retry")
		case errors.Is(err, db.ErrNotFound):
			respondError(w, http.StatusNotFound, "Service request not found")
		default:
			log.WithError(err).Error("Failed to update service request")
			respondError(w, http.StatusInternalServerError, "Failed to update service request")
		}
		return
	}

	h.publisher.Publish(events.ServiceTopic(id), events.ServiceStatusChanged, updated)

	log.WithFields(log.Fields{
		"request_id": id,
		"status":     updated.Status,
		"actor":      claims.UserID,
	}).Info("Service request status updated")
	respondJSON(w, http.StatusOK, updated)
}
