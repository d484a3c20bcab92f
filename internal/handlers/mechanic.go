package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kd-debug/fix-my-ride/internal/cache"
	"github.com/kd-debug/fix-my-ride/internal/db"
	"github.com/kd-debug/fix-my-ride/internal/events"
	"github.com/kd-debug/fix-my-ride/internal/middleware"
	"github.com/kd-debug/fix-my-ride/internal/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mechanicsCacheKey stores the public approved-mechanics listing.
const mechanicsCacheKey = "mechanics:approved"

// MechanicHandler handles mechanic applications and the public mechanic
// listing
type MechanicHandler struct {
	users        db.UserCollection
	applications db.ApplicationCollection
	publisher    events.Publisher
	cache        *cache.Cache
}

// NewMechanicHandler creates a new mechanic handler
func NewMechanicHandler(users db.UserCollection, applications db.ApplicationCollection, publisher events.Publisher, c *cache.Cache) *MechanicHandler {
	return &MechanicHandler{
		users:        users,
		applications: applications,
		publisher:    publisher,
		cache:        c,
	}
}

// Apply submits a mechanic application for the acting user and
// provisionally reclassifies them as an unapproved mechanic.
func (h *MechanicHandler) Apply(w http.ResponseWriter, r *http.Request) {
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

	var req models.ApplyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Address == "" ||
		req.Experience == "" || req.Certification == "" {
		respondError(w, http.StatusBadRequest, "All application fields are required")
		return
	}

	// Friendly check first; the unique index is the real guard.
	exists, err := h.applications.HasApplication(r.Context(), userID)
	if err != nil {
		log.WithError(err).Error("Failed to check existing application")
		respondError(w, http.StatusInternalServerError, "Failed to submit application")
		return
	}
	if exists {
		respondError(w, http.StatusBadRequest, "You have already submitted an application")
		return
	}

	app := models.MechanicApplication{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Experience:    req.Experience,
		Certification: req.Certification,
	}

	if err := h.applications.InsertApplication(r.Context(), &app); err != nil {
		if errors.Is(err, db.ErrAlreadyApplied) {
			respondError(w, http.StatusBadRequest, "You have already submitted an application")
			return
		}
		log.WithError(err).Error("Failed to insert application")
		respondError(w, http.StatusInternalServerError, "Failed to submit application")
		return
	}

	// Reclassify before review: the applicant leaves the customer flow
	// immediately but stays off the public listing until approved.
	if err := h.users.SetMechanicStatus(r.Context(), userID, models.RoleMechanic, false); err != nil {
		log.WithError(err).WithField("user_id", claims.UserID).Error("Failed to reclassify applicant")
	}

	h.publisher.Publish(events.ApplicationTopic(app.ID.Hex()), events.ApplicationSubmitted, app)

	log.WithFields(log.Fields{
		"application_id": app.ID.Hex(),
		"user_id":        claims.UserID,
	}).Info("Mechanic application submitted")
	respondJSON(w, http.StatusCreated, app)
}

// ListApplications returns all applications, newest first. Admin only.
func (h *MechanicHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applications.FindApplications(r.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list applications")
		respondError(w, http.StatusInternalServerError, "Failed to list applications")
		return
	}

	respondJSON(w, http.StatusOK, apps)
}

// Decide approves or rejects a pending application. Approval vets the
// mechanic; rejection returns the applicant to a regular, fully usable
// account.
func (h *MechanicHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req models.DecideRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if !models.IsValidDecision(req.Status) {
		respondError(w, http.StatusBadRequest, "Status must be approved or rejected")
		return
	}

	app, err := h.applications.FindApplicationByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Application not found")
		return
	}
	if app.Status != models.ApplicationPending {
		respondError(w, http.StatusBadRequest, "Application already decided")
		return
	}

	user, err := h.users.FindUserByID(r.Context(), app.UserID.Hex())
	if err != nil {
		respondError(w, http.StatusNotFound, "Applicant not found")
		return
	}

	// Mutate the user first: if this write fails the application stays
	// pending and the decision can be retried cleanly.
	role, approved := models.RoleMechanic, true
	if req.Status == models.ApplicationRejected {
		role, approved = models.RoleUser, false
	}
	if err := h.users.SetMechanicStatus(r.Context(), app.UserID, role, approved); err != nil {
		log.WithError(err).WithField("user_id", app.UserID.Hex()).Error("Failed to update applicant")
		respondError(w, http.StatusInternalServerError, "Failed to update applicant")
		return
	}

	decided, err := h.applications.DecideApplication(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrAlreadyDecided):
			respondError(w, http.StatusBadRequest, "Application already decided")
		case errors.Is(err, db.ErrNotFound):
			respondError(w, http.StatusNotFound, "Application not found")
		default:
			log.WithError(err).Error("Failed to decide application")
			respondError(w, http.StatusInternalServerError, "Failed to update application")
		}
		return
	}

	h.publisher.Publish(events.ApplicationTopic(id), events.ApplicationDecided, decided)
	if err := h.cache.Del(r.Context(), mechanicsCacheKey); err != nil {
		log.WithError(err).Warn("Failed to invalidate mechanics cache")
	}

	log.WithFields(log.Fields{
		"application_id": id,
		"status":         req.Status,
	}).Info("Mechanic application decided")

	respondJSON(w, http.StatusOK, models.DecidedApplication{
		MechanicApplication: *decided,
		User: models.ApplicantSummary{
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Role:     role,
			Approved: approved,
		},
	})
}

// ListApprovedMechanics returns the public listing of vetted mechanics.
func (h *MechanicHandler) ListApprovedMechanics(w http.ResponseWriter, r *http.Request) {
	var mechanics []models.User
	if h.cache.Get(r.Context(), mechanicsCacheKey, &mechanics) {
		respondJSON(w, http.StatusOK, mechanics)
		return
	}

	mechanics, err := h.users.FindApprovedMechanics(r.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list mechanics")
		respondError(w, http.StatusInternalServerError, "Failed to list mechanics")
		return
	}

	if err := h.cache.Set(r.Context(), mechanicsCacheKey, mechanics); err != nil {
		log.WithError(err).Warn("Failed to cache mechanics listing")
	}
	respondJSON(w, http.StatusOK, mechanics)
}
