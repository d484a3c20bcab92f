package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplicationStatus represents the review state of a mechanic application
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// MechanicApplication is a user's request to be reclassified as a
// service provider. At most one exists per user.
type MechanicApplication struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"userId"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	Phone         string             `bson:"phone" json:"phone"`
	Address       string             `bson:"address" json:"address"`
	Experience    string             `bson:"experience" json:"experience"`
	Certification string             `bson:"certification" json:"certification"`
	Status        ApplicationStatus  `bson:"status" json:"status"`
	AppliedAt     time.Time          `bson:"applied_at" json:"appliedAt"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// ApplyRequest represents a mechanic application submission
type ApplyRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Experience    string `json:"experience"`
	Certification string `json:"certification"`
}

// DecideRequest represents an admin decision on an application
type DecideRequest struct {
	Status ApplicationStatus `json:"status"`
}

// ApplicantSummary is the projection of the owning user returned
// alongside a decided application.
type ApplicantSummary struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Role     Role               `json:"role"`
	Approved bool               `json:"approved"`
}

// DecidedApplication is the response body for an application decision.
type DecidedApplication struct {
	MechanicApplication
	User ApplicantSummary `json:"user"`
}

// IsValidDecision checks that a requested decision is one an admin may
// record. Pending is not a decision.
func IsValidDecision(status ApplicationStatus) bool {
	return status == ApplicationApproved || status == ApplicationRejected
}
