package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus represents the lifecycle state of a service request
type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestInProgress RequestStatus = "in-progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCanceled   RequestStatus = "canceled"
)

// ServiceRequest is a customer-submitted breakdown awaiting mechanic
// assignment and resolution.
type ServiceRequest struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID  `bson:"user_id" json:"userId"`
	CustomerName       string              `bson:"customer_name" json:"customerName"`
	VehicleType        string              `bson:"vehicle_type" json:"vehicleType"`
	VehicleModel       string              `bson:"vehicle_model" json:"vehicleModel"`
	Issue              string              `bson:"issue" json:"issue"`
	Location           string              `bson:"location" json:"location"`
	AdditionalDetails  string              `bson:"additional_details,omitempty" json:"additionalDetails,omitempty"`
	Status             RequestStatus       `bson:"status" json:"status"`
	AssignedMechanicID *primitive.ObjectID `bson:"assigned_mechanic_id,omitempty" json:"assignedMechanicId,omitempty"`
	CompletedAt        *time.Time          `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	CreatedAt          time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time           `bson:"updated_at" json:"updated_at"`
}

// CreateServiceRequest represents a new service request submission
type CreateServiceRequest struct {
	CustomerName      string `json:"customerName"`
	VehicleType       string `json:"vehicleType"`
	VehicleModel      string `json:"vehicleModel"`
	Issue             string `json:"issue"`
	Location          string `json:"location"`
	AdditionalDetails string `json:"additionalDetails"`
}

// TransitionRequest represents a status change submission
type TransitionRequest struct {
	Status RequestStatus `json:"status"`
}

// transition holds the roles allowed to move a request between two states.
type transition struct {
	from, to RequestStatus
}

// transitions is the explicit table of allowed status changes.
// Completed and canceled are terminal.
var transitions = map[transition][]Role{
	{RequestPending, RequestInProgress}:   {RoleMechanic, RoleAdmin},
	{RequestPending, RequestCanceled}:     {RoleUser, RoleMechanic, RoleAdmin},
	{RequestInProgress, RequestCompleted}: {RoleMechanic, RoleAdmin},
	{RequestInProgress, RequestCanceled}:  {RoleMechanic, RoleAdmin},
}

// IsValidRequestStatus checks if a status value is one of the known states.
func IsValidRequestStatus(status RequestStatus) bool {
	switch status {
	case RequestPending, RequestInProgress, RequestCompleted, RequestCanceled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether an actor with the given role may move a
// request from one status to another.
func CanTransition(from, to RequestStatus, role Role) bool {
	allowed, ok := transitions[transition{from, to}]
	if !ok {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
