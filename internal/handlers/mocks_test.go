package handlers

import (
	"context"
	"sync"

	"github.com/kd-debug/fix-my-ride/internal/models"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserCollection is a mock implementation of db.UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) FindApprovedMechanics(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) SetMechanicStatus(ctx context.Context, id primitive.ObjectID, role models.Role, approved bool) error {
	args := m.Called(ctx, id, role, approved)
	return args.Error(0)
}

// MockApplicationCollection is a mock implementation of db.ApplicationCollection
type MockApplicationCollection struct {
	mock.Mock
}

func (m *MockApplicationCollection) InsertApplication(ctx context.Context, app *models.MechanicApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockApplicationCollection) HasApplication(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockApplicationCollection) FindApplicationByID(ctx context.Context, id string) (*models.MechanicApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MechanicApplication), args.Error(1)
}

func (m *MockApplicationCollection) FindApplications(ctx context.Context) ([]models.MechanicApplication, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MechanicApplication), args.Error(1)
}

func (m *MockApplicationCollection) DecideApplication(ctx context.Context, id string, status models.ApplicationStatus) (*models.MechanicApplication, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MechanicApplication), args.Error(1)
}

// MockRequestCollection is a mock implementation of db.RequestCollection
type MockRequestCollection struct {
	mock.Mock
}

func (m *MockRequestCollection) InsertRequest(ctx context.Context, req *models.ServiceRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockRequestCollection) FindRequestByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *MockRequestCollection) FindRequests(ctx context.Context, filter bson.M) ([]models.ServiceRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceRequest), args.Error(1)
}

func (m *MockRequestCollection) ClaimRequest(ctx context.Context, id string, mechanicID primitive.ObjectID) (*models.ServiceRequest, error) {
	args := m.Called(ctx, id, mechanicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

func (m *MockRequestCollection) UpdateRequestStatus(ctx context.Context, id string, from, to models.RequestStatus) (*models.ServiceRequest, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceRequest), args.Error(1)
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	types  []string
}

func (p *recordingPublisher) Publish(topic string, eventType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.types = append(p.types, eventType)
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) published(eventType string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.types {
		if t == eventType {
			return true
		}
	}
	return false
}
