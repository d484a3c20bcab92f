package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kd-debug/fix-my-ride/internal/auth"
	"github.com/kd-debug/fix-my-ride/internal/db"
	"github.com/kd-debug/fix-my-ride/internal/middleware"
	"github.com/kd-debug/fix-my-ride/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testAuthService() *auth.Service {
	return auth.NewService("test-secret", time.Hour)
}

// authedRequest builds a request carrying the given actor's claims, the
// way the auth middleware would.
func authedRequest(method, path string, body []byte, claims *models.Claims) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBuffer(body))
	if claims != nil {
		ctx := context.WithValue(req.Context(), middleware.UserContextKey, claims)
		req = req.WithContext(ctx)
	}
	return req
}

func TestUserHandler_Register(t *testing.T) {
	t.Run("role defaults to user", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewUserHandler(testAuthService(), users)

		var inserted *models.User
		users.On("InsertUser", mock.Anything, mock.AnythingOfType("*models.User")).
			Run(func(args mock.Arguments) {
				inserted = args.Get(1).(*models.User)
			}).Return(nil)

		body, _ := json.Marshal(models.RegisterRequest{
			Name:     "Alice Driver",
			Email:    "alice@example.com",
			Password: "password123",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Register(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, inserted)
		assert.Equal(t, models.RoleUser, inserted.Role)
		assert.False(t, inserted.Approved)

		var resp models.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "alice@example.com", resp.User.Email)
	})

	t.Run("mechanic registers unapproved", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewUserHandler(testAuthService(), users)

		var inserted *models.User
		users.On("InsertUser", mock.Anything, mock.AnythingOfType("*models.User")).
			Run(func(args mock.Arguments) {
				inserted = args.Get(1).(*models.User)
			}).Return(nil)

		body, _ := json.Marshal(models.RegisterRequest{
			Name:     "Bob Wrench",
			Email:    "bob@example.com",
			Password: "password123",
			Role:     models.RoleMechanic,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Register(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, inserted)
		assert.Equal(t, models.RoleMechanic, inserted.Role)
		assert.False(t, inserted.Approved, "mechanic must stay unapproved until reviewed")
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewUserHandler(testAuthService(), users)

		users.On("InsertUser", mock.Anything, mock.Anything).Return(db.ErrEmailTaken)

		body, _ := json.Marshal(models.RegisterRequest{
			Name:     "Alice Driver",
			Email:    "alice@example.com",
			Password: "password123",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Register(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "already registered")
	})

	t.Run("short password rejected", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewUserHandler(testAuthService(), users)

		body, _ := json.Marshal(models.RegisterRequest{
			Name:     "Alice Driver",
			Email:    "alice@example.com",
			Password: "short",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Register(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		users.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewUserHandler(testAuthService(), users)

		body, _ := json.Marshal(models.RegisterRequest{
			Name:     "Alice Driver",
			Email:    "alice@example.com",
			Password: "password123",
			Role:     "superuser",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Register(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserHandler_Login(t *testing.T) {
	authService := testAuthService()
	hash, err := authService.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     "Alice Driver",
		Email:    "alice@example.com",
		Password: hash,
		Role:     models.RoleUser,
		Active:   true,
	}

	t.Run("successful login", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewUserHandler(authService, users)
		users.On("FindUserByEmail", mock.Anything, "alice@example.com").Return(user, nil)

		body, _ := json.Marshal(models.LoginRequest{Email: "alice@example.com", Password: "password123"})
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)

		claims, err := authService.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.Hex(), claims.UserID)
		assert.Equal(t, models.RoleUser, claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewUserHandler(authService, users)
		users.On("FindUserByEmail", mock.Anything, "alice@example.com").Return(user, nil)

		body, _ := json.Marshal(models.LoginRequest{Email: "alice@example.com", Password: "wrongpass"})
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewUserHandler(authService, users)
		users.On("FindUserByEmail", mock.Anything, "ghost@example.com").Return(nil, db.ErrNotFound)

		body, _ := json.Marshal(models.LoginRequest{Email: "ghost@example.com", Password: "password123"})
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deactivated account", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewUserHandler(authService, users)
		inactive := *user
		inactive.Active = false
		users.On("FindUserByEmail", mock.Anything, "alice@example.com").Return(&inactive, nil)

		body, _ := json.Marshal(models.LoginRequest{Email: "alice@example.com", Password: "password123"})
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUserHandler_Profile(t *testing.T) {
	authService := testAuthService()
	user := &models.User{
		ID:     primitive.NewObjectID(),
		Name:   "Alice Driver",
		Email:  "alice@example.com",
		Role:   models.RoleUser,
		Active: true,
	}
	claims := &models.Claims{UserID: user.ID.Hex(), Email: user.Email, Role: user.Role}

	t.Run("get own profile", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewUserHandler(authService, users)
		users.On("FindUserByID", mock.Anything, user.ID.Hex()).Return(user, nil)

		w := httptest.NewRecorder()
		handler.GetProfile(w, authedRequest(http.MethodGet, "/api/users/profile", nil, claims))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "alice@example.com")
	})

	t.Run("update rejects taken email", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewUserHandler(authService, users)
		other := &models.User{ID: primitive.NewObjectID(), Email: "taken@example.com"}
		users.On("FindUserByID", mock.Anything, user.ID.Hex()).Return(user, nil)
		users.On("FindUserByEmail", mock.Anything, "taken@example.com").Return(other, nil)

		body, _ := json.Marshal(models.UpdateProfileRequest{Email: "taken@example.com"})
		w := httptest.NewRecorder()
		handler.UpdateProfile(w, authedRequest(http.MethodPut, "/api/users/profile", body, claims))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		users.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewUserHandler(authService, users)

		w := httptest.NewRecorder()
		handler.GetProfile(w, httptest.NewRequest(http.MethodGet, "/api/users/profile", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUserHandler_ListUsers(t *testing.T) {
	users := new(MockUserCollection)
	handler := NewUserHandler(testAuthService(), users)

	all := []models.User{
		{ID: primitive.NewObjectID(), Name: "Alice", Email: "alice@example.com", Password: "secret-hash", Role: models.RoleUser},
		{ID: primitive.NewObjectID(), Name: "Bob", Email: "bob@example.com", Password: "secret-hash", Role: models.RoleMechanic},
	}
	users.On("FindUsers", mock.Anything, bson.M{}).Return(all, nil)

	admin := &models.Claims{UserID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}
	w := httptest.NewRecorder()
	handler.ListUsers(w, authedRequest(http.MethodGet, "/api/users", nil, admin))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-hash", "password hashes must never serialize")

	var got []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}
