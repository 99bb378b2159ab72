package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/buyfy/buyfy-api/middleware"
	"github.com/buyfy/buyfy-api/models"
	"github.com/buyfy/buyfy-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// fakeAuthStore keeps a single user in memory and applies the update
// documents the handlers issue, enough to drive the credential flows.
type fakeAuthStore struct {
	user      *models.User
	resetHash string
	updates   []bson.M
}

func (f *fakeAuthStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, mongo.ErrNoDocuments
	}
	u := *f.user
	return &u, nil
}

func (f *fakeAuthStore) FindByResetCode(ctx context.Context, email, codeHash string) (*models.User, error) {
	if f.user == nil || f.user.Email != email || f.resetHash == "" || f.resetHash != codeHash {
		return nil, mongo.ErrNoDocuments
	}
	u := *f.user
	return &u, nil
}

func (f *fakeAuthStore) UpdateByID(ctx context.Context, id bson.ObjectID, update bson.M) error {
	f.updates = append(f.updates, update)
	if set, ok := update["$set"].(bson.M); ok {
		if hash, ok := set["passwordHash"].(string); ok {
			f.user.PasswordHash = hash
		}
		if in, ok := set["reactivationInProgress"].(bool); ok {
			f.user.ReactivationInProgress = in
		}
	}
	if unset, ok := update["$unset"].(bson.M); ok {
		if _, ok := unset["passwordResetCode"]; ok {
			f.resetHash = ""
		}
	}
	return nil
}

func (f *fakeAuthStore) Insert(ctx context.Context, user *models.User) (bson.ObjectID, error) {
	u := *user
	u.ID = bson.NewObjectID()
	f.user = &u
	return u.ID, nil
}

func authRouter(store AuthStore, scheduler *utils.ReactivationScheduler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/auth/login", Login(store, scheduler))
	r.POST("/auth/resetPassword", ResetPassword(store))
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func storedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	return &models.User{
		ID:           bson.NewObjectID(),
		Name:         "Jane",
		Email:        "jane@example.com",
		PasswordHash: hash,
		Role:         models.RoleUser,
		Active:       true,
	}
}

func TestLoginSucceedsWithValidCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	store := &fakeAuthStore{user: storedUser(t, "supersecret")}

	r := authRouter(store, utils.NewReactivationScheduler())
	w := postJSON(r, "/auth/login", gin.H{"email": "jane@example.com", "password": "supersecret"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")
}

func TestLoginGivesOneGenericMessageForBadCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	store := &fakeAuthStore{user: storedUser(t, "supersecret")}
	r := authRouter(store, utils.NewReactivationScheduler())

	unknown := postJSON(r, "/auth/login", gin.H{"email": "nobody@example.com", "password": "supersecret"})
	wrongPass := postJSON(r, "/auth/login", gin.H{"email": "jane@example.com", "password": "not-the-password"})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Contains(t, unknown.Body.String(), "Invalid email or password")
	// unknown email and wrong password are indistinguishable
	assert.Equal(t, unknown.Body.String(), wrongPass.Body.String())
}

func TestLoginDeactivatedSchedulesReactivationOnce(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REACTIVATION_DELAY_SECONDS", "600")

	user := storedUser(t, "supersecret")
	user.Active = false
	store := &fakeAuthStore{user: user}
	scheduler := utils.NewReactivationScheduler()
	r := authRouter(store, scheduler)

	first := postJSON(r, "/auth/login", gin.H{"email": "jane@example.com", "password": "supersecret"})
	assert.Equal(t, http.StatusForbidden, first.Code)
	assert.Contains(t, first.Body.String(), "will be reactivated shortly")
	assert.True(t, scheduler.Pending(user.ID.Hex()))
	assert.True(t, store.user.ReactivationInProgress)

	// a second attempt while pending gets the distinct in-progress reply
	second := postJSON(r, "/auth/login", gin.H{"email": "jane@example.com", "password": "supersecret"})
	assert.Equal(t, http.StatusForbidden, second.Code)
	assert.Contains(t, second.Body.String(), "currently being reactivated")
	assert.NotEqual(t, first.Body.String(), second.Body.String())
}

func TestResetPasswordCodeIsSingleUse(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	store := &fakeAuthStore{
		user:      storedUser(t, "supersecret"),
		resetHash: utils.HashResetCode("123456"),
	}
	r := authRouter(store, utils.NewReactivationScheduler())

	body := gin.H{"email": "jane@example.com", "resetCode": "123456", "newPassword": "brandnewpass"}

	first := postJSON(r, "/auth/resetPassword", body)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), "token")
	assert.Empty(t, store.resetHash)
	assert.NoError(t, utils.CheckPassword(store.user.PasswordHash, "brandnewpass"))

	second := postJSON(r, "/auth/resetPassword", body)
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Contains(t, second.Body.String(), "Invalid or expired reset code")
}

func TestResetPasswordRejectsWrongCode(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	store := &fakeAuthStore{
		user:      storedUser(t, "supersecret"),
		resetHash: utils.HashResetCode("123456"),
	}
	r := authRouter(store, utils.NewReactivationScheduler())

	w := postJSON(r, "/auth/resetPassword", gin.H{
		"email": "jane@example.com", "resetCode": "654321", "newPassword": "brandnewpass",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, store.resetHash)
}
