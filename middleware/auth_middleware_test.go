package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/buyfy/buyfy-api/models"
	"github.com/buyfy/buyfy-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type fakeUsers struct {
	user *models.User
	err  error
}

func (f fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func protectedRouter(loader UserLoader, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	handlers := append([]gin.HandlerFunc{Protect(loader)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})
	r.GET("/secure", handlers...)
	return r
}

func doGet(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func activeUser() *models.User {
	return &models.User{
		ID:     bson.NewObjectID(),
		Name:   "Jane",
		Email:  "jane@example.com",
		Role:   models.RoleUser,
		Active: true,
	}
}

func TestProtectRejectsMissingHeader(t *testing.T) {
	r := protectedRouter(fakeUsers{user: activeUser()})

	w := doGet(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "not logged in")
}

func TestProtectRejectsMalformedHeader(t *testing.T) {
	r := protectedRouter(fakeUsers{user: activeUser()})

	w := doGet(r, "Token abc123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectRejectsInvalidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := protectedRouter(fakeUsers{user: activeUser()})

	w := doGet(r, "Bearer not-a-real-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")
}

func TestProtectRejectsUnknownUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	user := activeUser()
	token, err := utils.GenerateToken(user.ID.Hex())
	require.NoError(t, err)

	r := protectedRouter(fakeUsers{err: errors.New("not found")})

	w := doGet(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "no longer exists")
}

func TestProtectRejectsDeactivatedUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	user := activeUser()
	user.Active = false
	token, err := utils.GenerateToken(user.ID.Hex())
	require.NoError(t, err)

	r := protectedRouter(fakeUsers{user: user})

	w := doGet(r, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "deactivated")
}

func TestProtectRejectsTokenIssuedBeforePasswordChange(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	user := activeUser()
	token, err := utils.GenerateToken(user.ID.Hex())
	require.NoError(t, err)

	changed := time.Now().Add(time.Minute)
	user.PasswordChangedAt = &changed

	r := protectedRouter(fakeUsers{user: user})

	w := doGet(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "password has changed")
}

func TestProtectAttachesUserOnSuccess(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	user := activeUser()
	token, err := utils.GenerateToken(user.ID.Hex())
	require.NoError(t, err)

	var seen *models.User
	r := protectedRouter(fakeUsers{user: user}, func(c *gin.Context) {
		seen = CurrentUser(c)
		c.Next()
	})

	w := doGet(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)
}

func TestAllowedToRejectsRoleOutsideAllowList(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	user := activeUser()
	token, err := utils.GenerateToken(user.ID.Hex())
	require.NoError(t, err)

	r := protectedRouter(fakeUsers{user: user}, AllowedTo(models.RoleAdmin, models.RoleManager))

	w := doGet(r, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "not authorized")
}

func TestAllowedToPassesMatchingRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	user := activeUser()
	user.Role = models.RoleAdmin
	token, err := utils.GenerateToken(user.ID.Hex())
	require.NoError(t, err)

	r := protectedRouter(fakeUsers{user: user}, AllowedTo(models.RoleAdmin))

	w := doGet(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}
