package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/buyfy/buyfy-api/models"
	"github.com/buyfy/buyfy-api/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// UserLoader resolves the user referenced by a token claim. The mongo
// implementation lives below; tests substitute a fake.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// MongoUsers loads users from the users collection.
type MongoUsers struct {
	Col *mongo.Collection
}

func (m MongoUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := m.Col.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Protect authenticates the caller: bearer token, signature and expiry,
// the user behind the claim, account state, and password freshness.
// On success the loaded user is attached to the request context.
func Protect(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abort(c, utils.NewAPIError("You are not logged in, please login to access this route.", http.StatusUnauthorized))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims, err := utils.ValidateToken(tokenStr, os.Getenv("JWT_SECRET"))
		if err != nil {
			abort(c, utils.NewAPIError("Invalid or expired token, please login again.", http.StatusUnauthorized))
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			abort(c, utils.NewAPIError("The user belonging to this token no longer exists.", http.StatusUnauthorized))
			return
		}

		if !user.Active {
			// account-state failure, not an authentication one
			abort(c, utils.NewAPIError("Your account is deactivated, please login again to activate it.", http.StatusForbidden))
			return
		}

		// a token issued before the last password change is stale
		if user.PasswordChangedAt != nil && claims.IssuedAt != nil &&
			user.PasswordChangedAt.After(claims.IssuedAt.Time) {
			abort(c, utils.NewAPIError("Your password has changed, please login again.", http.StatusUnauthorized))
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

// AllowedTo authorizes the authenticated user against the route's role
// allow-list by set membership.
func AllowedTo(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !allowed[user.Role] {
			abort(c, utils.NewAPIError("You are not authorized to access this route.", http.StatusForbidden))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user attached by Protect, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func abort(c *gin.Context, err *utils.APIError) {
	_ = c.Error(err)
	c.Abort()
}
