package controllers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/buyfy/buyfy-api/database"
	"github.com/buyfy/buyfy-api/dto"
	"github.com/buyfy/buyfy-api/models"
	"github.com/buyfy/buyfy-api/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// AuthStore is the persistence surface of the credential flows. The
// mongo implementation lives below; tests substitute a fake.
type AuthStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetCode(ctx context.Context, email, codeHash string) (*models.User, error)
	UpdateByID(ctx context.Context, id bson.ObjectID, update bson.M) error
	Insert(ctx context.Context, user *models.User) (bson.ObjectID, error)
}

// MongoAuthStore reads and writes the users collection.
type MongoAuthStore struct {
	Col *mongo.Collection
}

func (s MongoAuthStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.Col.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s MongoAuthStore) FindByResetCode(ctx context.Context, email, codeHash string) (*models.User, error) {
	var user models.User
	err := s.Col.FindOne(ctx, bson.M{
		"email":                  email,
		"passwordResetCode":      codeHash,
		"passwordResetExpiresAt": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s MongoAuthStore) UpdateByID(ctx context.Context, id bson.ObjectID, update bson.M) error {
	_, err := s.Col.UpdateByID(ctx, id, update)
	return err
}

func (s MongoAuthStore) Insert(ctx context.Context, user *models.User) (bson.ObjectID, error) {
	res, err := s.Col.InsertOne(ctx, user)
	if err != nil {
		return bson.ObjectID{}, err
	}
	return res.InsertedID.(bson.ObjectID), nil
}

// POST /api/v1/auth/signup
func Signup(store AuthStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body dto.SignupDTO
		if !bindAndValidate(c, &body) {
			return
		}

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			failInternal(c, err)
			return
		}

		now := time.Now().UTC()
		user := models.User{
			Name:         strings.TrimSpace(body.Name),
			Slug:         utils.GenerateSlug(body.Name),
			Email:        strings.ToLower(strings.TrimSpace(body.Email)),
			Phone:        body.Phone,
			PasswordHash: hash,
			Role:         models.RoleUser,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		id, err := store.Insert(ctx, &user)
		if err != nil {
			if utils.IsDuplicateKey(err) {
				fail(c, utils.NewAPIError("An account with this email already exists.", http.StatusConflict))
				return
			}
			failInternal(c, err)
			return
		}
		user.ID = id

		token, err := utils.GenerateToken(user.ID.Hex())
		if err != nil {
			failInternal(c, err)
			return
		}

		presentUser(&user)
		c.JSON(http.StatusCreated, gin.H{
			"status":  "success",
			"message": "User registered successfully.",
			"data":    gin.H{"user": user, "token": token},
		})
	}
}

// POST /api/v1/auth/login
func Login(store AuthStore, scheduler *utils.ReactivationScheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body dto.LoginDTO
		if !bindAndValidate(c, &body) {
			return
		}

		user, err := store.FindByEmail(ctx, strings.ToLower(body.Email))
		// never reveal whether the email or the password was wrong
		if err != nil || utils.CheckPassword(user.PasswordHash, body.Password) != nil {
			fail(c, utils.NewAPIError("Invalid email or password. Please check your credentials and try again.", http.StatusUnauthorized))
			return
		}

		if !user.Active {
			if scheduler.Pending(user.ID.Hex()) {
				fail(c, utils.NewAPIError("Your account is currently being reactivated. Please wait a moment.", http.StatusForbidden))
				return
			}

			if err := store.UpdateByID(ctx, user.ID, bson.M{
				"$set": bson.M{"reactivationInProgress": true, "updatedAt": time.Now().UTC()},
			}); err != nil {
				failInternal(c, err)
				return
			}

			scheduler.Schedule(user.ID.Hex(), reactivateUser)
			fail(c, utils.NewAPIError("Your account is deactivated. It will be reactivated shortly.", http.StatusForbidden))
			return
		}

		token, err := utils.GenerateToken(user.ID.Hex())
		if err != nil {
			failInternal(c, err)
			return
		}

		presentUser(user)
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Login successful.",
			"data":    gin.H{"user": user, "token": token},
		})
	}
}

// reactivateUser runs outside any request once the delay elapses, so it
// gets its own context.
func reactivateUser(userID string) {
	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	usersCol := database.OpenCollection("users")
	if _, err := usersCol.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{
			"active":                 true,
			"reactivationInProgress": false,
			"updatedAt":              time.Now().UTC(),
		},
	}); err != nil {
		log.Printf("reactivate user %s: %v", userID, err)
	}
}

// POST /api/v1/auth/forgotPassword
func ForgotPassword(store AuthStore, mailer utils.EmailSender) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body dto.ForgotPasswordDTO
		if !bindAndValidate(c, &body) {
			return
		}

		user, err := store.FindByEmail(ctx, strings.ToLower(body.Email))
		if err != nil {
			fail(c, utils.NewAPIError("No user found with this email.", http.StatusNotFound))
			return
		}

		resetCode, err := utils.GenerateResetCode()
		if err != nil {
			failInternal(c, err)
			return
		}

		expiresAt := time.Now().UTC().Add(10 * time.Minute)
		if err := store.UpdateByID(ctx, user.ID, bson.M{
			"$set": bson.M{
				"passwordResetCode":      utils.HashResetCode(resetCode),
				"passwordResetExpiresAt": expiresAt,
			},
		}); err != nil {
			failInternal(c, err)
			return
		}

		err = mailer.Send(utils.EmailOptions{
			To:      user.Email,
			Subject: "Reset Password",
			HTML:    utils.ResetCodeMailContent(user.Name, resetCode),
		})
		if err != nil {
			// roll back so no orphaned code is left behind
			if uerr := store.UpdateByID(ctx, user.ID, bson.M{
				"$unset": bson.M{"passwordResetCode": "", "passwordResetExpiresAt": ""},
			}); uerr != nil {
				log.Printf("clear reset code for %s: %v", user.Email, uerr)
			}
			fail(c, utils.NewAPIError("Failed to send email. Please try again later.", http.StatusInternalServerError))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Reset password code sent to your email.",
		})
	}
}

// POST /api/v1/auth/resetPassword
func ResetPassword(store AuthStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body dto.ResetPasswordDTO
		if !bindAndValidate(c, &body) {
			return
		}

		user, err := store.FindByResetCode(ctx, strings.ToLower(body.Email), utils.HashResetCode(body.ResetCode))
		if err != nil {
			fail(c, utils.NewAPIError("Invalid or expired reset code.", http.StatusBadRequest))
			return
		}

		hash, err := utils.HashPassword(body.NewPassword)
		if err != nil {
			failInternal(c, err)
			return
		}

		now := time.Now().UTC()
		err = store.UpdateByID(ctx, user.ID, bson.M{
			"$set": bson.M{
				"passwordHash":      hash,
				"passwordChangedAt": now,
				"updatedAt":         now,
			},
			// the code is single use, spend it
			"$unset": bson.M{"passwordResetCode": "", "passwordResetExpiresAt": ""},
		})
		if err != nil {
			failInternal(c, err)
			return
		}

		token, err := utils.GenerateToken(user.ID.Hex())
		if err != nil {
			failInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Password reset successfully.",
			"data":    gin.H{"token": token},
		})
	}
}
