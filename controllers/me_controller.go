package controllers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/buyfy/buyfy-api/database"
	"github.com/buyfy/buyfy-api/dto"
	"github.com/buyfy/buyfy-api/middleware"
	"github.com/buyfy/buyfy-api/models"
	"github.com/buyfy/buyfy-api/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GET /api/v1/me
func GetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := *middleware.CurrentUser(c)
		presentUser(&user)
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": user})
	}
}

// PUT /api/v1/me/updateMyData
func UpdateMe(r2 *utils.R2Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("users")

		user := middleware.CurrentUser(c)

		var body dto.UpdateMeDTO
		if !bindAndValidate(c, &body) {
			return
		}

		fh, ok := formImage(c, "profileImg")
		if !ok {
			return
		}

		set := bson.M{"updatedAt": time.Now().UTC()}
		if body.Name != nil {
			set["name"] = strings.TrimSpace(*body.Name)
			set["slug"] = utils.GenerateSlug(*body.Name)
		}
		if body.Email != nil {
			set["email"] = strings.ToLower(strings.TrimSpace(*body.Email))
		}
		if body.Phone != nil {
			set["phone"] = *body.Phone
		}
		if fh != nil {
			filename, err := utils.ResizeImage(fh, utils.ProfileImageSpec, "")
			if err != nil {
				fail(c, utils.NewAPIError("Failed to process the uploaded image.", http.StatusBadRequest))
				return
			}
			set["profileImg"] = filename
			if err := r2.MirrorImage(ctx, "profiles", filename); err != nil {
				log.Printf("r2 mirror: %v", err)
			}
		}

		if len(set) == 1 {
			fail(c, utils.NewAPIError("No updates provided.", http.StatusBadRequest))
			return
		}

		if _, err := col.UpdateByID(ctx, user.ID, bson.M{"$set": set}); err != nil {
			if utils.IsDuplicateKey(err) {
				fail(c, utils.NewAPIError("An account with this email already exists.", http.StatusConflict))
				return
			}
			failInternal(c, err)
			return
		}

		var updated models.User
		if err := col.FindOne(ctx, bson.M{"_id": user.ID}).Decode(&updated); err != nil {
			failInternal(c, err)
			return
		}

		presentUser(&updated)
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": updated})
	}
}

// PUT /api/v1/me/changeMyPassword
func ChangeMyPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("users")

		user := middleware.CurrentUser(c)

		var body dto.ChangeMyPasswordDTO
		if !bindAndValidate(c, &body) {
			return
		}

		if err := utils.CheckPassword(user.PasswordHash, body.CurrentPassword); err != nil {
			fail(c, utils.NewAPIError("Current password is incorrect.", http.StatusUnauthorized))
			return
		}

		hash, err := utils.HashPassword(body.NewPassword)
		if err != nil {
			failInternal(c, err)
			return
		}

		now := time.Now().UTC()
		if _, err := col.UpdateByID(ctx, user.ID, bson.M{
			"$set": bson.M{
				"passwordHash":      hash,
				"passwordChangedAt": now,
				"updatedAt":         now,
			},
		}); err != nil {
			failInternal(c, err)
			return
		}

		// the old token is now stale; hand back a fresh one
		token, err := utils.GenerateToken(user.ID.Hex())
		if err != nil {
			failInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Password changed successfully.",
			"data":    gin.H{"token": token},
		})
	}
}

// DELETE /api/v1/me/deactivateMe
func DeactivateMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("users")

		user := middleware.CurrentUser(c)

		if _, err := col.UpdateByID(ctx, user.ID, bson.M{
			"$set": bson.M{"active": false, "updatedAt": time.Now().UTC()},
		}); err != nil {
			failInternal(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}
