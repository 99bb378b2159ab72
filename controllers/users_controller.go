package controllers

import (
	"fmt"
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
)

// GET /api/v1/users
func GetUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("users")
		params := c.Request.URL.Query()

		total, err := col.CountDocuments(ctx, utils.QueryFilter(params, nil))
		if err != nil {
			failInternal(c, err)
			return
		}

		users := make([]models.User, 0)
		pagination, err := utils.NewAPIFeatures(col, params).
			Paginate(total).
			Filter(nil).
			Search("users").
			Sort().
			LimitFields().
			Execute(ctx, &users)
		if err != nil {
			failInternal(c, err)
			return
		}

		presentUsers(users)

		c.JSON(http.StatusOK, gin.H{
			"status":           "success",
			"results":          len(users),
			"paginationResult": pagination,
			"data":             users,
		})
	}
}

// GET /api/v1/users/:id
func GetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("users")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var user models.User
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
			fail(c, utils.NewAPIError(fmt.Sprintf("No user for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		presentUser(&user)
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": user})
	}
}

// POST /api/v1/users
func CreateUser(r2 *utils.R2Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("users")

		var body dto.CreateUserDTO
		if !bindAndValidate(c, &body) {
			return
		}

		fh, ok := formImage(c, "profileImg")
		if !ok {
			return
		}

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			failInternal(c, err)
			return
		}

		role := models.Role(body.Role)
		if body.Role == "" {
			role = models.RoleUser
		}

		now := time.Now().UTC()
		user := models.User{
			Name:         strings.TrimSpace(body.Name),
			Slug:         utils.GenerateSlug(body.Name),
			Email:        strings.ToLower(strings.TrimSpace(body.Email)),
			Phone:        body.Phone,
			PasswordHash: hash,
			Role:         role,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if fh != nil {
			filename, err := utils.ResizeImage(fh, utils.ProfileImageSpec, "")
			if err != nil {
				fail(c, utils.NewAPIError("Failed to process the uploaded image.", http.StatusBadRequest))
				return
			}
			user.ProfileImg = filename
			if err := r2.MirrorImage(ctx, "profiles", filename); err != nil {
				log.Printf("r2 mirror: %v", err)
			}
		}

		res, err := col.InsertOne(ctx, user)
		if err != nil {
			if utils.IsDuplicateKey(err) {
				fail(c, utils.NewAPIError("An account with this email already exists.", http.StatusConflict))
				return
			}
			failInternal(c, err)
			return
		}
		user.ID = res.InsertedID.(bson.ObjectID)

		presentUser(&user)
		c.JSON(http.StatusCreated, gin.H{"status": "success", "data": user})
	}
}

// PUT /api/v1/users/:id
func UpdateUser(r2 *utils.R2Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("users")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var body dto.UpdateUserDTO
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
		if body.Role != nil {
			set["role"] = models.Role(*body.Role)
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

		res, err := col.UpdateByID(ctx, id, bson.M{"$set": set})
		if err != nil {
			if utils.IsDuplicateKey(err) {
				fail(c, utils.NewAPIError("An account with this email already exists.", http.StatusConflict))
				return
			}
			failInternal(c, err)
			return
		}
		if res.MatchedCount == 0 {
			fail(c, utils.NewAPIError(fmt.Sprintf("No user for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		var user models.User
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
			failInternal(c, err)
			return
		}

		presentUser(&user)
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": user})
	}
}

// PUT /api/v1/users/changepassword/:id
func ChangeUserPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("users")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var body dto.ChangeUserPasswordDTO
		if !bindAndValidate(c, &body) {
			return
		}

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			failInternal(c, err)
			return
		}

		now := time.Now().UTC()
		res, err := col.UpdateByID(ctx, id, bson.M{
			"$set": bson.M{
				"passwordHash":      hash,
				"passwordChangedAt": now,
				"updatedAt":         now,
			},
		})
		if err != nil {
			failInternal(c, err)
			return
		}
		if res.MatchedCount == 0 {
			fail(c, utils.NewAPIError(fmt.Sprintf("No user for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Password changed successfully."})
	}
}

// DELETE /api/v1/users/:id
func DeleteUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("users")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		res, err := col.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			failInternal(c, err)
			return
		}
		if res.DeletedCount == 0 {
			fail(c, utils.NewAPIError(fmt.Sprintf("No user for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		c.Status(http.StatusNoContent)
	}
}
