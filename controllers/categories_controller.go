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

// GET /api/v1/categories
func GetCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("categories")
		params := c.Request.URL.Query()

		total, err := col.CountDocuments(ctx, utils.QueryFilter(params, nil))
		if err != nil {
			failInternal(c, err)
			return
		}

		categories := make([]models.Category, 0)
		pagination, err := utils.NewAPIFeatures(col, params).
			Paginate(total).
			Filter(nil).
			Search("categories").
			Sort().
			LimitFields().
			Execute(ctx, &categories)
		if err != nil {
			failInternal(c, err)
			return
		}

		presentCategories(categories)

		c.JSON(http.StatusOK, gin.H{
			"status":           "success",
			"results":          len(categories),
			"paginationResult": pagination,
			"data":             categories,
		})
	}
}

// GET /api/v1/categories/:id
func GetCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("categories")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var category models.Category
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
			fail(c, utils.NewAPIError(fmt.Sprintf("No category for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		presentCategory(&category)
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": category})
	}
}

// POST /api/v1/categories
func CreateCategory(r2 *utils.R2Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("categories")

		var body dto.CreateCategoryDTO
		if !bindAndValidate(c, &body) {
			return
		}

		fh, ok := formImage(c, "image")
		if !ok {
			return
		}

		now := time.Now().UTC()
		category := models.Category{
			Name:      strings.TrimSpace(body.Name),
			Slug:      utils.GenerateSlug(body.Name),
			CreatedAt: now,
			UpdatedAt: now,
		}

		if fh != nil {
			filename, err := utils.ResizeImage(fh, utils.CategoryImageSpec, "")
			if err != nil {
				fail(c, utils.NewAPIError("Failed to process the uploaded image.", http.StatusBadRequest))
				return
			}
			category.Image = filename
			if err := r2.MirrorImage(ctx, "categories", filename); err != nil {
				log.Printf("r2 mirror: %v", err)
			}
		}

		res, err := col.InsertOne(ctx, category)
		if err != nil {
			if utils.IsDuplicateKey(err) {
				fail(c, utils.NewAPIError("Category name already exists.", http.StatusConflict))
				return
			}
			failInternal(c, err)
			return
		}
		category.ID = res.InsertedID.(bson.ObjectID)

		presentCategory(&category)
		c.JSON(http.StatusCreated, gin.H{"status": "success", "data": category})
	}
}

// PUT /api/v1/categories/:id
func UpdateCategory(r2 *utils.R2Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("categories")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var existing models.Category
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err != nil {
			fail(c, utils.NewAPIError(fmt.Sprintf("No category for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		var body dto.UpdateCategoryDTO
		if !bindAndValidate(c, &body) {
			return
		}

		fh, ok := formImage(c, "image")
		if !ok {
			return
		}

		set := bson.M{"updatedAt": time.Now().UTC()}
		if body.Name != nil {
			set["name"] = strings.TrimSpace(*body.Name)
			set["slug"] = utils.GenerateSlug(*body.Name)
		}
		if fh != nil {
			filename, err := utils.ResizeImage(fh, utils.CategoryImageSpec, "")
			if err != nil {
				fail(c, utils.NewAPIError("Failed to process the uploaded image.", http.StatusBadRequest))
				return
			}
			set["image"] = filename
			if err := r2.MirrorImage(ctx, "categories", filename); err != nil {
				log.Printf("r2 mirror: %v", err)
			}
		}

		if len(set) == 1 {
			fail(c, utils.NewAPIError("No updates provided.", http.StatusBadRequest))
			return
		}

		if _, err := col.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
			if utils.IsDuplicateKey(err) {
				fail(c, utils.NewAPIError("Category name already exists.", http.StatusConflict))
				return
			}
			failInternal(c, err)
			return
		}

		// the replaced image no longer needs its mirror copy
		if fh != nil && existing.Image != "" {
			if err := r2.DeleteMirroredObjects(ctx, []string{"categories/" + existing.Image}); err != nil {
				log.Printf("r2 delete: %v", err)
			}
		}

		var category models.Category
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
			failInternal(c, err)
			return
		}

		presentCategory(&category)
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": category})
	}
}

// DELETE /api/v1/categories/:id
func DeleteCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("categories")

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
			fail(c, utils.NewAPIError(fmt.Sprintf("No category for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		c.Status(http.StatusNoContent)
	}
}
