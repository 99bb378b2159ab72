package controllers

import (
	"fmt"
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

// GET /api/v1/subcategories
// GET /api/v1/categories/:id/subcategories
func GetSubCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("subcategories")
		params := c.Request.URL.Query()

		// nested route narrows the list to one parent category and wins
		// over any category filter from the query string
		var extra bson.M
		if categoryHex := c.Param("id"); categoryHex != "" {
			categoryID, err := bson.ObjectIDFromHex(categoryHex)
			if err != nil {
				fail(c, utils.NewValidationError([]utils.FieldError{
					{Field: "categoryId", Message: "Invalid categoryId format."},
				}))
				return
			}
			extra = bson.M{"category": categoryID}
		}

		total, err := col.CountDocuments(ctx, utils.QueryFilter(params, extra))
		if err != nil {
			failInternal(c, err)
			return
		}

		subCategories := make([]models.SubCategory, 0)
		pagination, err := utils.NewAPIFeatures(col, params).
			Paginate(total).
			Filter(extra).
			Search("subcategories").
			Sort().
			LimitFields().
			Execute(ctx, &subCategories)
		if err != nil {
			failInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":           "success",
			"results":          len(subCategories),
			"paginationResult": pagination,
			"data":             subCategories,
		})
	}
}

// GET /api/v1/subcategories/:id
func GetSubCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("subcategories")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var subCategory models.SubCategory
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&subCategory); err != nil {
			fail(c, utils.NewAPIError(fmt.Sprintf("No subcategory for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "data": subCategory})
	}
}

// POST /api/v1/subcategories
// POST /api/v1/categories/:id/subcategories
func CreateSubCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("subcategories")

		var body dto.CreateSubCategoryDTO
		if !bindAndValidate(c, &body) {
			return
		}

		// derive the parent from the path when the body omits it
		categoryHex := body.Category
		if categoryHex == "" {
			categoryHex = c.Param("id")
		}
		categoryID, err := bson.ObjectIDFromHex(categoryHex)
		if err != nil {
			fail(c, utils.NewValidationError([]utils.FieldError{
				{Field: "category", Message: "Subcategory must belong to a category."},
			}))
			return
		}

		if !categoryExists(c, categoryID) {
			return
		}

		now := time.Now().UTC()
		subCategory := models.SubCategory{
			Name:      strings.TrimSpace(body.Name),
			Slug:      utils.GenerateSlug(body.Name),
			Category:  categoryID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		res, err := col.InsertOne(ctx, subCategory)
		if err != nil {
			if utils.IsDuplicateKey(err) {
				fail(c, utils.NewAPIError("Subcategory name already exists.", http.StatusConflict))
				return
			}
			failInternal(c, err)
			return
		}
		subCategory.ID = res.InsertedID.(bson.ObjectID)

		c.JSON(http.StatusCreated, gin.H{"status": "success", "data": subCategory})
	}
}

// PUT /api/v1/subcategories/:id
func UpdateSubCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("subcategories")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var body dto.UpdateSubCategoryDTO
		if !bindAndValidate(c, &body) {
			return
		}

		set := bson.M{"updatedAt": time.Now().UTC()}
		if body.Name != nil {
			set["name"] = strings.TrimSpace(*body.Name)
			set["slug"] = utils.GenerateSlug(*body.Name)
		}
		if body.Category != nil {
			categoryID, err := bson.ObjectIDFromHex(*body.Category)
			if err != nil {
				fail(c, utils.NewValidationError([]utils.FieldError{
					{Field: "category", Message: "Invalid category format."},
				}))
				return
			}
			if !categoryExists(c, categoryID) {
				return
			}
			set["category"] = categoryID
		}

		if len(set) == 1 {
			fail(c, utils.NewAPIError("No updates provided.", http.StatusBadRequest))
			return
		}

		res, err := col.UpdateByID(ctx, id, bson.M{"$set": set})
		if err != nil {
			if utils.IsDuplicateKey(err) {
				fail(c, utils.NewAPIError("Subcategory name already exists.", http.StatusConflict))
				return
			}
			failInternal(c, err)
			return
		}
		if res.MatchedCount == 0 {
			fail(c, utils.NewAPIError(fmt.Sprintf("No subcategory for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		var subCategory models.SubCategory
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&subCategory); err != nil {
			failInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "data": subCategory})
	}
}

// DELETE /api/v1/subcategories/:id
func DeleteSubCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("subcategories")

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
			fail(c, utils.NewAPIError(fmt.Sprintf("No subcategory for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// categoryExists enforces the reference invariant at write time; the
// datastore does not.
func categoryExists(c *gin.Context, id bson.ObjectID) bool {
	count, err := database.OpenCollection("categories").
		CountDocuments(c.Request.Context(), bson.M{"_id": id})
	if err != nil {
		failInternal(c, err)
		return false
	}
	if count == 0 {
		fail(c, utils.NewAPIError(fmt.Sprintf("No category for this id %s", id.Hex()), http.StatusBadRequest))
		return false
	}
	return true
}
