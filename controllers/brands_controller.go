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

// GET /api/v1/brands
func GetBrands() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("brands")
		params := c.Request.URL.Query()

		total, err := col.CountDocuments(ctx, utils.QueryFilter(params, nil))
		if err != nil {
			failInternal(c, err)
			return
		}

		brands := make([]models.Brand, 0)
		pagination, err := utils.NewAPIFeatures(col, params).
			Paginate(total).
			Filter(nil).
			Search("brands").
			Sort().
			LimitFields().
			Execute(ctx, &brands)
		if err != nil {
			failInternal(c, err)
			return
		}

		presentBrands(brands)

		c.JSON(http.StatusOK, gin.H{
			"status":           "success",
			"results":          len(brands),
			"paginationResult": pagination,
			"data":             brands,
		})
	}
}

// GET /api/v1/brands/:id
func GetBrand() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("brands")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var brand models.Brand
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&brand); err != nil {
			fail(c, utils.NewAPIError(fmt.Sprintf("No brand for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		presentBrand(&brand)
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": brand})
	}
}

// POST /api/v1/brands
func CreateBrand(r2 *utils.R2Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("brands")

		var body dto.CreateBrandDTO
		if !bindAndValidate(c, &body) {
			return
		}

		fh, ok := formImage(c, "image")
		if !ok {
			return
		}

		now := time.Now().UTC()
		brand := models.Brand{
			Name:      strings.TrimSpace(body.Name),
			Slug:      utils.GenerateSlug(body.Name),
			CreatedAt: now,
			UpdatedAt: now,
		}

		if fh != nil {
			filename, err := utils.ResizeImage(fh, utils.BrandImageSpec, "")
			if err != nil {
				fail(c, utils.NewAPIError("Failed to process the uploaded image.", http.StatusBadRequest))
				return
			}
			brand.Image = filename
			if err := r2.MirrorImage(ctx, "brands", filename); err != nil {
				log.Printf("r2 mirror: %v", err)
			}
		}

		res, err := col.InsertOne(ctx, brand)
		if err != nil {
			if utils.IsDuplicateKey(err) {
				fail(c, utils.NewAPIError("Brand name already exists.", http.StatusConflict))
				return
			}
			failInternal(c, err)
			return
		}
		brand.ID = res.InsertedID.(bson.ObjectID)

		presentBrand(&brand)
		c.JSON(http.StatusCreated, gin.H{"status": "success", "data": brand})
	}
}

// PUT /api/v1/brands/:id
func UpdateBrand(r2 *utils.R2Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("brands")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var existing models.Brand
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err != nil {
			fail(c, utils.NewAPIError(fmt.Sprintf("No brand for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		var body dto.UpdateBrandDTO
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
			filename, err := utils.ResizeImage(fh, utils.BrandImageSpec, "")
			if err != nil {
				fail(c, utils.NewAPIError("Failed to process the uploaded image.", http.StatusBadRequest))
				return
			}
			set["image"] = filename
			if err := r2.MirrorImage(ctx, "brands", filename); err != nil {
				log.Printf("r2 mirror: %v", err)
			}
		}

		if len(set) == 1 {
			fail(c, utils.NewAPIError("No updates provided.", http.StatusBadRequest))
			return
		}

		if _, err := col.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
			if utils.IsDuplicateKey(err) {
				fail(c, utils.NewAPIError("Brand name already exists.", http.StatusConflict))
				return
			}
			failInternal(c, err)
			return
		}

		// the replaced image no longer needs its mirror copy
		if fh != nil && existing.Image != "" {
			if err := r2.DeleteMirroredObjects(ctx, []string{"brands/" + existing.Image}); err != nil {
				log.Printf("r2 delete: %v", err)
			}
		}

		var brand models.Brand
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&brand); err != nil {
			failInternal(c, err)
			return
		}

		presentBrand(&brand)
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": brand})
	}
}

// DELETE /api/v1/brands/:id
func DeleteBrand() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("brands")

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
			fail(c, utils.NewAPIError(fmt.Sprintf("No brand for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		c.Status(http.StatusNoContent)
	}
}
