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

// productView carries the reference-population preview next to the raw
// category id.
type productView struct {
	models.Product
	CategoryPreview *models.RefPreview `json:"categoryPreview,omitempty"`
}

// GET /api/v1/products
func GetProducts() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("products")
		params := c.Request.URL.Query()

		total, err := col.CountDocuments(ctx, utils.QueryFilter(params, nil))
		if err != nil {
			failInternal(c, err)
			return
		}

		products := make([]models.Product, 0)
		pagination, err := utils.NewAPIFeatures(col, params).
			Paginate(total).
			Filter(nil).
			Search("products").
			Sort().
			LimitFields().
			Execute(ctx, &products)
		if err != nil {
			failInternal(c, err)
			return
		}

		presentProducts(products)
		views, err := attachCategoryPreviews(c, products)
		if err != nil {
			failInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":           "success",
			"results":          len(views),
			"paginationResult": pagination,
			"data":             views,
		})
	}
}

// GET /api/v1/products/:id
func GetProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("products")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var product models.Product
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
			fail(c, utils.NewAPIError(fmt.Sprintf("No product for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		presentProduct(&product)
		views, err := attachCategoryPreviews(c, []models.Product{product})
		if err != nil {
			failInternal(c, err)
			return
		}

		// populate the product's reviews alongside it
		reviews := make([]models.Review, 0)
		cursor, err := database.OpenCollection("reviews").Find(ctx, bson.M{"product": id})
		if err != nil {
			failInternal(c, err)
			return
		}
		if err := cursor.All(ctx, &reviews); err != nil {
			failInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"data":    views[0],
			"reviews": reviews,
		})
	}
}

// POST /api/v1/products
func CreateProduct(r2 *utils.R2Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("products")

		var body dto.CreateProductDTO
		if !bindAndValidate(c, &body) {
			return
		}

		categoryID, subCategoryIDs, brandID, ok := resolveProductRefs(c, body.Category, body.SubCategories, body.Brand)
		if !ok {
			return
		}

		cover, ok := formImage(c, "imageCover")
		if !ok {
			return
		}
		if cover == nil {
			fail(c, utils.NewValidationError([]utils.FieldError{
				{Field: "imageCover", Message: "imageCover is required"},
			}))
			return
		}
		images, ok := formImages(c, "images")
		if !ok {
			return
		}
		if len(images) > 5 {
			fail(c, utils.NewAPIError("A product can have at most 5 gallery images.", http.StatusBadRequest))
			return
		}

		coverName, imageNames, err := utils.ResizeProductImages(cover, images)
		if err != nil {
			fail(c, utils.NewAPIError("Failed to process the uploaded images.", http.StatusBadRequest))
			return
		}
		mirrorProductImages(c, r2, coverName, imageNames)

		now := time.Now().UTC()
		product := models.Product{
			Title:              strings.TrimSpace(body.Title),
			Slug:               utils.GenerateSlug(body.Title),
			Description:        body.Description,
			Quantity:           body.Quantity,
			Price:              body.Price,
			PriceAfterDiscount: body.PriceAfterDiscount,
			Colors:             body.Colors,
			ImageCover:         coverName,
			Images:             imageNames,
			Category:           categoryID,
			SubCategories:      subCategoryIDs,
			Brand:              brandID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		res, err := col.InsertOne(ctx, product)
		if err != nil {
			if utils.IsDuplicateKey(err) {
				fail(c, utils.NewAPIError("Product title already exists.", http.StatusConflict))
				return
			}
			failInternal(c, err)
			return
		}
		product.ID = res.InsertedID.(bson.ObjectID)

		presentProduct(&product)
		c.JSON(http.StatusCreated, gin.H{"status": "success", "data": product})
	}
}

// PUT /api/v1/products/:id
func UpdateProduct(r2 *utils.R2Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("products")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var body dto.UpdateProductDTO
		if !bindAndValidate(c, &body) {
			return
		}

		set := bson.M{"updatedAt": time.Now().UTC()}
		if body.Title != nil {
			set["title"] = strings.TrimSpace(*body.Title)
			set["slug"] = utils.GenerateSlug(*body.Title)
		}
		if body.Description != nil {
			set["description"] = *body.Description
		}
		if body.Quantity != nil {
			set["quantity"] = *body.Quantity
		}
		if body.Price != nil {
			set["price"] = *body.Price
		}
		if body.PriceAfterDiscount != nil {
			set["priceAfterDiscount"] = *body.PriceAfterDiscount
		}
		if body.Colors != nil {
			set["colors"] = *body.Colors
		}

		var category, brand string
		var subCategories []string
		if body.Category != nil {
			category = *body.Category
		}
		if body.SubCategories != nil {
			subCategories = *body.SubCategories
		}
		if body.Brand != nil {
			brand = *body.Brand
		}
		if category != "" || len(subCategories) > 0 || brand != "" {
			// subcategory membership is checked against the product's
			// (possibly updated) parent category
			if category == "" {
				var existing models.Product
				if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err != nil {
					fail(c, utils.NewAPIError(fmt.Sprintf("No product for this id %s", id.Hex()), http.StatusNotFound))
					return
				}
				category = existing.Category.Hex()
			}
			categoryID, subCategoryIDs, brandID, ok := resolveProductRefs(c, category, subCategories, brand)
			if !ok {
				return
			}
			if body.Category != nil {
				set["category"] = categoryID
			}
			if body.SubCategories != nil {
				set["subCategories"] = subCategoryIDs
			}
			if body.Brand != nil {
				set["brand"] = brandID
			}
		}

		cover, ok := formImage(c, "imageCover")
		if !ok {
			return
		}
		images, ok := formImages(c, "images")
		if !ok {
			return
		}
		if cover != nil || len(images) > 0 {
			coverName, imageNames, err := utils.ResizeProductImages(cover, images)
			if err != nil {
				fail(c, utils.NewAPIError("Failed to process the uploaded images.", http.StatusBadRequest))
				return
			}
			if coverName != "" {
				set["imageCover"] = coverName
			}
			if len(imageNames) > 0 {
				set["images"] = imageNames
			}
			mirrorProductImages(c, r2, coverName, imageNames)
		}

		if len(set) == 1 {
			fail(c, utils.NewAPIError("No updates provided.", http.StatusBadRequest))
			return
		}

		res, err := col.UpdateByID(ctx, id, bson.M{"$set": set})
		if err != nil {
			if utils.IsDuplicateKey(err) {
				fail(c, utils.NewAPIError("Product title already exists.", http.StatusConflict))
				return
			}
			failInternal(c, err)
			return
		}
		if res.MatchedCount == 0 {
			fail(c, utils.NewAPIError(fmt.Sprintf("No product for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		var product models.Product
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
			failInternal(c, err)
			return
		}

		presentProduct(&product)
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": product})
	}
}

// DELETE /api/v1/products/:id
func DeleteProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("products")

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
			fail(c, utils.NewAPIError(fmt.Sprintf("No product for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// resolveProductRefs parses and existence-checks the product's
// reference fields: category required, subcategories must belong to
// that category, brand optional.
func resolveProductRefs(c *gin.Context, category string, subCategories []string, brand string) (bson.ObjectID, []bson.ObjectID, *bson.ObjectID, bool) {
	ctx := c.Request.Context()

	categoryID, err := bson.ObjectIDFromHex(category)
	if err != nil {
		fail(c, utils.NewValidationError([]utils.FieldError{
			{Field: "category", Message: "Invalid category format."},
		}))
		return bson.ObjectID{}, nil, nil, false
	}
	if !categoryExists(c, categoryID) {
		return bson.ObjectID{}, nil, nil, false
	}

	var subCategoryIDs []bson.ObjectID
	if len(subCategories) > 0 {
		subCategoryIDs, err = utils.StringsToObjectIDs(subCategories)
		if err != nil {
			fail(c, utils.NewValidationError([]utils.FieldError{
				{Field: "subCategories", Message: "Invalid subcategory id format."},
			}))
			return bson.ObjectID{}, nil, nil, false
		}
		count, err := database.OpenCollection("subcategories").CountDocuments(ctx, bson.M{
			"_id":      bson.M{"$in": subCategoryIDs},
			"category": categoryID,
		})
		if err != nil {
			failInternal(c, err)
			return bson.ObjectID{}, nil, nil, false
		}
		if count != int64(len(subCategoryIDs)) {
			fail(c, utils.NewAPIError("One or more subcategories do not exist or do not belong to the category.", http.StatusBadRequest))
			return bson.ObjectID{}, nil, nil, false
		}
	}

	var brandID *bson.ObjectID
	if brand != "" {
		oid, err := bson.ObjectIDFromHex(brand)
		if err != nil {
			fail(c, utils.NewValidationError([]utils.FieldError{
				{Field: "brand", Message: "Invalid brand format."},
			}))
			return bson.ObjectID{}, nil, nil, false
		}
		count, err := database.OpenCollection("brands").CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			failInternal(c, err)
			return bson.ObjectID{}, nil, nil, false
		}
		if count == 0 {
			fail(c, utils.NewAPIError(fmt.Sprintf("No brand for this id %s", oid.Hex()), http.StatusBadRequest))
			return bson.ObjectID{}, nil, nil, false
		}
		brandID = &oid
	}

	return categoryID, subCategoryIDs, brandID, true
}

// attachCategoryPreviews batch-loads the referenced category names,
// one query for the whole page.
func attachCategoryPreviews(c *gin.Context, products []models.Product) ([]productView, error) {
	ctx := c.Request.Context()

	idSet := make(map[bson.ObjectID]bool)
	for _, p := range products {
		if !p.Category.IsZero() {
			idSet[p.Category] = true
		}
	}

	previews := make(map[bson.ObjectID]models.RefPreview, len(idSet))
	if len(idSet) > 0 {
		ids := make([]bson.ObjectID, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}
		cursor, err := database.OpenCollection("categories").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, err
		}
		var cats []models.RefPreview
		if err := cursor.All(ctx, &cats); err != nil {
			return nil, err
		}
		for _, cat := range cats {
			previews[cat.ID] = cat
		}
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		view := productView{Product: p}
		if preview, ok := previews[p.Category]; ok {
			view.CategoryPreview = &preview
		}
		views = append(views, view)
	}
	return views, nil
}

func mirrorProductImages(c *gin.Context, r2 *utils.R2Client, coverName string, imageNames []string) {
	ctx := c.Request.Context()
	if coverName != "" {
		if err := r2.MirrorImage(ctx, "products", coverName); err != nil {
			log.Printf("r2 mirror: %v", err)
		}
	}
	for _, name := range imageNames {
		if err := r2.MirrorImage(ctx, "products", name); err != nil {
			log.Printf("r2 mirror: %v", err)
		}
	}
}
