package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/buyfy/buyfy-api/database"
	"github.com/buyfy/buyfy-api/dto"
	"github.com/buyfy/buyfy-api/middleware"
	"github.com/buyfy/buyfy-api/models"
	"github.com/buyfy/buyfy-api/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GET /api/v1/reviews
// GET /api/v1/products/:id/reviews
func GetReviews() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("reviews")
		params := c.Request.URL.Query()

		var extra bson.M
		if productHex := c.Param("id"); productHex != "" {
			productID, err := bson.ObjectIDFromHex(productHex)
			if err != nil {
				fail(c, utils.NewValidationError([]utils.FieldError{
					{Field: "productId", Message: "Invalid productId format."},
				}))
				return
			}
			extra = bson.M{"product": productID}
		}

		total, err := col.CountDocuments(ctx, utils.QueryFilter(params, extra))
		if err != nil {
			failInternal(c, err)
			return
		}

		reviews := make([]models.Review, 0)
		pagination, err := utils.NewAPIFeatures(col, params).
			Paginate(total).
			Filter(extra).
			Sort().
			Execute(ctx, &reviews)
		if err != nil {
			failInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":           "success",
			"results":          len(reviews),
			"paginationResult": pagination,
			"data":             reviews,
		})
	}
}

// GET /api/v1/reviews/:id
func GetReview() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("reviews")

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var review models.Review
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
			fail(c, utils.NewAPIError(fmt.Sprintf("No review for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "data": review})
	}
}

// POST /api/v1/reviews
// POST /api/v1/products/:id/reviews
func CreateReview() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("reviews")

		user := middleware.CurrentUser(c)

		var body dto.CreateReviewDTO
		if !bindAndValidate(c, &body) {
			return
		}

		productHex := body.Product
		if productHex == "" {
			productHex = c.Param("id")
		}
		productID, err := bson.ObjectIDFromHex(productHex)
		if err != nil {
			fail(c, utils.NewValidationError([]utils.FieldError{
				{Field: "product", Message: "Review must belong to a product."},
			}))
			return
		}

		productsCol := database.OpenCollection("products")
		count, err := productsCol.CountDocuments(ctx, bson.M{"_id": productID})
		if err != nil {
			failInternal(c, err)
			return
		}
		if count == 0 {
			fail(c, utils.NewAPIError(fmt.Sprintf("No product for this id %s", productID.Hex()), http.StatusBadRequest))
			return
		}

		// one review per user per product
		existing, err := col.CountDocuments(ctx, bson.M{"user": user.ID, "product": productID})
		if err != nil {
			failInternal(c, err)
			return
		}
		if existing > 0 {
			fail(c, utils.NewAPIError("You have already reviewed this product.", http.StatusBadRequest))
			return
		}

		now := time.Now().UTC()
		review := models.Review{
			Title:     body.Title,
			Ratings:   body.Ratings,
			User:      user.ID,
			Product:   productID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		res, err := col.InsertOne(ctx, review)
		if err != nil {
			failInternal(c, err)
			return
		}
		review.ID = res.InsertedID.(bson.ObjectID)

		if err := recalcProductRatings(ctx, productID); err != nil {
			failInternal(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"status": "success", "data": review})
	}
}

// PUT /api/v1/reviews/:id
func UpdateReview() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("reviews")

		user := middleware.CurrentUser(c)

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var body dto.UpdateReviewDTO
		if !bindAndValidate(c, &body) {
			return
		}

		var review models.Review
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
			fail(c, utils.NewAPIError(fmt.Sprintf("No review for this id %s", id.Hex()), http.StatusNotFound))
			return
		}
		if review.User != user.ID {
			fail(c, utils.NewAPIError("You are not authorized to update this review.", http.StatusForbidden))
			return
		}

		set := bson.M{"updatedAt": time.Now().UTC()}
		if body.Title != nil {
			set["title"] = *body.Title
		}
		if body.Ratings != nil {
			set["ratings"] = *body.Ratings
		}
		if len(set) == 1 {
			fail(c, utils.NewAPIError("No updates provided.", http.StatusBadRequest))
			return
		}

		if _, err := col.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
			failInternal(c, err)
			return
		}

		if err := recalcProductRatings(ctx, review.Product); err != nil {
			failInternal(c, err)
			return
		}

		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
			failInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "data": review})
	}
}

// DELETE /api/v1/reviews/:id
func DeleteReview() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("reviews")

		user := middleware.CurrentUser(c)

		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var review models.Review
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
			fail(c, utils.NewAPIError(fmt.Sprintf("No review for this id %s", id.Hex()), http.StatusNotFound))
			return
		}

		// a standard user may only delete their own review
		if user.Role == models.RoleUser && review.User != user.ID {
			fail(c, utils.NewAPIError("You are not authorized to delete this review.", http.StatusForbidden))
			return
		}

		if _, err := col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			failInternal(c, err)
			return
		}

		if err := recalcProductRatings(ctx, review.Product); err != nil {
			failInternal(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// recalcProductRatings recomputes the product's rating rollup from its
// reviews. Runs as a follow-up write with no transaction, matching the
// rest of the multi-step flows.
func recalcProductRatings(ctx context.Context, productID bson.ObjectID) error {
	reviewsCol := database.OpenCollection("reviews")
	productsCol := database.OpenCollection("products")

	pipeline := mongoPipeline(
		bson.M{"$match": bson.M{"product": productID}},
		bson.M{"$group": bson.M{
			"_id":            "$product",
			"ratingsAverage": bson.M{"$avg": "$ratings"},
			"ratingsCount":   bson.M{"$sum": 1},
		}},
	)

	cursor, err := reviewsCol.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var results []struct {
		RatingsAverage float64 `bson:"ratingsAverage"`
		RatingsCount   int     `bson:"ratingsCount"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return err
	}

	avg, count := 0.0, 0
	if len(results) > 0 {
		avg, count = results[0].RatingsAverage, results[0].RatingsCount
	}

	_, err = productsCol.UpdateByID(ctx, productID, bson.M{
		"$set": bson.M{"ratingsAverage": avg, "ratingsQuantity": count},
	})
	return err
}

func mongoPipeline(stages ...bson.M) bson.A {
	pipeline := make(bson.A, 0, len(stages))
	for _, s := range stages {
		pipeline = append(pipeline, s)
	}
	return pipeline
}
