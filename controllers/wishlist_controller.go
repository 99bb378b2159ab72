package controllers

import (
	"fmt"
	"net/http"

	"github.com/buyfy/buyfy-api/database"
	"github.com/buyfy/buyfy-api/dto"
	"github.com/buyfy/buyfy-api/middleware"
	"github.com/buyfy/buyfy-api/models"
	"github.com/buyfy/buyfy-api/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GET /api/v1/wishlist
func GetMyWishlist() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		user := middleware.CurrentUser(c)

		// populate the stored product references
		products := make([]models.Product, 0)
		if len(user.Wishlist) > 0 {
			cursor, err := database.OpenCollection("products").
				Find(ctx, bson.M{"_id": bson.M{"$in": user.Wishlist}})
			if err != nil {
				failInternal(c, err)
				return
			}
			if err := cursor.All(ctx, &products); err != nil {
				failInternal(c, err)
				return
			}
		}

		presentProducts(products)

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"results": len(products),
			"data":    products,
		})
	}
}

// POST /api/v1/wishlist
func AddProductToWishlist() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")

		user := middleware.CurrentUser(c)

		var body dto.AddToWishlistDTO
		if !bindAndValidate(c, &body) {
			return
		}

		productID, err := bson.ObjectIDFromHex(body.ProductID)
		if err != nil {
			fail(c, utils.NewValidationError([]utils.FieldError{
				{Field: "productId", Message: "Invalid productId format."},
			}))
			return
		}

		count, err := database.OpenCollection("products").CountDocuments(ctx, bson.M{"_id": productID})
		if err != nil {
			failInternal(c, err)
			return
		}
		if count == 0 {
			fail(c, utils.NewAPIError(fmt.Sprintf("No product for this id %s", productID.Hex()), http.StatusBadRequest))
			return
		}

		// $addToSet keeps the wishlist duplicate free
		if _, err := usersCol.UpdateByID(ctx, user.ID, bson.M{
			"$addToSet": bson.M{"wishlist": productID},
		}); err != nil {
			failInternal(c, err)
			return
		}

		var updated models.User
		if err := usersCol.FindOne(ctx, bson.M{"_id": user.ID}).Decode(&updated); err != nil {
			failInternal(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"status":  "success",
			"message": "Product added successfully to your wishlist.",
			"data":    updated.Wishlist,
		})
	}
}

// DELETE /api/v1/wishlist/:productId
func RemoveProductFromWishlist() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")

		user := middleware.CurrentUser(c)

		productID, ok := pathObjectID(c, "productId")
		if !ok {
			return
		}

		if _, err := usersCol.UpdateByID(ctx, user.ID, bson.M{
			"$pull": bson.M{"wishlist": productID},
		}); err != nil {
			failInternal(c, err)
			return
		}

		var updated models.User
		if err := usersCol.FindOne(ctx, bson.M{"_id": user.ID}).Decode(&updated); err != nil {
			failInternal(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Product removed successfully from your wishlist.",
			"data":    updated.Wishlist,
		})
	}
}
