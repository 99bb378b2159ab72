package controllers

import (
	"net/http"

	"github.com/buyfy/buyfy-api/database"
	"github.com/buyfy/buyfy-api/dto"
	"github.com/buyfy/buyfy-api/middleware"
	"github.com/buyfy/buyfy-api/models"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GET /api/v1/addresses
func GetMyAddresses() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		addresses := user.Addresses
		if addresses == nil {
			addresses = []models.Address{}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"results": len(addresses),
			"data":    addresses,
		})
	}
}

// POST /api/v1/addresses
func AddAddress() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")

		user := middleware.CurrentUser(c)

		var body dto.AddAddressDTO
		if !bindAndValidate(c, &body) {
			return
		}

		address := models.Address{
			ID:         bson.NewObjectID(),
			Alias:      body.Alias,
			Details:    body.Details,
			Phone:      body.Phone,
			City:       body.City,
			PostalCode: body.PostalCode,
		}

		if _, err := usersCol.UpdateByID(ctx, user.ID, bson.M{
			"$addToSet": bson.M{"addresses": address},
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
			"message": "Address added successfully.",
			"data":    updated.Addresses,
		})
	}
}

// DELETE /api/v1/addresses/:addressId
func RemoveAddress() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")

		user := middleware.CurrentUser(c)

		addressID, ok := pathObjectID(c, "addressId")
		if !ok {
			return
		}

		if _, err := usersCol.UpdateByID(ctx, user.ID, bson.M{
			"$pull": bson.M{"addresses": bson.M{"_id": addressID}},
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
			"message": "Address removed successfully.",
			"data":    updated.Addresses,
		})
	}
}
