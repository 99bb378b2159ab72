package controllers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/buyfy/buyfy-api/models"
	"github.com/buyfy/buyfy-api/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// fail records an operational error for the process-wide error handler.
func fail(c *gin.Context, err *utils.APIError) {
	_ = c.Error(err)
	c.Abort()
}

// failInternal records an unexpected error; the handler renders it as a
// generic 500 outside development mode.
func failInternal(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindBody decodes the request body into out. Multipart requests carry
// their JSON in the "data" field next to the uploaded files, plain
// requests are straight JSON.
func bindBody(c *gin.Context, out any) error {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		data := c.PostForm("data")
		if data == "" {
			return fmt.Errorf("missing data field")
		}
		return json.Unmarshal([]byte(data), out)
	}
	return c.ShouldBindJSON(out)
}

// bindAndValidate is phase one of every mutation: decode, then produce
// a validation verdict. Derivation of computed fields (slugs, path
// references) happens in the handler afterwards.
func bindAndValidate(c *gin.Context, out any) bool {
	if err := bindBody(c, out); err != nil {
		fail(c, utils.NewAPIError("Invalid request body.", http.StatusBadRequest))
		return false
	}
	if errs := utils.ValidateStruct(out); errs != nil {
		fail(c, utils.NewValidationError(errs))
		return false
	}
	return true
}

// pathObjectID parses the named path parameter as an ObjectID and
// reports a per-field validation error when it is malformed.
func pathObjectID(c *gin.Context, param string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param(param))
	if err != nil {
		fail(c, utils.NewValidationError([]utils.FieldError{
			{Field: param, Message: fmt.Sprintf("Invalid %s format.", param)},
		}))
		return bson.ObjectID{}, false
	}
	return id, true
}

// formImage returns the single uploaded image for field, or nil when
// the request has none. A non-image upload is rejected.
func formImage(c *gin.Context, field string) (*multipart.FileHeader, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return nil, true
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, true // field absent
	}
	if !utils.IsImageUpload(fh) {
		fail(c, utils.NewAPIError("Only images are allowed.", http.StatusBadRequest))
		return nil, false
	}
	return fh, true
}

// The present* helpers rewrite stored image filenames into the public
// URLs the static mounts serve, right before a document is rendered.

func presentCategory(category *models.Category) {
	category.Image = utils.ImageURL("categories", category.Image)
}

func presentCategories(categories []models.Category) {
	for i := range categories {
		presentCategory(&categories[i])
	}
}

func presentBrand(brand *models.Brand) {
	brand.Image = utils.ImageURL("brands", brand.Image)
}

func presentBrands(brands []models.Brand) {
	for i := range brands {
		presentBrand(&brands[i])
	}
}

func presentProduct(product *models.Product) {
	product.ImageCover = utils.ImageURL("products", product.ImageCover)
	for i, name := range product.Images {
		product.Images[i] = utils.ImageURL("products", name)
	}
}

func presentProducts(products []models.Product) {
	for i := range products {
		presentProduct(&products[i])
	}
}

func presentUser(user *models.User) {
	user.ProfileImg = utils.ImageURL("profiles", user.ProfileImg)
}

func presentUsers(users []models.User) {
	for i := range users {
		presentUser(&users[i])
	}
}

// formImages returns every uploaded image for field.
func formImages(c *gin.Context, field string) ([]*multipart.FileHeader, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return nil, true
	}
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, true
	}
	files := form.File[field]
	for _, fh := range files {
		if !utils.IsImageUpload(fh) {
			fail(c, utils.NewAPIError("Only images are allowed.", http.StatusBadRequest))
			return nil, false
		}
	}
	return files, true
}
