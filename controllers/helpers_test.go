package controllers

import (
	"testing"

	"github.com/buyfy/buyfy-api/models"
	"github.com/stretchr/testify/assert"
)

func TestPresentersRewriteImageFilenamesToURLs(t *testing.T) {
	t.Setenv("BASE_URL", "https://api.buyfy.test")

	category := models.Category{Image: "category-abc.jpeg"}
	presentCategory(&category)
	assert.Equal(t, "https://api.buyfy.test/categories/category-abc.jpeg", category.Image)

	brand := models.Brand{Image: "brand-abc.jpeg"}
	presentBrand(&brand)
	assert.Equal(t, "https://api.buyfy.test/brands/brand-abc.jpeg", brand.Image)

	product := models.Product{
		ImageCover: "product-abc-cover.jpeg",
		Images:     []string{"product-abc-1.jpeg", "product-abc-2.jpeg"},
	}
	presentProduct(&product)
	assert.Equal(t, "https://api.buyfy.test/products/product-abc-cover.jpeg", product.ImageCover)
	assert.Equal(t, []string{
		"https://api.buyfy.test/products/product-abc-1.jpeg",
		"https://api.buyfy.test/products/product-abc-2.jpeg",
	}, product.Images)

	user := models.User{ProfileImg: "profile-abc.jpeg"}
	presentUser(&user)
	assert.Equal(t, "https://api.buyfy.test/profiles/profile-abc.jpeg", user.ProfileImg)
}

func TestPresentersLeaveMissingImagesEmpty(t *testing.T) {
	t.Setenv("BASE_URL", "https://api.buyfy.test")

	category := models.Category{}
	presentCategory(&category)
	assert.Empty(t, category.Image)

	user := models.User{}
	presentUser(&user)
	assert.Empty(t, user.ProfileImg)
}

func TestPresentCategoriesRewritesWholeSlice(t *testing.T) {
	t.Setenv("BASE_URL", "https://api.buyfy.test")

	categories := []models.Category{
		{Image: "category-a.jpeg"},
		{},
		{Image: "category-b.jpeg"},
	}
	presentCategories(categories)

	assert.Equal(t, "https://api.buyfy.test/categories/category-a.jpeg", categories[0].Image)
	assert.Empty(t, categories[1].Image)
	assert.Equal(t, "https://api.buyfy.test/categories/category-b.jpeg", categories[2].Image)
}
