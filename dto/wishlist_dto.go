package dto

type AddToWishlistDTO struct {
	ProductID string `json:"productId" validate:"required,mongodb"`
}
