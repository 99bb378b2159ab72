package dto

// Product may be omitted when creating through the nested
// /products/:id/reviews route. User always comes from the
// authenticated context, never from the body.
type CreateReviewDTO struct {
	Title   string  `json:"title"`
	Ratings float64 `json:"ratings" validate:"required,gte=1,lte=5"`
	Product string  `json:"product" validate:"omitempty,mongodb"`
}

type UpdateReviewDTO struct {
	Title   *string  `json:"title"`
	Ratings *float64 `json:"ratings" validate:"omitempty,gte=1,lte=5"`
}
