package dto

// CreateProductDTO is parsed from the "data" multipart field (JSON);
// imageCover and images arrive as files alongside it.
type CreateProductDTO struct {
	Title              string   `json:"title" validate:"required,min=3,max=100"`
	Description        string   `json:"description" validate:"required,min=20,max=500"`
	Quantity           int      `json:"quantity" validate:"required,gte=0"`
	Price              float64  `json:"price" validate:"required,gt=0,lte=999999"`
	PriceAfterDiscount float64  `json:"priceAfterDiscount" validate:"omitempty,gt=0,ltefield=Price"`
	Colors             []string `json:"colors"`
	Category           string   `json:"category" validate:"required,mongodb"`
	SubCategories      []string `json:"subCategories" validate:"omitempty,dive,mongodb"`
	Brand              string   `json:"brand" validate:"omitempty,mongodb"`
}

// UpdateProductDTO — all fields are optional pointers
type UpdateProductDTO struct {
	Title              *string   `json:"title" validate:"omitempty,min=3,max=100"`
	Description        *string   `json:"description" validate:"omitempty,min=20,max=500"`
	Quantity           *int      `json:"quantity" validate:"omitempty,gte=0"`
	Price              *float64  `json:"price" validate:"omitempty,gt=0,lte=999999"`
	PriceAfterDiscount *float64  `json:"priceAfterDiscount" validate:"omitempty,gt=0"`
	Colors             *[]string `json:"colors"`
	Category           *string   `json:"category" validate:"omitempty,mongodb"`
	SubCategories      *[]string `json:"subCategories" validate:"omitempty,dive,mongodb"`
	Brand              *string   `json:"brand" validate:"omitempty,mongodb"`
}
