package dto

type CreateBrandDTO struct {
	Name string `json:"name" validate:"required,min=2,max=32"`
}

type UpdateBrandDTO struct {
	Name *string `json:"name" validate:"omitempty,min=2,max=32"`
}
