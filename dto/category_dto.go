package dto

type CreateCategoryDTO struct {
	Name string `json:"name" validate:"required,min=2,max=32"`
}

type UpdateCategoryDTO struct {
	Name *string `json:"name" validate:"omitempty,min=2,max=32"`
}
