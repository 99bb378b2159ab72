package dto

// Category may be omitted in the body when the subcategory is created
// through the nested /categories/:id/subcategories route; the
// handler derives it from the path after validation.
type CreateSubCategoryDTO struct {
	Name     string `json:"name" validate:"required,min=2,max=32"`
	Category string `json:"category" validate:"omitempty,mongodb"`
}

type UpdateSubCategoryDTO struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=32"`
	Category *string `json:"category" validate:"omitempty,mongodb"`
}
