package dto

type AddAddressDTO struct {
	Alias      string `json:"alias" validate:"required,min=2,max=32"`
	Details    string `json:"details" validate:"required,min=5"`
	Phone      string `json:"phone" validate:"omitempty,e164"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}
