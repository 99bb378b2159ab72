package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupBody struct {
	Name            string `json:"name" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,oneof=user manager admin"`
}

func TestValidateStructPassesValidBody(t *testing.T) {
	errs := ValidateStruct(signupBody{
		Name:            "Jane",
		Email:           "jane@example.com",
		Password:        "supersecret",
		PasswordConfirm: "supersecret",
	})
	assert.Nil(t, errs)
}

func TestValidateStructReportsPerFieldErrors(t *testing.T) {
	errs := ValidateStruct(signupBody{
		Name:            "J",
		Email:           "not-an-email",
		Password:        "short",
		PasswordConfirm: "different",
		Role:            "superuser",
	})
	require.Len(t, errs, 5)

	byField := map[string]string{}
	for _, e := range errs {
		byField[e.Field] = e.Message
	}
	assert.Equal(t, "name must be at least 2 characters long", byField["name"])
	assert.Equal(t, "email must be a valid email address", byField["email"])
	assert.Equal(t, "password must be at least 8 characters long", byField["password"])
	assert.Equal(t, "passwordConfirm must match Password", byField["passwordConfirm"])
	assert.Equal(t, "role must be one of: user manager admin", byField["role"])
}

func TestValidateStructRequiredMessage(t *testing.T) {
	errs := ValidateStruct(signupBody{})
	require.NotEmpty(t, errs)
	assert.Equal(t, "name", errs[0].Field)
	assert.Equal(t, "name is required", errs[0].Message)
}
