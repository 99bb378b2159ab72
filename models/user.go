package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Address is embedded in the user document, never stored on its own.
type Address struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Alias      string        `bson:"alias" json:"alias"`
	Details    string        `bson:"details" json:"details"`
	Phone      string        `bson:"phone,omitempty" json:"phone,omitempty"`
	City       string        `bson:"city,omitempty" json:"city,omitempty"`
	PostalCode string        `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
}

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string        `bson:"name" json:"name"`
	Slug         string        `bson:"slug,omitempty" json:"slug,omitempty"`
	Email        string        `bson:"email" json:"email"`
	Phone        string        `bson:"phone,omitempty" json:"phone,omitempty"`
	ProfileImg   string        `bson:"profileImg,omitempty" json:"profileImg,omitempty"`
	PasswordHash string        `bson:"passwordHash" json:"-"` // never expose
	Role         Role          `bson:"role" json:"role"`

	Active                 bool `bson:"active" json:"active"`
	ReactivationInProgress bool `bson:"reactivationInProgress,omitempty" json:"-"`

	PasswordChangedAt      *time.Time `bson:"passwordChangedAt,omitempty" json:"-"`
	PasswordResetCode      string     `bson:"passwordResetCode,omitempty" json:"-"`
	PasswordResetExpiresAt *time.Time `bson:"passwordResetExpiresAt,omitempty" json:"-"`

	Wishlist  []bson.ObjectID `bson:"wishlist,omitempty" json:"wishlist,omitempty"`
	Addresses []Address       `bson:"addresses,omitempty" json:"addresses,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
