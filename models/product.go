package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Product struct {
	ID                 bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title              string          `bson:"title" json:"title"`
	Slug               string          `bson:"slug" json:"slug"`
	Description        string          `bson:"description" json:"description"`
	Quantity           int             `bson:"quantity" json:"quantity"`
	Sold               int             `bson:"sold" json:"sold"`
	Price              float64         `bson:"price" json:"price"`
	PriceAfterDiscount float64         `bson:"priceAfterDiscount,omitempty" json:"priceAfterDiscount,omitempty"`
	Colors             []string        `bson:"colors,omitempty" json:"colors,omitempty"`
	ImageCover         string          `bson:"imageCover" json:"imageCover"`
	Images             []string        `bson:"images,omitempty" json:"images,omitempty"`
	Category           bson.ObjectID   `bson:"category" json:"category"`
	SubCategories      []bson.ObjectID `bson:"subCategories,omitempty" json:"subCategories,omitempty"`
	Brand              *bson.ObjectID  `bson:"brand,omitempty" json:"brand,omitempty"`
	RatingsAverage     float64         `bson:"ratingsAverage" json:"ratingsAverage"`
	RatingsQuantity    int             `bson:"ratingsQuantity" json:"ratingsQuantity"`
	CreatedAt          time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// RefPreview is what reference population returns for a referenced
// document: just enough to render a name next to the id.
type RefPreview struct {
	ID   bson.ObjectID `bson:"_id" json:"id"`
	Name string        `bson:"name" json:"name"`
}
