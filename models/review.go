package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Review struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string        `bson:"title,omitempty" json:"title,omitempty"`
	Ratings   float64       `bson:"ratings" json:"ratings"`
	User      bson.ObjectID `bson:"user" json:"user"`
	Product   bson.ObjectID `bson:"product" json:"product"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}
