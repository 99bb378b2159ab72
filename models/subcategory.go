package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type SubCategory struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string        `bson:"name" json:"name"`
	Slug      string        `bson:"slug" json:"slug"`
	Category  bson.ObjectID `bson:"category" json:"category"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}
