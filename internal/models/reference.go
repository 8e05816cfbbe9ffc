package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ReferenceEntry is a single entry in the flower or color catalog used by the
// order form.
type ReferenceEntry struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UUID string             `bson:"uuid" json:"uuid"`
	Text string             `bson:"text" json:"text"`
}
