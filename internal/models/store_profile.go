package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoreProfile is the public storefront of a store-type user. Exactly one per
// store user, created on the first profile update.
type StoreProfile struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UUID           string             `bson:"uuid" json:"uuid"`
	UserID         primitive.ObjectID `bson:"userId" json:"-"`
	StoreName      string             `bson:"storeName" json:"store_name"`
	Logo           string             `bson:"logo,omitempty" json:"logo"`
	Address        string             `bson:"address,omitempty" json:"address"`
	InstagramLink  string             `bson:"instagramLink,omitempty" json:"instagram_link"`
	Twogis         string             `bson:"twogis,omitempty" json:"twogis"`
	WhatsappNumber string             `bson:"whatsappNumber,omitempty" json:"whatsapp_number"`
	AverageRating  float64            `bson:"averageRating" json:"average_rating"`
	RatingCount    int                `bson:"ratingCount" json:"-"`
	CreatedAt      time.Time          `bson:"createdAt" json:"-"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"-"`
}
