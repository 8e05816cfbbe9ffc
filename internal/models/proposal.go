package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Proposal is a store's priced offer against a pending order. Rejected
// proposals are kept for history but drop out of the active list.
type Proposal struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UUID          string             `bson:"uuid" json:"uuid"`
	OrderUUID     string             `bson:"orderUuid" json:"-"`
	StoreID       primitive.ObjectID `bson:"storeId" json:"-"`
	ProposedPrice string             `bson:"proposedPrice" json:"proposed_price"`
	Comment       string             `bson:"comment,omitempty" json:"comment"`
	FlowerImg     string             `bson:"flowerImg,omitempty" json:"flower_img"`
	IsAccepted    bool               `bson:"isAccepted" json:"is_accepted"`
	Rejected      bool               `bson:"rejected" json:"-"`
	ExpiresAt     *time.Time         `bson:"expiresAt,omitempty" json:"expires_at"`
	CreatedAt     time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updated_at"`
}

// Expired reports whether the proposal can no longer be accepted.
func (p Proposal) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// Open reports whether the proposal is still eligible for acceptance.
func (p Proposal) Open(now time.Time) bool {
	return !p.IsAccepted && !p.Rejected && !p.Expired(now)
}
