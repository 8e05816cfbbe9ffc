package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. Transitions are enforced server-side; clients only request
// them and reconcile to whatever the server stores.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusInTransit = "in_transit"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// Order defines the persisted flower order document.
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UUID              string             `bson:"uuid" json:"uuid"`
	ClientID          primitive.ObjectID `bson:"clientId" json:"-"`
	Flower            string             `bson:"flower" json:"flower"`
	Color             string             `bson:"color" json:"color"`
	FlowerHeight      string             `bson:"flowerHeight" json:"flower_height"`
	Quantity          int                `bson:"quantity" json:"quantity"`
	Decoration        bool               `bson:"decoration" json:"decoration"`
	City              string             `bson:"city" json:"city"`
	RecipientsAddress string             `bson:"recipientsAddress" json:"recipients_address"`
	RecipientsPhone   string             `bson:"recipientsPhone" json:"recipients_phone"`
	FlowerData        string             `bson:"flowerData" json:"flower_data"`
	Price             string             `bson:"price" json:"price"`
	Status            string             `bson:"status" json:"status"`
	Reason            string             `bson:"reason,omitempty" json:"reason"`
	Rating            int                `bson:"rating,omitempty" json:"rating"`
	CreatedAt         time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updated_at"`
}

// IsTerminal reports whether no further transitions may leave the status.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusCanceled
}

// IsActive reports whether an order still occupies the client's single
// active-order slot.
func (o Order) IsActive() bool {
	return !IsTerminal(o.Status)
}

// KnownStatus reports whether the value is one of the lifecycle statuses.
func KnownStatus(status string) bool {
	switch status {
	case StatusPending, StatusAccepted, StatusInTransit, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// CanCancel reports whether a client may still cancel the order.
func CanCancel(status string) bool {
	return status == StatusPending || status == StatusAccepted
}

// StoreAdvanceAllowed reports whether a store may move an order from one
// status to another. Stores only walk the forward delivery path.
func StoreAdvanceAllowed(from, to string) bool {
	switch from {
	case StatusAccepted:
		return to == StatusInTransit || to == StatusCompleted
	case StatusInTransit:
		return to == StatusCompleted
	}
	return false
}
