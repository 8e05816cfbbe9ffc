// Package client is the Go SDK for the flowmarket API. It covers both roles
// of the marketplace: clients creating orders and negotiating prices, and
// stores proposing prices and driving deliveries.
package client

import "time"

// Order lifecycle statuses, mirrored from the server. The server owns the
// transition rules; the SDK only requests transitions and reconciles.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusInTransit = "in_transit"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// User types.
const (
	UserTypeClient = "client"
	UserTypeStore  = "store"
)

// TextRef wraps catalog values ({"text": ...}) used for flowers and colors.
type TextRef struct {
	Text string `json:"text"`
}

// TokenPair is the access/refresh pair returned by login, register and
// refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// UserData is the /me/ payload.
type UserData struct {
	Email          string        `json:"email"`
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name"`
	Phone          string        `json:"phone"`
	City           string        `json:"city"`
	UserType       string        `json:"user_type"`
	ProfilePicture string        `json:"profile_picture"`
	CurrentOrder   *CurrentOrder `json:"current_order"`
}

// StoreProfileData is the storefront of a store user.
type StoreProfileData struct {
	UUID           string  `json:"uuid"`
	StoreName      string  `json:"store_name"`
	Logo           string  `json:"logo"`
	Address        string  `json:"address"`
	InstagramLink  string  `json:"instagram_link"`
	Twogis         string  `json:"twogis"`
	WhatsappNumber string  `json:"whatsapp_number"`
	AverageRating  float64 `json:"average_rating"`
}

// CurrentOrderStore is the accepted store's summary inside a current order.
type CurrentOrderStore struct {
	UUID           *string `json:"uuid"`
	StoreName      *string `json:"store_name"`
	Logo           *string `json:"logo"`
	Address        *string `json:"address"`
	InstagramLink  *string `json:"instagram_link"`
	Twogis         *string `json:"twogis"`
	WhatsappNumber *string `json:"whatsapp_number"`
	ProposedPrice  *string `json:"proposed_price"`
	Comment        *string `json:"comment"`
}

// CurrentOrder is the client's active order as reported by /me/.
type CurrentOrder struct {
	UUID              string              `json:"uuid"`
	Flower            TextRef             `json:"flower"`
	Color             TextRef             `json:"color"`
	FlowerHeight      string              `json:"flower_height"`
	Quantity          int                 `json:"quantity"`
	Decoration        bool                `json:"decoration"`
	RecipientsAddress string              `json:"recipients_address"`
	RecipientsPhone   string              `json:"recipients_phone"`
	FlowerData        string              `json:"flower_data"`
	Price             string              `json:"price"`
	Status            string              `json:"status"`
	Reason            string              `json:"reason"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Prices            []CurrentOrderStore `json:"prices"`
}

// CreatedOrder is the response to order creation.
type CreatedOrder struct {
	UUID              string    `json:"uuid"`
	Flower            TextRef   `json:"flower"`
	Color             TextRef   `json:"color"`
	FlowerHeight      string    `json:"flower_height"`
	Quantity          int       `json:"quantity"`
	Decoration        bool      `json:"decoration"`
	RecipientsAddress string    `json:"recipients_address"`
	RecipientsPhone   string    `json:"recipients_phone"`
	FlowerData        string    `json:"flower_data"`
	Price             string    `json:"price"`
	Status            string    `json:"status"`
	Reason            string    `json:"reason"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProposedPrice is a store's offer as seen by the ordering client.
type ProposedPrice struct {
	UUID           string     `json:"uuid"`
	ProposedPrice  string     `json:"proposed_price"`
	FlowerImg      *string    `json:"flower_img"`
	Comment        *string    `json:"comment"`
	IsAccepted     bool       `json:"is_accepted"`
	ExpiresAt      *time.Time `json:"expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	StoreName      string     `json:"store_name"`
	Logo           *string    `json:"logo"`
	InstagramLink  *string    `json:"instagram_link"`
	WhatsappNumber *string    `json:"whatsapp_number"`
	Twogis         *string    `json:"twogis"`
	Rating         float64    `json:"rating"`
}

// HistoryOrder is one entry of the client's order history.
type HistoryOrder struct {
	UUID               string    `json:"uuid"`
	Flower             TextRef   `json:"flower"`
	Color              TextRef   `json:"color"`
	FlowerHeight       string    `json:"flower_height"`
	Quantity           int       `json:"quantity"`
	Decoration         bool      `json:"decoration"`
	City               string    `json:"city"`
	RecipientsAddress  string    `json:"recipients_address"`
	RecipientsPhone    string    `json:"recipients_phone"`
	FlowerData         string    `json:"flower_data"`
	Price              string    `json:"price"`
	Status             string    `json:"status"`
	Reason             string    `json:"reason"`
	Rating             int       `json:"rating"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	InstagramLink      *string   `json:"instagram_link"`
	WhatsappNumber     *string   `json:"whatsapp_number"`
	Twogis             *string   `json:"twogis"`
	StoreAverageRating *float64  `json:"store_average_rating"`
}

// IncomingOrder is a pending order visible to a store that has not proposed
// on it yet.
type IncomingOrder struct {
	UUID              string  `json:"uuid"`
	FirstName         string  `json:"first_name"`
	Flower            TextRef `json:"flower"`
	Color             TextRef `json:"color"`
	FlowerHeight      string  `json:"flower_height"`
	Quantity          int     `json:"quantity"`
	Decoration        bool    `json:"decoration"`
	RecipientsAddress string  `json:"recipients_address"`
	FlowerData        string  `json:"flower_data"`
}

// StoreHistoryOrder is one entry of the store's proposal/order history.
type StoreHistoryOrder struct {
	UUID              string    `json:"uuid"`
	Flower            TextRef   `json:"flower"`
	Color             TextRef   `json:"color"`
	FlowerHeight      string    `json:"flower_height"`
	Quantity          int       `json:"quantity"`
	Decoration        bool      `json:"decoration"`
	City              string    `json:"city"`
	RecipientsAddress string    `json:"recipients_address"`
	RecipientsPhone   string    `json:"recipients_phone"`
	CustomerPhone     string    `json:"customer_phone"`
	FlowerData        string    `json:"flower_data"`
	Status            string    `json:"status"`
	Reason            string    `json:"reason"`
	Rating            int       `json:"rating"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	ProposedPrice     string    `json:"proposed_price"`
	Comment           string    `json:"comment"`
	FirstName         string    `json:"first_name"`
}

// StoreHistoryPage is a page of store history.
type StoreHistoryPage struct {
	Count    int64               `json:"count"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
	Results  []StoreHistoryOrder `json:"results"`
}

// StatusChange is the response to an order-status update.
type StatusChange struct {
	UUID   string `json:"uuid"`
	Status string `json:"status"`
}

// ReferenceEntry is a flower or color catalog entry.
type ReferenceEntry struct {
	UUID string `json:"uuid"`
	Text string `json:"text"`
}
