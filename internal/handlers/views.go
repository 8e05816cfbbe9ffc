package handlers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"flowmarket/internal/models"
)

// textRef wraps catalog values the way the mobile clients expect them.
type textRef struct {
	Text string `json:"text"`
}

type currentOrderStoreView struct {
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

type currentOrderView struct {
	UUID              string                  `json:"uuid"`
	Flower            textRef                 `json:"flower"`
	Color             textRef                 `json:"color"`
	FlowerHeight      string                  `json:"flower_height"`
	Quantity          int                     `json:"quantity"`
	Decoration        bool                    `json:"decoration"`
	RecipientsAddress string                  `json:"recipients_address"`
	RecipientsPhone   string                  `json:"recipients_phone"`
	FlowerData        string                  `json:"flower_data"`
	Price             string                  `json:"price"`
	Status            string                  `json:"status"`
	Reason            string                  `json:"reason"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
	Prices            []currentOrderStoreView `json:"prices"`
}

type proposalView struct {
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

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func buildProposalView(p models.Proposal, store models.StoreProfile) proposalView {
	return proposalView{
		UUID:           p.UUID,
		ProposedPrice:  p.ProposedPrice,
		FlowerImg:      optional(p.FlowerImg),
		Comment:        optional(p.Comment),
		IsAccepted:     p.IsAccepted,
		ExpiresAt:      p.ExpiresAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		StoreName:      store.StoreName,
		Logo:           optional(store.Logo),
		InstagramLink:  optional(store.InstagramLink),
		WhatsappNumber: optional(store.WhatsappNumber),
		Twogis:         optional(store.Twogis),
		Rating:         store.AverageRating,
	}
}

// buildCurrentOrderView assembles the client view of an active order. The
// prices array carries the accepted proposal's store details once one exists.
func buildCurrentOrderView(ctx context.Context, db *mongo.Database, order models.Order) currentOrderView {
	view := currentOrderView{
		UUID:              order.UUID,
		Flower:            textRef{Text: order.Flower},
		Color:             textRef{Text: order.Color},
		FlowerHeight:      order.FlowerHeight,
		Quantity:          order.Quantity,
		Decoration:        order.Decoration,
		RecipientsAddress: order.RecipientsAddress,
		RecipientsPhone:   order.RecipientsPhone,
		FlowerData:        order.FlowerData,
		Price:             order.Price,
		Status:            order.Status,
		Reason:            order.Reason,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
		Prices:            []currentOrderStoreView{},
	}

	var accepted models.Proposal
	err := db.Collection("proposals").FindOne(ctx, bson.M{
		"orderUuid":  order.UUID,
		"isAccepted": true,
	}).Decode(&accepted)
	if err != nil {
		return view
	}

	var store models.StoreProfile
	if err := db.Collection("store_profiles").FindOne(ctx, bson.M{"userId": accepted.StoreID}).Decode(&store); err != nil {
		return view
	}

	view.Prices = append(view.Prices, currentOrderStoreView{
		UUID:           optional(store.UUID),
		StoreName:      optional(store.StoreName),
		Logo:           optional(store.Logo),
		Address:        optional(store.Address),
		InstagramLink:  optional(store.InstagramLink),
		Twogis:         optional(store.Twogis),
		WhatsappNumber: optional(store.WhatsappNumber),
		ProposedPrice:  optional(accepted.ProposedPrice),
		Comment:        optional(accepted.Comment),
	})
	return view
}

func findStoreProfiles(ctx context.Context, db *mongo.Database, proposals []models.Proposal) map[string]models.StoreProfile {
	profiles := make(map[string]models.StoreProfile, len(proposals))
	for _, p := range proposals {
		if _, ok := profiles[p.StoreID.Hex()]; ok {
			continue
		}
		var store models.StoreProfile
		if err := db.Collection("store_profiles").FindOne(ctx, bson.M{"userId": p.StoreID}).Decode(&store); err == nil {
			profiles[p.StoreID.Hex()] = store
		}
	}
	return profiles
}
