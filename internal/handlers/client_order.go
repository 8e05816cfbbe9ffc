package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flowmarket/internal/models"
)

type colorRequest struct {
	Text string `json:"text" binding:"required"`
}

type createOrderRequest struct {
	Flower            string       `json:"flower" binding:"required"`
	Color             colorRequest `json:"color" binding:"required"`
	FlowerHeight      string       `json:"flower_height" binding:"required"`
	Quantity          int          `json:"quantity" binding:"required,gt=0"`
	Decoration        bool         `json:"decoration"`
	RecipientsAddress string       `json:"recipients_address" binding:"required"`
	RecipientsPhone   string       `json:"recipients_phone" binding:"required"`
	FlowerData        string       `json:"flower_data"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type rateOrderRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateOrder opens a new flower order. A client may hold at most one active
// order at a time.
func CreateOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /client/order/"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		active, err := db.Collection("orders").CountDocuments(ctx, bson.M{
			"clientId": userID,
			"status":   bson.M{"$nin": bson.A{models.StatusCompleted, models.StatusCanceled}},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if active > 0 {
			respondWithError(c, http.StatusConflict, route, "an active order already exists")
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "user not found")
			return
		}

		now := time.Now()
		order := models.Order{
			UUID:              uuid.NewString(),
			ClientID:          userID,
			Flower:            strings.TrimSpace(req.Flower),
			Color:             strings.TrimSpace(req.Color.Text),
			FlowerHeight:      strings.TrimSpace(req.FlowerHeight),
			Quantity:          req.Quantity,
			Decoration:        req.Decoration,
			City:              user.City,
			RecipientsAddress: strings.TrimSpace(req.RecipientsAddress),
			RecipientsPhone:   strings.TrimSpace(req.RecipientsPhone),
			FlowerData:        strings.TrimSpace(req.FlowerData),
			Status:            models.StatusPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		if _, err := db.Collection("orders").InsertOne(ctx, order); err != nil {
			log.Println("[ORDER] [ERROR] order insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[ORDER] [INFO] order created:", order.UUID)
		c.JSON(http.StatusCreated, gin.H{
			"uuid":               order.UUID,
			"flower":             textRef{Text: order.Flower},
			"color":              textRef{Text: order.Color},
			"flower_height":      order.FlowerHeight,
			"quantity":           order.Quantity,
			"decoration":         order.Decoration,
			"recipients_address": order.RecipientsAddress,
			"recipients_phone":   order.RecipientsPhone,
			"flower_data":        order.FlowerData,
			"price":              order.Price,
			"status":             order.Status,
			"reason":             order.Reason,
			"created_at":         order.CreatedAt,
			"updated_at":         order.UpdatedAt,
		})
	}
}

// CancelOrder cancels the client's order with a mandatory reason. Only
// pending and accepted orders can be canceled.
func CancelOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /client/{uuid}/cancel/"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req cancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		reason := strings.TrimSpace(req.Reason)
		if reason == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
			return
		}

		orderUUID := c.Param("uuid")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{
			"uuid":     orderUUID,
			"clientId": userID,
		}).Decode(&order); err != nil {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		if !models.CanCancel(order.Status) {
			respondWithError(c, http.StatusConflict, route, "order can no longer be canceled")
			return
		}

		now := time.Now()
		if _, err := db.Collection("orders").UpdateOne(ctx, bson.M{"uuid": orderUUID}, bson.M{
			"$set": bson.M{
				"status":    models.StatusCanceled,
				"reason":    reason,
				"updatedAt": now,
			},
		}); err != nil {
			log.Println("[ORDER] [ERROR] order cancel failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		order.Status = models.StatusCanceled
		order.Reason = reason
		order.UpdatedAt = now

		log.Println("[ORDER] [INFO] order canceled:", orderUUID)
		c.JSON(http.StatusOK, gin.H{
			"detail": "order canceled",
			"order":  buildCurrentOrderView(ctx, db, order),
		})
	}
}

// GetProposedPrices lists the open proposals against the client's current
// pending order. Polled by clients every few seconds.
func GetProposedPrices(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err := db.Collection("orders").FindOne(ctx, bson.M{
			"clientId": userID,
			"status":   models.StatusPending,
		}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusOK, []proposalView{})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		cursor, err := db.Collection("proposals").Find(ctx, bson.M{
			"orderUuid":  order.UUID,
			"rejected":   false,
			"isAccepted": false,
		}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		defer cursor.Close(ctx)

		var proposals []models.Proposal
		if err := cursor.All(ctx, &proposals); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		now := time.Now()
		stores := findStoreProfiles(ctx, db, proposals)
		views := make([]proposalView, 0, len(proposals))
		for _, p := range proposals {
			if p.Expired(now) {
				continue
			}
			views = append(views, buildProposalView(p, stores[p.StoreID.Hex()]))
		}

		c.JSON(http.StatusOK, views)
	}
}

// AcceptProposal accepts a store's proposal. The order moves to accepted and
// all other proposals are foreclosed because the order leaves pending.
func AcceptProposal(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /client/prices/{uuid}/accept/"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		proposalUUID := c.Param("uuid")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var proposal models.Proposal
		if err := db.Collection("proposals").FindOne(ctx, bson.M{"uuid": proposalUUID}).Decode(&proposal); err != nil {
			respondWithError(c, http.StatusNotFound, route, "proposal not found")
			return
		}

		if !proposal.Open(time.Now()) {
			respondWithError(c, http.StatusConflict, route, "proposal is no longer available")
			return
		}

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{
			"uuid":     proposal.OrderUUID,
			"clientId": userID,
		}).Decode(&order); err != nil {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		if order.Status != models.StatusPending {
			respondWithError(c, http.StatusConflict, route, "order is not pending")
			return
		}

		now := time.Now()
		// Guard against two concurrent accepts: only the first update that
		// still sees a pending order wins.
		res, err := db.Collection("orders").UpdateOne(ctx, bson.M{
			"uuid":   order.UUID,
			"status": models.StatusPending,
		}, bson.M{
			"$set": bson.M{
				"status":    models.StatusAccepted,
				"price":     proposal.ProposedPrice,
				"updatedAt": now,
			},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusConflict, route, "order is not pending")
			return
		}

		if _, err := db.Collection("proposals").UpdateOne(ctx, bson.M{"uuid": proposalUUID}, bson.M{
			"$set": bson.M{"isAccepted": true, "updatedAt": now},
		}); err != nil {
			log.Println("[ORDER] [ERROR] proposal accept flag failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		order.Status = models.StatusAccepted
		order.Price = proposal.ProposedPrice
		order.UpdatedAt = now

		log.Println("[ORDER] [INFO] proposal accepted:", proposalUUID, "order:", order.UUID)
		c.JSON(http.StatusOK, buildCurrentOrderView(ctx, db, order))
	}
}

// RejectProposal removes a proposal from the client's active list. The order
// stays pending.
func RejectProposal(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /client/prices/{uuid}/cancel/"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		proposalUUID := c.Param("uuid")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var proposal models.Proposal
		if err := db.Collection("proposals").FindOne(ctx, bson.M{"uuid": proposalUUID}).Decode(&proposal); err != nil {
			respondWithError(c, http.StatusNotFound, route, "proposal not found")
			return
		}

		count, err := db.Collection("orders").CountDocuments(ctx, bson.M{
			"uuid":     proposal.OrderUUID,
			"clientId": userID,
		})
		if err != nil || count == 0 {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		if proposal.IsAccepted {
			respondWithError(c, http.StatusConflict, route, "accepted proposal cannot be rejected")
			return
		}

		if _, err := db.Collection("proposals").UpdateOne(ctx, bson.M{"uuid": proposalUUID}, bson.M{
			"$set": bson.M{"rejected": true, "updatedAt": time.Now()},
		}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[ORDER] [INFO] proposal rejected:", proposalUUID)
		c.JSON(http.StatusOK, gin.H{"detail": "proposal rejected"})
	}
}

// GetOrderHistory lists the client's past orders, newest first, with the
// accepted store's contact details when an order got that far.
func GetOrderHistory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx,
			bson.M{"clientId": userID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		defer cursor.Close(ctx)

		var orders []models.Order
		if err := cursor.All(ctx, &orders); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		history := make([]gin.H, 0, len(orders))
		for _, order := range orders {
			entry := gin.H{
				"uuid":                 order.UUID,
				"flower":               textRef{Text: order.Flower},
				"color":                textRef{Text: order.Color},
				"flower_height":        order.FlowerHeight,
				"quantity":             order.Quantity,
				"decoration":           order.Decoration,
				"city":                 order.City,
				"recipients_address":   order.RecipientsAddress,
				"recipients_phone":     order.RecipientsPhone,
				"flower_data":          order.FlowerData,
				"price":                order.Price,
				"status":               order.Status,
				"reason":               order.Reason,
				"rating":               order.Rating,
				"created_at":           order.CreatedAt,
				"updated_at":           order.UpdatedAt,
				"instagram_link":       nil,
				"whatsapp_number":      nil,
				"twogis":               nil,
				"store_average_rating": nil,
			}

			var accepted models.Proposal
			if err := db.Collection("proposals").FindOne(ctx, bson.M{
				"orderUuid":  order.UUID,
				"isAccepted": true,
			}).Decode(&accepted); err == nil {
				var store models.StoreProfile
				if err := db.Collection("store_profiles").FindOne(ctx, bson.M{"userId": accepted.StoreID}).Decode(&store); err == nil {
					entry["instagram_link"] = optional(store.InstagramLink)
					entry["whatsapp_number"] = optional(store.WhatsappNumber)
					entry["twogis"] = optional(store.Twogis)
					entry["store_average_rating"] = store.AverageRating
				}
			}

			history = append(history, entry)
		}

		c.JSON(http.StatusOK, history)
	}
}

// RateOrder records the client's 1-5 rating for a delivered order and folds
// it into the store's average. Re-submitting the same rating is a no-op, so
// the completion step can be retried safely.
func RateOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /client/rate/{uuid}/"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req rateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		orderUUID := c.Param("uuid")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{
			"uuid":     orderUUID,
			"clientId": userID,
		}).Decode(&order); err != nil {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		if order.Status == models.StatusPending || order.Status == models.StatusCanceled {
			respondWithError(c, http.StatusConflict, route, "order cannot be rated yet")
			return
		}

		if order.Rating != 0 {
			// Already rated; keep the first rating and let the caller retry
			// the completion step.
			c.JSON(http.StatusOK, gin.H{"detail": "order already rated", "rating": order.Rating})
			return
		}

		now := time.Now()
		if _, err := db.Collection("orders").UpdateOne(ctx, bson.M{"uuid": orderUUID}, bson.M{
			"$set": bson.M{"rating": req.Rating, "updatedAt": now},
		}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var accepted models.Proposal
		if err := db.Collection("proposals").FindOne(ctx, bson.M{
			"orderUuid":  orderUUID,
			"isAccepted": true,
		}).Decode(&accepted); err == nil {
			var store models.StoreProfile
			if err := db.Collection("store_profiles").FindOne(ctx, bson.M{"userId": accepted.StoreID}).Decode(&store); err == nil {
				newCount := store.RatingCount + 1
				newAverage := (store.AverageRating*float64(store.RatingCount) + float64(req.Rating)) / float64(newCount)
				if _, err := db.Collection("store_profiles").UpdateByID(ctx, store.ID, bson.M{
					"$set": bson.M{"averageRating": newAverage, "ratingCount": newCount, "updatedAt": now},
				}); err != nil {
					log.Println("[ORDER] [ERROR] store rating update failed:", err)
				}
			}
		}

		log.Println("[ORDER] [INFO] order rated:", orderUUID, "rating:", req.Rating)
		c.JSON(http.StatusOK, gin.H{"detail": "order rated", "rating": req.Rating})
	}
}

// ClientChangeOrderStatus lets the client confirm delivery by moving the
// order to completed. Terminal orders never transition again.
func ClientChangeOrderStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /client/order-status/{uuid}/"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req changeStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if !models.KnownStatus(req.Status) {
			respondWithError(c, http.StatusBadRequest, route, "unknown status")
			return
		}
		if req.Status != models.StatusCompleted {
			respondWithError(c, http.StatusConflict, route, "clients may only complete orders")
			return
		}

		orderUUID := c.Param("uuid")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{
			"uuid":     orderUUID,
			"clientId": userID,
		}).Decode(&order); err != nil {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		if models.IsTerminal(order.Status) {
			respondWithError(c, http.StatusConflict, route, "order already settled")
			return
		}
		if order.Status == models.StatusPending {
			respondWithError(c, http.StatusConflict, route, "order has no accepted proposal")
			return
		}

		if _, err := db.Collection("orders").UpdateOne(ctx, bson.M{"uuid": orderUUID}, bson.M{
			"$set": bson.M{"status": models.StatusCompleted, "updatedAt": time.Now()},
		}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[ORDER] [INFO] order completed by client:", orderUUID)
		c.JSON(http.StatusOK, gin.H{"uuid": orderUUID, "status": models.StatusCompleted})
	}
}
