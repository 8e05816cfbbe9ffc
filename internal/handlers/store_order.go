package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flowmarket/internal/models"
)

// proposalTTL is how long a price proposal stays acceptable.
const proposalTTL = 30 * time.Minute

// GetStoreOrders lists pending orders this store has not yet proposed on.
// Polled by store clients every few seconds.
func GetStoreOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx,
			bson.M{"status": models.StatusPending},
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

		results := make([]gin.H, 0, len(orders))
		for _, order := range orders {
			proposed, err := db.Collection("proposals").CountDocuments(ctx, bson.M{
				"orderUuid": order.UUID,
				"storeId":   storeID,
			})
			if err != nil || proposed > 0 {
				continue
			}

			var client models.User
			firstName := ""
			if err := db.Collection("users").FindOne(ctx, bson.M{"_id": order.ClientID}).Decode(&client); err == nil {
				firstName = client.FirstName
			}

			results = append(results, gin.H{
				"uuid":               order.UUID,
				"first_name":         firstName,
				"flower":             textRef{Text: order.Flower},
				"color":              textRef{Text: order.Color},
				"flower_height":      order.FlowerHeight,
				"quantity":           order.Quantity,
				"decoration":         order.Decoration,
				"recipients_address": order.RecipientsAddress,
				"flower_data":        order.FlowerData,
			})
		}

		c.JSON(http.StatusOK, results)
	}
}

// ProposePrice submits a price proposal against a pending order. The form is
// multipart: proposed_price is a required numeric string, comment and
// flower_img are optional. One proposal per store per order.
func ProposePrice(db *mongo.Database, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /store/propose-price/{uuid}/"
		defer handlePanic(c, route)

		storeID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid multipart form")
			return
		}

		price, ok := c.GetPostForm("proposed_price")
		price = strings.TrimSpace(price)
		if !ok || price == "" {
			respondWithError(c, http.StatusBadRequest, route, "proposed_price is required")
			return
		}
		if _, err := strconv.ParseFloat(price, 64); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "proposed_price must be numeric")
			return
		}

		comment := strings.TrimSpace(c.PostForm("comment"))
		orderUUID := c.Param("uuid")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"uuid": orderUUID}).Decode(&order); err != nil {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if order.Status != models.StatusPending {
			respondWithError(c, http.StatusConflict, route, "order is not pending")
			return
		}

		var store models.StoreProfile
		if err := db.Collection("store_profiles").FindOne(ctx, bson.M{"userId": storeID}).Decode(&store); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "store profile is required before proposing")
			return
		}

		existing, err := db.Collection("proposals").CountDocuments(ctx, bson.M{
			"orderUuid": orderUUID,
			"storeId":   storeID,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if existing > 0 {
			respondWithError(c, http.StatusConflict, route, "proposal already submitted for this order")
			return
		}

		imagePath := ""
		if file, fileErr := c.FormFile("flower_img"); fileErr == nil && file != nil {
			stored, saveErr := saveUpload(c, file, uploadDir, "proposal")
			if saveErr != nil {
				log.Println("[STORE] [ERROR] proposal image save failed:", saveErr)
				respondWithError(c, http.StatusInternalServerError, route, "upload failed")
				return
			}
			imagePath = stored
		}

		now := time.Now()
		expires := now.Add(proposalTTL)
		proposal := models.Proposal{
			UUID:          uuid.NewString(),
			OrderUUID:     orderUUID,
			StoreID:       storeID,
			ProposedPrice: price,
			Comment:       comment,
			FlowerImg:     imagePath,
			ExpiresAt:     &expires,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if _, err := db.Collection("proposals").InsertOne(ctx, proposal); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "proposal already submitted for this order")
				return
			}
			log.Println("[STORE] [ERROR] proposal insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[STORE] [INFO] proposal submitted:", proposal.UUID, "order:", orderUUID)
		c.JSON(http.StatusCreated, buildProposalView(proposal, store))
	}
}

// StoreChangeOrderStatus advances an order this store won along the delivery
// path: accepted, in_transit, completed. The server still owns the final
// word on which transitions exist.
func StoreChangeOrderStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /store/order-status/{uuid}/"
		defer handlePanic(c, route)

		storeID, ok := userIDFromContext(c)
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

		orderUUID := c.Param("uuid")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		accepted, err := db.Collection("proposals").CountDocuments(ctx, bson.M{
			"orderUuid":  orderUUID,
			"storeId":    storeID,
			"isAccepted": true,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if accepted == 0 {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"uuid": orderUUID}).Decode(&order); err != nil {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		if models.IsTerminal(order.Status) {
			respondWithError(c, http.StatusConflict, route, "order already settled")
			return
		}
		if !models.StoreAdvanceAllowed(order.Status, req.Status) {
			respondWithError(c, http.StatusConflict, route, "transition not allowed")
			return
		}

		if _, err := db.Collection("orders").UpdateOne(ctx, bson.M{"uuid": orderUUID}, bson.M{
			"$set": bson.M{"status": req.Status, "updatedAt": time.Now()},
		}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[STORE] [INFO] order status advanced:", orderUUID, "->", req.Status)
		c.JSON(http.StatusOK, gin.H{"uuid": orderUUID, "status": req.Status})
	}
}

// GetStoreHistory pages through the store's proposals joined with their
// orders. isRelevant=true keeps only work in progress: open proposals on
// pending orders and won orders that are not settled yet.
func GetStoreHistory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /store/history/"
		defer handlePanic(c, route)

		storeID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		page, err := parsePageParam(c.Query("page"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid page")
			return
		}
		isRelevant := strings.EqualFold(c.Query("isRelevant"), "true")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("proposals").Find(ctx,
			bson.M{"storeId": storeID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var proposals []models.Proposal
		if err := cursor.All(ctx, &proposals); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		now := time.Now()
		entries := make([]gin.H, 0, len(proposals))
		for _, proposal := range proposals {
			var order models.Order
			if err := db.Collection("orders").FindOne(ctx, bson.M{"uuid": proposal.OrderUUID}).Decode(&order); err != nil {
				continue
			}

			relevant := storeEntryRelevant(proposal, order, now)
			if relevant != isRelevant {
				continue
			}

			var client models.User
			firstName, customerPhone := "", ""
			if err := db.Collection("users").FindOne(ctx, bson.M{"_id": order.ClientID}).Decode(&client); err == nil {
				firstName = client.FirstName
				customerPhone = client.Phone
			}

			entries = append(entries, gin.H{
				"uuid":               order.UUID,
				"flower":             textRef{Text: order.Flower},
				"color":              textRef{Text: order.Color},
				"flower_height":      order.FlowerHeight,
				"quantity":           order.Quantity,
				"decoration":         order.Decoration,
				"city":               order.City,
				"recipients_address": order.RecipientsAddress,
				"recipients_phone":   order.RecipientsPhone,
				"customer_phone":     customerPhone,
				"flower_data":        order.FlowerData,
				"status":             order.Status,
				"reason":             order.Reason,
				"rating":             order.Rating,
				"created_at":         order.CreatedAt,
				"updated_at":         order.UpdatedAt,
				"proposed_price":     proposal.ProposedPrice,
				"comment":            proposal.Comment,
				"first_name":         firstName,
			})
		}

		count := int64(len(entries))
		totalPages := (count + storeHistoryPageSize - 1) / storeHistoryPageSize
		if totalPages == 0 {
			totalPages = 1
		}

		start := (page - 1) * storeHistoryPageSize
		if start > count {
			start = count
		}
		end := start + storeHistoryPageSize
		if end > count {
			end = count
		}

		c.JSON(http.StatusOK, gin.H{
			"count":    count,
			"next":     pageLink(c, page+1, totalPages),
			"previous": pageLink(c, page-1, totalPages),
			"results":  entries[start:end],
		})
	}
}

// storeEntryRelevant classifies a proposal+order pair for the isRelevant
// filter: still actionable vs settled history.
func storeEntryRelevant(proposal models.Proposal, order models.Order, now time.Time) bool {
	if proposal.IsAccepted {
		return !models.IsTerminal(order.Status)
	}
	return order.Status == models.StatusPending && proposal.Open(now)
}
