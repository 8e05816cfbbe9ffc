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

// GetMe returns the authenticated user's profile together with the current
// active order, if any. Clients poll this to reconcile order state.
func GetMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			log.Println("[ACCOUNT] [ERROR] userId missing in context")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			log.Println("[ACCOUNT] [ERROR] get me failed:", err)
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		response := gin.H{
			"email":           user.Email,
			"first_name":      user.FirstName,
			"last_name":       user.LastName,
			"phone":           user.Phone,
			"city":            user.City,
			"user_type":       user.UserType,
			"profile_picture": user.ProfilePicture,
			"current_order":   nil,
		}

		var order models.Order
		err := db.Collection("orders").FindOne(ctx, bson.M{
			"clientId": userID,
			"status":   bson.M{"$nin": bson.A{models.StatusCompleted, models.StatusCanceled}},
		}, options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})).Decode(&order)
		if err == nil {
			view := buildCurrentOrderView(ctx, db, order)
			response["current_order"] = view
		} else if err != mongo.ErrNoDocuments {
			log.Println("[ACCOUNT] [ERROR] current order lookup failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		c.JSON(http.StatusOK, response)
	}
}

// UpdateMe updates the profile from a multipart form. Only present fields are
// written; the optional profile_picture file replaces the previous upload.
func UpdateMe(db *mongo.Database, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /me/"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid multipart form")
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		for _, field := range []struct{ form, doc string }{
			{"email", "email"},
			{"first_name", "firstName"},
			{"last_name", "lastName"},
			{"phone", "phone"},
			{"city", "city"},
		} {
			if value, ok := c.GetPostForm(field.form); ok {
				trimmed := strings.TrimSpace(value)
				if field.form == "email" {
					trimmed = strings.ToLower(trimmed)
				}
				update[field.doc] = trimmed
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&existing); err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		if file, err := c.FormFile("profile_picture"); err == nil && file != nil {
			stored, saveErr := saveUpload(c, file, uploadDir, "profile")
			if saveErr != nil {
				log.Println("[ACCOUNT] [ERROR] profile picture save failed:", saveErr)
				respondWithError(c, http.StatusInternalServerError, route, "upload failed")
				return
			}
			if existing.ProfilePicture != "" {
				if delErr := safeDeleteUpload(uploadDir, existing.ProfilePicture); delErr != nil {
					log.Println("[ACCOUNT] [ERROR] old picture delete failed:", delErr)
				}
			}
			update["profilePicture"] = stored
		}

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{"$set": update}); err != nil {
			log.Println("[ACCOUNT] [ERROR] update me failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"email":           user.Email,
			"first_name":      user.FirstName,
			"last_name":       user.LastName,
			"phone":           user.Phone,
			"city":            user.City,
			"user_type":       user.UserType,
			"profile_picture": user.ProfilePicture,
		})
	}
}

// PatchMe switches the account between client and store roles. A fresh token
// must be obtained afterwards since the type is baked into the JWT.
func PatchMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /me/"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid multipart form")
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		if phone, ok := c.GetPostForm("phone"); ok {
			update["phone"] = strings.TrimSpace(phone)
		}
		if userType, ok := c.GetPostForm("user_type"); ok {
			trimmed := strings.TrimSpace(userType)
			if !models.KnownUserType(trimmed) {
				respondWithError(c, http.StatusBadRequest, route, "invalid user_type")
				return
			}
			update["userType"] = trimmed
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{"$set": update}); err != nil {
			log.Println("[ACCOUNT] [ERROR] patch me failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[ACCOUNT] [INFO] user type updated:", user.Email, user.UserType)
		c.JSON(http.StatusOK, gin.H{
			"email":           user.Email,
			"first_name":      user.FirstName,
			"last_name":       user.LastName,
			"phone":           user.Phone,
			"city":            user.City,
			"user_type":       user.UserType,
			"profile_picture": user.ProfilePicture,
		})
	}
}

// GetStoreProfile returns the storefront of the authenticated store user.
func GetStoreProfile(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var store models.StoreProfile
		if err := db.Collection("store_profiles").FindOne(ctx, bson.M{"userId": userID}).Decode(&store); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "store profile not found"})
			return
		}

		c.JSON(http.StatusOK, store)
	}
}

// UpdateStoreProfile creates or updates the storefront from a multipart form.
func UpdateStoreProfile(db *mongo.Database, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /store/profile/"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid multipart form")
			return
		}

		now := time.Now()
		update := bson.M{"updatedAt": now}
		for _, field := range []struct{ form, doc string }{
			{"store_name", "storeName"},
			{"address", "address"},
			{"instagram_link", "instagramLink"},
			{"twogis", "twogis"},
			{"whatsapp_number", "whatsappNumber"},
		} {
			if value, ok := c.GetPostForm(field.form); ok {
				update[field.doc] = strings.TrimSpace(value)
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.StoreProfile
		err := db.Collection("store_profiles").FindOne(ctx, bson.M{"userId": userID}).Decode(&existing)
		isNew := err == mongo.ErrNoDocuments
		if err != nil && !isNew {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if file, fileErr := c.FormFile("logo"); fileErr == nil && file != nil {
			stored, saveErr := saveUpload(c, file, uploadDir, "logo")
			if saveErr != nil {
				log.Println("[STORE] [ERROR] logo save failed:", saveErr)
				respondWithError(c, http.StatusInternalServerError, route, "upload failed")
				return
			}
			if existing.Logo != "" {
				if delErr := safeDeleteUpload(uploadDir, existing.Logo); delErr != nil {
					log.Println("[STORE] [ERROR] old logo delete failed:", delErr)
				}
			}
			update["logo"] = stored
		}

		setOnInsert := bson.M{
			"uuid":          uuid.NewString(),
			"userId":        userID,
			"averageRating": 0.0,
			"ratingCount":   0,
			"createdAt":     now,
		}

		opts := options.Update().SetUpsert(true)
		if _, err := db.Collection("store_profiles").UpdateOne(ctx,
			bson.M{"userId": userID},
			bson.M{"$set": update, "$setOnInsert": setOnInsert},
			opts,
		); err != nil {
			log.Println("[STORE] [ERROR] store profile upsert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var store models.StoreProfile
		if err := db.Collection("store_profiles").FindOne(ctx, bson.M{"userId": userID}).Decode(&store); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[STORE] [INFO] store profile updated:", store.StoreName)
		c.JSON(http.StatusOK, store)
	}
}
