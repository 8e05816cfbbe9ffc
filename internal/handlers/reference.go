package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flowmarket/internal/models"
)

func listReference(db *mongo.Database, collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection(collection).Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "text", Value: 1}}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		defer cursor.Close(ctx)

		var entries []models.ReferenceEntry
		if err := cursor.All(ctx, &entries); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if entries == nil {
			entries = []models.ReferenceEntry{}
		}

		c.JSON(http.StatusOK, entries)
	}
}

// GetFlowers lists the flower catalog for the order form.
func GetFlowers(db *mongo.Database) gin.HandlerFunc {
	return listReference(db, "flowers")
}

// GetColors lists the color catalog for the order form.
func GetColors(db *mongo.Database) gin.HandlerFunc {
	return listReference(db, "colors")
}
