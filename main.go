package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"flowmarket/internal/config"
	"flowmarket/internal/database"
	"flowmarket/internal/handlers"
	"flowmarket/internal/middleware"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsureProposalIndexes(db); err != nil {
		log.Printf("proposal index warning: %v", err)
	}
	if err := database.EnsureRefreshTokenIndexes(db); err != nil {
		log.Printf("refresh token index warning: %v", err)
	}

	r := gin.Default()
	r.Static("/uploads", config.AppEnv.UploadDir)

	r.POST("/login/", handlers.Login(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL, config.AppEnv.RefreshTokenTTL))
	r.POST("/register/", handlers.Register(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL, config.AppEnv.RefreshTokenTTL))
	r.POST("/token/refresh/", handlers.Refresh(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL, config.AppEnv.RefreshTokenTTL))
	r.POST("/logout/", handlers.Logout(db))

	r.GET("/flowers/", handlers.GetFlowers(db))
	r.GET("/colors/", handlers.GetColors(db))

	me := r.Group("/me")
	me.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		me.GET("/", handlers.GetMe(db))
		me.PUT("/", handlers.UpdateMe(db, config.AppEnv.UploadDir))
		me.PATCH("/", handlers.PatchMe(db))
	}

	clientRoutes := r.Group("/client")
	clientRoutes.Use(middleware.ClientAuth(config.AppEnv.JWTSecret))
	{
		clientRoutes.POST("/order/", handlers.CreateOrder(db))
		clientRoutes.POST("/:uuid/cancel/", handlers.CancelOrder(db))
		clientRoutes.GET("/proposed-prices/", handlers.GetProposedPrices(db))
		clientRoutes.POST("/prices/:uuid/accept/", handlers.AcceptProposal(db))
		clientRoutes.POST("/prices/:uuid/cancel/", handlers.RejectProposal(db))
		clientRoutes.GET("/order-history/", handlers.GetOrderHistory(db))
		clientRoutes.POST("/rate/:uuid/", handlers.RateOrder(db))
		clientRoutes.PATCH("/order-status/:uuid/", handlers.ClientChangeOrderStatus(db))
	}

	storeRoutes := r.Group("/store")
	storeRoutes.Use(middleware.StoreAuth(config.AppEnv.JWTSecret))
	{
		storeRoutes.GET("/profile/", handlers.GetStoreProfile(db))
		storeRoutes.PUT("/profile/", handlers.UpdateStoreProfile(db, config.AppEnv.UploadDir))
		storeRoutes.GET("/orders/", handlers.GetStoreOrders(db))
		storeRoutes.POST("/propose-price/:uuid/", handlers.ProposePrice(db, config.AppEnv.UploadDir))
		storeRoutes.PATCH("/order-status/:uuid/", handlers.StoreChangeOrderStatus(db))
		storeRoutes.GET("/history/", handlers.GetStoreHistory(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
