package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"vendix/config"
	"vendix/controllers"
	"vendix/middleware"
	"vendix/routes"
	"vendix/utils"
)

func main() {
	cfg := config.Load()
	utils.SetEnvironment(cfg.Env)

	client := utils.ConnectDB(cfg)
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from DB: %v", err)
		}
	}()
	db := client.Database(cfg.DBName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := utils.EnsureIndexes(ctx, db); err != nil {
		cancel()
		log.Fatalf("Failed to create indexes: %v", err)
	}
	cancel()

	mailer := utils.NewMailer(cfg)
	uploader := utils.NewLocalUploader(cfg)
	auth := middleware.NewAuth(db, cfg)

	router := mux.NewRouter()
	routes.Register(router, auth, &routes.Controllers{
		Auth:          controllers.NewAuthController(client, db, cfg, mailer),
		Users:         controllers.NewUserController(db, cfg, uploader),
		Vendors:       controllers.NewVendorController(db, cfg, uploader),
		Products:      controllers.NewProductController(db, cfg, uploader),
		Categories:    controllers.NewCategoryController(db, cfg),
		Carts:         controllers.NewCartController(db, cfg),
		Orders:        controllers.NewOrderController(db, cfg),
		Reviews:       controllers.NewReviewController(db, cfg),
		Invoices:      controllers.NewInvoiceController(db, cfg),
		Wishlists:     controllers.NewWishlistController(db, cfg),
		Notifications: controllers.NewNotificationController(db, cfg),
	})

	// Uploaded images are served straight off disk.
	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)
	handler := handlers.LoggingHandler(log.Writer(), cors(router))

	log.Printf("Server running on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
