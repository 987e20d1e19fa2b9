package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vendix/config"
	"vendix/middleware"
	"vendix/models"
	"vendix/utils"
)

// WishlistController manages the per-user product wishlist.
type WishlistController struct {
	db        *mongo.Database
	wishlists *mongo.Collection
	cfg       *config.Config
}

func NewWishlistController(db *mongo.Database, cfg *config.Config) *WishlistController {
	return &WishlistController{
		db:        db,
		wishlists: db.Collection(models.WishlistsCollection),
		cfg:       cfg,
	}
}

// GetMyWishlist returns the caller's wishlist.
func (wc *WishlistController) GetMyWishlist(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	wishlist, err := wc.findByUser(ctx, user)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendData(w, http.StatusOK, "wishlist", wishlist)
}

// AddToWishlist appends a product; duplicates are rejected.
func (wc *WishlistController) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	productID, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	count, err := wc.db.Collection(models.ProductsCollection).CountDocuments(ctx, bson.M{"_id": productID})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if count == 0 {
		utils.HandleError(w, r, notFound(productEntity))
		return
	}

	wishlist, err := wc.findByUser(ctx, user)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if wishlist.Contains(productID) {
		utils.HandleError(w, r, utils.NewAppError(
			"Product is already in the wishlist.", http.StatusBadRequest))
		return
	}

	_, err = wc.wishlists.UpdateOne(ctx, bson.M{"_id": wishlist.ID}, bson.M{
		"$push": bson.M{"products": productID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendMessage(w, http.StatusOK, "Product has been added to wishlist successfully!")
}

// RemoveFromWishlist removes a product; absence is rejected.
func (wc *WishlistController) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	productID, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	wishlist, err := wc.findByUser(ctx, user)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if !wishlist.Contains(productID) {
		utils.HandleError(w, r, utils.NewAppError(
			"Product is not in the wishlist.", http.StatusBadRequest))
		return
	}

	_, err = wc.wishlists.UpdateOne(ctx, bson.M{"_id": wishlist.ID}, bson.M{
		"$pull": bson.M{"products": productID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendMessage(w, http.StatusOK, "Product has been removed from wishlist successfully!")
}

func (wc *WishlistController) findByUser(ctx context.Context, user *models.User) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := wc.wishlists.FindOne(ctx, bson.M{"user": user.ID}).Decode(&wishlist)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError("No wishlist found for this user.", http.StatusNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &wishlist, nil
}
