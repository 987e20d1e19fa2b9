package controllers

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vendix/config"
	"vendix/middleware"
	"vendix/models"
	"vendix/utils"
)

var reviewEntity = Entity{Name: "review", Collection: models.ReviewsCollection}

// ReviewController manages product reviews and keeps the product rating
// aggregates current.
type ReviewController struct {
	db      *mongo.Database
	reviews *mongo.Collection
	cfg     *config.Config
}

func NewReviewController(db *mongo.Database, cfg *config.Config) *ReviewController {
	return &ReviewController{
		db:      db,
		reviews: db.Collection(models.ReviewsCollection),
		cfg:     cfg,
	}
}

// GetAllReviews lists reviews; on the nested product route the list is
// scoped to that product.
func (rc *ReviewController) GetAllReviews() http.HandlerFunc {
	scope := func(r *http.Request) bson.M {
		raw := routeParam(r, "productId")
		if raw == "" {
			return nil
		}
		if id, err := primitive.ObjectIDFromHex(raw); err == nil {
			return bson.M{"product": id}
		}
		return bson.M{"product": primitive.NilObjectID}
	}
	return GetAll[models.Review](rc.db, reviewEntity, scope, 10)
}

func (rc *ReviewController) GetReview() http.HandlerFunc {
	return GetOne[models.Review](rc.db, reviewEntity)
}

// CreateReview inserts a review after proving the caller bought the product.
func (rc *ReviewController) CreateReview(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
		Product string `json:"product"`
	}
	if err := utils.ReadJSON(w, r, &body, rc.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	// Nested route wins over the body.
	rawProduct := routeParam(r, "productId")
	if rawProduct == "" {
		rawProduct = body.Product
	}
	productID, err := objectIDFrom(rawProduct)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	now := time.Now()
	review := models.Review{
		Rating:    body.Rating,
		Comment:   body.Comment,
		Product:   productID,
		User:      user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := review.Validate(); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	count, err := rc.db.Collection(models.ProductsCollection).CountDocuments(ctx, bson.M{"_id": productID})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if count == 0 {
		utils.HandleError(w, r, notFound(productEntity))
		return
	}

	purchased, err := rc.hasPurchased(ctx, user.ID, productID)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if !purchased {
		utils.HandleError(w, r, utils.NewAppError(
			"You can only review products you have purchased.", http.StatusForbidden))
		return
	}

	existing, err := rc.reviews.CountDocuments(ctx, bson.M{"product": productID, "user": user.ID})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if existing > 0 {
		utils.HandleError(w, r, utils.NewAppError(
			"You have already reviewed this product.", http.StatusBadRequest))
		return
	}

	if _, err := rc.reviews.InsertOne(ctx, review); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if err := models.CalcProductRatings(ctx, rc.db, productID); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	utils.SendMessage(w, http.StatusCreated, "Review has been created successfully!")
}

// CanReview reports whether the caller may review the product: purchased it
// and has not reviewed it yet.
func (rc *ReviewController) CanReview(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	productID, err := objectIDFrom(routeParam(r, "productId"))
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	purchased, err := rc.hasPurchased(ctx, user.ID, productID)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	reviewed := int64(0)
	if purchased {
		reviewed, err = rc.reviews.CountDocuments(ctx, bson.M{"product": productID, "user": user.ID})
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}
	}

	utils.SendData(w, http.StatusOK, "canReview", purchased && reviewed == 0)
}

// UpdateReview lets the author change rating and comment.
func (rc *ReviewController) UpdateReview() http.HandlerFunc {
	policy := OwnerPolicy{Field: "user"}
	shape := func(w http.ResponseWriter, r *http.Request) (bson.M, error) {
		var body struct {
			Rating  *int    `json:"rating"`
			Comment *string `json:"comment"`
		}
		if err := utils.ReadJSON(w, r, &body, rc.cfg.RequestBodyLimit); err != nil {
			return nil, err
		}
		set := bson.M{}
		if body.Rating != nil {
			if err := models.ValidateRating(*body.Rating); err != nil {
				return nil, err
			}
			set["rating"] = *body.Rating
		}
		if body.Comment != nil {
			if err := models.ValidateComment(*body.Comment); err != nil {
				return nil, err
			}
			set["comment"] = *body.Comment
		}
		if len(set) > 0 {
			set["updated_at"] = time.Now()
		}
		return set, nil
	}
	return UpdateOneOwned(rc.db, reviewEntity, policy, shape, rc.recalcRating)
}

// DeleteReview removes a review; admins can remove any.
func (rc *ReviewController) DeleteReview() http.HandlerFunc {
	policy := OwnerPolicy{Field: "user", ExemptRoles: []string{models.RoleAdmin}}
	return DeleteOneOwned(rc.db, reviewEntity, policy, rc.recalcRating)
}

// recalcRating refreshes the product aggregate after a factory write.
func (rc *ReviewController) recalcRating(ctx context.Context, doc bson.Raw) error {
	productID, ok := doc.Lookup("product").ObjectIDOK()
	if !ok {
		return nil
	}
	return models.CalcProductRatings(ctx, rc.db, productID)
}

// hasPurchased checks the caller's invoices for an order containing the
// product, so only delivered purchases qualify.
func (rc *ReviewController) hasPurchased(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	cursor, err := rc.db.Collection(models.InvoicesCollection).Find(ctx, bson.M{"user": userID})
	if err != nil {
		return false, err
	}
	var invoices []models.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return false, err
	}
	if len(invoices) == 0 {
		return false, nil
	}

	orderIDs := make([]primitive.ObjectID, 0, len(invoices))
	for _, invoice := range invoices {
		orderIDs = append(orderIDs, invoice.Order)
	}
	count, err := rc.db.Collection(models.OrdersCollection).CountDocuments(ctx, bson.M{
		"_id":              bson.M{"$in": orderIDs},
		"products.product": productID,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
