package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendix/config"
	"vendix/middleware"
	"vendix/models"
	"vendix/utils"
)

// CartController manages the per-user cart and turns it into orders.
type CartController struct {
	db       *mongo.Database
	carts    *mongo.Collection
	products *mongo.Collection
	cfg      *config.Config
}

func NewCartController(db *mongo.Database, cfg *config.Config) *CartController {
	return &CartController{
		db:       db,
		carts:    db.Collection(models.CartsCollection),
		products: db.Collection(models.ProductsCollection),
		cfg:      cfg,
	}
}

// GetMyCart recomputes the derived totals, then returns the cart. Prices
// change under the cart (discount expiry, vendor edits), so totals are
// refreshed on read.
func (cc *CartController) GetMyCart(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	cart, err := cc.findByUser(ctx, user)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if err := models.CalcCartTotals(ctx, cc.db, cart.ID); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if err := cc.carts.FindOne(ctx, bson.M{"_id": cart.ID}).Decode(cart); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendData(w, http.StatusOK, "cart", cart)
}

// AddToCart merges a (product, quantity) line into the cart, capped by the
// product's stock.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var body struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	}
	if err := utils.ReadJSON(w, r, &body, cc.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if body.Quantity < 1 {
		utils.HandleError(w, r, utils.NewAppError(
			"Quantity must be at least 1.", http.StatusBadRequest))
		return
	}
	productID, err := objectIDFrom(body.Product)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	var product models.Product
	err = cc.products.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, notFound(productEntity))
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if product.IsArchived {
		utils.HandleError(w, r, utils.NewAppError(
			"This product is no longer available.", http.StatusBadRequest))
		return
	}

	cart, err := cc.findByUser(ctx, user)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	quantity := body.Quantity
	for _, item := range cart.Products {
		if item.Product == productID {
			quantity += item.Quantity
		}
	}
	if quantity > product.StockQuantity {
		utils.HandleError(w, r, utils.NewAppError(
			fmt.Sprintf("The requested quantity exceeds the available stock of %d.", product.StockQuantity),
			http.StatusBadRequest))
		return
	}

	if err := cc.setQuantity(ctx, cart, productID, quantity); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendMessage(w, http.StatusOK, "Product has been added to cart successfully!")
}

// UpdateCartItem sets the quantity of a line; zero removes it.
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	productID, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := utils.ReadJSON(w, r, &body, cc.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if body.Quantity == nil || *body.Quantity < 0 {
		utils.HandleError(w, r, utils.NewAppError(
			"Quantity must be zero or greater.", http.StatusBadRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	cart, err := cc.findByUser(ctx, user)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if !cartContains(cart, productID) {
		utils.HandleError(w, r, utils.NewAppError(
			"Product is not in the cart.", http.StatusNotFound))
		return
	}

	if *body.Quantity > 0 {
		var product models.Product
		if err := cc.products.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err == nil {
			if *body.Quantity > product.StockQuantity {
				utils.HandleError(w, r, utils.NewAppError(
					fmt.Sprintf("The requested quantity exceeds the available stock of %d.", product.StockQuantity),
					http.StatusBadRequest))
				return
			}
		}
	}

	if err := cc.setQuantity(ctx, cart, productID, *body.Quantity); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendMessage(w, http.StatusOK, "Cart has been updated successfully!")
}

// RemoveFromCart drops one line from the cart.
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	productID, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	cart, err := cc.findByUser(ctx, user)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if !cartContains(cart, productID) {
		utils.HandleError(w, r, utils.NewAppError(
			"Product is not in the cart.", http.StatusNotFound))
		return
	}

	if err := cc.setQuantity(ctx, cart, productID, 0); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendMessage(w, http.StatusOK, "Product has been removed from cart successfully!")
}

// ClearCart empties the cart.
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	cart, err := cc.findByUser(ctx, user)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if err := cc.emptyCart(ctx, cart.ID); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendMessage(w, http.StatusOK, "Cart has been cleared successfully!")
}

type checkoutRequest struct {
	ShippingAddress models.Address `json:"shippingAddress"`
	PaymentStatus   string         `json:"paymentStatus"`
	ShippingFee     float64        `json:"shippingFee"`
}

// Checkout snapshots the cart into an order at current effective prices,
// adjusts stock and sales counters, then empties the cart. The steps are not
// atomic: a failure mid-way can leave counters and the order out of step.
func (cc *CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var body checkoutRequest
	if err := utils.ReadJSON(w, r, &body, cc.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if body.PaymentStatus == "" {
		body.PaymentStatus = models.PaymentPayOnDelivery
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	cart, err := cc.findByUser(ctx, user)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if len(cart.Products) == 0 {
		utils.HandleError(w, r, utils.NewAppError("Your cart is empty.", http.StatusBadRequest))
		return
	}

	ids := make([]primitive.ObjectID, 0, len(cart.Products))
	for _, item := range cart.Products {
		ids = append(ids, item.Product)
	}
	products, err := models.LoadProducts(ctx, cc.db, ids)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if short := models.InsufficientStock(cart.Products, products); len(short) > 0 {
		utils.HandleError(w, r, models.InsufficientStockError(short))
		return
	}

	now := time.Now()
	items := make([]models.OrderItem, 0, len(cart.Products))
	var total float64
	for _, line := range cart.Products {
		product := products[line.Product]
		price := product.EffectivePrice(now)
		items = append(items, models.OrderItem{
			Product:  line.Product,
			Quantity: line.Quantity,
			Price:    price,
		})
		total += price * float64(line.Quantity)
	}

	order := models.Order{
		ID:              primitive.NewObjectID(),
		OrderStatus:     models.OrderPending,
		PaymentStatus:   body.PaymentStatus,
		ShippingAddress: body.ShippingAddress,
		User:            user.ID,
		Products:        items,
		Total:           models.Round2(total + body.ShippingFee),
		ShippingFee:     body.ShippingFee,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := order.Validate(); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if _, err := cc.db.Collection(models.OrdersCollection).InsertOne(ctx, order); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	for _, item := range items {
		_, err := cc.products.UpdateOne(ctx, bson.M{"_id": item.Product}, bson.M{
			"$inc": bson.M{"stock_quantity": -item.Quantity, "sales_count": item.Quantity},
		})
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}
	}

	if err := cc.emptyCart(ctx, cart.ID); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	err = models.Notify(ctx, cc.db, models.Notification{
		Message:  "Your order has been placed successfully.",
		Priority: models.PriorityHigh,
		User:     user.ID,
		Order:    order.ID,
	})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	utils.SendData(w, http.StatusCreated, "order", order)
}

func (cc *CartController) findByUser(ctx context.Context, user *models.User) (*models.Cart, error) {
	var cart models.Cart
	err := cc.carts.FindOne(ctx, bson.M{"user": user.ID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError("No cart found for this user.", http.StatusNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// setQuantity writes a line's quantity (removing it at zero) and recomputes
// the derived totals.
func (cc *CartController) setQuantity(ctx context.Context, cart *models.Cart, productID primitive.ObjectID, quantity int) error {
	var update bson.M
	switch {
	case quantity == 0:
		update = bson.M{"$pull": bson.M{"products": bson.M{"product": productID}}}
	case cartContains(cart, productID):
		update = bson.M{"$set": bson.M{"products.$[line].quantity": quantity}}
	default:
		update = bson.M{"$push": bson.M{"products": models.CartItem{Product: productID, Quantity: quantity}}}
	}

	opts := options.Update()
	if _, isSet := update["$set"]; isSet {
		opts.SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"line.product": productID}},
		})
	}
	if _, err := cc.carts.UpdateOne(ctx, bson.M{"_id": cart.ID}, update, opts); err != nil {
		return err
	}
	return models.CalcCartTotals(ctx, cc.db, cart.ID)
}

func (cc *CartController) emptyCart(ctx context.Context, cartID primitive.ObjectID) error {
	_, err := cc.carts.UpdateOne(ctx, bson.M{"_id": cartID}, bson.M{"$set": bson.M{
		"products":       []models.CartItem{},
		"total":          0,
		"total_products": 0,
		"total_quantity": 0,
	}})
	return err
}

func cartContains(cart *models.Cart, productID primitive.ObjectID) bool {
	for _, item := range cart.Products {
		if item.Product == productID {
			return true
		}
	}
	return false
}

func objectIDFrom(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, utils.NewAppError(
			fmt.Sprintf("Invalid id: %s.", raw), http.StatusBadRequest)
	}
	return id, nil
}
