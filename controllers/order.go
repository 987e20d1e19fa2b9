package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tealeg/xlsx"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendix/config"
	"vendix/middleware"
	"vendix/models"
	"vendix/utils"
)

var orderEntity = Entity{Name: "order", Collection: models.OrdersCollection}

// OrderController serves placed orders; creation happens at checkout.
type OrderController struct {
	db     *mongo.Database
	orders *mongo.Collection
	cfg    *config.Config
}

func NewOrderController(db *mongo.Database, cfg *config.Config) *OrderController {
	return &OrderController{
		db:     db,
		orders: db.Collection(models.OrdersCollection),
		cfg:    cfg,
	}
}

// GetAllOrders lists every order for admin and delivery staff.
func (oc *OrderController) GetAllOrders() http.HandlerFunc {
	return GetAll[models.Order](oc.db, orderEntity, nil, 10)
}

// GetOrder returns one order; users can only reach their own.
func (oc *OrderController) GetOrder() http.HandlerFunc {
	policy := OwnerPolicy{Field: "user", ExemptRoles: []string{models.RoleAdmin, models.RoleDelivery}}
	return GetOneOwned[models.Order](oc.db, orderEntity, policy)
}

// GetMyOrders lists the caller's orders. Vendors instead see the orders that
// contain their products, with foreign lines stripped out.
func (oc *OrderController) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), listTimeout)
	defer cancel()

	if user.Role == models.RoleVendor {
		oc.vendorOrders(ctx, w, r, user)
		return
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := oc.orders.Find(ctx, bson.M{"user": user.ID}, opts)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendList(w, "orders", orders, len(orders), int64(len(orders)))
}

// vendorOrders resolves each order line to its product and keeps only the
// orders (and lines) belonging to the vendor.
func (oc *OrderController) vendorOrders(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$products"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         models.ProductsCollection,
			"localField":   "products.product",
			"foreignField": "_id",
			"as":           "product_doc",
		}}},
		{{Key: "$unwind", Value: "$product_doc"}},
		{{Key: "$match", Value: bson.M{"product_doc.vendor": user.Vendor}}},
		{{Key: "$group", Value: bson.M{
			"_id":              "$_id",
			"order_status":     bson.M{"$first": "$order_status"},
			"payment_status":   bson.M{"$first": "$payment_status"},
			"shipping_address": bson.M{"$first": "$shipping_address"},
			"user":             bson.M{"$first": "$user"},
			"products":         bson.M{"$push": "$products"},
			"created_at":       bson.M{"$first": "$created_at"},
			"updated_at":       bson.M{"$first": "$updated_at"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
	}

	orders, err := aggregate(ctx, oc.orders, pipeline)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendList(w, "orders", orders, len(orders), int64(len(orders)))
}

// UpdateOrderStatus advances an order's status. Delivered and cancelled are
// terminal; reaching delivered produces the invoice and a notification.
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	var body struct {
		OrderStatus string `json:"orderStatus"`
	}
	if err := utils.ReadJSON(w, r, &body, oc.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if !models.ValidOrderStatus(body.OrderStatus) {
		utils.HandleError(w, r, models.NewValidationError(
			"Order status is either: pending, shipped, delivered, cancelled."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	var order models.Order
	err = oc.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, notFound(orderEntity))
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if err := models.CheckStatusTransition(order.OrderStatus); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	set := bson.M{"order_status": body.OrderStatus, "updated_at": time.Now()}
	if body.OrderStatus == models.OrderDelivered && order.PaymentStatus == models.PaymentPayOnDelivery {
		set["payment_status"] = models.PaymentPaid
	}
	err = oc.orders.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&order)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if order.OrderStatus == models.OrderDelivered {
		if err := models.CreateInvoiceForOrder(ctx, oc.db, &order); err != nil {
			// The unique order index makes retried deliveries harmless.
			if !mongo.IsDuplicateKeyError(err) {
				log.Printf("Failed to create invoice for order %s: %v", order.ID.Hex(), err)
			}
		}
	}

	utils.SendData(w, http.StatusOK, "order", order)
}

// DeleteOrder removes an order that has not reached a terminal status.
func (oc *OrderController) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	var order models.Order
	err = oc.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, notFound(orderEntity))
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if err := models.CheckStatusTransition(order.OrderStatus); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if _, err := oc.orders.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendNoContent(w)
}

// ExportOrders streams every order as an xlsx workbook.
func (oc *OrderController) ExportOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), listTimeout)
	defer cancel()

	cursor, err := oc.orders.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	header := sheet.AddRow()
	for _, title := range []string{"Order ID", "User ID", "Status", "Payment", "Items", "Total", "Created At"} {
		header.AddCell().Value = title
	}
	for _, order := range orders {
		row := sheet.AddRow()
		row.AddCell().Value = order.ID.Hex()
		row.AddCell().Value = order.User.Hex()
		row.AddCell().Value = order.OrderStatus
		row.AddCell().Value = order.PaymentStatus
		row.AddCell().SetInt(len(order.Products))
		row.AddCell().SetFloat(order.Total)
		row.AddCell().Value = order.CreatedAt.Format(time.RFC3339)
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := file.Write(w); err != nil {
		log.Printf("Failed to stream orders export: %v", err)
	}
}
