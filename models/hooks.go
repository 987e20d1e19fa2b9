package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// This file holds the derived-state recomputation and cascade helpers. They
// are invoked explicitly by the write paths after the triggering mutation has
// committed, so ordering and failure handling stay visible at the call site.

// CalcCartTotals recomputes a cart's total, totalProducts and totalQuantity
// from its current lines at current effective prices.
func CalcCartTotals(ctx context.Context, db *mongo.Database, cartID primitive.ObjectID) error {
	carts := db.Collection(CartsCollection)

	var cart Cart
	if err := carts.FindOne(ctx, bson.M{"_id": cartID}).Decode(&cart); err != nil {
		return err
	}

	products, err := LoadProducts(ctx, db, cartProductIDs(cart.Products))
	if err != nil {
		return err
	}

	total, totalProducts, totalQuantity := CartTotals(cart.Products, products, time.Now())

	_, err = carts.UpdateOne(ctx, bson.M{"_id": cartID}, bson.M{
		"$set": bson.M{
			"total":          total,
			"total_products": totalProducts,
			"total_quantity": totalQuantity,
		},
	})
	return err
}

// LoadProducts fetches the given products into a map keyed by id.
func LoadProducts(ctx context.Context, db *mongo.Database, ids []primitive.ObjectID) (map[primitive.ObjectID]*Product, error) {
	products := make(map[primitive.ObjectID]*Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	cursor, err := db.Collection(ProductsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var product Product
		if err := cursor.Decode(&product); err != nil {
			return nil, err
		}
		products[product.ID] = &product
	}
	return products, cursor.Err()
}

func cartProductIDs(items []CartItem) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Product)
	}
	return ids
}

// CalcProductRatings recomputes a product's rating aggregate as the count and
// mean over all reviews referencing it.
func CalcProductRatings(ctx context.Context, db *mongo.Database, productID primitive.ObjectID) error {
	cursor, err := db.Collection(ReviewsCollection).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$product",
			"nRating":   bson.M{"$sum": 1},
			"avgRating": bson.M{"$avg": "$rating"},
		}}},
	})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var stats []struct {
		NRating   int     `bson:"nRating"`
		AvgRating float64 `bson:"avgRating"`
	}
	if err := cursor.All(ctx, &stats); err != nil {
		return err
	}

	quantity, average := 0, 0.0
	if len(stats) > 0 {
		quantity = stats[0].NRating
		average = stats[0].AvgRating
	}

	_, err = db.Collection(ProductsCollection).UpdateOne(ctx, bson.M{"_id": productID}, bson.M{
		"$set": bson.M{
			"rating.ratings_quantity": quantity,
			"rating.ratings_average":  average,
		},
	})
	return err
}

// NextSequence returns the next value of a named counter, starting at 1000.
// Backs the auto-incrementing invoice number.
func NextSequence(ctx context.Context, db *mongo.Database, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := db.Collection(CountersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return 999 + counter.Seq, nil
}

// CreateInvoiceForOrder creates the single invoice for a delivered order and
// notifies the buyer. The unique index on the order reference makes a repeat
// delivery transition surface as a duplicate-key error instead of a second
// invoice.
func CreateInvoiceForOrder(ctx context.Context, db *mongo.Database, order *Order) error {
	number, err := NextSequence(ctx, db, "invoice_number")
	if err != nil {
		return err
	}

	_, err = db.Collection(InvoicesCollection).InsertOne(ctx, Invoice{
		InvoiceNumber: number,
		Order:         order.ID,
		User:          order.User,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		return err
	}

	return Notify(ctx, db, Notification{
		Message:  fmt.Sprintf("Your order has been delivered. Invoice #%d is ready.", number),
		Priority: PriorityMedium,
		User:     order.User,
		Order:    order.ID,
	})
}

// Notify inserts a notification for a user. Callers treat failures as
// non-fatal; the triggering write has already committed.
func Notify(ctx context.Context, db *mongo.Database, n Notification) error {
	n.CreatedAt = time.Now()
	if err := n.Validate(); err != nil {
		return err
	}
	_, err := db.Collection(NotificationsCollection).InsertOne(ctx, n)
	return err
}

// CascadeDeleteProduct removes everything owned by a deleted product.
func CascadeDeleteProduct(ctx context.Context, db *mongo.Database, productID primitive.ObjectID) error {
	_, err := db.Collection(ReviewsCollection).DeleteMany(ctx, bson.M{"product": productID})
	return err
}

// CascadeDeleteVendor removes a deleted vendor's products and, transitively,
// their reviews, and demotes the owning user back to the "user" role.
func CascadeDeleteVendor(ctx context.Context, db *mongo.Database, vendorID primitive.ObjectID) error {
	products := db.Collection(ProductsCollection)

	cursor, err := products.Find(ctx, bson.M{"vendor": vendorID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return err
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return err
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}

	if _, err := products.DeleteMany(ctx, bson.M{"vendor": vendorID}); err != nil {
		return err
	}
	if len(ids) > 0 {
		if _, err := db.Collection(ReviewsCollection).DeleteMany(ctx, bson.M{"product": bson.M{"$in": ids}}); err != nil {
			return err
		}
	}

	_, err = db.Collection(UsersCollection).UpdateOne(ctx,
		bson.M{"vendor": vendorID},
		bson.M{"$set": bson.M{"role": RoleUser}, "$unset": bson.M{"vendor": ""}},
	)
	return err
}

// CascadeDeleteUser removes a deleted user's vendor profile, reviews, cart
// and wishlist.
func CascadeDeleteUser(ctx context.Context, db *mongo.Database, user *User) error {
	if !user.Vendor.IsZero() {
		if _, err := db.Collection(VendorsCollection).DeleteOne(ctx, bson.M{"_id": user.Vendor}); err != nil {
			return err
		}
		if err := CascadeDeleteVendor(ctx, db, user.Vendor); err != nil {
			return err
		}
	}
	if _, err := db.Collection(ReviewsCollection).DeleteMany(ctx, bson.M{"user": user.ID}); err != nil {
		return err
	}
	if _, err := db.Collection(CartsCollection).DeleteOne(ctx, bson.M{"user": user.ID}); err != nil {
		return err
	}
	_, err := db.Collection(WishlistsCollection).DeleteOne(ctx, bson.M{"user": user.ID})
	return err
}

// FindUserByID loads one user or reports absence with a nil user.
func FindUserByID(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*User, error) {
	var user User
	err := db.Collection(UsersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
