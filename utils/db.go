package utils

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendix/config"
	"vendix/models"
)

// ConnectDB opens the Mongo client and verifies the connection.
func ConnectDB(cfg *config.Config) *mongo.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal(err)
	}

	log.Println("DB connected successfully!")
	return client
}

// EnsureIndexes creates the unique, compound and text indexes the data model
// relies on. Safe to run on every boot.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		models.UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		models.VendorsCollection: {
			{Keys: bson.D{{Key: "business_name", Value: 1}}, Options: unique},
		},
		models.ProductsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "slug", Value: 1}}},
			{Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "tags", Value: "text"},
			}},
		},
		models.CategoriesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		models.CartsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: unique},
		},
		models.WishlistsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: unique},
		},
		models.ReviewsCollection: {
			{Keys: bson.D{{Key: "product", Value: 1}, {Key: "user", Value: 1}}, Options: unique},
		},
		models.InvoicesCollection: {
			{Keys: bson.D{{Key: "order", Value: 1}}, Options: unique},
		},
	}

	for collection, idx := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}
