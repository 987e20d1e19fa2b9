package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendix/middleware"
	"vendix/models"
	"vendix/utils"
)

// Entity describes one collection to the generic handler factory.
type Entity struct {
	Name       string // singular, lowercase; also the envelope key
	Collection string
}

// OwnerPolicy scopes reads/updates/deletes to records whose owner field
// matches the caller, unless the caller holds an exempted role.
type OwnerPolicy struct {
	Field       string // "user" or "vendor"
	ExemptRoles []string
}

// Filter builds the lookup filter for an owned operation. Ownership
// mismatches and true absence both end up as a non-matching filter, so the
// caller cannot tell them apart.
func (p OwnerPolicy) Filter(user *models.User, id primitive.ObjectID) bson.M {
	filter := bson.M{"_id": id}
	for _, role := range p.ExemptRoles {
		if user.Role == role {
			return filter
		}
	}
	switch p.Field {
	case "user":
		filter["user"] = user.ID
	case "vendor":
		filter["vendor"] = user.Vendor
	}
	return filter
}

// ScopeFunc supplies a fixed filter for nested routes (e.g. products under
// a vendor).
type ScopeFunc func(*http.Request) bson.M

// BodyShaper turns a request body into a validated $set document.
type BodyShaper func(http.ResponseWriter, *http.Request) (bson.M, error)

// AfterWrite runs after a factory write committed, with the written
// document. Used for derived-state recomputation and cascades.
type AfterWrite func(ctx context.Context, doc bson.Raw) error

// Validator is implemented by every entity model.
type Validator interface {
	Validate() error
}

const (
	listTimeout  = 30 * time.Second
	writeTimeout = 10 * time.Second
)

func idParam(r *http.Request) (primitive.ObjectID, error) {
	raw := mux.Vars(r)["id"]
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, utils.NewAppError(
			fmt.Sprintf("Invalid id: %s.", raw), http.StatusBadRequest)
	}
	return id, nil
}

func routeParam(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// title capitalizes an entity name for a response message.
func title(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func notFound(ent Entity) error {
	return utils.NewAppError(
		fmt.Sprintf("No %s found with that ID.", ent.Name), http.StatusNotFound)
}

func notFoundOrForbidden(ent Entity) error {
	return utils.NewAppError(
		fmt.Sprintf("No %s found with that ID or access forbidden.", ent.Name), http.StatusNotFound)
}

// GetAll lists an entity with filtering, sorting, field selection,
// pagination and full-text search from query parameters, plus a fixed scope
// filter when nested under a parent route. The total is counted
// independently of pagination.
func GetAll[T any](db *mongo.Database, ent Entity, scope ScopeFunc, defaultLimit int64) http.HandlerFunc {
	collection := db.Collection(ent.Collection)
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), listTimeout)
		defer cancel()

		features := utils.ParseQuery(r.URL.Query(), defaultLimit)
		var fixed bson.M
		if scope != nil {
			fixed = scope(r)
		}
		filter := features.CountFilter(fixed)

		cursor, err := collection.Find(ctx, filter, features.FindOptions())
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}
		items := make([]T, 0)
		if err := cursor.All(ctx, &items); err != nil {
			utils.HandleError(w, r, err)
			return
		}

		total, err := collection.CountDocuments(ctx, filter)
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}

		utils.SendList(w, utils.Pluralize(ent.Name), items, len(items), total)
	}
}

// GetOne fetches an entity by id.
func GetOne[T any](db *mongo.Database, ent Entity) http.HandlerFunc {
	collection := db.Collection(ent.Collection)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
		defer cancel()

		var doc T
		err = collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.HandleError(w, r, notFound(ent))
			return
		}
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}

		utils.SendData(w, http.StatusOK, ent.Name, doc)
	}
}

// GetOneOwned fetches an entity by id, restricted to the caller's records
// unless their role is exempted.
func GetOneOwned[T any](db *mongo.Database, ent Entity, policy OwnerPolicy) http.HandlerFunc {
	collection := db.Collection(ent.Collection)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}
		user := middleware.CurrentUser(r)

		ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
		defer cancel()

		var doc T
		err = collection.FindOne(ctx, policy.Filter(user, id)).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.HandleError(w, r, notFoundOrForbidden(ent))
			return
		}
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}

		utils.SendData(w, http.StatusOK, ent.Name, doc)
	}
}

// CreateOne inserts a new document built by decode, validating it first.
func CreateOne[T Validator](db *mongo.Database, ent Entity, decode func(http.ResponseWriter, *http.Request) (T, error), after AfterWrite) http.HandlerFunc {
	collection := db.Collection(ent.Collection)
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := decode(w, r)
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}
		if err := doc.Validate(); err != nil {
			utils.HandleError(w, r, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
		defer cancel()

		result, err := collection.InsertOne(ctx, doc)
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}

		if after != nil {
			var raw bson.Raw
			if raw, err = collection.FindOne(ctx, bson.M{"_id": result.InsertedID}).Raw(); err == nil {
				err = after(ctx, raw)
			}
			if err != nil {
				utils.HandleError(w, r, err)
				return
			}
		}

		utils.SendMessage(w, http.StatusCreated,
			fmt.Sprintf("%s has been created successfully!", title(ent.Name)))
	}
}

// UpdateOne patches a document with the shaped body.
func UpdateOne(db *mongo.Database, ent Entity, shape BodyShaper, after AfterWrite) http.HandlerFunc {
	collection := db.Collection(ent.Collection)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}
		updateOne(w, r, collection, ent, bson.M{"_id": id}, shape, after, notFound(ent))
	}
}

// UpdateOneOwned patches a document, restricted by the owner policy.
func UpdateOneOwned(db *mongo.Database, ent Entity, policy OwnerPolicy, shape BodyShaper, after AfterWrite) http.HandlerFunc {
	collection := db.Collection(ent.Collection)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}
		user := middleware.CurrentUser(r)
		updateOne(w, r, collection, ent, policy.Filter(user, id), shape, after, notFoundOrForbidden(ent))
	}
}

func updateOne(w http.ResponseWriter, r *http.Request, collection *mongo.Collection, ent Entity, filter bson.M, shape BodyShaper, after AfterWrite, missErr error) {
	set, err := shape(w, r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if len(set) == 0 {
		utils.HandleError(w, r, utils.NewAppError("No valid fields to update.", http.StatusBadRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	raw, err := collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, missErr)
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if after != nil {
		if err := after(ctx, raw); err != nil {
			utils.HandleError(w, r, err)
			return
		}
	}

	utils.SendMessage(w, http.StatusOK,
		fmt.Sprintf("%s has been updated successfully!", title(ent.Name)))
}

// DeleteOne removes a document by id and runs the entity's cascade.
func DeleteOne(db *mongo.Database, ent Entity, after AfterWrite) http.HandlerFunc {
	collection := db.Collection(ent.Collection)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}
		deleteOne(w, r, collection, bson.M{"_id": id}, after, notFound(ent))
	}
}

// DeleteOneOwned removes a document, restricted by the owner policy.
func DeleteOneOwned(db *mongo.Database, ent Entity, policy OwnerPolicy, after AfterWrite) http.HandlerFunc {
	collection := db.Collection(ent.Collection)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}
		user := middleware.CurrentUser(r)
		deleteOne(w, r, collection, policy.Filter(user, id), after, notFoundOrForbidden(ent))
	}
}

func deleteOne(w http.ResponseWriter, r *http.Request, collection *mongo.Collection, filter bson.M, after AfterWrite, missErr error) {
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	raw, err := collection.FindOneAndDelete(ctx, filter).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, missErr)
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if after != nil {
		if err := after(ctx, raw); err != nil {
			utils.HandleError(w, r, err)
			return
		}
	}

	utils.SendNoContent(w)
}
