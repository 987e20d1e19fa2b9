package controllers

import (
	"context"
	"errors"
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

var productEntity = Entity{Name: "product", Collection: models.ProductsCollection}

// maxUploadSize caps multipart image uploads at 10 MB.
const maxUploadSize = 10 << 20

// productOwnerPolicy scopes writes to the owning vendor; admins bypass it.
var productOwnerPolicy = OwnerPolicy{Field: "vendor", ExemptRoles: []string{models.RoleAdmin}}

// ProductController serves the catalog.
type ProductController struct {
	db       *mongo.Database
	products *mongo.Collection
	cfg      *config.Config
	uploader utils.Uploader
}

func NewProductController(db *mongo.Database, cfg *config.Config, uploader utils.Uploader) *ProductController {
	return &ProductController{
		db:       db,
		products: db.Collection(models.ProductsCollection),
		cfg:      cfg,
		uploader: uploader,
	}
}

// GetAllProducts lists non-archived products with the full query features.
// On the nested vendor route the list is scoped to that vendor.
func (pc *ProductController) GetAllProducts() http.HandlerFunc {
	scope := func(r *http.Request) bson.M {
		fixed := bson.M{"is_archived": false}
		if raw := routeParam(r, "vendorId"); raw != "" {
			if id, err := primitive.ObjectIDFromHex(raw); err == nil {
				fixed["vendor"] = id
			} else {
				fixed["vendor"] = primitive.NilObjectID
			}
		}
		return fixed
	}
	return GetAll[models.Product](pc.db, productEntity, scope, 10)
}

// GetProduct returns one product together with its reviews.
func (pc *ProductController) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	product, err := pc.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	cursor, err := pc.db.Collection(models.ReviewsCollection).Find(ctx, bson.M{"product": product.ID})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, utils.Envelope{
		Status: utils.StatusSuccess,
		Data: map[string]interface{}{
			"product": product,
			"reviews": reviews,
		},
	})
}

// GetProductBySlug resolves a product from its URL slug.
func (pc *ProductController) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	product, err := pc.findOne(ctx, bson.M{"slug": routeParam(r, "slug")})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendData(w, http.StatusOK, "product", product)
}

// GetPriceRange returns the min and max price over the live catalog.
func (pc *ProductController) GetPriceRange(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), listTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_archived": false}}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"minPrice": bson.M{"$min": "$price"},
			"maxPrice": bson.M{"$max": "$price"},
		}}},
	}
	cursor, err := pc.products.Aggregate(ctx, pipeline)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	var results []struct {
		MinPrice float64 `bson:"minPrice" json:"minPrice"`
		MaxPrice float64 `bson:"maxPrice" json:"maxPrice"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	priceRange := struct {
		MinPrice float64 `json:"minPrice"`
		MaxPrice float64 `json:"maxPrice"`
	}{}
	if len(results) > 0 {
		priceRange.MinPrice = results[0].MinPrice
		priceRange.MaxPrice = results[0].MaxPrice
	}
	utils.SendData(w, http.StatusOK, "priceRange", priceRange)
}

// GetBrands lists the distinct brands in the live catalog.
func (pc *ProductController) GetBrands(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), listTimeout)
	defer cancel()

	values, err := pc.products.Distinct(ctx, "brand", bson.M{
		"is_archived": false,
		"brand":       bson.M{"$nin": bson.A{"", nil}},
	})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendData(w, http.StatusOK, "brands", values)
}

// GetDeals lists products with a currently-active discount, steepest first.
func (pc *ProductController) GetDeals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), listTimeout)
	defer cancel()

	features := utils.ParseQuery(r.URL.Query(), 10)
	filter := bson.M{
		"is_archived":          false,
		"discount.amount":      bson.M{"$gt": 0},
		"discount.expiry_date": bson.M{"$gte": time.Now()},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "discount.amount", Value: -1}}).
		SetSkip((features.Page - 1) * features.Limit).
		SetLimit(features.Limit)

	cursor, err := pc.products.Find(ctx, filter, opts)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	deals := []models.Product{}
	if err := cursor.All(ctx, &deals); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	total, err := pc.products.CountDocuments(ctx, filter)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendList(w, "products", deals, len(deals), total)
}

type productRequest struct {
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	Price               float64          `json:"price"`
	StockQuantity       int              `json:"stockQuantity"`
	Tags                []string         `json:"tags"`
	Images              []string         `json:"images"`
	Brand               string           `json:"brand"`
	Discount            *models.Discount `json:"discount"`
	ShippingInformation string           `json:"shippingInformation"`
	WarrantyInformation string           `json:"warrantyInformation"`
	Category            string           `json:"category"`
	Vendor              string           `json:"vendor"`
}

// CreateProduct inserts a catalog entry. The vendor is always the caller's
// own profile unless an admin names one explicitly.
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var body productRequest
	if err := utils.ReadJSON(w, r, &body, pc.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	categoryID, err := objectIDFrom(body.Category)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	vendorID := user.Vendor
	if user.Role == models.RoleAdmin && body.Vendor != "" {
		if vendorID, err = objectIDFrom(body.Vendor); err != nil {
			utils.HandleError(w, r, err)
			return
		}
	}

	now := time.Now()
	product := models.Product{
		Name:                body.Name,
		Description:         body.Description,
		Price:               body.Price,
		StockQuantity:       body.StockQuantity,
		Tags:                body.Tags,
		Images:              body.Images,
		Brand:               body.Brand,
		Discount:            body.Discount,
		ShippingInformation: body.ShippingInformation,
		WarrantyInformation: body.WarrantyInformation,
		Slug:                utils.Slugify(body.Name),
		Vendor:              vendorID,
		Category:            categoryID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := product.Validate(); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	if err := pc.validateCategory(ctx, categoryID); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if err := pc.validateVendor(ctx, vendorID); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if _, err := pc.products.InsertOne(ctx, product); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendMessage(w, http.StatusCreated, "Product has been created successfully!")
}

// UpdateProduct shapes the body onto the owned product.
func (pc *ProductController) UpdateProduct() http.HandlerFunc {
	return UpdateOneOwned(pc.db, productEntity, productOwnerPolicy, pc.shapeUpdate, nil)
}

// DeleteProduct removes the product and cascades to its reviews.
func (pc *ProductController) DeleteProduct() http.HandlerFunc {
	after := func(ctx context.Context, doc bson.Raw) error {
		id, ok := doc.Lookup("_id").ObjectIDOK()
		if !ok {
			return nil
		}
		return models.CascadeDeleteProduct(ctx, pc.db, id)
	}
	return DeleteOneOwned(pc.db, productEntity, productOwnerPolicy, after)
}

// UploadProductImage attaches an uploaded image to an owned product.
func (pc *ProductController) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	id, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.HandleError(w, r, utils.NewAppError("Invalid multipart form.", http.StatusBadRequest))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		utils.HandleError(w, r, utils.NewAppError("Please provide an image file.", http.StatusBadRequest))
		return
	}
	defer file.Close()

	result, err := pc.uploader.UploadImage(file, header, "products")
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	res, err := pc.products.UpdateOne(ctx,
		productOwnerPolicy.Filter(user, id),
		bson.M{"$push": bson.M{"images": result.URL}, "$set": bson.M{"updated_at": time.Now()}})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if res.MatchedCount == 0 {
		utils.HandleError(w, r, notFoundOrForbidden(productEntity))
		return
	}
	utils.SendData(w, http.StatusOK, "image", result.URL)
}

func (pc *ProductController) shapeUpdate(w http.ResponseWriter, r *http.Request) (bson.M, error) {
	var body struct {
		Name                *string          `json:"name"`
		Description         *string          `json:"description"`
		Price               *float64         `json:"price"`
		StockQuantity       *int             `json:"stockQuantity"`
		Tags                []string         `json:"tags"`
		Images              []string         `json:"images"`
		IsArchived          *bool            `json:"isArchived"`
		Brand               *string          `json:"brand"`
		Discount            *models.Discount `json:"discount"`
		ShippingInformation *string          `json:"shippingInformation"`
		WarrantyInformation *string          `json:"warrantyInformation"`
		Category            *string          `json:"category"`
	}
	if err := utils.ReadJSON(w, r, &body, pc.cfg.RequestBodyLimit); err != nil {
		return nil, err
	}

	set := bson.M{}
	if body.Name != nil {
		if len(*body.Name) < 5 {
			return nil, models.NewValidationError("Product name must be at least 5 characters.")
		}
		set["name"] = *body.Name
		set["slug"] = utils.Slugify(*body.Name)
	}
	if body.Description != nil {
		if len(*body.Description) < 30 {
			return nil, models.NewValidationError("Description must be at least 30 characters.")
		}
		set["description"] = *body.Description
	}
	if body.Price != nil {
		if *body.Price <= 0 {
			return nil, models.NewValidationError("Price must be greater than zero.")
		}
		set["price"] = *body.Price
	}
	if body.StockQuantity != nil {
		if *body.StockQuantity < 0 {
			return nil, models.NewValidationError("Stock quantity cannot be negative.")
		}
		set["stock_quantity"] = *body.StockQuantity
	}
	if body.Tags != nil {
		set["tags"] = body.Tags
	}
	if body.Images != nil {
		set["images"] = body.Images
	}
	if body.IsArchived != nil {
		set["is_archived"] = *body.IsArchived
	}
	if body.Brand != nil {
		set["brand"] = *body.Brand
	}
	if body.Discount != nil {
		if body.Discount.Amount < 0 {
			return nil, models.NewValidationError("Discount amount cannot be negative.")
		}
		set["discount"] = body.Discount
	}
	if body.ShippingInformation != nil {
		set["shipping_information"] = *body.ShippingInformation
	}
	if body.WarrantyInformation != nil {
		set["warranty_information"] = *body.WarrantyInformation
	}
	if body.Category != nil {
		categoryID, err := objectIDFrom(*body.Category)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
		defer cancel()
		if err := pc.validateCategory(ctx, categoryID); err != nil {
			return nil, err
		}
		set["category"] = categoryID
	}
	if len(set) > 0 {
		set["updated_at"] = time.Now()
	}
	return set, nil
}

// validateCategory rejects writes that point at a missing category.
func (pc *ProductController) validateCategory(ctx context.Context, id primitive.ObjectID) error {
	count, err := pc.db.Collection(models.CategoriesCollection).CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return utils.NewAppError("No category found with that ID.", http.StatusNotFound)
	}
	return nil
}

func (pc *ProductController) validateVendor(ctx context.Context, id primitive.ObjectID) error {
	if id.IsZero() {
		return utils.NewAppError("Product must belong to a vendor.", http.StatusBadRequest)
	}
	count, err := pc.db.Collection(models.VendorsCollection).CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return utils.NewAppError("No vendor found with that ID.", http.StatusNotFound)
	}
	return nil
}

// AdminOverview aggregates the storefront dashboard numbers.
func (pc *ProductController) AdminOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), listTimeout)
	defer cancel()

	overview := bson.M{}

	counts := []struct {
		key        string
		collection string
		filter     bson.M
	}{
		{"totalUsers", models.UsersCollection, bson.M{}},
		{"totalVendors", models.VendorsCollection, bson.M{"request_status": models.VendorApproved}},
		{"totalProducts", models.ProductsCollection, bson.M{"is_archived": false}},
		{"totalOrders", models.OrdersCollection, bson.M{}},
	}
	for _, c := range counts {
		n, err := pc.db.Collection(c.collection).CountDocuments(ctx, c.filter)
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}
		overview[c.key] = n
	}

	orders := pc.db.Collection(models.OrdersCollection)
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	yearStart := monthStart.AddDate(-1, 1, 0)

	revenue, err := sumRevenue(ctx, orders, bson.M{"order_status": bson.M{"$ne": models.OrderCancelled}})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	overview["totalRevenue"] = revenue

	monthly, err := sumRevenue(ctx, orders, bson.M{
		"order_status": bson.M{"$ne": models.OrderCancelled},
		"created_at":   bson.M{"$gte": monthStart},
	})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	overview["monthlyEarning"] = monthly

	// Last twelve months of order count and revenue, keyed by year/month.
	salesSeries, err := aggregate(ctx, orders, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": yearStart}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$created_at"},
				"month": bson.M{"$month": "$created_at"},
			},
			"orders":  bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$total"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}}},
	})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	overview["salesByMonth"] = salesSeries

	productsSeries, err := aggregate(ctx, pc.products, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": yearStart}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$created_at"},
				"month": bson.M{"$month": "$created_at"},
			},
			"products": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}}},
	})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	overview["productsByMonth"] = productsSeries

	revenueByStatus, err := aggregate(ctx, orders, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":     "$order_status",
			"orders":  bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$total"},
		}}},
	})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	overview["revenueByStatus"] = revenueByStatus

	topCategories, err := aggregate(ctx, orders, mongo.Pipeline{
		{{Key: "$unwind", Value: "$products"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         models.ProductsCollection,
			"localField":   "products.product",
			"foreignField": "_id",
			"as":           "product",
		}}},
		{{Key: "$unwind", Value: "$product"}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$product.category",
			"sold":     bson.M{"$sum": "$products.quantity"},
			"revenue":  bson.M{"$sum": bson.M{"$multiply": bson.A{"$products.price", "$products.quantity"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "sold", Value: -1}}}},
		{{Key: "$limit", Value: 5}},
		{{Key: "$lookup", Value: bson.M{
			"from":         models.CategoriesCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "category",
		}}},
		{{Key: "$unwind", Value: "$category"}},
	})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	overview["topCategories"] = topCategories

	utils.SendData(w, http.StatusOK, "overview", overview)
}

func sumRevenue(ctx context.Context, orders *mongo.Collection, match bson.M) (float64, error) {
	results, err := aggregate(ctx, orders, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "revenue": bson.M{"$sum": "$total"}}}},
	})
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	revenue, _ := results[0]["revenue"].(float64)
	return models.Round2(revenue), nil
}

func aggregate(ctx context.Context, collection *mongo.Collection, pipeline mongo.Pipeline) ([]bson.M, error) {
	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	results := []bson.M{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (pc *ProductController) findOne(ctx context.Context, filter bson.M) (*models.Product, error) {
	var product models.Product
	err := pc.products.FindOne(ctx, filter).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(productEntity)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}
