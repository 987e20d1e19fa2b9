package controllers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vendix/config"
	"vendix/models"
	"vendix/utils"
)

var categoryEntity = Entity{Name: "category", Collection: models.CategoriesCollection}

// CategoryController exposes the product groupings.
type CategoryController struct {
	db  *mongo.Database
	cfg *config.Config
}

func NewCategoryController(db *mongo.Database, cfg *config.Config) *CategoryController {
	return &CategoryController{db: db, cfg: cfg}
}

// GetAllCategories lists every category unless the client paginates.
func (cc *CategoryController) GetAllCategories() http.HandlerFunc {
	return GetAll[models.Category](cc.db, categoryEntity, nil, 0)
}

func (cc *CategoryController) GetCategory() http.HandlerFunc {
	return GetOne[models.Category](cc.db, categoryEntity)
}

func (cc *CategoryController) CreateCategory() http.HandlerFunc {
	decode := func(w http.ResponseWriter, r *http.Request) (*models.Category, error) {
		var category models.Category
		if err := utils.ReadJSON(w, r, &category, cc.cfg.RequestBodyLimit); err != nil {
			return nil, err
		}
		category.Name = utils.Slugify(category.Name)
		return &category, nil
	}
	return CreateOne(cc.db, categoryEntity, decode, nil)
}

func (cc *CategoryController) UpdateCategory() http.HandlerFunc {
	shape := func(w http.ResponseWriter, r *http.Request) (bson.M, error) {
		body, err := utils.ReadBody(w, r, cc.cfg.RequestBodyLimit, "name", "image")
		if err != nil {
			return nil, err
		}
		if name, ok := body["name"].(string); ok {
			slug := utils.Slugify(name)
			category := models.Category{Name: slug}
			if err := category.Validate(); err != nil {
				return nil, err
			}
			body["name"] = slug
		}
		return bson.M(body), nil
	}
	return UpdateOne(cc.db, categoryEntity, shape, nil)
}

func (cc *CategoryController) DeleteCategory() http.HandlerFunc {
	return DeleteOne(cc.db, categoryEntity, nil)
}
