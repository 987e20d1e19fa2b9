package controllers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vendix/config"
	"vendix/middleware"
	"vendix/models"
)

var invoiceEntity = Entity{Name: "invoice", Collection: models.InvoicesCollection}

// InvoiceController exposes the invoices produced by delivered orders.
type InvoiceController struct {
	db  *mongo.Database
	cfg *config.Config
}

func NewInvoiceController(db *mongo.Database, cfg *config.Config) *InvoiceController {
	return &InvoiceController{db: db, cfg: cfg}
}

// GetMyInvoices lists the caller's invoices.
func (ic *InvoiceController) GetMyInvoices() http.HandlerFunc {
	scope := func(r *http.Request) bson.M {
		return bson.M{"user": middleware.CurrentUser(r).ID}
	}
	return GetAll[models.Invoice](ic.db, invoiceEntity, scope, 10)
}

// GetAllInvoices lists every invoice for admins.
func (ic *InvoiceController) GetAllInvoices() http.HandlerFunc {
	return GetAll[models.Invoice](ic.db, invoiceEntity, nil, 10)
}

// GetInvoice returns one invoice; users can only reach their own.
func (ic *InvoiceController) GetInvoice() http.HandlerFunc {
	policy := OwnerPolicy{Field: "user", ExemptRoles: []string{models.RoleAdmin}}
	return GetOneOwned[models.Invoice](ic.db, invoiceEntity, policy)
}
