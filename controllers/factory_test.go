package controllers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendix/models"
)

func TestOwnerPolicyFilter(t *testing.T) {
	docID := primitive.NewObjectID()
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}

	policy := OwnerPolicy{Field: "user", ExemptRoles: []string{models.RoleAdmin}}
	filter := policy.Filter(user, docID)
	if filter["_id"] != docID {
		t.Errorf("filter should target the document, got %v", filter)
	}
	if filter["user"] != user.ID {
		t.Errorf("non-exempt caller should be scoped to own documents, got %v", filter)
	}

	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	filter = policy.Filter(admin, docID)
	if _, scoped := filter["user"]; scoped {
		t.Errorf("exempt role should not be owner-scoped, got %v", filter)
	}
}

func TestOwnerPolicyVendorField(t *testing.T) {
	docID := primitive.NewObjectID()
	vendorID := primitive.NewObjectID()
	vendor := &models.User{ID: primitive.NewObjectID(), Role: models.RoleVendor, Vendor: vendorID}

	policy := OwnerPolicy{Field: "vendor", ExemptRoles: []string{models.RoleAdmin}}
	filter := policy.Filter(vendor, docID)
	if filter["vendor"] != vendorID {
		t.Errorf("vendor scoping should use the vendor profile id, got %v", filter)
	}
}
