package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vendor request statuses.
const (
	VendorPending  = "pending"
	VendorApproved = "approved"
	VendorRejected = "rejected"
)

// SocialMediaLinks holds the optional vendor social profiles.
type SocialMediaLinks struct {
	Facebook  string `bson:"facebook,omitempty" json:"facebook,omitempty"`
	Instagram string `bson:"instagram,omitempty" json:"instagram,omitempty"`
	Twitter   string `bson:"twitter,omitempty" json:"twitter,omitempty"`
}

// Vendor is a business profile owned by a user. RequestStatus gates whether
// the owning user's role becomes "vendor".
type Vendor struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	BusinessName        string             `bson:"business_name" json:"businessName"`
	BusinessDescription string             `bson:"business_description" json:"businessDescription"`
	BusinessAddress     *Address           `bson:"business_address,omitempty" json:"businessAddress,omitempty"`
	Rating              Rating             `bson:"rating" json:"rating"`
	BusinessLogo        string             `bson:"business_logo,omitempty" json:"businessLogo,omitempty"`
	SocialMediaLinks    SocialMediaLinks   `bson:"social_media_links,omitempty" json:"socialMediaLinks,omitempty"`
	RequestStatus       string             `bson:"request_status" json:"requestStatus"`
}

// Validate enforces the vendor schema constraints.
func (v *Vendor) Validate() error {
	if v.BusinessName == "" {
		return NewValidationError("Business name is required.")
	}
	if len(v.BusinessName) < 8 {
		return NewValidationError("Business name must be at least 8 characters.")
	}
	if v.BusinessDescription == "" {
		return NewValidationError("Business description is required.")
	}
	if len(v.BusinessDescription) < 30 {
		return NewValidationError("Business description must be at least 30 characters.")
	}
	switch v.RequestStatus {
	case VendorPending, VendorApproved, VendorRejected:
	default:
		return NewValidationError("Vendor request status is either: pending, approved, rejected.")
	}
	if v.BusinessAddress != nil {
		if err := v.BusinessAddress.Validate(); err != nil {
			return err
		}
	}
	return nil
}
