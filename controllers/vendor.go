package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vendix/config"
	"vendix/middleware"
	"vendix/models"
	"vendix/utils"
)

var vendorEntity = Entity{Name: "vendor", Collection: models.VendorsCollection}

// VendorController serves vendor business profiles.
type VendorController struct {
	db       *mongo.Database
	vendors  *mongo.Collection
	cfg      *config.Config
	uploader utils.Uploader
}

func NewVendorController(db *mongo.Database, cfg *config.Config, uploader utils.Uploader) *VendorController {
	return &VendorController{
		db:       db,
		vendors:  db.Collection(models.VendorsCollection),
		cfg:      cfg,
		uploader: uploader,
	}
}

// GetAllVendors lists approved vendors publicly.
func (vc *VendorController) GetAllVendors() http.HandlerFunc {
	scope := func(r *http.Request) bson.M {
		return bson.M{"request_status": models.VendorApproved}
	}
	return GetAll[models.Vendor](vc.db, vendorEntity, scope, 10)
}

func (vc *VendorController) GetVendor() http.HandlerFunc {
	return GetOne[models.Vendor](vc.db, vendorEntity)
}

// GetMyVendor returns the caller's own business profile.
func (vc *VendorController) GetMyVendor(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	vendor, err := vc.findByID(ctx, user)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendData(w, http.StatusOK, "vendor", vendor)
}

// UpdateMyVendor patches the caller's business profile.
func (vc *VendorController) UpdateMyVendor(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user.Vendor.IsZero() {
		utils.HandleError(w, r, utils.NewAppError(
			"You do not have a vendor profile.", http.StatusNotFound))
		return
	}

	set, err := vc.shapeUpdate(w, r)
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

	res, err := vc.vendors.UpdateOne(ctx, bson.M{"_id": user.Vendor}, bson.M{"$set": set})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if res.MatchedCount == 0 {
		utils.HandleError(w, r, notFound(vendorEntity))
		return
	}
	utils.SendMessage(w, http.StatusOK, "Vendor has been updated successfully!")
}

// DeleteMyVendor removes the caller's business profile and everything it
// owns.
func (vc *VendorController) DeleteMyVendor(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user.Vendor.IsZero() {
		utils.HandleError(w, r, utils.NewAppError(
			"You do not have a vendor profile.", http.StatusNotFound))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), listTimeout)
	defer cancel()

	if err := vc.deleteVendor(ctx, user.Vendor); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendNoContent(w)
}

// UpdateVendor is the admin variant of the profile patch.
func (vc *VendorController) UpdateVendor() http.HandlerFunc {
	return UpdateOne(vc.db, vendorEntity, vc.shapeUpdate, nil)
}

// DeleteVendor is the admin variant of the cascading delete.
func (vc *VendorController) DeleteVendor(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), listTimeout)
	defer cancel()

	if err := vc.deleteVendor(ctx, id); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendNoContent(w)
}

// UploadVendorLogo replaces the caller's business logo.
func (vc *VendorController) UploadVendorLogo(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user.Vendor.IsZero() {
		utils.HandleError(w, r, utils.NewAppError(
			"You do not have a vendor profile.", http.StatusNotFound))
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.HandleError(w, r, utils.NewAppError("Invalid multipart form.", http.StatusBadRequest))
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		utils.HandleError(w, r, utils.NewAppError("Please provide a logo file.", http.StatusBadRequest))
		return
	}
	defer file.Close()

	result, err := vc.uploader.UploadImage(file, header, "vendors")
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	var previous models.Vendor
	err = vc.vendors.FindOneAndUpdate(ctx, bson.M{"_id": user.Vendor},
		bson.M{"$set": bson.M{"business_logo": result.URL}}).Decode(&previous)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, notFound(vendorEntity))
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if publicID, ok := utils.PublicIDFromURL(vc.cfg.BaseURL, previous.BusinessLogo); ok {
		if err := vc.uploader.DeleteImage(publicID); err != nil {
			log.Printf("failed to delete replaced vendor logo %s: %v", publicID, err)
		}
	}

	utils.SendData(w, http.StatusOK, "businessLogo", result.URL)
}

func (vc *VendorController) shapeUpdate(w http.ResponseWriter, r *http.Request) (bson.M, error) {
	var body struct {
		BusinessName        *string                  `json:"businessName"`
		BusinessDescription *string                  `json:"businessDescription"`
		BusinessAddress     *models.Address          `json:"businessAddress"`
		BusinessLogo        *string                  `json:"businessLogo"`
		SocialMediaLinks    *models.SocialMediaLinks `json:"socialMediaLinks"`
	}
	if err := utils.ReadJSON(w, r, &body, vc.cfg.RequestBodyLimit); err != nil {
		return nil, err
	}

	set := bson.M{}
	if body.BusinessName != nil {
		if len(*body.BusinessName) < 8 {
			return nil, models.NewValidationError("Business name must be at least 8 characters.")
		}
		set["business_name"] = *body.BusinessName
	}
	if body.BusinessDescription != nil {
		if len(*body.BusinessDescription) < 30 {
			return nil, models.NewValidationError("Business description must be at least 30 characters.")
		}
		set["business_description"] = *body.BusinessDescription
	}
	if body.BusinessAddress != nil {
		if err := body.BusinessAddress.Validate(); err != nil {
			return nil, err
		}
		set["business_address"] = body.BusinessAddress
	}
	if body.BusinessLogo != nil {
		set["business_logo"] = *body.BusinessLogo
	}
	if body.SocialMediaLinks != nil {
		set["social_media_links"] = body.SocialMediaLinks
	}
	return set, nil
}

// deleteVendor removes the profile document, then everything hanging off it.
func (vc *VendorController) deleteVendor(ctx context.Context, vendorID primitive.ObjectID) error {
	err := vc.vendors.FindOneAndDelete(ctx, bson.M{"_id": vendorID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound(vendorEntity)
	}
	if err != nil {
		return err
	}
	return models.CascadeDeleteVendor(ctx, vc.db, vendorID)
}

func (vc *VendorController) findByID(ctx context.Context, user *models.User) (*models.Vendor, error) {
	if user.Vendor.IsZero() {
		return nil, utils.NewAppError("You do not have a vendor profile.", http.StatusNotFound)
	}
	var vendor models.Vendor
	err := vc.vendors.FindOne(ctx, bson.M{"_id": user.Vendor}).Decode(&vendor)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(vendorEntity)
	}
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}
