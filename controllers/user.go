package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendix/config"
	"vendix/middleware"
	"vendix/models"
	"vendix/utils"
)

var userEntity = Entity{Name: "user", Collection: models.UsersCollection}

// UserController serves profile self-service and the admin user surface.
type UserController struct {
	db       *mongo.Database
	users    *mongo.Collection
	vendors  *mongo.Collection
	cfg      *config.Config
	uploader utils.Uploader
}

func NewUserController(db *mongo.Database, cfg *config.Config, uploader utils.Uploader) *UserController {
	return &UserController{
		db:       db,
		users:    db.Collection(models.UsersCollection),
		vendors:  db.Collection(models.VendorsCollection),
		cfg:      cfg,
		uploader: uploader,
	}
}

// GetMe returns the caller's own profile.
func (uc *UserController) GetMe(w http.ResponseWriter, r *http.Request) {
	utils.SendData(w, http.StatusOK, "user", middleware.CurrentUser(r))
}

// UpdateMe patches the caller's profile. Multipart requests may carry a
// profilePicture file; password and email have their own routes.
func (uc *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	set := bson.M{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := uc.shapeMultipartMe(r, set); err != nil {
			utils.HandleError(w, r, err)
			return
		}
	} else {
		if err := uc.shapeJSONMe(w, r, set); err != nil {
			utils.HandleError(w, r, err)
			return
		}
	}
	if len(set) == 0 {
		utils.HandleError(w, r, utils.NewAppError("No valid fields to update.", http.StatusBadRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	var updated models.User
	err := uc.users.FindOneAndUpdate(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if picture, ok := set["profile_picture"].(string); ok && user.ProfilePicture != picture {
		if publicID, ok := utils.PublicIDFromURL(uc.cfg.BaseURL, user.ProfilePicture); ok {
			if err := uc.uploader.DeleteImage(publicID); err != nil {
				log.Printf("failed to delete replaced profile picture %s: %v", publicID, err)
			}
		}
	}

	utils.SendData(w, http.StatusOK, "user", updated)
}

func (uc *UserController) shapeJSONMe(w http.ResponseWriter, r *http.Request, set bson.M) error {
	body, err := utils.ReadBody(w, r, uc.cfg.RequestBodyLimit,
		"username", "phone", "fullName", "profilePicture", "password", "passwordConfirm", "email")
	if err != nil {
		return err
	}
	if _, ok := body["password"]; ok {
		return utils.NewAppError(
			"This route is not for password updates. Please use /updateMyPassword.", http.StatusBadRequest)
	}
	if _, ok := body["passwordConfirm"]; ok {
		return utils.NewAppError(
			"This route is not for password updates. Please use /updateMyPassword.", http.StatusBadRequest)
	}
	if _, ok := body["email"]; ok {
		return utils.NewAppError(
			"This route is not for email updates. Please use /updateEmail.", http.StatusBadRequest)
	}

	if raw, ok := body["username"].(string); ok {
		username := models.NormalizeUsername(raw)
		if len(username) < 3 {
			return models.NewValidationError("Username must be at least 3 characters.")
		}
		set["username"] = username
	}
	if phone, ok := body["phone"].(string); ok {
		set["phone"] = phone
	}
	if picture, ok := body["profilePicture"].(string); ok {
		set["profile_picture"] = picture
	}
	if rawName, ok := body["fullName"].(map[string]interface{}); ok {
		first, _ := rawName["firstName"].(string)
		last, _ := rawName["lastName"].(string)
		if first == "" || last == "" {
			return models.NewValidationError("First name and last name are required.")
		}
		set["full_name"] = models.FullName{FirstName: first, LastName: last}
	}
	return nil
}

func (uc *UserController) shapeMultipartMe(r *http.Request, set bson.M) error {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return utils.NewAppError("Invalid multipart form.", http.StatusBadRequest)
	}
	for _, field := range []string{"password", "passwordConfirm", "email"} {
		if r.FormValue(field) != "" {
			return utils.NewAppError(
				"This route is not for password or email updates.", http.StatusBadRequest)
		}
	}

	if raw := r.FormValue("username"); raw != "" {
		username := models.NormalizeUsername(raw)
		if len(username) < 3 {
			return models.NewValidationError("Username must be at least 3 characters.")
		}
		set["username"] = username
	}
	if phone := r.FormValue("phone"); phone != "" {
		set["phone"] = phone
	}
	first, last := r.FormValue("firstName"), r.FormValue("lastName")
	if first != "" && last != "" {
		set["full_name"] = models.FullName{FirstName: first, LastName: last}
	}

	file, header, err := r.FormFile("profilePicture")
	if err != nil {
		// The picture is optional.
		return nil
	}
	defer file.Close()

	result, err := uc.uploader.UploadImage(file, header, "users")
	if err != nil {
		return err
	}
	set["profile_picture"] = result.URL
	return nil
}

// AddAddress appends a delivery address to the caller's profile.
func (uc *UserController) AddAddress(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var address models.Address
	if err := utils.ReadJSON(w, r, &address, uc.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if err := address.Validate(); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	address.ID = primitive.NewObjectID()

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	_, err := uc.users.UpdateOne(ctx, bson.M{"_id": user.ID},
		bson.M{"$push": bson.M{"addresses": address}})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendData(w, http.StatusCreated, "address", address)
}

// UpdateAddress replaces one of the caller's addresses in place.
func (uc *UserController) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	addressID, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	var address models.Address
	if err := utils.ReadJSON(w, r, &address, uc.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if err := address.Validate(); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	address.ID = addressID

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	res, err := uc.users.UpdateOne(ctx,
		bson.M{"_id": user.ID, "addresses._id": addressID},
		bson.M{"$set": bson.M{"addresses.$": address}})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if res.MatchedCount == 0 {
		utils.HandleError(w, r, utils.NewAppError("No address found with that ID.", http.StatusNotFound))
		return
	}
	utils.SendData(w, http.StatusOK, "address", address)
}

// RemoveAddress drops one of the caller's addresses.
func (uc *UserController) RemoveAddress(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	addressID, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	res, err := uc.users.UpdateOne(ctx, bson.M{"_id": user.ID},
		bson.M{"$pull": bson.M{"addresses": bson.M{"_id": addressID}}})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if res.ModifiedCount == 0 {
		utils.HandleError(w, r, utils.NewAppError("No address found with that ID.", http.StatusNotFound))
		return
	}
	utils.SendNoContent(w)
}

type vendorRequest struct {
	BusinessName        string                  `json:"businessName"`
	BusinessDescription string                  `json:"businessDescription"`
	BusinessAddress     *models.Address         `json:"businessAddress"`
	BusinessLogo        string                  `json:"businessLogo"`
	SocialMediaLinks    models.SocialMediaLinks `json:"socialMediaLinks"`
}

// RequestVendorRole opens a pending vendor application for the caller.
func (uc *UserController) RequestVendorRole(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if !user.Vendor.IsZero() {
		utils.HandleError(w, r, utils.NewAppError(
			"You have already submitted a vendor request.", http.StatusConflict))
		return
	}

	var body vendorRequest
	if err := utils.ReadJSON(w, r, &body, uc.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	vendor := models.Vendor{
		ID:                  primitive.NewObjectID(),
		BusinessName:        body.BusinessName,
		BusinessDescription: body.BusinessDescription,
		BusinessAddress:     body.BusinessAddress,
		BusinessLogo:        body.BusinessLogo,
		SocialMediaLinks:    body.SocialMediaLinks,
		RequestStatus:       models.VendorPending,
	}
	if err := vendor.Validate(); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	if _, err := uc.vendors.InsertOne(ctx, vendor); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	_, err := uc.users.UpdateOne(ctx, bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"vendor": vendor.ID}})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	utils.SendMessage(w, http.StatusCreated,
		"Vendor request has been submitted successfully! You will be notified once it is reviewed.")
}

// HandleVendorRoleRequest approves or rejects a pending application.
// Approval flips the requester's role to vendor.
func (uc *UserController) HandleVendorRoleRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	var body struct {
		Action string `json:"action"`
	}
	if err := utils.ReadJSON(w, r, &body, uc.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if body.Action != "approve" && body.Action != "reject" {
		utils.HandleError(w, r, utils.NewAppError(
			"Action is either: approve, reject.", http.StatusBadRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	target, err := models.FindUserByID(ctx, uc.db, userID)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if target == nil {
		utils.HandleError(w, r, notFound(userEntity))
		return
	}
	if target.Vendor.IsZero() {
		utils.HandleError(w, r, utils.NewAppError(
			"This user has no vendor request.", http.StatusNotFound))
		return
	}

	var vendor models.Vendor
	err = uc.vendors.FindOne(ctx, bson.M{"_id": target.Vendor}).Decode(&vendor)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, utils.NewAppError(
			"This user has no vendor request.", http.StatusNotFound))
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if vendor.RequestStatus != models.VendorPending {
		utils.HandleError(w, r, utils.NewAppError(
			"This vendor request has already been handled.", http.StatusBadRequest))
		return
	}

	status := models.VendorRejected
	message := "Your vendor request has been rejected."
	if body.Action == "approve" {
		status = models.VendorApproved
		message = "Congratulations! Your vendor request has been approved."
	}

	_, err = uc.vendors.UpdateOne(ctx, bson.M{"_id": vendor.ID},
		bson.M{"$set": bson.M{"request_status": status}})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if status == models.VendorApproved {
		_, err = uc.users.UpdateOne(ctx, bson.M{"_id": target.ID},
			bson.M{"$set": bson.M{"role": models.RoleVendor}})
		if err != nil {
			utils.HandleError(w, r, err)
			return
		}
	}

	err = models.Notify(ctx, uc.db, models.Notification{
		Message:  message,
		Priority: models.PriorityHigh,
		User:     target.ID,
	})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	utils.SendMessage(w, http.StatusOK,
		fmt.Sprintf("Vendor request has been %s successfully!", status))
}

// CreateUser exists to point API clients at the signup flow.
func (uc *UserController) CreateUser(w http.ResponseWriter, r *http.Request) {
	utils.HandleError(w, r, utils.NewAppError(
		"This route is not defined! Please use /signup instead.", http.StatusBadRequest))
}

// GetAllUsers lists accounts for admins.
func (uc *UserController) GetAllUsers() http.HandlerFunc {
	return GetAll[models.User](uc.db, userEntity, nil, 10)
}

func (uc *UserController) GetUser() http.HandlerFunc {
	return GetOne[models.User](uc.db, userEntity)
}

// UpdateUser lets admins change role and status.
func (uc *UserController) UpdateUser() http.HandlerFunc {
	shape := func(w http.ResponseWriter, r *http.Request) (bson.M, error) {
		body, err := utils.ReadBody(w, r, uc.cfg.RequestBodyLimit, "role", "status")
		if err != nil {
			return nil, err
		}
		set := bson.M{}
		if role, ok := body["role"].(string); ok {
			if !models.ValidRole(role) {
				return nil, models.NewValidationError("Role is either: user, vendor, admin, delivery.")
			}
			set["role"] = role
		}
		if status, ok := body["status"].(string); ok {
			if !models.ValidStatus(status) {
				return nil, models.NewValidationError(
					"Status is either: active, inactive, awaitingVerification.")
			}
			set["status"] = status
		}
		return set, nil
	}
	return UpdateOne(uc.db, userEntity, shape, nil)
}

// DeleteUser removes an account and everything it owns.
func (uc *UserController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), listTimeout)
	defer cancel()

	var user models.User
	err = uc.users.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, notFound(userEntity))
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if err := models.CascadeDeleteUser(ctx, uc.db, &user); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendNoContent(w)
}
