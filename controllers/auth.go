package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vendix/config"
	"vendix/middleware"
	"vendix/models"
	"vendix/utils"
)

// AuthController handles signup, verification, sessions and credential
// changes.
type AuthController struct {
	client *mongo.Client
	db     *mongo.Database
	users  *mongo.Collection
	cfg    *config.Config
	mailer utils.Mailer
}

// NewAuthController wires the auth flows.
func NewAuthController(client *mongo.Client, db *mongo.Database, cfg *config.Config, mailer utils.Mailer) *AuthController {
	return &AuthController{
		client: client,
		db:     db,
		users:  db.Collection(models.UsersCollection),
		cfg:    cfg,
		mailer: mailer,
	}
}

type signupRequest struct {
	Username        string           `json:"username"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	FullName        models.FullName  `json:"fullName"`
	ProfilePicture  string           `json:"profilePicture"`
	Addresses       []models.Address `json:"addresses"`
	Password        string           `json:"password"`
	PasswordConfirm string           `json:"passwordConfirm"`
}

// Signup registers a new account together with its cart and wishlist in one
// transaction, then emails the verification code.
func (ac *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if err := utils.ReadJSON(w, r, &body, ac.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if err := models.ValidatePassword(body.Password, body.PasswordConfirm); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	plainCode, hashedCode, err := utils.GenerateSecureToken()
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	user := models.User{
		ID:                      primitive.NewObjectID(),
		Username:                models.NormalizeUsername(body.Username),
		Email:                   models.NormalizeEmail(body.Email),
		Phone:                   body.Phone,
		FullName:                body.FullName,
		ProfilePicture:          body.ProfilePicture,
		Role:                    models.RoleUser,
		Status:                  models.StatusAwaitingVerification,
		Addresses:               body.Addresses,
		VerificationCode:        hashedCode,
		VerificationCodeExpires: time.Now().Add(utils.TokenTTL),
		Wishlist:                primitive.NewObjectID(),
	}
	if user.Addresses == nil {
		user.Addresses = []models.Address{}
	}
	if err := user.Validate(); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if user.Password, err = models.HashPassword(body.Password); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	// User, cart and wishlist are created together or not at all.
	session, err := ac.client.StartSession()
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := ac.users.InsertOne(sc, user); err != nil {
			return nil, err
		}
		cart := models.Cart{User: user.ID, Products: []models.CartItem{}}
		if _, err := ac.db.Collection(models.CartsCollection).InsertOne(sc, cart); err != nil {
			return nil, err
		}
		wishlist := models.Wishlist{
			ID:        user.Wishlist,
			User:      user.ID,
			Products:  []primitive.ObjectID{},
			UpdatedAt: time.Now(),
		}
		if _, err := ac.db.Collection(models.WishlistsCollection).InsertOne(sc, wishlist); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	verificationURL := ac.cfg.BaseURL + "/api/users/verify/" + plainCode
	err = ac.mailer.Send(user.Email, user.FullName.FirstName, "verify",
		"Verify your account (valid for only 10 minutes)", verificationURL)
	if err != nil {
		ac.clearVerificationFields(ctx, user.ID)
		utils.HandleError(w, r, utils.NewAppError(
			"User signed up successfully, but failed to send verification email. Please resend the verification email.",
			http.StatusInternalServerError))
		return
	}

	utils.SendMessage(w, http.StatusCreated, "User signed up! Verification email sent.")
}

// ResendVerificationCode issues a fresh verification code for an account
// still awaiting verification.
func (ac *AuthController) ResendVerificationCode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := utils.ReadJSON(w, r, &body, ac.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	var user models.User
	err := ac.users.FindOne(ctx, bson.M{"email": models.NormalizeEmail(body.Email)}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, utils.NewAppError(
			"User with this email address is not found.", http.StatusNotFound))
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if user.Status != models.StatusAwaitingVerification {
		utils.HandleError(w, r, utils.NewAppError("Email is already verified.", http.StatusBadRequest))
		return
	}

	plainCode, hashedCode, err := utils.GenerateSecureToken()
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	_, err = ac.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"verification_code":         hashedCode,
		"verification_code_expires": time.Now().Add(utils.TokenTTL),
	}})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	verificationURL := ac.cfg.BaseURL + "/api/users/verify/" + plainCode
	err = ac.mailer.Send(user.Email, user.FullName.FirstName, "verify",
		"Verify your account (valid for only 10 minutes)", verificationURL)
	if err != nil {
		ac.clearVerificationFields(ctx, user.ID)
		utils.HandleError(w, r, utils.NewAppError(
			"Failed to send verification email. Try again later.", http.StatusInternalServerError))
		return
	}

	utils.SendMessage(w, http.StatusCreated, "Verification code sent to email.")
}

// VerifyEmail activates an account (or commits a staged email change) when
// the emailed code matches and has not expired.
func (ac *AuthController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	code := routeParam(r, "code")
	hashed := utils.HashToken(code)

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	var user models.User
	err := ac.users.FindOne(ctx, bson.M{
		"verification_code":         hashed,
		"verification_code_expires": bson.M{"$gt": time.Now()},
	}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, utils.NewAppError("Verification code is invalid.", http.StatusBadRequest))
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	set := bson.M{"status": models.StatusActive}
	unset := bson.M{"verification_code": "", "verification_code_expires": ""}
	if user.TempEmail != "" {
		set["email"] = user.TempEmail
		unset["temp_email"] = ""
		user.Email = user.TempEmail
	}
	_, err = ac.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set, "$unset": unset})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	welcomeURL := ac.cfg.BaseURL + "/profile"
	if err := ac.mailer.Send(user.Email, user.FullName.FirstName, "welcome",
		"Welcome to Vendix!", welcomeURL); err != nil {
		log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
	}

	ac.sendTokenResponse(w, r, &user, http.StatusOK, "Email verified successfully.")
}

type signinRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// validateSignin enforces that exactly one of username or email is provided
// alongside a password.
func validateSignin(body *signinRequest) error {
	if (body.Username == "" && body.Email == "") || body.Password == "" {
		return utils.NewAppError("Please provide email and password", http.StatusBadRequest)
	}
	if body.Username != "" && body.Email != "" {
		return utils.NewAppError("Please provide only one of username or email.", http.StatusBadRequest)
	}
	return nil
}

// Signin authenticates with username or email plus password.
func (ac *AuthController) Signin(w http.ResponseWriter, r *http.Request) {
	var body signinRequest
	if err := utils.ReadJSON(w, r, &body, ac.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if err := validateSignin(&body); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	filter := bson.M{}
	credential := "email"
	if body.Username != "" {
		filter["username"] = models.NormalizeUsername(body.Username)
		credential = "username"
	} else {
		filter["email"] = models.NormalizeEmail(body.Email)
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	var user models.User
	err := ac.users.FindOne(ctx, filter).Decode(&user)
	if err != nil || !user.CorrectPassword(body.Password) {
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			utils.HandleError(w, r, err)
			return
		}
		utils.HandleError(w, r, utils.NewAppError(
			"Invalid "+credential+" or password.", http.StatusUnauthorized))
		return
	}

	if user.Status == models.StatusAwaitingVerification {
		utils.HandleError(w, r, utils.NewAppError(
			"Please verify your email address first.", http.StatusForbidden))
		return
	}

	ac.sendTokenResponse(w, r, &user, http.StatusOK, "")
}

// RefreshToken reissues an access token from the refresh cookie, re-reading
// the user so role changes take effect without a new login.
func (ac *AuthController) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("jwt")
	if err != nil {
		utils.HandleError(w, r, utils.NewAppError(
			"Session expired or invalid. Please log in to continue.", http.StatusUnauthorized))
		return
	}

	claims, err := utils.ParseRefreshToken(cookie.Value, ac.cfg)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		utils.HandleError(w, r, utils.NewAppError(
			"Session expired or invalid. Please log in to continue.", http.StatusUnauthorized))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	user, err := models.FindUserByID(ctx, ac.db, userID)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if user == nil {
		utils.HandleError(w, r, utils.NewAppError(
			"The user belonging to this token is no longer exist.", http.StatusUnauthorized))
		return
	}

	accessToken, err := utils.SignAccessToken(user.Username, user.Role, ac.cfg)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, utils.Envelope{
		Status:      utils.StatusSuccess,
		AccessToken: accessToken,
	})
}

// Logout clears the refresh cookie.
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	utils.ClearRefreshCookie(w, ac.cfg)
	utils.SendMessage(w, http.StatusOK, "Logged out successfully.")
}

// UpdatePassword changes the password after re-authentication. Tokens issued
// before the change become invalid.
func (ac *AuthController) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var body struct {
		CurrentPassword string `json:"currentPassword"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := utils.ReadJSON(w, r, &body, ac.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if !user.CorrectPassword(body.CurrentPassword) {
		utils.HandleError(w, r, utils.NewAppError("Password is incorrect.", http.StatusUnauthorized))
		return
	}
	if err := models.ValidatePassword(body.Password, body.PasswordConfirm); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	hashed, err := models.HashPassword(body.Password)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	// Backdated one second so the tokens issued below stay valid.
	_, err = ac.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"password":            hashed,
		"password_changed_at": time.Now().Add(-time.Second),
	}})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	resetURL := ac.cfg.BaseURL + "/forgotPassword"
	if err := ac.mailer.Send(user.Email, user.FullName.FirstName, "notifyPasswordChange",
		"Your password has changed!", resetURL); err != nil {
		log.Printf("Failed to send password change notice to %s: %v", user.Email, err)
	}

	ac.sendTokenResponse(w, r, user, http.StatusOK, "Password has been updated successfully!")
}

// UpdateEmail stages a new email address and sends a verification code to
// commit it.
func (ac *AuthController) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.ReadJSON(w, r, &body, ac.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if !user.CorrectPassword(body.Password) {
		utils.HandleError(w, r, utils.NewAppError("Password is incorrect.", http.StatusUnauthorized))
		return
	}

	email := models.NormalizeEmail(body.Email)
	switch {
	case email == "":
		utils.HandleError(w, r, utils.NewAppError("Please provide email to update.", http.StatusBadRequest))
		return
	case !models.ValidEmail(email):
		utils.HandleError(w, r, utils.NewAppError("Please provide a valid email address.", http.StatusBadRequest))
		return
	case email == user.Email:
		utils.HandleError(w, r, utils.NewAppError(
			"The new email cannot be the same as the current email.", http.StatusBadRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	count, err := ac.users.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	if count > 0 {
		utils.HandleError(w, r, utils.NewAppError(
			"This email is already in use. Please use another one.", http.StatusBadRequest))
		return
	}

	plainCode, hashedCode, err := utils.GenerateSecureToken()
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	_, err = ac.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"temp_email":                email,
		"verification_code":         hashedCode,
		"verification_code_expires": time.Now().Add(utils.TokenTTL),
	}})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	verificationURL := ac.cfg.BaseURL + "/api/users/verify/" + plainCode
	err = ac.mailer.Send(email, user.FullName.FirstName, "verify",
		"Verify your account (valid for only 10 minutes)", verificationURL)
	if err != nil {
		// The staged change is reverted so a retry starts clean.
		_, _ = ac.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$unset": bson.M{
			"temp_email":                "",
			"verification_code":         "",
			"verification_code_expires": "",
		}})
		utils.HandleError(w, r, utils.NewAppError(
			"Failed to send verification email. Try again later.", http.StatusInternalServerError))
		return
	}

	utils.SendMessage(w, http.StatusOK, "Verification code sent to email.")
}

// ForgotPassword emails a single-use reset token.
func (ac *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := utils.ReadJSON(w, r, &body, ac.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	var user models.User
	err := ac.users.FindOne(ctx, bson.M{"email": models.NormalizeEmail(body.Email)}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, utils.NewAppError(
			"There is no user with this email address.", http.StatusNotFound))
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	plainToken, hashedToken, err := utils.GenerateSecureToken()
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	_, err = ac.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"password_reset_token":   hashedToken,
		"password_reset_expires": time.Now().Add(utils.TokenTTL),
	}})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	resetURL := ac.cfg.BaseURL + "/api/users/resetPassword/" + plainToken
	err = ac.mailer.Send(user.Email, user.FullName.FirstName, "passwordReset",
		"Your password reset link (valid for only 10 minutes)", resetURL)
	if err != nil {
		_, _ = ac.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$unset": bson.M{
			"password_reset_token":   "",
			"password_reset_expires": "",
		}})
		utils.HandleError(w, r, utils.NewAppError(
			"There is an error sending the email. Try again later.", http.StatusInternalServerError))
		return
	}

	utils.SendMessage(w, http.StatusOK, "Link sent to email.")
}

// ResetPassword sets a new password from a valid reset token.
func (ac *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	hashed := utils.HashToken(routeParam(r, "token"))

	var body struct {
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := utils.ReadJSON(w, r, &body, ac.cfg.RequestBodyLimit); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	var user models.User
	err := ac.users.FindOne(ctx, bson.M{
		"password_reset_token":   hashed,
		"password_reset_expires": bson.M{"$gt": time.Now()},
	}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, utils.NewAppError(
			"Token is invalid or has expired.", http.StatusBadRequest))
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	if err := models.ValidatePassword(body.Password, body.PasswordConfirm); err != nil {
		utils.HandleError(w, r, err)
		return
	}
	hashedPassword, err := models.HashPassword(body.Password)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	_, err = ac.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set": bson.M{
			"password":            hashedPassword,
			"password_changed_at": time.Now().Add(-time.Second),
		},
		"$unset": bson.M{
			"password_reset_token":   "",
			"password_reset_expires": "",
		},
	})
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ac.sendTokenResponse(w, r, &user, http.StatusOK, "Password has been reset successfully!")
}

func (ac *AuthController) sendTokenResponse(w http.ResponseWriter, r *http.Request, user *models.User, code int, message string) {
	accessToken, err := utils.SignAccessToken(user.Username, user.Role, ac.cfg)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	refreshToken, err := utils.SignRefreshToken(user.ID.Hex(), ac.cfg)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	utils.SetRefreshCookie(w, refreshToken, ac.cfg)
	utils.SendJSON(w, code, utils.Envelope{
		Status:      utils.StatusSuccess,
		Message:     message,
		AccessToken: accessToken,
	})
}

func (ac *AuthController) clearVerificationFields(ctx context.Context, userID primitive.ObjectID) {
	_, err := ac.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$unset": bson.M{
		"verification_code":         "",
		"verification_code_expires": "",
	}})
	if err != nil {
		log.Printf("Failed to clear verification fields for %s: %v", userID.Hex(), err)
	}
}
