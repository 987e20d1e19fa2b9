package routes

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"vendix/controllers"
	"vendix/middleware"
	"vendix/models"
	"vendix/utils"
)

// Controllers bundles every handler group for registration.
type Controllers struct {
	Auth          *controllers.AuthController
	Users         *controllers.UserController
	Vendors       *controllers.VendorController
	Products      *controllers.ProductController
	Categories    *controllers.CategoryController
	Carts         *controllers.CartController
	Orders        *controllers.OrderController
	Reviews       *controllers.ReviewController
	Invoices      *controllers.InvoiceController
	Wishlists     *controllers.WishlistController
	Notifications *controllers.NotificationController
}

// Register mounts every API route on the router. Static routes are
// registered before their parameterized siblings.
func Register(r *mux.Router, auth *middleware.Auth, c *Controllers) {
	r.NotFoundHandler = http.HandlerFunc(notFoundRoute)
	r.MethodNotAllowedHandler = http.HandlerFunc(notFoundRoute)

	api := r.PathPrefix("/api").Subrouter()

	registerUserRoutes(api, auth, c)
	registerVendorRoutes(api, auth, c)
	registerProductRoutes(api, auth, c)
	registerCategoryRoutes(api, auth, c)
	registerCartRoutes(api, auth, c)
	registerOrderRoutes(api, auth, c)
	registerReviewRoutes(api, auth, c)
	registerInvoiceRoutes(api, auth, c)
	registerWishlistRoutes(api, auth, c)
	registerNotificationRoutes(api, auth, c)
}

func registerUserRoutes(api *mux.Router, auth *middleware.Auth, c *Controllers) {
	users := api.PathPrefix("/users").Subrouter()

	users.HandleFunc("/signup", c.Auth.Signup).Methods(http.MethodPost)
	users.HandleFunc("/signin", c.Auth.Signin).Methods(http.MethodPost)
	users.HandleFunc("/logout", c.Auth.Logout).Methods(http.MethodGet)
	users.HandleFunc("/refreshToken", c.Auth.RefreshToken).Methods(http.MethodGet)
	users.HandleFunc("/verify/{code}", c.Auth.VerifyEmail).Methods(http.MethodPost)
	users.HandleFunc("/resendVerificationCode", c.Auth.ResendVerificationCode).Methods(http.MethodPost)
	users.HandleFunc("/forgotPassword", c.Auth.ForgotPassword).Methods(http.MethodPost)
	users.HandleFunc("/resetPassword/{token}", c.Auth.ResetPassword).Methods(http.MethodPatch)

	users.Handle("/updateMyPassword", protect(auth, c.Auth.UpdatePassword)).Methods(http.MethodPatch)
	users.Handle("/updateEmail", protect(auth, c.Auth.UpdateEmail)).Methods(http.MethodPatch)
	users.Handle("/me", protect(auth, c.Users.GetMe)).Methods(http.MethodGet)
	users.Handle("/updateMe", protect(auth, c.Users.UpdateMe)).Methods(http.MethodPatch)
	users.Handle("/me/addresses", protect(auth, c.Users.AddAddress)).Methods(http.MethodPost)
	users.Handle("/me/addresses/{id}", protect(auth, c.Users.UpdateAddress)).Methods(http.MethodPatch)
	users.Handle("/me/addresses/{id}", protect(auth, c.Users.RemoveAddress)).Methods(http.MethodDelete)
	users.Handle("/requestVendorRole",
		protect(auth, c.Users.RequestVendorRole, models.RoleUser)).Methods(http.MethodPost)

	users.Handle("", protect(auth, c.Users.GetAllUsers(), models.RoleAdmin)).Methods(http.MethodGet)
	users.Handle("", protect(auth, c.Users.CreateUser, models.RoleAdmin)).Methods(http.MethodPost)
	users.Handle("/{id}/vendorRequest",
		protect(auth, c.Users.HandleVendorRoleRequest, models.RoleAdmin)).Methods(http.MethodPatch)
	users.Handle("/{id}", protect(auth, c.Users.GetUser(), models.RoleAdmin)).Methods(http.MethodGet)
	users.Handle("/{id}", protect(auth, c.Users.UpdateUser(), models.RoleAdmin)).Methods(http.MethodPatch)
	users.Handle("/{id}", protect(auth, c.Users.DeleteUser, models.RoleAdmin)).Methods(http.MethodDelete)
}

func registerVendorRoutes(api *mux.Router, auth *middleware.Auth, c *Controllers) {
	vendors := api.PathPrefix("/vendors").Subrouter()

	vendors.HandleFunc("", c.Vendors.GetAllVendors()).Methods(http.MethodGet)

	// The whole /me group is vendor-only.
	me := vendors.PathPrefix("/me").Subrouter()
	me.Use(auth.Protect, middleware.RestrictTo(models.RoleVendor))
	me.HandleFunc("", c.Vendors.GetMyVendor).Methods(http.MethodGet)
	me.HandleFunc("", c.Vendors.UpdateMyVendor).Methods(http.MethodPatch)
	me.HandleFunc("", c.Vendors.DeleteMyVendor).Methods(http.MethodDelete)
	me.HandleFunc("/logo", c.Vendors.UploadVendorLogo).Methods(http.MethodPost)

	vendors.HandleFunc("/{vendorId}/products", c.Products.GetAllProducts()).Methods(http.MethodGet)
	vendors.HandleFunc("/{id}", c.Vendors.GetVendor()).Methods(http.MethodGet)
	vendors.Handle("/{id}", protect(auth, c.Vendors.UpdateVendor(), models.RoleAdmin)).Methods(http.MethodPatch)
	vendors.Handle("/{id}", protect(auth, c.Vendors.DeleteVendor, models.RoleAdmin)).Methods(http.MethodDelete)
}

func registerProductRoutes(api *mux.Router, auth *middleware.Auth, c *Controllers) {
	products := api.PathPrefix("/products").Subrouter()

	products.HandleFunc("", c.Products.GetAllProducts()).Methods(http.MethodGet)
	products.HandleFunc("/slug/{slug}", c.Products.GetProductBySlug).Methods(http.MethodGet)
	products.HandleFunc("/price-range", c.Products.GetPriceRange).Methods(http.MethodGet)
	products.HandleFunc("/brands", c.Products.GetBrands).Methods(http.MethodGet)
	products.HandleFunc("/deals", c.Products.GetDeals).Methods(http.MethodGet)
	products.Handle("/overview",
		protect(auth, c.Products.AdminOverview, models.RoleAdmin)).Methods(http.MethodGet)

	products.Handle("",
		protect(auth, c.Products.CreateProduct, models.RoleVendor, models.RoleAdmin)).Methods(http.MethodPost)
	products.Handle("/{id}/images",
		protect(auth, c.Products.UploadProductImage, models.RoleVendor, models.RoleAdmin)).Methods(http.MethodPost)

	// Reviews nested under their product.
	products.HandleFunc("/{productId}/reviews", c.Reviews.GetAllReviews()).Methods(http.MethodGet)
	products.Handle("/{productId}/reviews",
		protect(auth, c.Reviews.CreateReview, models.RoleUser, models.RoleVendor)).Methods(http.MethodPost)
	products.Handle("/{productId}/can-review",
		protect(auth, c.Reviews.CanReview, models.RoleUser, models.RoleVendor)).Methods(http.MethodGet)

	products.HandleFunc("/{id}", c.Products.GetProduct).Methods(http.MethodGet)
	products.Handle("/{id}",
		protect(auth, c.Products.UpdateProduct(), models.RoleVendor, models.RoleAdmin)).Methods(http.MethodPatch)
	products.Handle("/{id}",
		protect(auth, c.Products.DeleteProduct(), models.RoleVendor, models.RoleAdmin)).Methods(http.MethodDelete)
}

func registerCategoryRoutes(api *mux.Router, auth *middleware.Auth, c *Controllers) {
	categories := api.PathPrefix("/categories").Subrouter()

	categories.HandleFunc("", c.Categories.GetAllCategories()).Methods(http.MethodGet)
	categories.HandleFunc("/{id}", c.Categories.GetCategory()).Methods(http.MethodGet)
	categories.Handle("",
		protect(auth, c.Categories.CreateCategory(), models.RoleAdmin)).Methods(http.MethodPost)
	categories.Handle("/{id}",
		protect(auth, c.Categories.UpdateCategory(), models.RoleAdmin)).Methods(http.MethodPatch)
	categories.Handle("/{id}",
		protect(auth, c.Categories.DeleteCategory(), models.RoleAdmin)).Methods(http.MethodDelete)
}

func registerCartRoutes(api *mux.Router, auth *middleware.Auth, c *Controllers) {
	carts := api.PathPrefix("/carts").Subrouter()

	carts.Handle("", protect(auth, c.Carts.GetMyCart)).Methods(http.MethodGet)
	carts.Handle("", protect(auth, c.Carts.ClearCart)).Methods(http.MethodDelete)
	carts.Handle("/items", protect(auth, c.Carts.AddToCart)).Methods(http.MethodPost)
	carts.Handle("/items/{id}", protect(auth, c.Carts.UpdateCartItem)).Methods(http.MethodPatch)
	carts.Handle("/items/{id}", protect(auth, c.Carts.RemoveFromCart)).Methods(http.MethodDelete)
	carts.Handle("/checkout", protect(auth, c.Carts.Checkout)).Methods(http.MethodPost)
}

func registerOrderRoutes(api *mux.Router, auth *middleware.Auth, c *Controllers) {
	orders := api.PathPrefix("/orders").Subrouter()

	orders.Handle("/myOrders", protect(auth, c.Orders.GetMyOrders)).Methods(http.MethodGet)
	orders.Handle("",
		protect(auth, c.Orders.GetAllOrders(), models.RoleAdmin, models.RoleDelivery)).Methods(http.MethodGet)
	orders.Handle("/export",
		protect(auth, c.Orders.ExportOrders, models.RoleAdmin)).Methods(http.MethodGet)
	orders.Handle("/{id}/status",
		protect(auth, c.Orders.UpdateOrderStatus, models.RoleAdmin, models.RoleDelivery)).Methods(http.MethodPatch)
	orders.Handle("/{id}", protect(auth, c.Orders.GetOrder())).Methods(http.MethodGet)
	orders.Handle("/{id}",
		protect(auth, c.Orders.DeleteOrder, models.RoleAdmin)).Methods(http.MethodDelete)
}

func registerReviewRoutes(api *mux.Router, auth *middleware.Auth, c *Controllers) {
	reviews := api.PathPrefix("/reviews").Subrouter()

	reviews.HandleFunc("", c.Reviews.GetAllReviews()).Methods(http.MethodGet)
	reviews.Handle("",
		protect(auth, c.Reviews.CreateReview, models.RoleUser, models.RoleVendor)).Methods(http.MethodPost)
	reviews.HandleFunc("/{id}", c.Reviews.GetReview()).Methods(http.MethodGet)
	reviews.Handle("/{id}", protect(auth, c.Reviews.UpdateReview())).Methods(http.MethodPatch)
	reviews.Handle("/{id}", protect(auth, c.Reviews.DeleteReview())).Methods(http.MethodDelete)
}

func registerInvoiceRoutes(api *mux.Router, auth *middleware.Auth, c *Controllers) {
	invoices := api.PathPrefix("/invoices").Subrouter()

	invoices.Handle("/myInvoices", protect(auth, c.Invoices.GetMyInvoices())).Methods(http.MethodGet)
	invoices.Handle("",
		protect(auth, c.Invoices.GetAllInvoices(), models.RoleAdmin)).Methods(http.MethodGet)
	invoices.Handle("/{id}", protect(auth, c.Invoices.GetInvoice())).Methods(http.MethodGet)
}

func registerWishlistRoutes(api *mux.Router, auth *middleware.Auth, c *Controllers) {
	wishlists := api.PathPrefix("/wishlists").Subrouter()

	wishlists.Handle("", protect(auth, c.Wishlists.GetMyWishlist)).Methods(http.MethodGet)
	wishlists.Handle("/{id}", protect(auth, c.Wishlists.AddToWishlist)).Methods(http.MethodPost)
	wishlists.Handle("/{id}", protect(auth, c.Wishlists.RemoveFromWishlist)).Methods(http.MethodDelete)
}

func registerNotificationRoutes(api *mux.Router, auth *middleware.Auth, c *Controllers) {
	notifications := api.PathPrefix("/notifications").Subrouter()

	notifications.Handle("", protect(auth, c.Notifications.GetMyNotifications)).Methods(http.MethodGet)
	notifications.Handle("/{id}/read",
		protect(auth, c.Notifications.MarkNotificationRead)).Methods(http.MethodPatch)
}

// notFoundRoute answers unmatched paths with the regular error envelope.
func notFoundRoute(w http.ResponseWriter, r *http.Request) {
	utils.HandleError(w, r, utils.NewAppError(
		fmt.Sprintf("Can't find %s on this server!", r.URL.Path), http.StatusNotFound))
}

// protect wraps a handler with authentication and, when roles are given,
// role gating.
func protect(auth *middleware.Auth, h http.HandlerFunc, roles ...string) http.Handler {
	if len(roles) > 0 {
		h = middleware.RequireRoles(h, roles...)
	}
	return auth.Protect(h)
}
