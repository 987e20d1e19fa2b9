package models

// Collection names.
const (
	UsersCollection         = "users"
	VendorsCollection       = "vendors"
	ProductsCollection      = "products"
	CategoriesCollection    = "categories"
	CartsCollection         = "carts"
	WishlistsCollection     = "wishlists"
	OrdersCollection        = "orders"
	ReviewsCollection       = "reviews"
	InvoicesCollection      = "invoices"
	NotificationsCollection = "notifications"
	CountersCollection      = "counters"
)
