package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendix/config"
	"vendix/controllers"
	"vendix/middleware"
	"vendix/utils"
)

// testRouter registers every route against a lazily connected client. The
// driver only dials once an operation runs, so registration itself never
// touches a server.
func testRouter(t *testing.T) *mux.Router {
	t.Helper()

	client, err := mongo.Connect(context.Background(),
		options.Client().ApplyURI("mongodb://localhost:27017"))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("routes_test")
	cfg := &config.Config{RequestBodyLimit: 1 << 20}
	uploader := utils.NewLocalUploader(cfg)

	r := mux.NewRouter()
	Register(r, middleware.NewAuth(db, cfg), &Controllers{
		Auth:          controllers.NewAuthController(client, db, cfg, utils.NewMailer(cfg)),
		Users:         controllers.NewUserController(db, cfg, uploader),
		Vendors:       controllers.NewVendorController(db, cfg, uploader),
		Products:      controllers.NewProductController(db, cfg, uploader),
		Categories:    controllers.NewCategoryController(db, cfg),
		Carts:         controllers.NewCartController(db, cfg),
		Orders:        controllers.NewOrderController(db, cfg),
		Reviews:       controllers.NewReviewController(db, cfg),
		Invoices:      controllers.NewInvoiceController(db, cfg),
		Wishlists:     controllers.NewWishlistController(db, cfg),
		Notifications: controllers.NewNotificationController(db, cfg),
	})
	return r
}

func TestStandaloneReviewCreationRouteExists(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", nil)
	var match mux.RouteMatch
	if !r.Match(req, &match) || match.MatchErr != nil {
		t.Fatalf("expected POST /api/reviews to match a route, got %v", match.MatchErr)
	}
}

func TestUnknownRouteReturnsErrorEnvelope(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var env struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("expected a JSON body, got %q", rec.Body.String())
	}
	if env.Status != "error" {
		t.Errorf("expected status error, got %q", env.Status)
	}
	if env.Message != "Can't find /api/nope on this server!" {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestWrongMethodReturnsErrorEnvelope(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/products", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var env struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("expected a JSON body, got %q", rec.Body.String())
	}
	if env.Status != "error" {
		t.Errorf("expected status error, got %q", env.Status)
	}
}
