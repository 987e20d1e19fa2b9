package controllers

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendix/config"
	"vendix/middleware"
	"vendix/models"
	"vendix/utils"
)

// NotificationController serves the per-user notification feed.
type NotificationController struct {
	notifications *mongo.Collection
	cfg           *config.Config
}

func NewNotificationController(db *mongo.Database, cfg *config.Config) *NotificationController {
	return &NotificationController{
		notifications: db.Collection(models.NotificationsCollection),
		cfg:           cfg,
	}
}

// GetMyNotifications lists the caller's notifications, newest first.
func (nc *NotificationController) GetMyNotifications(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), listTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := nc.notifications.Find(ctx, bson.M{"user": user.ID}, opts)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}
	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		utils.HandleError(w, r, err)
		return
	}

	utils.SendList(w, "notifications", notifications, len(notifications), int64(len(notifications)))
}

// MarkNotificationRead flags one of the caller's notifications as read.
func (nc *NotificationController) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	id, err := idParam(r)
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	var notification models.Notification
	err = nc.notifications.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user": user.ID},
		bson.M{"$set": bson.M{"is_read": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&notification)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.HandleError(w, r, utils.NewAppError(
			"No notification found with that ID or access forbidden.", http.StatusNotFound))
		return
	}
	if err != nil {
		utils.HandleError(w, r, err)
		return
	}

	utils.SendData(w, http.StatusOK, "notification", notification)
}
