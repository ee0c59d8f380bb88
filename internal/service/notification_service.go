package service

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/splitsmart/splitsmart/internal/middleware"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// NotificationService handles the caller's notification inbox and their
// notification preference.
type NotificationService struct {
	store storage.Store
}

func NewNotificationService(store storage.Store) *NotificationService {
	return &NotificationService{store: store}
}

type preferenceResponse struct {
	NotificationPreference string `json:"notification_preference"`
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(c echo.Context) error {
	notifications, err := s.store.ListNotifications(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		slog.Error("failed to list notifications", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	return c.JSON(http.StatusOK, notifications)
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(c echo.Context) error {
	notification, err := s.store.MarkNotificationRead(c.Request().Context(), c.Param("nid"), middleware.UserID(c))
	if err != nil {
		return notFoundOr(err, "notification not found")
	}
	return c.JSON(http.StatusOK, notification)
}

// GetPreference returns the caller's notification preference.
func (s *NotificationService) GetPreference(c echo.Context) error {
	user, err := s.store.GetUserByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		slog.Error("failed to load user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, preferenceResponse{NotificationPreference: user.NotificationPreference})
}

// UpdatePreference sets the caller's notification preference.
func (s *NotificationService) UpdatePreference(c echo.Context) error {
	preference := c.Param("pref")
	switch preference {
	case models.NotifyPrefNone, models.NotifyPrefPersonal, models.NotifyPrefAll:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown notification preference")
	}

	userID := middleware.UserID(c)
	if err := s.store.UpdateNotificationPreference(c.Request().Context(), userID, preference); err != nil {
		slog.Error("failed to update preference", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	slog.Info("notification preference updated", "user_id", userID, "preference", preference)
	return c.JSON(http.StatusOK, preferenceResponse{NotificationPreference: preference})
}
