package service

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/splitsmart/splitsmart/internal/middleware"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// FriendService handles friendships and friend invites.
type FriendService struct {
	store storage.Store
}

func NewFriendService(store storage.Store) *FriendService {
	return &FriendService{store: store}
}

type friendsResponse struct {
	Friends []string `json:"friends"`
}

type friendInviteRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// ListFriends returns the ids of the caller's friends.
func (s *FriendService) ListFriends(c echo.Context) error {
	userID := middleware.UserID(c)
	friendships, err := s.store.ListFriendships(c.Request().Context(), userID)
	if err != nil {
		slog.Error("failed to list friendships", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	friends := make([]string, 0, len(friendships))
	for _, f := range friendships {
		friends = append(friends, f.Other(userID))
	}
	return c.JSON(http.StatusOK, friendsResponse{Friends: friends})
}

// RemoveFriend deletes the friendship between the caller and the given user.
func (s *FriendService) RemoveFriend(c echo.Context) error {
	userID := middleware.UserID(c)
	friendID := c.Param("id")
	if err := s.store.DeleteFriendship(c.Request().Context(), userID, friendID); err != nil {
		return notFoundOr(err, "friendship not found")
	}
	slog.Info("friendship removed", "user_id", userID, "friend_id", friendID)
	return c.NoContent(http.StatusNoContent)
}

// ListInvites returns the friend invites addressed to the caller.
func (s *FriendService) ListInvites(c echo.Context) error {
	invites, err := s.store.ListFriendInvites(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		slog.Error("failed to list friend invites", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if invites == nil {
		invites = []*models.FriendInvite{}
	}
	return c.JSON(http.StatusOK, invites)
}

// CreateInvite sends a friend invite to another user.
func (s *FriendService) CreateInvite(c echo.Context) error {
	var req friendInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	if req.UserID == userID {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot invite yourself")
	}

	target, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		slog.Error("failed to look up invited user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if target == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	already, err := s.store.AreFriends(ctx, userID, req.UserID)
	if err != nil {
		slog.Error("failed to check friendship", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if already {
		return echo.NewHTTPError(http.StatusConflict, "already friends")
	}

	invite := &models.FriendInvite{
		InvitedUserID:  req.UserID,
		InvitingUserID: userID,
	}
	if err := s.store.CreateFriendInvite(ctx, invite); err != nil {
		slog.Error("failed to create friend invite", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	slog.Info("friend invite sent", "invite_id", invite.ID, "from", userID, "to", req.UserID)
	return c.JSON(http.StatusOK, invite)
}

// AcceptInvite accepts a friend invite, creating the friendship and
// notifying the inviting user.
func (s *FriendService) AcceptInvite(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	invite, err := s.store.UpdateFriendInviteStatus(ctx, c.Param("id"), userID, models.InviteAccepted)
	if err != nil {
		return notFoundOr(err, "invite not found")
	}

	if err := s.store.CreateFriendship(ctx, userID, invite.InvitingUserID); err != nil {
		slog.Error("failed to create friendship", "error", err, "invite_id", invite.ID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	err = s.store.CreateNotification(ctx, &models.Notification{
		NotifiedUserID: invite.InvitingUserID,
		Type:           models.NotifyFriendshipAccepted,
		UserID:         userID,
	})
	if err != nil {
		slog.Warn("failed to notify inviting user", "error", err, "invite_id", invite.ID)
	}

	slog.Info("friend invite accepted", "invite_id", invite.ID, "user_id", userID)
	return c.JSON(http.StatusOK, invite)
}

// RejectInvite declines a friend invite and notifies the inviting user.
func (s *FriendService) RejectInvite(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	invite, err := s.store.UpdateFriendInviteStatus(ctx, c.Param("id"), userID, models.InviteRejected)
	if err != nil {
		return notFoundOr(err, "invite not found")
	}

	err = s.store.CreateNotification(ctx, &models.Notification{
		NotifiedUserID: invite.InvitingUserID,
		Type:           models.NotifyFriendshipDenied,
		UserID:         userID,
	})
	if err != nil {
		slog.Warn("failed to notify inviting user", "error", err, "invite_id", invite.ID)
	}

	slog.Info("friend invite rejected", "invite_id", invite.ID, "user_id", userID)
	return c.JSON(http.StatusOK, invite)
}
