package service

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/splitsmart/splitsmart/internal/middleware"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// GroupService handles group CRUD, membership, administration and invites.
type GroupService struct {
	store storage.Store
}

func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

type groupRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=1024"`
}

type groupResponse struct {
	*models.Group
	Members []string `json:"members"`
	Admins  []string `json:"admins"`
}

type memberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type groupInviteRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Message string `json:"message" validate:"max=1024"`
}

// requireMember returns a 403 error unless userID belongs to the group.
func (s *GroupService) requireMember(c echo.Context, groupID, userID string) error {
	ok, err := s.store.IsGroupMember(c.Request().Context(), groupID, userID)
	if err != nil {
		slog.Error("membership check failed", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "not a group member")
	}
	return nil
}

// requireAdmin returns a 403 error unless userID administers the group.
func (s *GroupService) requireAdmin(c echo.Context, groupID, userID string) error {
	ok, err := s.store.IsGroupAdmin(c.Request().Context(), groupID, userID)
	if err != nil {
		slog.Error("admin check failed", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "not a group admin")
	}
	return nil
}

// Create creates a group with the caller as first member and admin.
func (s *GroupService) Create(c echo.Context) error {
	var req groupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	userID := middleware.UserID(c)
	group := &models.Group{Name: req.Name, Description: req.Description}
	if err := s.store.CreateGroup(c.Request().Context(), group, userID); err != nil {
		slog.Error("failed to create group", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	slog.Info("group created", "group_id", group.ID, "creator", userID)
	return c.JSON(http.StatusOK, group)
}

// List returns the caller's groups.
func (s *GroupService) List(c echo.Context) error {
	groups, err := s.store.ListGroupsForUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		slog.Error("failed to list groups", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if groups == nil {
		groups = []*models.Group{}
	}
	return c.JSON(http.StatusOK, groups)
}

// Get returns one group with its member and admin lists. Members only.
func (s *GroupService) Get(c echo.Context) error {
	groupID := c.Param("gid")
	userID := middleware.UserID(c)
	if err := s.requireMember(c, groupID, userID); err != nil {
		return err
	}

	ctx := c.Request().Context()
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Error("failed to load group", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if group == nil {
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}

	members, err := s.store.ListGroupMembers(ctx, groupID)
	if err != nil {
		slog.Error("failed to list members", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	admins, err := s.store.ListGroupAdmins(ctx, groupID)
	if err != nil {
		slog.Error("failed to list admins", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, groupResponse{Group: group, Members: members, Admins: admins})
}

// Update renames a group. Admins only.
func (s *GroupService) Update(c echo.Context) error {
	groupID := c.Param("gid")
	userID := middleware.UserID(c)
	if err := s.requireAdmin(c, groupID, userID); err != nil {
		return err
	}

	var req groupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	group := &models.Group{ID: groupID, Name: req.Name, Description: req.Description}
	if err := s.store.UpdateGroup(c.Request().Context(), group); err != nil {
		return notFoundOr(err, "group not found")
	}

	slog.Info("group updated", "group_id", groupID, "user_id", userID)
	return c.JSON(http.StatusOK, group)
}

// Delete removes a group and everything attached to it. Admins only.
func (s *GroupService) Delete(c echo.Context) error {
	groupID := c.Param("gid")
	userID := middleware.UserID(c)
	if err := s.requireAdmin(c, groupID, userID); err != nil {
		return err
	}

	if err := s.store.DeleteGroup(c.Request().Context(), groupID); err != nil {
		return notFoundOr(err, "group not found")
	}

	slog.Info("group deleted", "group_id", groupID, "user_id", userID)
	return c.NoContent(http.StatusNoContent)
}

// AddMember adds a user to the group. Admins only.
func (s *GroupService) AddMember(c echo.Context) error {
	groupID := c.Param("gid")
	userID := middleware.UserID(c)
	if err := s.requireAdmin(c, groupID, userID); err != nil {
		return err
	}

	var req memberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	target, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if target == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	if err := s.store.AddGroupMember(ctx, groupID, req.UserID); err != nil {
		slog.Error("failed to add member", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	slog.Info("member added", "group_id", groupID, "user_id", req.UserID, "added_by", userID)
	return c.NoContent(http.StatusNoContent)
}

// ListMembers returns the member ids of a group. Members only.
func (s *GroupService) ListMembers(c echo.Context) error {
	groupID := c.Param("gid")
	if err := s.requireMember(c, groupID, middleware.UserID(c)); err != nil {
		return err
	}

	members, err := s.store.ListGroupMembers(c.Request().Context(), groupID)
	if err != nil {
		slog.Error("failed to list members", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, members)
}

// RemoveMember removes a user from the group. Admins may remove anyone;
// members may remove themselves.
func (s *GroupService) RemoveMember(c echo.Context) error {
	groupID := c.Param("gid")
	targetID := c.Param("uid")
	userID := middleware.UserID(c)

	if targetID != userID {
		if err := s.requireAdmin(c, groupID, userID); err != nil {
			return err
		}
	}

	if err := s.store.RemoveGroupMember(c.Request().Context(), groupID, targetID); err != nil {
		return notFoundOr(err, "member not found")
	}

	slog.Info("member removed", "group_id", groupID, "user_id", targetID, "removed_by", userID)
	return c.NoContent(http.StatusNoContent)
}

// PromoteAdmin grants a member the admin role. Admins only.
func (s *GroupService) PromoteAdmin(c echo.Context) error {
	groupID := c.Param("gid")
	targetID := c.Param("uid")
	userID := middleware.UserID(c)
	if err := s.requireAdmin(c, groupID, userID); err != nil {
		return err
	}

	ctx := c.Request().Context()
	isMember, err := s.store.IsGroupMember(ctx, groupID, targetID)
	if err != nil {
		slog.Error("membership check failed", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if !isMember {
		return echo.NewHTTPError(http.StatusBadRequest, "user is not a group member")
	}

	if err := s.store.AddGroupAdmin(ctx, groupID, targetID); err != nil {
		slog.Error("failed to add admin", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	slog.Info("admin promoted", "group_id", groupID, "user_id", targetID, "promoted_by", userID)
	return c.NoContent(http.StatusNoContent)
}

// DemoteAdmin revokes a member's admin role. Admins only.
func (s *GroupService) DemoteAdmin(c echo.Context) error {
	groupID := c.Param("gid")
	targetID := c.Param("uid")
	userID := middleware.UserID(c)
	if err := s.requireAdmin(c, groupID, userID); err != nil {
		return err
	}

	if err := s.store.RemoveGroupAdmin(c.Request().Context(), groupID, targetID); err != nil {
		return notFoundOr(err, "admin not found")
	}

	slog.Info("admin demoted", "group_id", groupID, "user_id", targetID, "demoted_by", userID)
	return c.NoContent(http.StatusNoContent)
}

// Invite invites a user into the group. Any member may invite.
func (s *GroupService) Invite(c echo.Context) error {
	groupID := c.Param("gid")
	userID := middleware.UserID(c)
	if err := s.requireMember(c, groupID, userID); err != nil {
		return err
	}

	var req groupInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	target, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		slog.Error("failed to look up invited user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if target == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	alreadyMember, err := s.store.IsGroupMember(ctx, groupID, req.UserID)
	if err != nil {
		slog.Error("membership check failed", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if alreadyMember {
		return echo.NewHTTPError(http.StatusConflict, "user is already a member")
	}

	invite := &models.GroupInvite{
		GroupID:        groupID,
		InvitedUserID:  req.UserID,
		InvitingUserID: userID,
		Message:        req.Message,
	}
	if err := s.store.CreateGroupInvite(ctx, invite); err != nil {
		slog.Error("failed to create group invite", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	slog.Info("group invite sent", "invite_id", invite.ID, "group_id", groupID, "to", req.UserID)
	return c.JSON(http.StatusOK, invite)
}
