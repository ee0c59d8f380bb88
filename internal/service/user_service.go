package service

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/splitsmart/splitsmart/internal/auth"
	"github.com/splitsmart/splitsmart/internal/middleware"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// UserService handles registration, login and the caller's own account,
// including group invites addressed to them.
type UserService struct {
	store         storage.Store
	authenticator auth.Authenticator
	jwt           *auth.JWTManager
}

func NewUserService(store storage.Store, authenticator auth.Authenticator, jwt *auth.JWTManager) *UserService {
	return &UserService{store: store, authenticator: authenticator, jwt: jwt}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a new account.
func (s *UserService) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := s.authenticator.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrUserExists):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		slog.Error("registration failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return c.JSON(http.StatusOK, user)
}

// Login authenticates a user and issues a session token.
func (s *UserService) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := s.authenticator.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		slog.Error("token generation failed", "error", err, "user_id", user.ID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := s.store.UpdateLastLogin(ctx, user.ID, time.Now().Unix()); err != nil {
		slog.Warn("failed to record login time", "error", err, "user_id", user.ID)
	}

	slog.Info("user logged in", "user_id", user.ID)
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

// CurrentUser returns the authenticated user's account.
func (s *UserService) CurrentUser(c echo.Context) error {
	user, err := s.store.GetUserByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		slog.Error("failed to load user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, user)
}

// ListGroupInvites returns the group invites addressed to the caller.
func (s *UserService) ListGroupInvites(c echo.Context) error {
	invites, err := s.store.ListGroupInvites(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		slog.Error("failed to list group invites", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if invites == nil {
		invites = []*models.GroupInvite{}
	}
	return c.JSON(http.StatusOK, invites)
}

// AcceptGroupInvite accepts a group invite, which also joins the group.
func (s *UserService) AcceptGroupInvite(c echo.Context) error {
	return s.respondGroupInvite(c, models.InviteAccepted)
}

// RejectGroupInvite declines a group invite.
func (s *UserService) RejectGroupInvite(c echo.Context) error {
	return s.respondGroupInvite(c, models.InviteRejected)
}

func (s *UserService) respondGroupInvite(c echo.Context, status string) error {
	userID := middleware.UserID(c)
	invite, err := s.store.UpdateGroupInviteStatus(c.Request().Context(), c.Param("id"), userID, status)
	if err != nil {
		return notFoundOr(err, "invite not found")
	}
	slog.Info("group invite answered", "invite_id", invite.ID, "user_id", userID, "status", status)
	return c.JSON(http.StatusOK, invite)
}
