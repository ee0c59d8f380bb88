package service

import (
	"github.com/labstack/echo/v4"

	"github.com/splitsmart/splitsmart/internal/auth"
	"github.com/splitsmart/splitsmart/internal/middleware"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// RegisterRoutes wires every handler onto the echo instance. Register and
// login are public; everything else sits behind the JWT middleware.
func RegisterRoutes(e *echo.Echo, store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager) {
	users := NewUserService(store, authenticator, jwtManager)
	friends := NewFriendService(store)
	groups := NewGroupService(store)
	expenses := NewExpenseService(store)
	balances := NewBalanceService(store)
	notifications := NewNotificationService(store)

	e.POST("/user/register", users.Register)
	e.POST("/user/login", users.Login)

	authed := e.Group("", middleware.RequireAuth(jwtManager))

	authed.GET("/user", users.CurrentUser)
	authed.GET("/user/invites", users.ListGroupInvites)
	authed.PUT("/user/invites/:id/accept", users.AcceptGroupInvite)
	authed.PUT("/user/invites/:id/reject", users.RejectGroupInvite)

	authed.GET("/friends", friends.ListFriends)
	authed.DELETE("/friends/:id", friends.RemoveFriend)
	authed.GET("/friends/invites", friends.ListInvites)
	authed.POST("/friends/invites", friends.CreateInvite)
	authed.PUT("/friends/invites/:id/accept", friends.AcceptInvite)
	authed.PUT("/friends/invites/:id/reject", friends.RejectInvite)

	authed.POST("/groups", groups.Create)
	authed.GET("/groups", groups.List)
	authed.GET("/groups/:gid", groups.Get)
	authed.PUT("/groups/:gid", groups.Update)
	authed.DELETE("/groups/:gid", groups.Delete)
	authed.POST("/groups/:gid/members", groups.AddMember)
	authed.GET("/groups/:gid/members", groups.ListMembers)
	authed.DELETE("/groups/:gid/members/:uid", groups.RemoveMember)
	authed.PUT("/groups/:gid/admins/:uid", groups.PromoteAdmin)
	authed.DELETE("/groups/:gid/admins/:uid", groups.DemoteAdmin)
	authed.POST("/groups/:gid/invites", groups.Invite)

	authed.POST("/expenses", expenses.CreatePrivate)
	authed.GET("/expenses", expenses.ListPrivate)
	authed.PUT("/expenses/:exid", expenses.UpdatePrivate)
	authed.DELETE("/expenses/:exid", expenses.DeletePrivate)
	authed.POST("/groups/:gid/expenses", expenses.CreateGroup)
	authed.GET("/groups/:gid/expenses", expenses.ListGroup)
	authed.PUT("/groups/:gid/expenses/:exid", expenses.UpdateGroup)
	authed.DELETE("/groups/:gid/expenses/:exid", expenses.DeleteGroup)

	authed.GET("/balances", balances.PersonalBalances)
	authed.GET("/groups/:gid/balances", balances.GroupBalances)

	authed.GET("/notifications", notifications.List)
	authed.PUT("/notifications/:nid/read", notifications.MarkRead)
	authed.GET("/notifications/preferences", notifications.GetPreference)
	authed.PUT("/notifications/preferences/:pref", notifications.UpdatePreference)
}
