// Package router wires HTTP routes to their handlers.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pwstorage/pwstorage/internal/auth"
	"github.com/pwstorage/pwstorage/internal/handler"
	"github.com/pwstorage/pwstorage/internal/middleware"
)

// Handlers bundles every handler the router registers.
type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Settings     *handler.SettingsHandler
	AuthSessions *handler.AuthSessionHandler
	Folders      *handler.FolderHandler
	Records      *handler.RecordHandler
}

// Register registers all routes. Login, refresh and user registration are
// open; everything else requires a valid access token.
func Register(e *echo.Echo, h Handlers, resolver *auth.Resolver) {
	e.GET("/ping", handler.Ping)

	e.POST("/auth/login", h.Auth.Login)
	e.POST("/auth/refresh_tokens", h.Auth.Refresh)
	e.POST("/users", h.Users.Create)

	authed := e.Group("", middleware.RequireAuth(resolver))
	authed.DELETE("/auth/logout", h.Auth.Logout)

	authed.GET("/users/me", h.Users.GetMe)
	authed.PUT("/users/me", h.Users.UpdateMe)
	authed.PATCH("/users/me", h.Users.PatchMe)
	authed.DELETE("/users/me", h.Users.DeleteMe)

	authed.GET("/settings", h.Settings.Get)
	authed.PUT("/settings", h.Settings.Update)
	authed.PATCH("/settings", h.Settings.Patch)

	authed.GET("/auth_sessions", h.AuthSessions.List)
	authed.GET("/auth_sessions/:auth_session_id", h.AuthSessions.Get)
	authed.DELETE("/auth_sessions/:auth_session_id", h.AuthSessions.Delete)

	authed.POST("/folders", h.Folders.Create)
	authed.GET("/folders", h.Folders.List)
	authed.GET("/folders/:folder_id", h.Folders.Get)
	authed.PUT("/folders/:folder_id", h.Folders.Update)
	authed.PATCH("/folders/:folder_id", h.Folders.Patch)
	authed.DELETE("/folders/:folder_id", h.Folders.Delete)

	authed.POST("/records", h.Records.Create)
	authed.GET("/records", h.Records.List)
	authed.GET("/records/:record_id", h.Records.Get)
	authed.PUT("/records/:record_id", h.Records.Update)
	authed.PATCH("/records/:record_id", h.Records.Patch)
	authed.DELETE("/records/:record_id", h.Records.Delete)
}
