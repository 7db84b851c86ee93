package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pwstorage/pwstorage/internal/middleware"
	"github.com/pwstorage/pwstorage/internal/repository"
)

// Bounds for auth_session_expiration (minutes): 1 minute to 1 year.
const (
	minSessionExpiration = 1
	maxSessionExpiration = 525600
)

// SettingsHandler serves /settings.
type SettingsHandler struct {
	DB *sql.DB
}

func NewSettingsHandler(db *sql.DB) *SettingsHandler {
	return &SettingsHandler{DB: db}
}

type settingsReq struct {
	AuthSessionExpiration *int `json:"auth_session_expiration"`
}

type settingsResp struct {
	AuthSessionExpiration int `json:"auth_session_expiration"`
}

// Get returns the authenticated user's settings.
func (h *SettingsHandler) Get(c echo.Context) error {
	s, err := repository.NewSettingsRepo(h.DB).Get(c.Request().Context(), middleware.TokenData(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settingsResp{AuthSessionExpiration: s.AuthSessionExpiration})
}

// Update replaces the settings (PUT requires every field, PATCH accepts a
// subset; with a single field both collapse to the same check).
func (h *SettingsHandler) Update(c echo.Context) error {
	var req settingsReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	var v validator
	if req.AuthSessionExpiration == nil {
		v.add("auth_session_expiration", "field required")
	}
	if err := v.err(); err != nil {
		return err
	}
	return h.apply(c, *req.AuthSessionExpiration)
}

// Patch updates only the provided fields. A PATCH with no fields is a
// no-op read.
func (h *SettingsHandler) Patch(c echo.Context) error {
	var req settingsReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.AuthSessionExpiration == nil {
		return h.Get(c)
	}
	return h.apply(c, *req.AuthSessionExpiration)
}

func (h *SettingsHandler) apply(c echo.Context, expiration int) error {
	if expiration < minSessionExpiration || expiration > maxSessionExpiration {
		var v validator
		v.add("auth_session_expiration", "out of range")
		return v.err()
	}
	repo := repository.NewSettingsRepo(h.DB)
	s, err := repo.Get(c.Request().Context(), middleware.TokenData(c).UserID)
	if err != nil {
		return err
	}
	s.AuthSessionExpiration = expiration
	if err := repo.Update(c.Request().Context(), s); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settingsResp{AuthSessionExpiration: s.AuthSessionExpiration})
}
