package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pwstorage/pwstorage/internal/auth"
	"github.com/pwstorage/pwstorage/internal/middleware"
	"github.com/pwstorage/pwstorage/internal/model"
	"github.com/pwstorage/pwstorage/internal/repository"
)

// AuthSessionHandler serves /auth_sessions: the user's device sessions.
// Deletion goes through the auth service so the cached access token dies
// together with the row.
type AuthSessionHandler struct {
	DB   *sql.DB
	Auth *auth.Service
}

func NewAuthSessionHandler(db *sql.DB, authSvc *auth.Service) *AuthSessionHandler {
	return &AuthSessionHandler{DB: db, Auth: authSvc}
}

type authSessionResp struct {
	ID         string    `json:"id"`
	UserIP     string    `json:"user_ip"`
	UserAgent  *string   `json:"user_agent"`
	LastOnline time.Time `json:"last_online"`
	CreatedAt  time.Time `json:"created_at"`
}

func newAuthSessionResp(s *model.AuthSession) authSessionResp {
	return authSessionResp{
		ID:         s.ID,
		UserIP:     s.UserIP,
		UserAgent:  s.UserAgent,
		LastOnline: s.LastOnline,
		CreatedAt:  s.CreatedAt,
	}
}

// List returns one page of the user's active sessions, newest first.
func (h *AuthSessionHandler) List(c echo.Context) error {
	p := bindPagination(c)
	sessions, total, err := repository.NewAuthSessionRepo(h.DB).ListByUser(c.Request().Context(),
		middleware.TokenData(c).UserID, p)
	if err != nil {
		return err
	}
	items := make([]authSessionResp, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, newAuthSessionResp(s))
	}
	return c.JSON(http.StatusOK, newPaginated(items, total, p))
}

// Get returns one session of the user.
func (h *AuthSessionHandler) Get(c echo.Context) error {
	sessionID, err := pathUUID(c, "auth_session_id")
	if err != nil {
		return err
	}
	s, err := repository.NewAuthSessionRepo(h.DB).GetByIDAndUser(c.Request().Context(),
		sessionID, middleware.TokenData(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAuthSessionResp(s))
}

// Delete terminates one session of the user (revoking another device).
func (h *AuthSessionHandler) Delete(c echo.Context) error {
	sessionID, err := pathUUID(c, "auth_session_id")
	if err != nil {
		return err
	}
	if err := h.Auth.DeleteUserSession(c.Request().Context(), sessionID,
		middleware.TokenData(c).UserID, auth.RequestInfo{}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// pathUUID parses a UUID path parameter; anything unparsable is a 422.
func pathUUID(c echo.Context, name string) (string, error) {
	raw := c.Param(name)
	if _, err := uuid.Parse(raw); err != nil {
		var v validator
		v.add(name, "invalid uuid")
		return "", v.err()
	}
	return raw, nil
}
