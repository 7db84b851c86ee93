package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/auth"
	"github.com/pwstorage/pwstorage/internal/middleware"
)

const refreshCookieName = "refresh_token"

// AuthHandler serves /auth: login, token refresh and logout.
type AuthHandler struct {
	Service  *auth.Service
	Resolver *auth.Resolver
}

func NewAuthHandler(svc *auth.Service, resolver *auth.Resolver) *AuthHandler {
	return &AuthHandler{Service: svc, Resolver: resolver}
}

type loginReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Fingerprint string `json:"fingerprint"`
}

type refreshReq struct {
	Fingerprint string `json:"fingerprint"`
}

// Login verifies credentials and opens a session. The refresh token is also
// mirrored into a cookie so browser clients refresh without storing it.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	var v validator
	v.email("email", req.Email)
	v.password("password", req.Password)
	v.fingerprint("fingerprint", req.Fingerprint)
	if err := v.err(); err != nil {
		return err
	}

	pair, err := h.Service.CreateToken(c.Request().Context(), req.Email, req.Password,
		requestInfo(c, req.Fingerprint))
	if err != nil {
		return err
	}
	setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, pair)
}

// Refresh rotates the token pair. The refresh token arrives in the cookie
// set at login; the device fingerprint arrives in the body and must match
// the one the session was created with.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return apperror.Unauthorized("Invalid refresh token")
	}
	var req refreshReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	var v validator
	v.fingerprint("fingerprint", req.Fingerprint)
	if err := v.err(); err != nil {
		return err
	}

	refreshID, err := h.Resolver.RefreshSubject(cookie.Value)
	if err != nil {
		return err
	}
	pair, err := h.Service.RefreshToken(c.Request().Context(), refreshID,
		requestInfo(c, req.Fingerprint))
	if err != nil {
		return err
	}
	setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, pair)
}

// Logout terminates the caller's session. Repeating a logout is an error:
// the second call finds the session already terminated and gets a 409.
func (h *AuthHandler) Logout(c echo.Context) error {
	data := middleware.TokenData(c)
	clearRefreshCookie(c)
	if err := h.Service.DeleteSession(c.Request().Context(), data.SessionID, requestInfo(c, "")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func setRefreshCookie(c echo.Context, pair *auth.TokenPair) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   pair.RefreshTokenExpiresIn * 60,
		HttpOnly: true,
	})
}

func clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
