package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Ping is the liveness endpoint.
func Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
