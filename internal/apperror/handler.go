package apperror

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ZeroEventID marks errors that are not individually tracked (validation).
const ZeroEventID = "00000000-0000-0000-0000-000000000000"

// Envelope is the uniform JSON error body.
type Envelope struct {
	Detail         string         `json:"detail"`
	ErrorCode      string         `json:"error_code"`
	EventID        string         `json:"event_id"`
	AdditionalInfo map[string]any `json:"additional_info"`
}

// EchoHandler returns an Echo HTTPErrorHandler that renders every error as
// an Envelope. Domain errors keep their status and code; unknown errors
// become a generic 500 with no internal detail leaked. Every tracked error
// gets a random event id that is also attached to the log line.
func EchoHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		env := Envelope{
			Detail:         "Unknown exception occurred.",
			ErrorCode:      "UnknownException",
			EventID:        uuid.NewString(),
			AdditionalInfo: map[string]any{},
		}
		status := http.StatusInternalServerError

		if appErr, ok := As(err); ok {
			status = appErr.Status
			env.Detail = appErr.Detail
			env.ErrorCode = appErr.Code
			if appErr.AdditionalInfo != nil {
				env.AdditionalInfo = appErr.AdditionalInfo
			}
			if appErr.Code == CodeValidation {
				env.EventID = ZeroEventID
			}
		} else if httpErr, ok := err.(*echo.HTTPError); ok {
			status = httpErr.Code
			env.ErrorCode = "Exception"
			if msg, ok := httpErr.Message.(string); ok {
				env.Detail = msg
			}
			if httpErr.Code == http.StatusNotFound {
				env.ErrorCode = "EndpointNotFoundException"
				env.Detail = "404 endpoint not found."
				env.EventID = ZeroEventID
			}
		}

		evt := log.Warn()
		if status >= http.StatusInternalServerError {
			evt = log.Error().Err(err)
		}
		evt.Str("event_id", env.EventID).
			Str("error_code", env.ErrorCode).
			Int("status", status).
			Str("path", c.Request().URL.Path).
			Msg("request failed")

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, env)
	}
}
