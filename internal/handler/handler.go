// Package handler contains the Echo HTTP handlers. Handlers bind and
// validate request bodies, delegate to repositories or the auth service and
// translate results into the response schemas; all error rendering is
// centralized in the application error handler.
package handler

import (
	"regexp"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/auth"
	"github.com/pwstorage/pwstorage/internal/repository"
)

// fieldError is one entry of a 422 validation response.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

// validator accumulates field errors and turns them into one 422.
type validator struct {
	errs []fieldError
}

func (v *validator) add(field, msg string) {
	v.errs = append(v.errs, fieldError{Field: field, Message: msg})
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperror.Validation(v.errs)
}

var (
	emailRe       = regexp.MustCompile(`^[-\w.]+@([\w-]+\.)+[\w-]{2,4}$`)
	nameRe        = regexp.MustCompile(`^[\da-zA-Z-_]+$`)
	fingerprintRe = regexp.MustCompile(`^[\da-zA-Z]+$`)
)

func (v *validator) email(field, value string) {
	if len(value) < 3 || len(value) > 128 || !emailRe.MatchString(value) {
		v.add(field, "invalid email")
	}
}

func (v *validator) userName(field, value string) {
	if len(value) < 3 || len(value) > 64 || !nameRe.MatchString(value) {
		v.add(field, "invalid name")
	}
}

func (v *validator) password(field, value string) {
	if len(value) < 6 || len(value) > 128 {
		v.add(field, "invalid password")
	}
}

func (v *validator) fingerprint(field, value string) {
	if len(value) < 32 || len(value) > 64 || !fingerprintRe.MatchString(value) {
		v.add(field, "invalid fingerprint")
	}
}

func (v *validator) length(field, value string, min, max int) {
	if len(value) < min || len(value) > max {
		v.add(field, "length out of range")
	}
}

// requestInfo collects the client metadata recorded on session rows.
func requestInfo(c echo.Context, fingerprint string) auth.RequestInfo {
	return auth.RequestInfo{
		IP:          c.RealIP(),
		UserAgent:   c.Request().UserAgent(),
		Fingerprint: fingerprint,
	}
}

// bindPagination reads page/limit query parameters; anything unparsable
// falls back to defaults via Normalize.
func bindPagination(c echo.Context) repository.Pagination {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return repository.Pagination{Page: page, Limit: limit}.Normalize()
}

// paginated is the uniform list response envelope.
type paginated struct {
	Items      any `json:"items"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

func newPaginated(items any, total int, p repository.Pagination) paginated {
	return paginated{Items: items, TotalItems: total, TotalPages: repository.Pages(total, p.Limit)}
}

// bindBody decodes the JSON body into dst, mapping malformed payloads to a
// 422 instead of Echo's default 400.
func bindBody(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperror.Validation([]fieldError{{Field: "body", Message: "malformed request body"}})
	}
	return nil
}
