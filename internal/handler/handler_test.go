package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/repository"
)

func queryContext(t *testing.T, rawQuery string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestValidatorRules(t *testing.T) {
	var v validator
	v.email("email", "anonymous@gmail.com")
	v.userName("name", "Anonymous")
	v.password("password", "P@$sW0rd!")
	v.fingerprint("fingerprint", "f1b7e156414663c4b81fbadadedcf01f")
	assert.NoError(t, v.err())

	var bad validator
	bad.email("email", "not-an-email")
	bad.userName("name", "x")
	bad.password("password", "short")
	bad.fingerprint("fingerprint", "too-short")
	err := bad.err()
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Len(t, appErr.AdditionalInfo["errors"], 4)
}

func TestBindPagination(t *testing.T) {
	p := bindPagination(queryContext(t, "page=3&limit=20"))
	assert.Equal(t, repository.Pagination{Page: 3, Limit: 20}, p)

	p = bindPagination(queryContext(t, "page=abc&limit="))
	assert.Equal(t, repository.Pagination{Page: 1, Limit: 10}, p)
}

func TestBindRecordFilter(t *testing.T) {
	c := queryContext(t, "folder_id_eq=5&record_type_eq=login&title_ilike=bank"+
		"&is_favorite=true&created_at_order_by=desc")
	f, err := bindRecordFilter(c)
	require.NoError(t, err)

	require.NotNil(t, f.FolderID)
	assert.EqualValues(t, 5, *f.FolderID)
	require.NotNil(t, f.RecordType)
	assert.EqualValues(t, "login", *f.RecordType)
	require.NotNil(t, f.TitleLike)
	assert.Equal(t, "bank", *f.TitleLike)
	require.NotNil(t, f.IsFavorite)
	assert.True(t, *f.IsFavorite)
	assert.Equal(t, "created_at", f.OrderBy)
	assert.True(t, f.OrderDesc)
}

func TestBindRecordFilterRejectsBadValues(t *testing.T) {
	for _, query := range []string{
		"folder_id_eq=abc",
		"record_type_eq=passport",
		"is_favorite=maybe",
		"created_at_from=yesterday",
		"title_order_by=sideways",
	} {
		_, err := bindRecordFilter(queryContext(t, query))
		assert.Error(t, err, query)
	}
}
