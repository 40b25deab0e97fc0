package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), rec
}

func TestAppErrorResponseUsesErrorStatus(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, AppErrorResponse(c, NotFoundErrorf("no data for symbol %s", "ZZZ")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var env struct {
		Status int         `json:"status"`
		Data   []*AppError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusNotFound, env.Status)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "ERR_NOT_FOUND", env.Data[0].Code)
}

func TestListResponse(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, ListResponse(c, []string{"a", "b"}, 2))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":{"rows":["a","b"],"total":2}}`, rec.Body.String())
}

func TestBadRequestResponseCarriesValidationErrors(t *testing.T) {
	c, rec := newContext()
	errs := []ValidationError{{Code: "ERR_LTE", Field: "MaxGapDays"}}
	require.NoError(t, BadRequestResponse(c, errs))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":400,"message":"Bad Request","data":[{"code":"ERR_LTE","field":"MaxGapDays"}]}`, rec.Body.String())
}
