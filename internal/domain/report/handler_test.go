package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	NewHandler(newTestService(newFixture())).RegisterRoutes(e.Group(""))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler_Dashboard(t *testing.T) {
	rec := serve(t, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Status string         `json:"status"`
		Data   map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "success", env.Status)
	for _, key := range []string{"total", "old_med", "add_med", "reduce_med", "stop_med",
		"remission", "dm_no_med", "under_follow_up", "other"} {
		assert.Contains(t, env.Data, key)
	}
	assert.Equal(t, 8, env.Data["total"])
}

func TestHandler_HospitalSummary(t *testing.T) {
	rec := serve(t, "/hospdata")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, 2)
	assert.Equal(t, "04321", env.Data[0]["hosp_name"])
	assert.Nil(t, env.Data[0]["hosp_name2"])
	assert.Equal(t, float64(4), env.Data[0]["patients"])
}

func TestHandler_ExportHospitals(t *testing.T) {
	rec := serve(t, ExportPath)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, XLSXContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "attachment; filename=hospdata.xlsx", rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "PK", rec.Body.String()[:2], "xlsx is a zip archive")
}
