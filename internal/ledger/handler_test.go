package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openride/marketplace/pkg/common"
	"github.com/openride/marketplace/pkg/middleware"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(f.ledger).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, as uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != uuid.Nil {
		req.Header.Set(middleware.IdentityHeader, as.String())
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) common.APIResponse {
	t.Helper()
	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandler_RequestRide(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)

	w := doJSON(t, router, http.MethodPost, "/api/v1/rides", f.rider, gin.H{
		"pickup":      "Old Town",
		"destination": "Harbor",
		"distance":    10,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestHandler_RequestRide_NoIdentity(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)

	w := doJSON(t, router, http.MethodPost, "/api/v1/rides", uuid.Nil, gin.H{
		"pickup":      "Old Town",
		"destination": "Harbor",
		"distance":    10,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_ErrorStatusMapping(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)
	ride := f.inProgressRide(t)

	tests := []struct {
		name   string
		method string
		path   string
		as     uuid.UUID
		body   interface{}
		status int
	}{
		{"unknown ride is 404", http.MethodGet, "/api/v1/rides/999", f.rider, nil, http.StatusNotFound},
		{"malformed id is 400", http.MethodGet, "/api/v1/rides/abc", f.rider, nil, http.StatusBadRequest},
		{"accept out of order is 409", http.MethodPost, fmt.Sprintf("/api/v1/rides/%d/accept", ride.ID), f.driver, gin.H{}, http.StatusConflict},
		{"stranger cancel is 403", http.MethodPost, fmt.Sprintf("/api/v1/rides/%d/cancel", ride.ID), uuid.New(), gin.H{"reason": "x"}, http.StatusForbidden},
		{"underfunded completion is 402", http.MethodPost, fmt.Sprintf("/api/v1/rides/%d/complete", ride.ID), f.rider, gin.H{"amount_paid": ride.Fare}, http.StatusPaymentRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.as, tt.body)
			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
		})
	}
}

func TestHandler_FullLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)
	f.fund(t, f.rider, 2000)

	w := doJSON(t, router, http.MethodPost, "/api/v1/rides", f.rider, gin.H{
		"pickup":      "Old Town",
		"destination": "Harbor",
		"distance":    10,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/rides/1/accept", f.driver, gin.H{})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/rides/1/start", f.driver, gin.H{})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/rides/1/complete", f.rider, gin.H{"amount_paid": 2000})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	payload, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	settlement, ok := payload["settlement"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(500), settlement["refund"])
	assert.Equal(t, float64(1425), settlement["driver_share"])
}
