package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func healthRouter(handler *HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", handler.Status)
	r.GET("/readyz", handler.Readiness)
	return r
}

func TestHealthStatus(t *testing.T) {
	r := healthRouter(NewHealthHandler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checkErr   error
		wantStatus int
		wantState  string
	}{
		{name: "dependency up", checkErr: nil, wantStatus: http.StatusOK, wantState: "ok"},
		{name: "dependency down", checkErr: errors.New("no route to host"), wantStatus: http.StatusServiceUnavailable, wantState: "degraded"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHealthHandler(WithReadinessCheck("database", func(context.Context) error {
				return tc.checkErr
			}))
			r := healthRouter(handler)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}

			var response HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("bad response body: %v", err)
			}
			if response.Status != tc.wantState {
				t.Fatalf("reported status = %q, want %q", response.Status, tc.wantState)
			}
		})
	}
}
