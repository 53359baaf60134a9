package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/raetselonkel/labyrinth/internal/usecase"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondWithError(c, err)

	var envelope Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not an envelope: %v", err)
	}
	return w, envelope
}

func TestRespondWithDomainError(t *testing.T) {
	w, envelope := respond(t, usecase.ErrRiddleNotFound)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected gameplay failures to report as 200", w.Code)
	}
	if envelope.Ok {
		t.Fatal("envelope ok must be false")
	}
	if envelope.Message != usecase.ErrRiddleNotFound.Error() {
		t.Fatalf("message = %q", envelope.Message)
	}
}

func TestRespondWithWrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("solve riddle: %w", usecase.ErrRiddleAlreadySolved)
	w, envelope := respond(t, wrapped)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if envelope.Message != usecase.ErrRiddleAlreadySolved.Error() {
		t.Fatalf("message = %q, wrapping must not leak internals", envelope.Message)
	}
}

func TestRespondWithStoreFailure(t *testing.T) {
	w, envelope := respond(t, errors.New("pq: connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if envelope.Message != "internal server error" {
		t.Fatalf("message = %q, internals must not leak to clients", envelope.Message)
	}
}
