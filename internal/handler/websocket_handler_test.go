package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jeninefer/commercial-view/internal/websocket"
)

type stubJWTValidator struct {
	subject string
	err     error
}

func (v *stubJWTValidator) ValidateToken(token string) (string, error) {
	if v.err != nil {
		return "", v.err
	}
	return v.subject, nil
}

func wsRequest(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to decode problem details: %v", err)
	}
	return problem
}

func TestHandleWS_MissingToken(t *testing.T) {
	h := NewWebSocketHandler(websocket.NewHub(), &stubJWTValidator{subject: "auth0|user1"}, nil)
	c, rec := wsRequest(t, "/ws")

	if err := h.HandleWS(c); err != nil {
		t.Fatalf("HandleWS returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
	if problem := decodeProblem(t, rec); problem.Type != ErrorTypeUnauthorized {
		t.Errorf("Expected type %s, got %s", ErrorTypeUnauthorized, problem.Type)
	}
}

func TestHandleWS_InvalidToken(t *testing.T) {
	h := NewWebSocketHandler(websocket.NewHub(), &stubJWTValidator{err: errors.New("token expired")}, nil)
	c, rec := wsRequest(t, "/ws?token=expired")

	if err := h.HandleWS(c); err != nil {
		t.Fatalf("HandleWS returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
	if problem := decodeProblem(t, rec); problem.Type != ErrorTypeUnauthorized {
		t.Errorf("Expected type %s, got %s", ErrorTypeUnauthorized, problem.Type)
	}
}

func TestHandleWS_UnknownTopic(t *testing.T) {
	h := NewWebSocketHandler(websocket.NewHub(), &stubJWTValidator{subject: "auth0|user1"}, nil)
	c, rec := wsRequest(t, "/ws?token=valid&topic=bogus")

	if err := h.HandleWS(c); err != nil {
		t.Fatalf("HandleWS returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	if problem := decodeProblem(t, rec); problem.Type != ErrorTypeValidation {
		t.Errorf("Expected type %s, got %s", ErrorTypeValidation, problem.Type)
	}
}
