package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestOK(t *testing.T) {
	c, rec := newContext()
	if err := OK(c, []string{"a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != StatusSuccess {
		t.Errorf("expected success status, got %v", body["status"])
	}
	if _, ok := body["message"]; ok {
		t.Error("message should be omitted when empty")
	}
}

func TestOK_EmptySliceKept(t *testing.T) {
	c, rec := newContext()
	if err := OK(c, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := decode(t, rec)
	if _, ok := body["data"]; !ok {
		t.Error("expected data key for an empty list")
	}
}

func TestCreated(t *testing.T) {
	c, rec := newContext()
	if err := Created(c, "Created successfully", map[string]int{"id": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["message"] != "Created successfully" {
		t.Errorf("unexpected message %v", body["message"])
	}
}

func TestError(t *testing.T) {
	c, rec := newContext()
	if err := Error(c, http.StatusNotFound, "Person not found"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != StatusError || body["message"] != "Person not found" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestUpdated(t *testing.T) {
	c, rec := newContext()
	if err := Updated(c, "Person updated successfully", map[string]int{"id": 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["message"] != "Person updated successfully" || body["data"] == nil {
		t.Errorf("unexpected body %v", body)
	}
}
