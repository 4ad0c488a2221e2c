package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateClientValidation(t *testing.T) {
	h := NewClientHandler(nil, nil, discardLogger())

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing name", `{"email":"a@b.com"}`},
		{"missing email", `{"name":"Ana"}`},
		{"blank fields", `{"name":"  ","email":" "}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(tc.body))
		rw := httptest.NewRecorder()
		h.Collection(rw, req)
		if rw.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rw.Code)
		}
	}
}

func TestClientItemRejectsBadID(t *testing.T) {
	h := NewClientHandler(nil, nil, discardLogger())

	for _, path := range []string{"/api/v1/clients/abc", "/api/v1/clients/0", "/api/v1/clients/-3"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rw := httptest.NewRecorder()
		h.Item(rw, req)
		if rw.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rw.Code)
		}
	}
}

func TestClientCollectionMethodNotAllowed(t *testing.T) {
	h := NewClientHandler(nil, nil, discardLogger())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/clients", nil)
	rw := httptest.NewRecorder()
	h.Collection(rw, req)
	if rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}
}
