package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clientdesk/libs/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withClaims(r *http.Request, userID int64) *http.Request {
	claims := &auth.Claims{
		UserID: userID,
		Iat:    time.Now().Unix(),
		Exp:    time.Now().Add(time.Hour).Unix(),
	}
	return r.WithContext(context.WithValue(r.Context(), ctxKeyClaims, claims))
}

func TestCreateAppointmentRejectsMissingClaims(t *testing.T) {
	h := NewAppointmentHandler(nil, nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{"date":"2024-05-01T10:00:00Z","client_id":1}`))
	rw := httptest.NewRecorder()
	h.Collection(rw, req)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rw.Code)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	h := NewAppointmentHandler(nil, nil, discardLogger())

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing date", `{"client_id":1}`},
		{"missing client", `{"date":"2024-05-01T10:00:00Z"}`},
		{"unparseable date", `{"date":"not-a-date","client_id":1}`},
		{"bare date without time", `{"date":"2024-05-01","client_id":1}`},
	}
	for _, tc := range cases {
		req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(tc.body)), 1)
		rw := httptest.NewRecorder()
		h.Collection(rw, req)
		if rw.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rw.Code)
		}
	}
}

func TestAppointmentItemRejectsBadID(t *testing.T) {
	h := NewAppointmentHandler(nil, nil, discardLogger())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/appointments/abc", nil)
	rw := httptest.NewRecorder()
	h.Item(rw, req)
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	h := NewAppointmentHandler(nil, nil, discardLogger())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/appointments/5/status", strings.NewReader(`{"status":"done"}`))
	rw := httptest.NewRecorder()
	h.Item(rw, req)
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rw.Code)
	}
}

func TestAppointmentCollectionMethodNotAllowed(t *testing.T) {
	h := NewAppointmentHandler(nil, nil, discardLogger())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/appointments", nil)
	rw := httptest.NewRecorder()
	h.Collection(rw, req)
	if rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}
}
