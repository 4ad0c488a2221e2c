package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clientdesk/internal/model"
)

func TestRegisterDuplicateEmail(t *testing.T) {
	h := NewAuthHandler(newFakeUserStore(), discardLogger(), "secret", time.Hour)

	register := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
		rw := httptest.NewRecorder()
		h.Register(rw, req)
		return rw
	}

	rw := register(`{"name":"Ana","email":"ana@example.com","password":"pass123"}`)
	if rw.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rw.Code)
	}
	var resp tokenResponse
	if err := json.NewDecoder(rw.Body).Decode(&resp); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	if resp.AccessToken == "" || resp.User.Email != "ana@example.com" {
		t.Fatalf("unexpected token response %+v", resp)
	}

	rw = register(`{"name":"Other","email":"ana@example.com","password":"pass456"}`)
	if rw.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rw.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	users := newFakeUserStore()
	hash, err := hashPassword("right-pass")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if _, err := users.Create(t.Context(), "Ana", "ana@example.com", hash); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	h := NewAuthHandler(users, discardLogger(), "secret", time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"wrong"}`))
	rw := httptest.NewRecorder()
	h.Login(rw, req)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rw.Code)
	}
}

func TestMeServesStoredUser(t *testing.T) {
	users := newFakeUserStore()
	users.users[12] = model.User{ID: 12, Name: "Ana Renamed", Email: "ana@example.com"}
	h := NewAuthHandler(users, discardLogger(), "secret", time.Hour)

	// Claims carry no name; the handler must read the stored record.
	req := withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), 12)
	rw := httptest.NewRecorder()
	h.Me(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	var info model.UserInfo
	if err := json.NewDecoder(rw.Body).Decode(&info); err != nil {
		t.Fatalf("decode user info: %v", err)
	}
	if info.Name != "Ana Renamed" || info.Email != "ana@example.com" {
		t.Fatalf("expected stored user data, got %+v", info)
	}
}

func TestMeUnknownUser(t *testing.T) {
	h := NewAuthHandler(newFakeUserStore(), discardLogger(), "secret", time.Hour)

	req := withClaims(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), 99)
	rw := httptest.NewRecorder()
	h.Me(rw, req)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", rw.Code)
	}
}
