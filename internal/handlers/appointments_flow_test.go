package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clientdesk/internal/model"
	"clientdesk/internal/outbox"
	"clientdesk/internal/scheduling"
)

const slotBody = `{"date":"2024-05-01T10:00:00Z","client_id":7}`

var slotDate = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func postAppointment(h *AppointmentHandler, userID int64, body string) *httptest.ResponseRecorder {
	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body)), userID)
	rw := httptest.NewRecorder()
	h.Collection(rw, req)
	return rw
}

func patchStatus(h *AppointmentHandler, id int64, status string) *httptest.ResponseRecorder {
	path := fmt.Sprintf("/api/v1/appointments/%d/status", id)
	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"status":"`+status+`"}`))
	rw := httptest.NewRecorder()
	h.Item(rw, req)
	return rw
}

func TestCreateAppointmentConflict(t *testing.T) {
	store := newFakeAppointmentStore()
	store.add(1, 7, slotDate, scheduling.StatusPending)
	events := &fakeEventStore{}
	h := NewAppointmentHandler(store, events, discardLogger())

	rw := postAppointment(h, 1, slotBody)
	if rw.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rw.Code)
	}
	if len(store.appointments) != 1 {
		t.Fatalf("conflicting create must not persist, have %d appointments", len(store.appointments))
	}
	if len(events.events) != 0 {
		t.Fatalf("conflicting create must not emit events, got %d", len(events.events))
	}
}

func TestCreateAppointmentOtherUserSameInstant(t *testing.T) {
	store := newFakeAppointmentStore()
	store.add(1, 7, slotDate, scheduling.StatusPending)
	h := NewAppointmentHandler(store, &fakeEventStore{}, discardLogger())

	// The slot is per owning user; another user books the same instant freely.
	rw := postAppointment(h, 2, slotBody)
	if rw.Code != http.StatusCreated {
		t.Fatalf("expected 201 for a different user, got %d", rw.Code)
	}
}

func TestCancelledSlotCanBeRebooked(t *testing.T) {
	store := newFakeAppointmentStore()
	id := store.add(1, 7, slotDate, scheduling.StatusPending)
	events := &fakeEventStore{}
	h := NewAppointmentHandler(store, events, discardLogger())

	if rw := patchStatus(h, id, "cancelled"); rw.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", rw.Code)
	}

	rw := postAppointment(h, 1, slotBody)
	if rw.Code != http.StatusCreated {
		t.Fatalf("rebook after cancel: expected 201, got %d", rw.Code)
	}

	var created model.Appointment
	if err := json.NewDecoder(rw.Body).Decode(&created); err != nil {
		t.Fatalf("decode created appointment: %v", err)
	}
	if created.Status != scheduling.StatusPending {
		t.Fatalf("new booking must start pending, got %q", created.Status)
	}
	if len(store.appointments) != 2 {
		t.Fatalf("expected cancelled and new booking to coexist, have %d", len(store.appointments))
	}
	if last := events.events[len(events.events)-1]; last.EventType != outbox.EventAppointmentCreated {
		t.Fatalf("expected created event, got %q", last.EventType)
	}
}

func TestStatusChangeSkipsConflictCheck(t *testing.T) {
	store := newFakeAppointmentStore()
	id := store.add(1, 7, slotDate, scheduling.StatusPending)
	// A second booking occupies the same instant, as happens after a
	// cancel-and-rebook. Reviving the first one is still allowed.
	store.add(1, 8, slotDate, scheduling.StatusPending)
	h := NewAppointmentHandler(store, &fakeEventStore{}, discardLogger())

	if rw := patchStatus(h, id, "cancelled"); rw.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", rw.Code)
	}
	if rw := patchStatus(h, id, "confirmed"); rw.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d", rw.Code)
	}
	if store.conflictChecks != 0 {
		t.Fatalf("status changes must not run the booking conflict check, ran %d times", store.conflictChecks)
	}
	if got := store.appointments[id].Status; got != scheduling.StatusConfirmed {
		t.Fatalf("expected confirmed, got %q", got)
	}
}

func TestUpdateStatusUnknownAppointment(t *testing.T) {
	h := NewAppointmentHandler(newFakeAppointmentStore(), &fakeEventStore{}, discardLogger())

	rw := patchStatus(h, 42, "confirmed")
	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
}

func TestDeleteAppointmentNotFound(t *testing.T) {
	events := &fakeEventStore{}
	h := NewAppointmentHandler(newFakeAppointmentStore(), events, discardLogger())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/appointments/42", nil)
	rw := httptest.NewRecorder()
	h.Item(rw, req)
	if rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
	if len(events.events) != 0 {
		t.Fatalf("failed delete must not emit events, got %d", len(events.events))
	}
}

func TestListAppointmentsSortedByDate(t *testing.T) {
	store := newFakeAppointmentStore()
	store.add(1, 7, slotDate.Add(2*time.Hour), scheduling.StatusPending)
	store.add(1, 7, slotDate, scheduling.StatusConfirmed)
	store.add(1, 7, slotDate.Add(time.Hour), scheduling.StatusPending)
	h := NewAppointmentHandler(store, &fakeEventStore{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	rw := httptest.NewRecorder()
	h.Collection(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	var appts []model.Appointment
	if err := json.NewDecoder(rw.Body).Decode(&appts); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(appts) != 3 {
		t.Fatalf("expected 3 appointments, got %d", len(appts))
	}
	for i := 1; i < len(appts); i++ {
		if appts[i].Date.Before(appts[i-1].Date) {
			t.Fatalf("list not sorted ascending at index %d", i)
		}
	}
}
