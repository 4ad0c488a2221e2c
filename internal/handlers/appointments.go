package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clientdesk/internal/metrics"
	"clientdesk/internal/model"
	"clientdesk/internal/outbox"
	"clientdesk/internal/scheduling"
	"clientdesk/internal/storage"

	"github.com/jackc/pgx/v5"
)

// appointmentStore is the slice of the appointment repository the handler
// needs. Transaction control stays here; the store owns the SQL.
type appointmentStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	ListBlockingAtTx(ctx context.Context, tx pgx.Tx, userID int64, at time.Time) ([]scheduling.Booking, error)
	CreateTx(ctx context.Context, tx pgx.Tx, userID, clientID int64, at time.Time) (int64, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, status scheduling.Status) (scheduling.Status, error)
	DeleteTx(ctx context.Context, tx pgx.Tx, id int64) error
	GetWithClient(ctx context.Context, id int64) (model.Appointment, error)
	ListAll(ctx context.Context) ([]model.Appointment, error)
}

// eventStore appends domain events inside the caller's transaction.
type eventStore interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

type AppointmentHandler struct {
	repo       appointmentStore
	outboxRepo eventStore
	logger     *slog.Logger
}

func NewAppointmentHandler(repo appointmentStore, outboxRepo eventStore, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

type createAppointmentRequest struct {
	Date     string `json:"date"`
	ClientID int64  `json:"client_id"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Collection serves /api/v1/appointments.
func (h *AppointmentHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item serves /api/v1/appointments/{id} and /api/v1/appointments/{id}/status.
func (h *AppointmentHandler) Item(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/appointments/")
	idStr, tail, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	switch {
	case tail == "status" && r.Method == http.MethodPatch:
		h.updateStatus(w, r, id)
	case tail == "" && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AppointmentHandler) list(w http.ResponseWriter, r *http.Request) {
	appts, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("appointment list failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(appts)
}

func (h *AppointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "missing credentials", http.StatusUnauthorized)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Date) == "" || req.ClientID <= 0 {
		http.Error(w, "date and client_id required", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	// Past instants are allowed: the tool also records historical visits.

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The conflict check and the insert share one transaction; the row locks
	// taken here make concurrent creates for the same user and instant
	// serialize instead of both passing the check.
	existing, err := h.repo.ListBlockingAtTx(ctx, tx, claims.UserID, date)
	if err != nil {
		h.logger.Error("conflict check failed", "err", err)
		http.Error(w, "failed to check availability", http.StatusInternalServerError)
		return
	}
	if scheduling.Conflicts(date, existing) {
		metrics.BookingConflicts.Inc()
		http.Error(w, "time slot already booked", http.StatusConflict)
		return
	}

	id, err := h.repo.CreateTx(ctx, tx, claims.UserID, req.ClientID, date)
	if err != nil {
		switch {
		case storage.IsExclusion(err) || storage.IsDuplicate(err):
			metrics.BookingConflicts.Inc()
			http.Error(w, "time slot already booked", http.StatusConflict)
		case storage.IsForeignKey(err):
			http.Error(w, "client does not exist", http.StatusBadRequest)
		default:
			h.logger.Error("appointment create failed", "err", err)
			http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		}
		return
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id": id,
		"user_id":        claims.UserID,
		"client_id":      req.ClientID,
		"date":           date.UTC().Format(time.RFC3339),
		"status":         scheduling.StatusPending,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   strconv.FormatInt(id, 10),
		EventType:     outbox.EventAppointmentCreated,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	metrics.AppointmentsCreated.Inc()

	appt, err := h.repo.GetWithClient(ctx, id)
	if err != nil {
		h.logger.Error("appointment load after create failed", "err", err)
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(appt)
}

func (h *AppointmentHandler) updateStatus(w http.ResponseWriter, r *http.Request, id int64) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	status, err := scheduling.ParseStatus(strings.TrimSpace(req.Status))
	if err != nil {
		http.Error(w, "status must be pending, confirmed or cancelled", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Unconditional overwrite. No transition rules, and no conflict re-check
	// when a cancelled slot comes back to life.
	previous, err := h.repo.UpdateStatusTx(ctx, tx, id, status)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("status update failed", "err", err)
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id":  id,
		"previous_status": previous,
		"status":          status,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   strconv.FormatInt(id, 10),
		EventType:     outbox.EventAppointmentStatusChanged,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	metrics.StatusChanges.WithLabelValues(string(status)).Inc()

	appt, err := h.repo.GetWithClient(ctx, id)
	if err != nil {
		h.logger.Error("appointment load after update failed", "err", err)
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(appt)
}

func (h *AppointmentHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.DeleteTx(ctx, tx, id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("appointment delete failed", "err", err)
		http.Error(w, "failed to delete appointment", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(map[string]any{"appointment_id": id})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   strconv.FormatInt(id, 10),
		EventType:     outbox.EventAppointmentDeleted,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(messageResponse{Message: "appointment deleted"})
}
