package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"clientdesk/internal/metrics"
	"clientdesk/internal/model"
	"clientdesk/internal/outbox"
	"clientdesk/internal/storage"

	"github.com/jackc/pgx/v5"
)

// clientStore is the slice of the client repository the handler needs.
type clientStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	List(ctx context.Context) ([]model.Client, error)
	Get(ctx context.Context, id int64) (model.Client, error)
	Create(ctx context.Context, name, email, phone string) (model.Client, error)
	Update(ctx context.Context, id int64, name, email, phone string) (model.Client, error)
	DeleteCascadeTx(ctx context.Context, tx pgx.Tx, id int64) (int64, error)
}

type ClientHandler struct {
	repo       clientStore
	outboxRepo eventStore
	logger     *slog.Logger
}

func NewClientHandler(repo clientStore, outboxRepo eventStore, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

type clientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (req *clientRequest) trim() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
}

// Collection serves /api/v1/clients.
func (h *ClientHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item serves /api/v1/clients/{id}.
func (h *ClientHandler) Item(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/clients/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ClientHandler) list(w http.ResponseWriter, r *http.Request) {
	clients, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("client list failed", "err", err)
		http.Error(w, "failed to list clients", http.StatusInternalServerError)
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(clients)
}

func (h *ClientHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	client, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		h.logger.Error("client get failed", "err", err)
		http.Error(w, "failed to load client", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(client)
}

func (h *ClientHandler) create(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.trim()
	if req.Name == "" || req.Email == "" {
		http.Error(w, "name and email required", http.StatusBadRequest)
		return
	}

	client, err := h.repo.Create(r.Context(), req.Name, req.Email, req.Phone)
	if err != nil {
		if storage.IsDuplicate(err) {
			http.Error(w, "email already exists", http.StatusBadRequest)
			return
		}
		h.logger.Error("client create failed", "err", err)
		http.Error(w, "failed to create client", http.StatusInternalServerError)
		return
	}
	metrics.ClientsCreated.Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(client)
}

func (h *ClientHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.trim()
	if req.Name == "" || req.Email == "" {
		http.Error(w, "name and email required", http.StatusBadRequest)
		return
	}

	client, err := h.repo.Update(r.Context(), id, req.Name, req.Email, req.Phone)
	if err != nil {
		switch {
		case storage.IsNotFound(err):
			http.Error(w, "client not found", http.StatusNotFound)
		case storage.IsDuplicate(err):
			http.Error(w, "email already exists", http.StatusBadRequest)
		default:
			h.logger.Error("client update failed", "err", err)
			http.Error(w, "failed to update client", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(client)
}

func (h *ClientHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Appointments go first, then the client, one transaction: a partially
	// deleted client must never be observable.
	removedAppointments, err := h.repo.DeleteCascadeTx(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		h.logger.Error("client delete failed", "err", err)
		http.Error(w, "failed to delete client", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"client_id":            id,
		"removed_appointments": removedAppointments,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "client",
		AggregateID:   strconv.FormatInt(id, 10),
		EventType:     outbox.EventClientDeleted,
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
	_ = json.NewEncoder(w).Encode(messageResponse{Message: "client and associated appointments deleted"})
}
