package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"clientdesk/internal/dashboard"
	"clientdesk/internal/model"
)

type clientLister interface {
	List(ctx context.Context) ([]model.Client, error)
}

type appointmentLister interface {
	ListAll(ctx context.Context) ([]model.Appointment, error)
}

type DashboardHandler struct {
	clients      clientLister
	appointments appointmentLister
	logger       *slog.Logger
	rate         int64
}

func NewDashboardHandler(clients clientLister, appointments appointmentLister, logger *slog.Logger, ratePerAppointment int64) *DashboardHandler {
	if ratePerAppointment <= 0 {
		ratePerAppointment = dashboard.DefaultRevenuePerAppointment
	}
	return &DashboardHandler{
		clients:      clients,
		appointments: appointments,
		logger:       logger,
		rate:         ratePerAppointment,
	}
}

// Metrics serves GET /api/v1/dashboard/metrics.
func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clients, err := h.clients.List(r.Context())
	if err != nil {
		h.logger.Error("dashboard client load failed", "err", err)
		http.Error(w, "failed to load dashboard data", http.StatusInternalServerError)
		return
	}
	appts, err := h.appointments.ListAll(r.Context())
	if err != nil {
		h.logger.Error("dashboard appointment load failed", "err", err)
		http.Error(w, "failed to load dashboard data", http.StatusInternalServerError)
		return
	}

	summary := dashboard.Summarize(clients, appts, h.rate, time.Now())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(summary)
}
