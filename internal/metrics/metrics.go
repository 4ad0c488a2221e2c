package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AppointmentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_appointments_created_total",
		Help: "Appointments accepted by the scheduler.",
	})

	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_booking_conflicts_total",
		Help: "Booking attempts rejected by the double-booking rule.",
	})

	StatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_appointment_status_changes_total",
		Help: "Appointment status updates by new status.",
	}, []string{"status"})

	ClientsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_clients_created_total",
		Help: "Clients added to the registry.",
	})
)
