// Package dashboard derives the aggregate view shown on the SPA landing
// page: headline counts, an estimated-revenue figure, and a trailing 7-day
// revenue series. Revenue is a flat per-confirmed-appointment estimate, not
// billing data.
package dashboard

import (
	"time"

	"clientdesk/internal/model"
	"clientdesk/internal/scheduling"
)

// DefaultRevenuePerAppointment is the flat estimate applied to each
// confirmed appointment.
const DefaultRevenuePerAppointment = 50

const recentClientLimit = 5

type DayRevenue struct {
	Day     string `json:"day"`
	Revenue int64  `json:"revenue"`
}

type Summary struct {
	TotalClients          int            `json:"total_clients"`
	PendingAppointments   int            `json:"pending_appointments"`
	ConfirmedAppointments int            `json:"confirmed_appointments"`
	EstimatedRevenue      int64          `json:"estimated_revenue"`
	RevenueSeries         []DayRevenue   `json:"revenue_series"`
	RecentClients         []model.Client `json:"recent_clients"`
}

// Summarize aggregates the full appointment and client lists. The revenue
// series covers the 7 calendar days ending at now (oldest first), bucketing
// confirmed appointments by day in now's location.
func Summarize(clients []model.Client, appts []model.Appointment, ratePerAppointment int64, now time.Time) Summary {
	s := Summary{
		TotalClients:  len(clients),
		RevenueSeries: make([]DayRevenue, 0, 7),
	}

	var confirmed []model.Appointment
	for _, a := range appts {
		switch a.Status {
		case scheduling.StatusPending:
			s.PendingAppointments++
		case scheduling.StatusConfirmed:
			s.ConfirmedAppointments++
			confirmed = append(confirmed, a)
		}
	}
	s.EstimatedRevenue = int64(s.ConfirmedAppointments) * ratePerAppointment

	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		var count int64
		for _, a := range confirmed {
			if sameDay(a.Date.In(now.Location()), day) {
				count++
			}
		}
		s.RevenueSeries = append(s.RevenueSeries, DayRevenue{
			Day:     day.Weekday().String()[:3],
			Revenue: count * ratePerAppointment,
		})
	}

	// Clients arrive ordered by most recently updated.
	n := len(clients)
	if n > recentClientLimit {
		n = recentClientLimit
	}
	s.RecentClients = append(s.RecentClients, clients[:n]...)
	return s
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
