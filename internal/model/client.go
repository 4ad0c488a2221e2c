package model

import "time"

// Client is a business contact that appointments are scheduled against.
// Email is unique across all clients; Phone is optional.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// LastAppointment is populated on the client list view only.
	LastAppointment *Appointment `json:"last_appointment,omitempty"`
}
