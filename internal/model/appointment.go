package model

import (
	"time"

	"clientdesk/internal/scheduling"
)

// Appointment is a scheduled meeting between a staff user and a client at a
// specific instant. Only the status field is ever mutated after creation.
type Appointment struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	ClientID  int64             `json:"client_id"`
	Date      time.Time         `json:"date"`
	Status    scheduling.Status `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	Client *Client   `json:"client,omitempty"`
	User   *UserInfo `json:"user,omitempty"`
}
