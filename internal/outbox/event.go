package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	EventAppointmentCreated       = "crm.appointment.created.v1"
	EventAppointmentStatusChanged = "crm.appointment.status_changed.v1"
	EventAppointmentDeleted       = "crm.appointment.deleted.v1"
	EventClientDeleted            = "crm.client.deleted.v1"
)
