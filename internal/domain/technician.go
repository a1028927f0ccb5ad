package domain

import "time"

// TechnicianStatus marks whether a technician can receive work.
type TechnicianStatus string

const (
	TechnicianStatusAvailable   TechnicianStatus = "available"
	TechnicianStatusUnavailable TechnicianStatus = "unavailable"
)

// Technician models a workshop technician. The record is owned by the
// external HR/staff system; this engine only reads it.
type Technician struct {
	ID        string
	OrgID     string
	Name      string
	Status    TechnicianStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TechnicianLoad pairs a technician with their current open-ticket count.
// The count is derived fresh per query, never cached.
type TechnicianLoad struct {
	TechnicianID    string
	OpenTicketCount int
}
