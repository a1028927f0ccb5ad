package sla

import "errors"

var (
	// ErrPolicyNotFound means the organization lacks an SLA policy for a
	// priority in use. This is a configuration error, never silently
	// defaulted: a ticket without deadlines would never be monitored.
	ErrPolicyNotFound = errors.New("sla policy not found")

	// ErrNoTechnicianAvailable is the expected, non-fatal outcome of a
	// reassignment attempt with an empty candidate pool.
	ErrNoTechnicianAvailable = errors.New("no technician available")
)
