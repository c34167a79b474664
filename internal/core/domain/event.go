package domain

import "time"

// EmployeeAction names the mutation recorded in the audit trail.
type EmployeeAction string

const (
	ActionCreated EmployeeAction = "created"
	ActionUpdated EmployeeAction = "updated"
	ActionDeleted EmployeeAction = "deleted"
)

// EmployeeEvent is an audit entry for a successful employee mutation.
type EmployeeEvent struct {
	EmployeeID string
	Action     EmployeeAction
	Actor      string // username from the request token, empty when unknown
	Timestamp  time.Time
}
