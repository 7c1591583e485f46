package domain

import "time"

// AuthEventType names an auditable authentication action.
type AuthEventType string

const (
	EventUserLogin   AuthEventType = "user_login"
	EventAdminLogin  AuthEventType = "admin_login"
	EventUserCreated AuthEventType = "user_created"
)

// AuthEvent is one entry of the authentication audit trail.
type AuthEvent struct {
	Type      AuthEventType
	Username  string
	Success   bool
	Reason    string // failure cause, empty on success
	ActorID   string // admin id for provisioning events
	Timestamp time.Time
}
