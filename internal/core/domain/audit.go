package domain

import "time"

// AuditAction names an operation worth recording.
type AuditAction string

const (
	AuditRegister      AuditAction = "register"
	AuditLogin         AuditAction = "login"
	AuditGoogleLogin   AuditAction = "google_login"
	AuditGoogleLink    AuditAction = "google_link"
	AuditRoleChange    AuditAction = "role_change"
	AuditUserDelete    AuditAction = "user_delete"
	AuditProductCreate AuditAction = "product_create"
	AuditProductUpdate AuditAction = "product_quantity_update"
	AuditProductDelete AuditAction = "product_delete"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuditEvent is an append-only record of who did what.
type AuditEvent struct {
	ID      string      `json:"id" bson:"_id"`
	Action  AuditAction `json:"action" bson:"action"`
	Actor   string      `json:"actor" bson:"actor"`
	Target  string      `json:"target,omitempty" bson:"target,omitempty"`
	Outcome string      `json:"outcome" bson:"outcome"`
	Detail  string      `json:"detail,omitempty" bson:"detail,omitempty"`
	At      time.Time   `json:"at" bson:"at"`
}
