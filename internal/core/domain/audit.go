package domain

import "time"

// AuditAction enumerates the account events recorded in the audit trail.
type AuditAction string

const (
	AuditLogin          AuditAction = "login"
	AuditLoginFailed    AuditAction = "login_failed"
	AuditLogout         AuditAction = "logout"
	AuditRegister       AuditAction = "register"
	AuditAccountDeleted AuditAction = "account_deleted"
)

// AuditEvent records a single account action for later review.
type AuditEvent struct {
	IdentityID string      `json:"identity_id" bson:"identity_id"`
	Email      string      `json:"email" bson:"email"`
	Action     AuditAction `json:"action" bson:"action"`
	Timestamp  time.Time   `json:"timestamp" bson:"timestamp"`
}
