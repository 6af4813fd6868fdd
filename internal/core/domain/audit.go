package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited API action.
type AuditAction string

const (
	AuditActionChallenge        AuditAction = "CHALLENGE"
	AuditActionLogin            AuditAction = "LOGIN"
	AuditActionCreateWallet     AuditAction = "CREATE_WALLET"
	AuditActionSubmit           AuditAction = "SUBMIT"
	AuditActionSubmitGovernance AuditAction = "SUBMIT_GOVERNANCE"
	AuditActionConfirm          AuditAction = "CONFIRM"
	AuditActionRevoke           AuditAction = "REVOKE"
	AuditActionExecute          AuditAction = "EXECUTE"
)

// AuditLog records a single successful write made through the API.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	Member       *Member     `json:"member,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
