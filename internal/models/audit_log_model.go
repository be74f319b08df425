package models

import "time"

// AuditLog records privileged actions taken inside a tenant.
type AuditLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	ActorUID   string                 `json:"actorUid" firestore:"actorUid"`
	Action     string                 `json:"action" firestore:"action"` // e.g. "USER_CREATE", "COMPANY_CREATE"
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"`
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
