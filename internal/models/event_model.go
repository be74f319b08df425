package models

import "time"

// EventUserProvisioned is the routing/type name of UserProvisionedEvent.
const EventUserProvisioned = "user.provisioned"

// UserProvisionedEvent is published after an account was created by one of the provisioning
// procedures. The notifier turns it into a welcome email carrying the reset link.
type UserProvisionedEvent struct {
	Type       string    `json:"type"`
	UID        string    `json:"uid"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	CompanyID  string    `json:"companyId"`
	ResetLink  string    `json:"resetLink"`
	CreatedBy  string    `json:"createdBy"`
	OccurredAt time.Time `json:"occurredAt"`
}
