package models

import "time"

// Company is the root document of a tenant.
type Company struct {
	ID        string    `json:"id" firestore:"-"` // slug, also the document ID
	Name      string    `json:"name" firestore:"name"`
	CNPJ      string    `json:"cnpj" firestore:"cnpj"`
	Active    bool      `json:"active" firestore:"active"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	CreatedBy string    `json:"createdBy" firestore:"createdBy"`
}

// UserCompany maps a Firebase UID to its single tenant.
type UserCompany struct {
	UID       string    `json:"uid" firestore:"-"`
	CompanyID string    `json:"companyId" firestore:"companyId"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// PlatformUser grants cross-tenant access to platform operators.
type PlatformUser struct {
	UID    string `json:"uid" firestore:"-"`
	Role   Role   `json:"role" firestore:"role"`
	Active bool   `json:"active" firestore:"active"`
}

// IsActiveSuperAdmin is the only check that grants platform-level access.
func (p *PlatformUser) IsActiveSuperAdmin() bool {
	return p != nil && p.Active && p.Role == RoleSuperAdmin
}
