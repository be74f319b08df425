package models

// CreateUserRequest is the payload of createUserInTenant.
type CreateUserRequest struct {
	CompanyID string   `json:"companyId"`
	Name      string   `json:"name" binding:"required"`
	Email     string   `json:"email" binding:"required,email"`
	Phone     string   `json:"phone"`
	Role      string   `json:"role" binding:"required"`
	TeamIDs   []string `json:"teamIds"`
}

// AdminRequest describes the first admin of a new company.
type AdminRequest struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Phone  string `json:"phone"`
	Active *bool  `json:"active,omitempty"` // defaults to true
}

// CreateCompanyRequest is the payload of createCompanyWithAdmin.
type CreateCompanyRequest struct {
	CompanyID   string       `json:"companyId" binding:"required"`
	CompanyName string       `json:"companyName" binding:"required"`
	CNPJ        string       `json:"cnpj"`
	Admin       AdminRequest `json:"admin"`
}

// ProvisionResult is returned by both provisioning procedures.
type ProvisionResult struct {
	UID       string `json:"uid"`
	ResetLink string `json:"resetLink"`
}

// SetCompanyActiveRequest toggles a tenant.
type SetCompanyActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// UpdateUserRequest edits a CompanyUser. Nil fields are left untouched.
type UpdateUserRequest struct {
	Name    *string   `json:"name,omitempty"`
	Phone   *string   `json:"phone,omitempty"`
	Role    *string   `json:"role,omitempty"`
	TeamIDs *[]string `json:"teamIds,omitempty"`
	Active  *bool     `json:"active,omitempty"`
}

// SetManagedTeamsRequest replaces a gestor's managedTeamIds.
type SetManagedTeamsRequest struct {
	ManagedTeamIDs []string `json:"managedTeamIds"`
}

// CreateTeamRequest creates a team with the next sequential id.
type CreateTeamRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateTeamRequest edits a team. Nil fields are left untouched.
type UpdateTeamRequest struct {
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// CreateProjectRequest creates a project with the next sequential number.
type CreateProjectRequest struct {
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	ManagerUID     string   `json:"managerUid"`
	CoordinatorUID string   `json:"coordinatorUid"`
	TeamID         string   `json:"teamId"`
	TechnicianUIDs []string `json:"technicianUids"`
	Priority       string   `json:"priority"`
	Status         string   `json:"status"`
	Billing        Billing  `json:"billing"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
}

// UpdateProjectRequest edits a project. Nil fields are left untouched.
type UpdateProjectRequest struct {
	Name           *string   `json:"name,omitempty"`
	Description    *string   `json:"description,omitempty"`
	ManagerUID     *string   `json:"managerUid,omitempty"`
	CoordinatorUID *string   `json:"coordinatorUid,omitempty"`
	TeamID         *string   `json:"teamId,omitempty"`
	TechnicianUIDs *[]string `json:"technicianUids,omitempty"`
	Priority       *string   `json:"priority,omitempty"`
	Status         *string   `json:"status,omitempty"`
	Billing        *Billing  `json:"billing,omitempty"`
	StartDate      *string   `json:"startDate,omitempty"`
	EndDate        *string   `json:"endDate,omitempty"`
}

// MoveProjectRequest is a kanban drop: the status captured at drag start and the target column.
type MoveProjectRequest struct {
	FromStatus string `json:"fromStatus"`
	ToStatus   string `json:"toStatus" binding:"required"`
}
