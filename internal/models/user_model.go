package models

import "time"

// CompanyUser is a tenant member profile stored under companies/{companyId}/users/{uid}.
type CompanyUser struct {
	UID            string    `json:"uid" firestore:"uid"`
	Name           string    `json:"name" firestore:"name"`
	Role           Role      `json:"role" firestore:"role"`
	Email          string    `json:"email" firestore:"email"`
	Phone          string    `json:"phone" firestore:"phone"`
	Active         bool      `json:"active" firestore:"active"`
	TeamIDs        []string  `json:"teamIds" firestore:"teamIds"`
	TeamID         string    `json:"teamId" firestore:"teamId"` // legacy mirror of TeamIDs[0], never read as source of truth
	ManagedTeamIDs []string  `json:"managedTeamIds" firestore:"managedTeamIds"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	CreatedBy      string    `json:"createdBy,omitempty" firestore:"createdBy,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// SetTeams replaces the team membership and keeps the legacy field in sync.
func (u *CompanyUser) SetTeams(teamIDs []string) {
	u.TeamIDs = append([]string{}, teamIDs...)
	u.TeamID = ""
	if len(u.TeamIDs) > 0 {
		u.TeamID = u.TeamIDs[0]
	}
}

// Normalize upgrades profiles written before teamIds existed.
func (u *CompanyUser) Normalize() {
	if len(u.TeamIDs) == 0 && u.TeamID != "" {
		u.TeamIDs = []string{u.TeamID}
	}
	if u.TeamIDs == nil {
		u.TeamIDs = []string{}
	}
	if u.ManagedTeamIDs == nil {
		u.ManagedTeamIDs = []string{}
	}
}

// InTeam reports whether the user belongs to any of the given teams.
func (u *CompanyUser) InTeam(teamIDs []string) bool {
	for _, mine := range u.TeamIDs {
		for _, other := range teamIDs {
			if mine == other {
				return true
			}
		}
	}
	return false
}
