package models

import (
	"fmt"
	"time"
)

// ProjectStatus is the kanban column a project sits in.
type ProjectStatus string

const (
	StatusToDo       ProjectStatus = "a-fazer"
	StatusInProgress ProjectStatus = "em-andamento"
	StatusGoLive     ProjectStatus = "go-live"
	StatusDone       ProjectStatus = "concluido"
	StatusStopped    ProjectStatus = "parado"
	StatusBacklog    ProjectStatus = "backlog"
)

// BoardStatuses lists the kanban columns in display order.
var BoardStatuses = []ProjectStatus{
	StatusToDo,
	StatusInProgress,
	StatusGoLive,
	StatusDone,
	StatusStopped,
	StatusBacklog,
}

// ParseProjectStatus validates a status coming from a request.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	for _, st := range BoardStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown project status %q", s)
}

// Priority of a project.
type Priority string

const (
	PriorityLow    Priority = "baixa"
	PriorityMedium Priority = "media"
	PriorityHigh   Priority = "alta"
)

// ParsePriority validates a priority coming from a request.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Billing holds the commercial terms of a project.
type Billing struct {
	Value float64 `json:"value" firestore:"value"`
	Hours float64 `json:"hours" firestore:"hours"`
}

// Project is stored under companies/{companyId}/projects/#N.
type Project struct {
	ID             string        `json:"id" firestore:"-"`
	Number         int64         `json:"number" firestore:"number"`
	ProjectID      string        `json:"projectId" firestore:"projectId"`
	Name           string        `json:"name" firestore:"name"`
	Description    string        `json:"description" firestore:"description"`
	ManagerUID     string        `json:"managerUid" firestore:"managerUid"`
	CoordinatorUID string        `json:"coordinatorUid" firestore:"coordinatorUid"`
	TeamID         string        `json:"teamId" firestore:"teamId"`
	TechnicianUIDs []string      `json:"technicianUids" firestore:"technicianUids"`
	Priority       Priority      `json:"priority" firestore:"priority"`
	Status         ProjectStatus `json:"status" firestore:"status"`
	Billing        Billing       `json:"billing" firestore:"billing"`
	StartDate      string        `json:"startDate,omitempty" firestore:"startDate,omitempty"`
	EndDate        string        `json:"endDate,omitempty" firestore:"endDate,omitempty"`
	CreatedAt      time.Time     `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	CreatedBy      string        `json:"createdBy" firestore:"createdBy"`
	UpdatedAt      time.Time     `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
	UpdatedBy      string        `json:"updatedBy,omitempty" firestore:"updatedBy,omitempty"`
}

// FormatSequenceID renders a counter value as the human-facing "#N" id.
func FormatSequenceID(n int64) string {
	return fmt.Sprintf("#%d", n)
}

// ProjectPatch is a partial project write. Nil fields are neither sent nor overwritten, so an
// edit that does not touch status cannot undo a concurrent kanban drop.
type ProjectPatch struct {
	Name           *string
	Description    *string
	ManagerUID     *string
	CoordinatorUID *string
	TeamID         *string
	TechnicianUIDs *[]string
	Priority       *Priority
	Status         *ProjectStatus
	Billing        *Billing
	StartDate      *string
	EndDate        *string
	UpdatedBy      string
}

// Apply copies the set fields of the patch onto p.
func (pp ProjectPatch) Apply(p *Project) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.ManagerUID != nil {
		p.ManagerUID = *pp.ManagerUID
	}
	if pp.CoordinatorUID != nil {
		p.CoordinatorUID = *pp.CoordinatorUID
	}
	if pp.TeamID != nil {
		p.TeamID = *pp.TeamID
	}
	if pp.TechnicianUIDs != nil {
		p.TechnicianUIDs = *pp.TechnicianUIDs
	}
	if pp.Priority != nil {
		p.Priority = *pp.Priority
	}
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	if pp.Billing != nil {
		p.Billing = *pp.Billing
	}
	if pp.StartDate != nil {
		p.StartDate = *pp.StartDate
	}
	if pp.EndDate != nil {
		p.EndDate = *pp.EndDate
	}
	p.UpdatedBy = pp.UpdatedBy
}
