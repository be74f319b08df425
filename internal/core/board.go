package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"flowproject-backend-go/internal/models"
)

// BoardColumn is one kanban bucket.
type BoardColumn struct {
	Status   models.ProjectStatus `json:"status"`
	Count    int                  `json:"count"`
	Projects []*models.Project    `json:"projects"`
}

// Board is a partitioned view of one projects snapshot.
type Board struct {
	Columns []BoardColumn `json:"columns"`
	Total   int           `json:"total"`
	Query   string        `json:"query,omitempty"`
}

// BucketOf returns the column a project is shown in. Missing or unknown statuses land in backlog.
func BucketOf(p *models.Project) models.ProjectStatus {
	if st, err := models.ParseProjectStatus(string(p.Status)); err == nil {
		return st
	}
	return models.StatusBacklog
}

// BuildBoard filters projects by query and partitions them into the fixed columns, keeping the
// snapshot order inside each column. Every column is present even when empty.
func BuildBoard(projects []*models.Project, teamNames map[string]string, query string) *Board {
	buckets := make(map[models.ProjectStatus][]*models.Project, len(models.BoardStatuses))
	needle := foldForSearch(strings.TrimSpace(query))
	total := 0
	for _, p := range projects {
		if needle != "" && !matchesFolded(p, teamNames[p.TeamID], needle) {
			continue
		}
		st := BucketOf(p)
		buckets[st] = append(buckets[st], p)
		total++
	}

	board := &Board{Columns: make([]BoardColumn, 0, len(models.BoardStatuses)), Total: total, Query: query}
	for _, st := range models.BoardStatuses {
		list := buckets[st]
		if list == nil {
			list = []*models.Project{}
		}
		board.Columns = append(board.Columns, BoardColumn{Status: st, Count: len(list), Projects: list})
	}
	return board
}

// MatchesFilter reports whether query is a case and diacritic insensitive substring of the
// project name, its team name or its priority.
func MatchesFilter(p *models.Project, teamName, query string) bool {
	needle := foldForSearch(strings.TrimSpace(query))
	if needle == "" {
		return true
	}
	return matchesFolded(p, teamName, needle)
}

func matchesFolded(p *models.Project, teamName, needle string) bool {
	for _, field := range []string{p.Name, teamName, string(p.Priority)} {
		if strings.Contains(foldForSearch(field), needle) {
			return true
		}
	}
	return false
}

// foldForSearch lower-cases s and strips combining marks, so "Manutenção" matches "manutencao".
func foldForSearch(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
