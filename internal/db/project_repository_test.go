package db

import (
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"

	"flowproject-backend-go/internal/models"
)

func updatePaths(updates []firestore.Update) map[string]interface{} {
	out := make(map[string]interface{}, len(updates))
	for _, u := range updates {
		out[u.Path] = u.Value
	}
	return out
}

func TestProjectUpdates_OnlySetFields(t *testing.T) {
	name := "Renomeado"
	paths := updatePaths(projectUpdates(models.ProjectPatch{Name: &name, UpdatedBy: "gestor-1"}))

	assert.Len(t, paths, 3)
	assert.Equal(t, "Renomeado", paths["name"])
	assert.Equal(t, "gestor-1", paths["updatedBy"])
	assert.Equal(t, firestore.ServerTimestamp, paths["updatedAt"])
	assert.NotContains(t, paths, "status")
	assert.NotContains(t, paths, "teamId")
}

func TestProjectUpdates_StatusAndDates(t *testing.T) {
	status := models.StatusStopped
	start, end := "", "2024-06-15"
	paths := updatePaths(projectUpdates(models.ProjectPatch{Status: &status, StartDate: &start, EndDate: &end}))

	assert.Equal(t, models.StatusStopped, paths["status"])
	assert.Equal(t, firestore.Delete, paths["startDate"])
	assert.Equal(t, "2024-06-15", paths["endDate"])
	assert.NotContains(t, paths, "name")
}
