package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowproject-backend-go/internal/models"
)

func TestCreateProject_SequentialIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := env.session(t, "coord-1")

	first, err := env.projects.CreateProject(ctx, sess, models.CreateProjectRequest{Name: "Primeiro", TeamID: "#2"})
	require.NoError(t, err)
	assert.Equal(t, "#1", first.ID)
	assert.Equal(t, "#1", first.ProjectID)
	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, models.StatusToDo, first.Status)
	assert.Equal(t, models.PriorityMedium, first.Priority)
	assert.Equal(t, "coord-1", first.CreatedBy)
	assert.Equal(t, int64(2), env.store.counters[testCompany+"/projects"])

	second, err := env.projects.CreateProject(ctx, sess, models.CreateProjectRequest{Name: "Segundo", Priority: "alta", Status: "backlog"})
	require.NoError(t, err)
	assert.Equal(t, "#2", second.ID)
	assert.Equal(t, models.PriorityHigh, second.Priority)
	assert.Equal(t, models.StatusBacklog, second.Status)
}

func TestCreateProject_ConcurrentCreatesAreGapless(t *testing.T) {
	env := newTestEnv(t)
	env.store.counters[testCompany+"/projects"] = 7
	sess := env.session(t, "admin-1")

	const n = 20
	var wg sync.WaitGroup
	ids := make([]int64, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := env.projects.CreateProject(context.Background(), sess, models.CreateProjectRequest{Name: fmt.Sprintf("p%d", i)})
			errs[i] = err
			if err == nil {
				ids[i] = p.Number
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, int64(7+i), id)
	}
	assert.Equal(t, int64(7+n), env.store.counters[testCompany+"/projects"])
}

func TestCreateProject_Validation(t *testing.T) {
	env := newTestEnv(t)
	sess := env.session(t, "admin-1")

	tests := []struct {
		name string
		req  models.CreateProjectRequest
	}{
		{"empty name", models.CreateProjectRequest{Name: " "}},
		{"bad priority", models.CreateProjectRequest{Name: "x", Priority: "urgente"}},
		{"bad status", models.CreateProjectRequest{Name: "x", Status: "done"}},
		{"unknown team", models.CreateProjectRequest{Name: "x", TeamID: "#9"}},
		{"negative billing", models.CreateProjectRequest{Name: "x", Billing: models.Billing{Value: -1}}},
		{"end before start", models.CreateProjectRequest{Name: "x", StartDate: "2024-05-02", EndDate: "2024-05-01"}},
		{"bad date", models.CreateProjectRequest{Name: "x", StartDate: "02/05/2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.projects.CreateProject(context.Background(), sess, tt.req)
			assert.Equal(t, CodeInvalidArgument, CodeOf(err))
		})
	}
	assert.Empty(t, env.store.projects[testCompany])
}

func TestCreateProject_TechnicianDenied(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.projects.CreateProject(context.Background(), env.session(t, "tec-1"), models.CreateProjectRequest{Name: "x"})
	assert.Equal(t, CodePermissionDenied, CodeOf(err))
}

func TestMoveProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.session(t, "admin-1")
	tech := env.session(t, "tec-1")

	p, err := env.projects.CreateProject(ctx, admin, models.CreateProjectRequest{Name: "Kanban"})
	require.NoError(t, err)

	t.Run("drop on same column writes nothing", func(t *testing.T) {
		moved, err := env.projects.MoveProject(ctx, tech, p.ID, models.MoveProjectRequest{FromStatus: "a-fazer", ToStatus: "a-fazer"})
		require.NoError(t, err)
		assert.False(t, moved)
		assert.Equal(t, 0, env.store.statusWrites)
	})

	t.Run("drop on another column writes once", func(t *testing.T) {
		moved, err := env.projects.MoveProject(ctx, tech, p.ID, models.MoveProjectRequest{FromStatus: "a-fazer", ToStatus: "em-andamento"})
		require.NoError(t, err)
		assert.True(t, moved)
		assert.Equal(t, 1, env.store.statusWrites)

		stored := env.store.projects[testCompany][p.ID]
		assert.Equal(t, models.StatusInProgress, stored.Status)
		assert.Equal(t, "tec-1", stored.UpdatedBy)
	})

	t.Run("without captured status the stored one is compared", func(t *testing.T) {
		moved, err := env.projects.MoveProject(ctx, tech, p.ID, models.MoveProjectRequest{ToStatus: "em-andamento"})
		require.NoError(t, err)
		assert.False(t, moved)
		assert.Equal(t, 1, env.store.statusWrites)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := env.projects.MoveProject(ctx, tech, p.ID, models.MoveProjectRequest{FromStatus: "a-fazer", ToStatus: "lixo"})
		assert.Equal(t, CodeInvalidArgument, CodeOf(err))
	})

	t.Run("missing project", func(t *testing.T) {
		_, err := env.projects.MoveProject(ctx, tech, "#404", models.MoveProjectRequest{FromStatus: "a-fazer", ToStatus: "parado"})
		assert.Equal(t, CodeNotFound, CodeOf(err))
	})
}

func TestUpdateAndDeleteProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := env.session(t, "gestor-1")

	p, err := env.projects.CreateProject(ctx, sess, models.CreateProjectRequest{Name: "Antigo"})
	require.NoError(t, err)

	name := "Novo"
	billing := models.Billing{Value: 1500, Hours: 40}
	updated, err := env.projects.UpdateProject(ctx, sess, p.ID, models.UpdateProjectRequest{Name: &name, Billing: &billing})
	require.NoError(t, err)
	assert.Equal(t, "Novo", updated.Name)
	assert.Equal(t, 40.0, env.store.projects[testCompany][p.ID].Billing.Hours)
	assert.Equal(t, "gestor-1", updated.UpdatedBy)

	require.NoError(t, env.projects.DeleteProject(ctx, sess, p.ID))
	_, err = env.projects.GetProject(ctx, sess, p.ID)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestProjectBoard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := env.session(t, "admin-1")
	_, err := env.projects.CreateProject(ctx, sess, models.CreateProjectRequest{Name: "Rede", TeamID: "#1"})
	require.NoError(t, err)
	_, err = env.projects.CreateProject(ctx, sess, models.CreateProjectRequest{Name: "Site", TeamID: "#2", Status: "concluido"})
	require.NoError(t, err)

	b, err := env.projects.Board(ctx, env.session(t, "tec-1"), "implantacao")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Total)
	assert.Equal(t, 1, column(t, b, models.StatusDone).Count)
}

func TestUpdateProject_KeepsConcurrentMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gestor := env.session(t, "gestor-1")
	tech := env.session(t, "tec-1")

	p, err := env.projects.CreateProject(ctx, gestor, models.CreateProjectRequest{Name: "Antigo", TeamID: "#1"})
	require.NoError(t, err)

	// The drop lands between the edit's read and its write.
	env.store.afterProjectRead = func() {
		moved, err := env.projects.MoveProject(ctx, tech, p.ID, models.MoveProjectRequest{FromStatus: "a-fazer", ToStatus: "concluido"})
		require.NoError(t, err)
		require.True(t, moved)
	}

	name := "Renomeado"
	_, err = env.projects.UpdateProject(ctx, gestor, p.ID, models.UpdateProjectRequest{Name: &name})
	require.NoError(t, err)

	stored := env.store.projects[testCompany][p.ID]
	assert.Equal(t, "Renomeado", stored.Name)
	assert.Equal(t, models.StatusDone, stored.Status)
	assert.Equal(t, "#1", stored.TeamID)
	assert.Equal(t, 1, env.store.statusWrites)
}

func TestUpdateProject_Fields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := env.session(t, "admin-1")

	p, err := env.projects.CreateProject(ctx, sess, models.CreateProjectRequest{
		Name: "Rede", Description: "cabeamento", StartDate: "2024-05-01", EndDate: "2024-05-30",
	})
	require.NoError(t, err)

	status, priority, techs, end := "parado", "alta", []string{" tec-1 ", "", "tec-1"}, "2024-06-15"
	updated, err := env.projects.UpdateProject(ctx, sess, p.ID, models.UpdateProjectRequest{
		Status: &status, Priority: &priority, TechnicianUIDs: &techs, EndDate: &end,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusStopped, updated.Status)

	stored := env.store.projects[testCompany][p.ID]
	assert.Equal(t, models.StatusStopped, stored.Status)
	assert.Equal(t, models.PriorityHigh, stored.Priority)
	assert.Equal(t, []string{"tec-1"}, stored.TechnicianUIDs)
	assert.Equal(t, "2024-06-15", stored.EndDate)
	assert.Equal(t, "cabeamento", stored.Description)
	assert.Equal(t, "2024-05-01", stored.StartDate)

	t.Run("rejected edits write nothing", func(t *testing.T) {
		early, bad := "2024-04-01", "urgente"
		_, err := env.projects.UpdateProject(ctx, sess, p.ID, models.UpdateProjectRequest{EndDate: &early})
		assert.Equal(t, CodeInvalidArgument, CodeOf(err))
		_, err = env.projects.UpdateProject(ctx, sess, p.ID, models.UpdateProjectRequest{Priority: &bad})
		assert.Equal(t, CodeInvalidArgument, CodeOf(err))
		assert.Equal(t, "2024-06-15", env.store.projects[testCompany][p.ID].EndDate)
	})

	t.Run("missing project", func(t *testing.T) {
		_, err := env.projects.UpdateProject(ctx, sess, "#404", models.UpdateProjectRequest{Status: &status})
		assert.Equal(t, CodeNotFound, CodeOf(err))
	})
}
