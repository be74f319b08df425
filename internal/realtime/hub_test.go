package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
	"flowproject-backend-go/internal/models"
)

type fakeSource struct {
	mu      sync.Mutex
	feeds   map[string]chan []*models.Project
	fails   map[string]chan error
	started int
	stopped chan string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		feeds:   map[string]chan []*models.Project{},
		fails:   map[string]chan error{},
		stopped: make(chan string, 8),
	}
}

func (f *fakeSource) channels(companyID string) (chan []*models.Project, chan error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.feeds[companyID] == nil {
		f.feeds[companyID] = make(chan []*models.Project, 4)
		f.fails[companyID] = make(chan error, 1)
	}
	return f.feeds[companyID], f.fails[companyID]
}

func (f *fakeSource) Watch(ctx context.Context, companyID string, onSnapshot func([]*models.Project)) error {
	f.mu.Lock()
	f.started++
	f.mu.Unlock()
	feed, fail := f.channels(companyID)
	for {
		select {
		case <-ctx.Done():
			f.stopped <- companyID
			return nil
		case err := <-fail:
			return err
		case ps := <-feed:
			onSnapshot(ps)
		}
	}
}

func (f *fakeSource) startedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

type fakeTeams struct{}

func (fakeTeams) List(context.Context, string) ([]*models.Team, error) {
	return []*models.Team{{ID: "#1", Name: "Elétrica"}, {ID: "#2", Name: "Redes"}}, nil
}

type fakeMover struct {
	mu    sync.Mutex
	calls []models.MoveProjectRequest
	err   error
}

func (m *fakeMover) MoveProject(_ context.Context, _ *core.Session, _ string, req models.MoveProjectRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return false, m.err
	}
	return req.FromStatus != req.ToStatus, nil
}

// fakeSessions resolves every uid to an acme technician unless told otherwise.
type fakeSessions struct {
	mu       sync.Mutex
	rejected map[string]error
	company  map[string]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{rejected: map[string]error{}, company: map[string]string{}}
}

func (f *fakeSessions) Resolve(_ context.Context, uid string) (*core.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.rejected[uid]; err != nil {
		return nil, err
	}
	companyID := "acme"
	if c, ok := f.company[uid]; ok {
		companyID = c
	}
	return member(uid, companyID), nil
}

func member(uid, companyID string) *core.Session {
	return &core.Session{Kind: core.SessionMember, UID: uid, CompanyID: companyID, Role: models.RoleTechnician}
}

func receive(t *testing.T, c *Client) Outbound {
	t.Helper()
	select {
	case raw, ok := <-c.Send:
		require.True(t, ok, "client channel closed")
		var out Outbound
		require.NoError(t, json.Unmarshal(raw, &out))
		return out
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Outbound{}
}

func snapshot() []*models.Project {
	return []*models.Project{
		{ID: "#3", Name: "Quadro geral", TeamID: "#1", Status: models.StatusToDo, Priority: models.PriorityHigh},
		{ID: "#2", Name: "Cabeamento", TeamID: "#2", Status: models.StatusInProgress, Priority: models.PriorityLow},
		{ID: "#1", Name: "Sem status", TeamID: "#2"},
	}
}

func countOf(b *core.Board, st models.ProjectStatus) int {
	for _, c := range b.Columns {
		if c.Status == st {
			return c.Count
		}
	}
	return -1
}

func TestHub_OneListenerPerCompanyAndFanOut(t *testing.T) {
	src := newFakeSource()
	h := NewHub(src, fakeTeams{}, &fakeMover{}, newFakeSessions(), zap.NewNop())
	defer h.Close()

	a := NewClient(member("u1", "acme"), 4)
	b := NewClient(member("u2", "acme"), 4)
	h.Join(a)
	h.Join(b)

	feed, _ := src.channels("acme")
	feed <- snapshot()

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		assert.Equal(t, TypeBoard, msg.Type)
		require.NotNil(t, msg.Board)
		assert.Equal(t, 3, msg.Board.Total)
		assert.Equal(t, 1, countOf(msg.Board, models.StatusBacklog))
	}
	assert.Equal(t, 1, src.startedCount())
	assert.True(t, h.Listening("acme"))

	h.Leave(a)
	assert.True(t, h.Listening("acme"))
	h.Leave(b)
	assert.False(t, h.Listening("acme"))

	select {
	case cid := <-src.stopped:
		assert.Equal(t, "acme", cid)
	case <-time.After(time.Second):
		t.Fatal("listener was not cancelled")
	}
	_, open := <-a.Send
	assert.False(t, open)
}

func TestHub_LateJoinerGetsLastSnapshot(t *testing.T) {
	src := newFakeSource()
	h := NewHub(src, fakeTeams{}, &fakeMover{}, newFakeSessions(), zap.NewNop())
	defer h.Close()

	a := NewClient(member("u1", "acme"), 4)
	h.Join(a)
	feed, _ := src.channels("acme")
	feed <- snapshot()
	receive(t, a)

	late := NewClient(member("u2", "acme"), 4)
	h.Join(late)
	msg := receive(t, late)
	assert.Equal(t, 3, msg.Board.Total)
	assert.Equal(t, 1, src.startedCount())
}

func TestHub_FilterIsPerClientAndDoesNotRequery(t *testing.T) {
	src := newFakeSource()
	h := NewHub(src, fakeTeams{}, &fakeMover{}, newFakeSessions(), zap.NewNop())
	defer h.Close()

	a := NewClient(member("u1", "acme"), 4)
	b := NewClient(member("u2", "acme"), 4)
	h.Join(a)
	h.Join(b)
	feed, _ := src.channels("acme")
	feed <- snapshot()
	receive(t, a)
	receive(t, b)

	h.Handle(context.Background(), a, []byte(`{"type":"filter","query":"eletrica"}`))
	msg := receive(t, a)
	assert.Equal(t, 1, msg.Board.Total)
	assert.Equal(t, 1, countOf(msg.Board, models.StatusToDo))
	assert.Empty(t, b.Send)

	// The filter sticks for later snapshots.
	feed <- snapshot()
	assert.Equal(t, 1, receive(t, a).Board.Total)
	assert.Equal(t, 3, receive(t, b).Board.Total)
	assert.Equal(t, 1, src.startedCount())
}

func TestHub_Move(t *testing.T) {
	src := newFakeSource()
	mover := &fakeMover{}
	h := NewHub(src, fakeTeams{}, mover, newFakeSessions(), zap.NewNop())
	defer h.Close()

	a := NewClient(member("u1", "acme"), 4)
	h.Join(a)

	h.Handle(context.Background(), a, []byte(`{"type":"move","projectId":"#2","fromStatus":"a-fazer","toStatus":"a-fazer"}`))
	msg := receive(t, a)
	assert.Equal(t, TypeMoved, msg.Type)
	require.NotNil(t, msg.Written)
	assert.False(t, *msg.Written)

	h.Handle(context.Background(), a, []byte(`{"type":"move","projectId":"#2","fromStatus":"a-fazer","toStatus":"parado"}`))
	msg = receive(t, a)
	assert.True(t, *msg.Written)
	require.Len(t, mover.calls, 2)
	assert.Equal(t, "parado", mover.calls[1].ToStatus)

	mover.err = core.ErrPermissionDenied
	h.Handle(context.Background(), a, []byte(`{"type":"move","projectId":"#2","toStatus":"parado"}`))
	msg = receive(t, a)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, core.CodePermissionDenied, msg.Code)

	h.Handle(context.Background(), a, []byte(`{"type":"move","toStatus":"parado"}`))
	assert.Equal(t, core.CodeInvalidArgument, receive(t, a).Code)

	h.Handle(context.Background(), a, []byte(`{"type":"dance"}`))
	assert.Equal(t, core.CodeInvalidArgument, receive(t, a).Code)

	h.Handle(context.Background(), a, []byte(`{`))
	assert.Equal(t, core.CodeInvalidArgument, receive(t, a).Code)
}

func TestHub_ListenerErrorIsReported(t *testing.T) {
	src := newFakeSource()
	h := NewHub(src, fakeTeams{}, &fakeMover{}, newFakeSessions(), zap.NewNop())
	defer h.Close()

	a := NewClient(member("u1", "acme"), 4)
	h.Join(a)
	_, fail := src.channels("acme")
	fail <- errors.New("permission denied by rules")

	msg := receive(t, a)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, "failed to load", msg.Message)

	late := NewClient(member("u2", "acme"), 4)
	h.Join(late)
	assert.Equal(t, TypeError, receive(t, late).Type)
	assert.Equal(t, 1, src.startedCount())
}

func TestHub_CompaniesAreIsolated(t *testing.T) {
	src := newFakeSource()
	h := NewHub(src, fakeTeams{}, &fakeMover{}, newFakeSessions(), zap.NewNop())
	defer h.Close()

	a := NewClient(member("u1", "acme"), 4)
	g := NewClient(member("u2", "globex"), 4)
	h.Join(a)
	h.Join(g)

	feed, _ := src.channels("acme")
	feed <- snapshot()
	receive(t, a)
	assert.Empty(t, g.Send)
	assert.Eventually(t, func() bool { return src.startedCount() == 2 }, time.Second, 10*time.Millisecond)
}

func TestHub_DropsSlowClient(t *testing.T) {
	src := newFakeSource()
	h := NewHub(src, fakeTeams{}, &fakeMover{}, newFakeSessions(), zap.NewNop())
	defer h.Close()

	slow := NewClient(member("u1", "acme"), 1)
	fast := NewClient(member("u2", "acme"), 4)
	h.Join(slow)
	h.Join(fast)
	feed, _ := src.channels("acme")
	feed <- snapshot()
	feed <- snapshot()
	receive(t, fast)
	receive(t, fast)

	<-slow.Send
	_, open := <-slow.Send
	assert.False(t, open)
	assert.True(t, h.Listening("acme"))
}

func TestHub_MoveRechecksSession(t *testing.T) {
	src := newFakeSource()
	mover := &fakeMover{}
	sessions := newFakeSessions()
	h := NewHub(src, fakeTeams{}, mover, sessions, zap.NewNop())
	defer h.Close()

	a := NewClient(member("u1", "acme"), 4)
	b := NewClient(member("u2", "acme"), 4)
	h.Join(a)
	h.Join(b)

	sessions.rejected["u1"] = core.ErrProfileInactive
	h.Handle(context.Background(), a, []byte(`{"type":"move","projectId":"#2","fromStatus":"a-fazer","toStatus":"parado"}`))
	msg := receive(t, a)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, core.CodeUnauthenticated, msg.Code)
	_, open := <-a.Send
	assert.False(t, open, "revoked client stays connected")
	assert.Empty(t, mover.calls)

	sessions.company["u2"] = "globex"
	h.Handle(context.Background(), b, []byte(`{"type":"move","projectId":"#2","fromStatus":"a-fazer","toStatus":"parado"}`))
	assert.Equal(t, core.CodePermissionDenied, receive(t, b).Code)
	_, open = <-b.Send
	assert.False(t, open)
	assert.Empty(t, mover.calls)
	assert.False(t, h.Listening("acme"))

	// Leave after eviction is a no-op.
	h.Leave(a)
}

func TestHub_MoveSessionLookupFailureKeepsClient(t *testing.T) {
	src := newFakeSource()
	sessions := newFakeSessions()
	h := NewHub(src, fakeTeams{}, &fakeMover{}, sessions, zap.NewNop())
	defer h.Close()

	a := NewClient(member("u1", "acme"), 4)
	h.Join(a)
	sessions.rejected["u1"] = errors.New("firestore unavailable")

	h.Handle(context.Background(), a, []byte(`{"type":"move","projectId":"#2","toStatus":"parado"}`))
	msg := receive(t, a)
	assert.Equal(t, core.CodeInternal, msg.Code)
	assert.Equal(t, "failed to move project", msg.Message)
	assert.True(t, h.Listening("acme"))
}
