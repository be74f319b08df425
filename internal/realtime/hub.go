package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
	"flowproject-backend-go/internal/models"
)

// SnapshotSource streams full project snapshots of one company. db.ProjectRepository implements it.
type SnapshotSource interface {
	Watch(ctx context.Context, companyID string, onSnapshot func([]*models.Project)) error
}

// TeamLister resolves team names for filtering. db.TeamRepository implements it.
type TeamLister interface {
	List(ctx context.Context, companyID string) ([]*models.Team, error)
}

// Mover applies kanban drops. core.ProjectService implements it.
type Mover interface {
	MoveProject(ctx context.Context, s *core.Session, projectID string, req models.MoveProjectRequest) (bool, error)
}

// SessionResolver re-checks a connected user before each write. core.SessionService implements it.
type SessionResolver interface {
	Resolve(ctx context.Context, uid string) (*core.Session, error)
}

// Client is one board connection. Its filter query is private to the connection.
type Client struct {
	ID      string
	Session *core.Session
	Send    chan []byte

	query string // guarded by Hub.mu
}

// NewClient creates a client with a buffered outbound queue.
func NewClient(sess *core.Session, buffer int) *Client {
	return &Client{Session: sess, Send: make(chan []byte, buffer)}
}

// room holds the single snapshot listener shared by all clients of a company.
type room struct {
	companyID string
	clients   map[string]*Client
	cancel    context.CancelFunc
	teamNames map[string]string
	last      []*models.Project
	loaded    bool
	failed    bool
}

// Hub fans project snapshots out to board clients, keeping one listener per company alive only
// while that company has connected clients.
type Hub struct {
	mu       sync.Mutex
	rooms    map[string]*room
	source   SnapshotSource
	teams    TeamLister
	mover    Mover
	sessions SessionResolver
	logger   *zap.Logger
	nextID   atomic.Uint64
	wg       sync.WaitGroup
}

// NewHub creates a Hub.
func NewHub(source SnapshotSource, teams TeamLister, mover Mover, sessions SessionResolver, logger *zap.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]*room),
		source:   source,
		teams:    teams,
		mover:    mover,
		sessions: sessions,
		logger:   logger,
	}
}

// Join registers c under its session's company and starts the company listener if needed.
// A client joining a room that already has a snapshot receives it immediately.
func (h *Hub) Join(c *Client) {
	companyID := c.Session.CompanyID

	h.mu.Lock()
	defer h.mu.Unlock()

	if c.ID == "" {
		c.ID = fmt.Sprintf("c%d", h.nextID.Add(1))
	}
	r, ok := h.rooms[companyID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		r = &room{companyID: companyID, clients: make(map[string]*Client), cancel: cancel}
		h.rooms[companyID] = r
		h.wg.Add(1)
		go h.watch(ctx, r)
		h.logger.Info("Board listener started", zap.String("companyId", companyID))
	}
	r.clients[c.ID] = c
	h.logger.Debug("Board client joined", zap.String("clientId", c.ID), zap.String("companyId", companyID), zap.Int("clients", len(r.clients)))

	switch {
	case r.failed:
		h.pushLocked(r, c, errorMessage(core.CodeInternal, "failed to load"))
	case r.loaded:
		h.pushLocked(r, c, boardMessage(core.BuildBoard(r.last, r.teamNames, c.query)))
	}
}

// Leave unregisters c and closes its Send channel. The listener stops with the last client.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[c.Session.CompanyID]
	if !ok {
		return
	}
	if _, member := r.clients[c.ID]; !member {
		return
	}
	h.removeLocked(r, c)
}

func (h *Hub) removeLocked(r *room, c *Client) {
	delete(r.clients, c.ID)
	close(c.Send)
	if len(r.clients) == 0 {
		r.cancel()
		delete(h.rooms, r.companyID)
		h.logger.Info("Board listener stopped", zap.String("companyId", r.companyID))
	}
}

// Close disconnects every client and stops every listener.
func (h *Hub) Close() {
	h.mu.Lock()
	for _, r := range h.rooms {
		for _, c := range r.clients {
			h.removeLocked(r, c)
		}
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// Listening reports whether a listener is active for companyID.
func (h *Hub) Listening(companyID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.rooms[companyID]
	return ok
}

func (h *Hub) watch(ctx context.Context, r *room) {
	defer h.wg.Done()

	names := map[string]string{}
	if teams, err := h.teams.List(ctx, r.companyID); err != nil {
		h.logger.Warn("Failed to load team names for board", zap.String("companyId", r.companyID), zap.Error(err))
	} else {
		for _, t := range teams {
			names[t.ID] = t.Name
		}
	}
	h.mu.Lock()
	r.teamNames = names
	h.mu.Unlock()

	err := h.source.Watch(ctx, r.companyID, func(projects []*models.Project) {
		h.onSnapshot(r, projects)
	})
	if err == nil || ctx.Err() != nil {
		return
	}

	h.logger.Error("Board listener failed", zap.String("companyId", r.companyID), zap.Error(err))
	h.mu.Lock()
	defer h.mu.Unlock()
	r.failed = true
	msg := errorMessage(core.CodeInternal, "failed to load")
	for _, c := range r.clients {
		h.pushLocked(r, c, msg)
	}
}

func (h *Hub) onSnapshot(r *room, projects []*models.Project) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r.last = projects
	r.loaded = true
	for _, c := range r.clients {
		h.pushLocked(r, c, boardMessage(core.BuildBoard(projects, r.teamNames, c.query)))
	}
}

// pushLocked queues msg for c, dropping clients whose queue is full.
func (h *Hub) pushLocked(r *room, c *Client, msg []byte) {
	select {
	case c.Send <- msg:
	default:
		h.logger.Warn("Dropping slow board client", zap.String("clientId", c.ID), zap.String("companyId", r.companyID))
		h.removeLocked(r, c)
	}
}

// Handle processes one inbound message from c.
func (h *Hub) Handle(ctx context.Context, c *Client, raw []byte) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		h.reply(c, errorMessage(core.CodeInvalidArgument, "malformed message"))
		return
	}

	switch in.Type {
	case TypeFilter:
		h.setFilter(c, in.Query)
	case TypeMove:
		h.move(ctx, c, in)
	default:
		h.reply(c, errorMessage(core.CodeInvalidArgument, fmt.Sprintf("unknown message type %q", in.Type)))
	}
}

// setFilter re-partitions the last snapshot for c only, without re-querying.
func (h *Hub) setFilter(c *Client, query string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.query = query
	r, ok := h.rooms[c.Session.CompanyID]
	if !ok || !r.loaded {
		return
	}
	if _, member := r.clients[c.ID]; !member {
		return
	}
	h.pushLocked(r, c, boardMessage(core.BuildBoard(r.last, r.teamNames, query)))
}

func (h *Hub) move(ctx context.Context, c *Client, in Inbound) {
	if in.ProjectID == "" {
		h.reply(c, errorMessage(core.CodeInvalidArgument, "projectId is required"))
		return
	}
	// The upgrade-time session may be stale: the profile can be deactivated or unlinked while
	// the socket stays open.
	sess, err := h.sessions.Resolve(ctx, c.Session.UID)
	if err == nil && sess.CompanyID != c.Session.CompanyID {
		err = core.ErrWrongCompany
	}
	if err != nil {
		code := core.CodeOf(err)
		if code == core.CodeInternal {
			h.logger.Error("Board session check failed", zap.String("uid", c.Session.UID), zap.Error(err))
			h.reply(c, errorMessage(code, "failed to move project"))
			return
		}
		h.logger.Warn("Board session revoked",
			zap.String("clientId", c.ID),
			zap.String("uid", c.Session.UID),
			zap.String("companyId", c.Session.CompanyID),
			zap.Error(err))
		h.evict(c, errorMessage(code, err.Error()))
		return
	}

	moved, err := h.mover.MoveProject(ctx, sess, in.ProjectID, models.MoveProjectRequest{
		FromStatus: in.FromStatus,
		ToStatus:   in.ToStatus,
	})
	if err != nil {
		code := core.CodeOf(err)
		msg := err.Error()
		if code == core.CodeInternal {
			h.logger.Error("Board move failed", zap.String("projectId", in.ProjectID), zap.Error(err))
			msg = "failed to move project"
		}
		h.reply(c, errorMessage(code, msg))
		return
	}
	h.reply(c, movedMessage(in.ProjectID, moved))
}

func (h *Hub) reply(c *Client, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[c.Session.CompanyID]
	if !ok {
		return
	}
	if _, member := r.clients[c.ID]; !member {
		return
	}
	h.pushLocked(r, c, msg)
}

// evict sends a final message to c and disconnects it.
func (h *Hub) evict(c *Client, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[c.Session.CompanyID]
	if !ok {
		return
	}
	if _, member := r.clients[c.ID]; !member {
		return
	}
	h.pushLocked(r, c, msg)
	if _, member := r.clients[c.ID]; member {
		h.removeLocked(r, c)
	}
}
