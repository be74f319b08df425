package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"go.uber.org/zap"

	"flowproject-backend-go/internal/db"
	"flowproject-backend-go/internal/models"
)

// memStore is an in-memory stand-in for Firestore shared by the fake repositories.
type memStore struct {
	mu          sync.Mutex
	platform    map[string]models.PlatformUser
	memberships map[string]string
	companies   map[string]models.Company
	users       map[string]map[string]models.CompanyUser
	teams       map[string]map[string]models.Team
	projects    map[string]map[string]models.Project
	counters    map[string]int64
	audits      []models.AuditLog

	failMembershipWrite error
	failCompanyWrite    error
	statusWrites        int
	// afterProjectRead runs once, outside the lock, after the next project read.
	afterProjectRead func()
}

func newMemStore() *memStore {
	return &memStore{
		platform:    map[string]models.PlatformUser{},
		memberships: map[string]string{},
		companies:   map[string]models.Company{},
		users:       map[string]map[string]models.CompanyUser{},
		teams:       map[string]map[string]models.Team{},
		projects:    map[string]map[string]models.Project{},
		counters:    map[string]int64{},
	}
}

func copyUser(u models.CompanyUser) *models.CompanyUser {
	u.TeamIDs = append([]string{}, u.TeamIDs...)
	u.ManagedTeamIDs = append([]string{}, u.ManagedTeamIDs...)
	return &u
}

func (m *memStore) putUser(companyID string, u models.CompanyUser) {
	if m.users[companyID] == nil {
		m.users[companyID] = map[string]models.CompanyUser{}
	}
	u.Normalize()
	m.users[companyID][u.UID] = *copyUser(u)
}

func (m *memStore) nextCounter(companyID, name string) int64 {
	key := companyID + "/" + name
	next := m.counters[key]
	if next < 1 {
		next = 1
	}
	m.counters[key] = next + 1
	return next
}

type memPlatformUsers struct{ *memStore }

func (r memPlatformUsers) GetByID(_ context.Context, uid string) (*models.PlatformUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.platform[uid]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (r memPlatformUsers) Set(_ context.Context, user *models.PlatformUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.platform[user.UID] = *user
	return nil
}

type memMemberships struct{ *memStore }

func (r memMemberships) GetCompanyID(_ context.Context, uid string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cid, ok := r.memberships[uid]
	if !ok {
		return "", db.ErrNotFound
	}
	return cid, nil
}

type memCompanies struct{ *memStore }

func (r memCompanies) GetByID(_ context.Context, companyID string) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[companyID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &c, nil
}

func (r memCompanies) List(_ context.Context) ([]*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Company{}
	for _, c := range r.companies {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCompanies) SetActive(_ context.Context, companyID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[companyID]
	if !ok {
		return db.ErrNotFound
	}
	c.Active = active
	r.companies[companyID] = c
	return nil
}

func (r memCompanies) CreateWithAdmin(_ context.Context, company *models.Company, admin *models.CompanyUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCompanyWrite != nil {
		return r.failCompanyWrite
	}
	if _, ok := r.companies[company.ID]; ok {
		return fmt.Errorf("company '%s': %w", company.ID, db.ErrAlreadyExists)
	}
	r.companies[company.ID] = *company
	r.memberships[admin.UID] = company.ID
	r.putUser(company.ID, *admin)
	return nil
}

type memCompanyUsers struct{ *memStore }

func (r memCompanyUsers) GetByID(_ context.Context, companyID, uid string) (*models.CompanyUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[companyID][uid]
	if !ok {
		return nil, db.ErrNotFound
	}
	return copyUser(u), nil
}

func (r memCompanyUsers) List(_ context.Context, companyID string) ([]*models.CompanyUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.CompanyUser{}
	for _, u := range r.users[companyID] {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCompanyUsers) CreateWithMembership(_ context.Context, companyID string, user *models.CompanyUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMembershipWrite != nil {
		return r.failMembershipWrite
	}
	if _, ok := r.memberships[user.UID]; ok {
		return db.ErrAlreadyExists
	}
	r.memberships[user.UID] = companyID
	r.putUser(companyID, *user)
	return nil
}

func (r memCompanyUsers) Update(_ context.Context, companyID string, user *models.CompanyUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[companyID][user.UID]; !ok {
		return db.ErrNotFound
	}
	r.putUser(companyID, *user)
	return nil
}

func (r memCompanyUsers) SetManagedTeams(_ context.Context, companyID, uid string, teamIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[companyID][uid]
	if !ok {
		return db.ErrNotFound
	}
	u.ManagedTeamIDs = append([]string{}, teamIDs...)
	r.users[companyID][uid] = u
	return nil
}

func (r memCompanyUsers) AnyInTeam(_ context.Context, companyID, teamID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users[companyID] {
		if u.TeamID == teamID || u.InTeam([]string{teamID}) {
			return true, nil
		}
	}
	return false, nil
}

type memTeams struct{ *memStore }

func (r memTeams) CreateWithNextNumber(_ context.Context, companyID string, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.nextCounter(companyID, "teams")
	team.Number = n
	team.ID = models.FormatSequenceID(n)
	if r.teams[companyID] == nil {
		r.teams[companyID] = map[string]models.Team{}
	}
	r.teams[companyID][team.ID] = *team
	return nil
}

func (r memTeams) GetByID(_ context.Context, companyID, teamID string) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[companyID][teamID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &t, nil
}

func (r memTeams) List(_ context.Context, companyID string) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Team{}
	for _, t := range r.teams[companyID] {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r memTeams) Update(_ context.Context, companyID string, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[companyID][team.ID]; !ok {
		return db.ErrNotFound
	}
	r.teams[companyID][team.ID] = *team
	return nil
}

func (r memTeams) Delete(_ context.Context, companyID, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.teams[companyID], teamID)
	return nil
}

type memProjects struct{ *memStore }

func (r memProjects) CreateWithNextNumber(_ context.Context, companyID string, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.nextCounter(companyID, "projects")
	project.Number = n
	project.ProjectID = models.FormatSequenceID(n)
	project.ID = project.ProjectID
	if r.projects[companyID] == nil {
		r.projects[companyID] = map[string]models.Project{}
	}
	r.projects[companyID][project.ID] = *project
	return nil
}

func (r memProjects) GetByID(_ context.Context, companyID, projectID string) (*models.Project, error) {
	r.mu.Lock()
	p, ok := r.projects[companyID][projectID]
	hook := r.afterProjectRead
	r.afterProjectRead = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (r memProjects) List(_ context.Context, companyID string) ([]*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Project{}
	for _, p := range r.projects[companyID] {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out, nil
}

func (r memProjects) Update(_ context.Context, companyID, projectID string, patch models.ProjectPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[companyID][projectID]
	if !ok {
		return db.ErrNotFound
	}
	patch.Apply(&p)
	r.projects[companyID][projectID] = p
	return nil
}

func (r memProjects) UpdateStatus(_ context.Context, companyID, projectID string, status models.ProjectStatus, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[companyID][projectID]
	if !ok {
		return db.ErrNotFound
	}
	p.Status = status
	p.UpdatedBy = updatedBy
	r.projects[companyID][projectID] = p
	r.statusWrites++
	return nil
}

func (r memProjects) Delete(_ context.Context, companyID, projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects[companyID], projectID)
	return nil
}

func (r memProjects) Watch(ctx context.Context, companyID string, onSnapshot func([]*models.Project)) error {
	list, _ := r.List(ctx, companyID)
	onSnapshot(list)
	<-ctx.Done()
	return nil
}

type memAudit struct{ *memStore }

func (r memAudit) Create(_ context.Context, _ string, entry models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits = append(r.audits, entry)
	return nil
}

type fakeIdentity struct {
	mu        sync.Mutex
	byEmail   map[string]string
	deleted   []string
	seq       int
	failReset error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{byEmail: map[string]string{}}
}

func (f *fakeIdentity) CreateUser(_ context.Context, email, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[email]; ok {
		return "", ErrEmailAlreadyExists
	}
	f.seq++
	uid := fmt.Sprintf("new-uid-%d", f.seq)
	f.byEmail[email] = uid
	return uid, nil
}

func (f *fakeIdentity) DeleteUser(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, u := range f.byEmail {
		if u == uid {
			delete(f.byEmail, email)
		}
	}
	f.deleted = append(f.deleted, uid)
	return nil
}

func (f *fakeIdentity) PasswordResetLink(_ context.Context, email string) (string, error) {
	if f.failReset != nil {
		return "", f.failReset
	}
	return "https://example.test/reset?email=" + email, nil
}

func (f *fakeIdentity) accounts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byEmail)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.UserProvisionedEvent
	err    error
}

func (f *fakePublisher) PublishUserProvisioned(_ context.Context, evt models.UserProvisionedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, evt)
	return nil
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
	hits int
}

func (c *mapCache) GetCompanyID(_ context.Context, uid string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cid, ok := c.data[uid]
	if ok {
		c.hits++
	}
	return cid, ok
}

func (c *mapCache) SetCompanyID(_ context.Context, uid, companyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[uid] = companyID
}

func (c *mapCache) Delete(_ context.Context, uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, uid)
}

// testEnv wires every service over one memStore seeded with the "acme" tenant:
//
//	root      active super-admin
//	admin-1   admin
//	gestor-1  gestor of team #1, managing #1
//	coord-1   coordenador in #2
//	tec-1     tecnico in #1
//	teams #1 "Suporte Técnico" and #2 "Implantação"
type testEnv struct {
	store     *memStore
	identity  *fakeIdentity
	publisher *fakePublisher
	cache     *mapCache

	sessions     SessionService
	provisioning ProvisioningService
	companies    CompanyService
	users        UserService
	teams        TeamService
	projects     ProjectService
}

const testCompany = "acme"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	env := &testEnv{
		store:     store,
		identity:  newFakeIdentity(),
		publisher: &fakePublisher{},
		cache:     &mapCache{data: map[string]string{}},
	}
	logger := zap.NewNop()
	audit := NewAuditService(memAudit{store})

	env.sessions = NewSessionService(memPlatformUsers{store}, memMemberships{store}, memCompanyUsers{store}, env.cache, logger)
	env.provisioning = NewProvisioningService(env.sessions, memCompanies{store}, memCompanyUsers{store}, memTeams{store},
		env.identity, audit, env.publisher, env.cache, logger)
	env.companies = NewCompanyService(memCompanies{store}, audit, logger)
	env.users = NewUserService(memCompanyUsers{store}, memTeams{store}, audit, logger)
	env.teams = NewTeamService(memTeams{store}, memCompanyUsers{store}, audit, logger)
	env.projects = NewProjectService(memProjects{store}, memTeams{store}, audit, logger)

	store.platform["root"] = models.PlatformUser{UID: "root", Role: models.RoleSuperAdmin, Active: true}
	store.companies[testCompany] = models.Company{ID: testCompany, Name: "Acme", Active: true}
	store.teams[testCompany] = map[string]models.Team{
		"#1": {ID: "#1", Number: 1, Name: "Suporte Técnico", Active: true},
		"#2": {ID: "#2", Number: 2, Name: "Implantação", Active: true},
	}
	store.counters[testCompany+"/teams"] = 3

	seed := []models.CompanyUser{
		{UID: "admin-1", Name: "Ana", Role: models.RoleAdmin, Email: "ana@acme.test", Active: true},
		{UID: "gestor-1", Name: "Gil", Role: models.RoleManager, Email: "gil@acme.test", Active: true, TeamIDs: []string{"#1"}, ManagedTeamIDs: []string{"#1"}},
		{UID: "coord-1", Name: "Caio", Role: models.RoleCoordinator, Email: "caio@acme.test", Active: true, TeamIDs: []string{"#2"}},
		{UID: "tec-1", Name: "Tina", Role: models.RoleTechnician, Email: "tina@acme.test", Active: true, TeamIDs: []string{"#1"}},
	}
	for _, u := range seed {
		u.SetTeams(u.TeamIDs)
		store.putUser(testCompany, u)
		store.memberships[u.UID] = testCompany
		env.identity.byEmail[u.Email] = u.UID
	}
	return env
}

func (e *testEnv) session(t *testing.T, uid string) *Session {
	t.Helper()
	s, err := e.sessions.Resolve(context.Background(), uid)
	if err != nil {
		t.Fatalf("resolve %s: %v", uid, err)
	}
	return s
}
