package handler_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/Dpatt168/RoGrouper-sub001/internal/rest/handler"
	restTypes "github.com/Dpatt168/RoGrouper-sub001/internal/rest/types"
	"github.com/Dpatt168/RoGrouper-sub001/internal/session"
	"github.com/Dpatt168/RoGrouper-sub001/internal/setup/config"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu       sync.Mutex
	records  map[string]*types.VersionedAutomation
	replaces int

	// conflicts makes the next N ReplaceSuspensions calls fail with a
	// version conflict; onConflict mutates the stored record first, standing
	// in for whatever the concurrent writer did.
	conflicts  int
	onConflict func(*types.GroupAutomation)
}

func newFakeStore(records ...*types.GroupAutomation) *fakeStore {
	s := &fakeStore{records: make(map[string]*types.VersionedAutomation)}
	for _, record := range records {
		s.records[record.GroupID] = &types.VersionedAutomation{Automation: record, Version: 1}
	}

	return s
}

func (s *fakeStore) Get(_ context.Context, groupID string) (*types.GroupAutomation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[groupID]
	if !ok {
		return &types.GroupAutomation{GroupID: groupID}, nil
	}

	return record.Automation, nil
}

func (s *fakeStore) GetVersioned(_ context.Context, groupID string) (*types.GroupAutomation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[groupID]
	if !ok {
		return &types.GroupAutomation{GroupID: groupID}, 0, nil
	}

	return record.Automation, record.Version, nil
}

func (s *fakeStore) Set(_ context.Context, automation *types.GroupAutomation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[automation.GroupID]
	if !ok {
		s.records[automation.GroupID] = &types.VersionedAutomation{Automation: automation, Version: 1}
		return nil
	}

	stored.Automation = automation
	stored.Version++

	return nil
}

func (s *fakeStore) ReplaceSuspensions(
	_ context.Context, record *types.GroupAutomation, suspensions []types.Suspension, version int64,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replaces++

	stored, ok := s.records[record.GroupID]
	if !ok {
		stored = &types.VersionedAutomation{Automation: &types.GroupAutomation{GroupID: record.GroupID}}
		s.records[record.GroupID] = stored
	}

	if s.conflicts > 0 {
		s.conflicts--
		stored.Version++

		if s.onConflict != nil {
			s.onConflict(stored.Automation)
		}

		return types.ErrVersionConflict
	}

	if stored.Version != version {
		return types.ErrVersionConflict
	}

	updated := *record
	updated.Suspensions = suspensions
	stored.Automation = &updated
	stored.Version++

	return nil
}

func (s *fakeStore) suspensions(groupID string) []types.Suspension {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.records[groupID].Automation.Suspensions
}

type roleCall struct {
	GroupID uint64
	UserID  uint64
	RoleID  uint64
}

type fakeRoles struct {
	mu    sync.Mutex
	calls []roleCall
}

func (r *fakeRoles) SetMemberRole(_ context.Context, groupID, userID, roleID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, roleCall{GroupID: groupID, UserID: userID, RoleID: roleID})

	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*types.AuditLog
}

func (a *fakeAudit) Record(_ context.Context, entry *types.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = append(a.entries, entry)

	return nil
}

// newSuspensionRouter wires the automation handler behind the real session
// middleware and returns a signed cookie for an authenticated moderator.
func newSuspensionRouter(
	t *testing.T, store *fakeStore, roles *fakeRoles, audit *fakeAudit,
) (http.Handler, *http.Cookie) {
	t.Helper()

	sessions := session.NewManager(&config.Session{
		Secret:     "suspension-test-secret",
		TTL:        60,
		CookieName: "rg_session",
	}, zap.NewNop())

	token, err := sessions.Mint(&session.Session{UserID: "900", Username: "moderator"})
	require.NoError(t, err)

	h := handler.NewAutomationHandler(store, audit, roles, nil, zap.NewNop())

	router := bunrouter.New()
	router.Use(sessions.AsRESTMiddleware).WithGroup("/api", func(g *bunrouter.Group) {
		g.POST("/automation/:groupId/suspensions", h.Suspend)
		g.DELETE("/automation/:groupId/suspensions/:userId", h.Unsuspend)
	})

	return router, &http.Cookie{Name: "rg_session", Value: token}
}

func suspendRequest(t *testing.T, cookie *http.Cookie, groupID string, body restTypes.SuspendRequest) *http.Request {
	t.Helper()

	payload, err := sonic.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/automation/"+groupID+"/suspensions", bytes.NewReader(payload))
	req.AddCookie(cookie)

	return req
}

func automationWithSuspendedRole(groupID string, suspensions ...types.Suspension) *types.GroupAutomation {
	return &types.GroupAutomation{
		GroupID:       groupID,
		SuspendedRole: &types.SuspendedRole{ID: 7, Name: "Suspended"},
		Suspensions:   suspensions,
	}
}

func TestSuspendDemotesMemberAndStoresEntry(t *testing.T) {
	t.Parallel()

	store := newFakeStore(automationWithSuspendedRole("123"))
	roles := &fakeRoles{}
	audit := &fakeAudit{}
	router, cookie := newSuspensionRouter(t, store, roles, audit)

	expiresAt := time.Now().Add(time.Hour).UnixMilli()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, suspendRequest(t, cookie, "123", restTypes.SuspendRequest{
		UserID:           1001,
		Username:         "member",
		PreviousRoleID:   42,
		PreviousRoleName: "Member",
		ExpiresAt:        expiresAt,
	}))

	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, roles.calls, 1)
	assert.Equal(t, roleCall{GroupID: 123, UserID: 1001, RoleID: 7}, roles.calls[0])

	stored := store.suspensions("123")
	require.Len(t, stored, 1)
	assert.Equal(t, uint64(1001), stored[0].UserID)
	assert.Equal(t, uint64(42), stored[0].PreviousRoleID)
	assert.Equal(t, expiresAt, stored[0].ExpiresAt)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, types.AuditActionMemberSuspended, audit.entries[0].Action)
	assert.Equal(t, "900", audit.entries[0].ActorID)
	assert.Equal(t, "1001", audit.entries[0].TargetID)
}

func TestSuspendWithoutSuspendedRoleConfigured(t *testing.T) {
	t.Parallel()

	store := newFakeStore(&types.GroupAutomation{GroupID: "123"})
	roles := &fakeRoles{}
	router, cookie := newSuspensionRouter(t, store, roles, &fakeAudit{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, suspendRequest(t, cookie, "123", restTypes.SuspendRequest{
		UserID:    1001,
		ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, roles.calls)
}

func TestSuspendRejectsPastExpiry(t *testing.T) {
	t.Parallel()

	store := newFakeStore(automationWithSuspendedRole("123"))
	roles := &fakeRoles{}
	router, cookie := newSuspensionRouter(t, store, roles, &fakeAudit{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, suspendRequest(t, cookie, "123", restTypes.SuspendRequest{
		UserID:    1001,
		ExpiresAt: time.Now().Add(-time.Minute).UnixMilli(),
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, roles.calls)
}

func TestSuspendRejectsAlreadySuspendedUser(t *testing.T) {
	t.Parallel()

	existing := types.Suspension{UserID: 1001, ExpiresAt: time.Now().Add(time.Hour).UnixMilli()}
	store := newFakeStore(automationWithSuspendedRole("123", existing))
	roles := &fakeRoles{}
	router, cookie := newSuspensionRouter(t, store, roles, &fakeAudit{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, suspendRequest(t, cookie, "123", restTypes.SuspendRequest{
		UserID:    1001,
		ExpiresAt: time.Now().Add(2 * time.Hour).UnixMilli(),
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, roles.calls)
	assert.Len(t, store.suspensions("123"), 1)
}

func TestSuspendRetriesAfterUnrelatedConflict(t *testing.T) {
	t.Parallel()

	store := newFakeStore(automationWithSuspendedRole("123"))
	store.conflicts = 1
	store.onConflict = func(record *types.GroupAutomation) {
		record.Suspensions = append(record.Suspensions, types.Suspension{
			UserID:    2002,
			ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
		})
	}

	router, cookie := newSuspensionRouter(t, store, &fakeRoles{}, &fakeAudit{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, suspendRequest(t, cookie, "123", restTypes.SuspendRequest{
		UserID:    1001,
		ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
	}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, store.replaces)

	stored := store.suspensions("123")
	require.Len(t, stored, 2)
	assert.Equal(t, uint64(2002), stored[0].UserID)
	assert.Equal(t, uint64(1001), stored[1].UserID)
}

func TestSuspendDetectsDuplicateAfterConflictReread(t *testing.T) {
	t.Parallel()

	store := newFakeStore(automationWithSuspendedRole("123"))
	store.conflicts = 1
	store.onConflict = func(record *types.GroupAutomation) {
		// A racing request suspended the same user first.
		record.Suspensions = append(record.Suspensions, types.Suspension{
			UserID:    1001,
			ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
		})
	}

	router, cookie := newSuspensionRouter(t, store, &fakeRoles{}, &fakeAudit{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, suspendRequest(t, cookie, "123", restTypes.SuspendRequest{
		UserID:    1001,
		ExpiresAt: time.Now().Add(2 * time.Hour).UnixMilli(),
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	stored := store.suspensions("123")
	require.Len(t, stored, 1)
	assert.Equal(t, uint64(1001), stored[0].UserID)
}

func TestUnsuspendRestoresPreviousRole(t *testing.T) {
	t.Parallel()

	entry := types.Suspension{
		UserID:           1001,
		Username:         "member",
		PreviousRoleID:   42,
		PreviousRoleName: "Member",
		ExpiresAt:        time.Now().Add(time.Hour).UnixMilli(),
	}
	store := newFakeStore(automationWithSuspendedRole("123", entry))
	roles := &fakeRoles{}
	audit := &fakeAudit{}
	router, cookie := newSuspensionRouter(t, store, roles, audit)

	req := httptest.NewRequest(http.MethodDelete, "/api/automation/123/suspensions/1001", nil)
	req.AddCookie(cookie)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, roles.calls, 1)
	assert.Equal(t, roleCall{GroupID: 123, UserID: 1001, RoleID: 42}, roles.calls[0])
	assert.Empty(t, store.suspensions("123"))

	require.Len(t, audit.entries, 1)
	assert.Equal(t, types.AuditActionSuspensionLifted, audit.entries[0].Action)
}

func TestUnsuspendUnknownUser(t *testing.T) {
	t.Parallel()

	store := newFakeStore(automationWithSuspendedRole("123"))
	roles := &fakeRoles{}
	router, cookie := newSuspensionRouter(t, store, roles, &fakeAudit{})

	req := httptest.NewRequest(http.MethodDelete, "/api/automation/123/suspensions/1001", nil)
	req.AddCookie(cookie)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, roles.calls)
}

func TestSuspendRequiresSession(t *testing.T) {
	t.Parallel()

	store := newFakeStore(automationWithSuspendedRole("123"))
	router, _ := newSuspensionRouter(t, store, &fakeRoles{}, &fakeAudit{})

	req := httptest.NewRequest(http.MethodPost, "/api/automation/123/suspensions", bytes.NewReader(nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
