package automation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/automation"
	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errRoleAPI = errors.New("role api unavailable")

type fakeStore struct {
	mu        sync.Mutex
	records   map[string]*types.VersionedAutomation
	conflicts int
	replaces  int
}

func newFakeStore(records ...*types.GroupAutomation) *fakeStore {
	s := &fakeStore{records: make(map[string]*types.VersionedAutomation)}
	for _, record := range records {
		s.records[record.GroupID] = &types.VersionedAutomation{Automation: record, Version: 1}
	}

	return s
}

func (s *fakeStore) GetAll(_ context.Context) ([]*types.VersionedAutomation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*types.VersionedAutomation, 0, len(s.records))
	for _, record := range s.records {
		all = append(all, &types.VersionedAutomation{Automation: record.Automation, Version: record.Version})
	}

	return all, nil
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

func (s *fakeStore) ReplaceSuspensions(
	_ context.Context, record *types.GroupAutomation, suspensions []types.Suspension, version int64,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replaces++

	if s.conflicts > 0 {
		s.conflicts--
		s.records[record.GroupID].Version++

		return types.ErrVersionConflict
	}

	stored, ok := s.records[record.GroupID]
	if !ok || stored.Version != version {
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
	fail  map[uint64]error
}

func (r *fakeRoles) SetMemberRole(_ context.Context, groupID, userID, roleID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, roleCall{GroupID: groupID, UserID: userID, RoleID: roleID})

	if err, ok := r.fail[userID]; ok {
		return err
	}

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

func suspensionAt(userID uint64, previousRoleID uint64, expiresAt time.Time) types.Suspension {
	return types.Suspension{
		UserID:           userID,
		Username:         "member",
		PreviousRoleID:   previousRoleID,
		PreviousRoleName: "Member",
		SuspendedAt:      expiresAt.Add(-time.Hour).UnixMilli(),
		ExpiresAt:        expiresAt.UnixMilli(),
	}
}

func TestSweepRestoresExpiredAndKeepsPending(t *testing.T) {
	t.Parallel()

	now := time.Now()
	expired := suspensionAt(1001, 42, now.Add(-time.Minute))
	pending := suspensionAt(1002, 43, now.Add(time.Hour))

	store := newFakeStore(&types.GroupAutomation{
		GroupID:     "123",
		Suspensions: []types.Suspension{expired, pending},
	})
	roles := &fakeRoles{}
	audit := &fakeAudit{}

	sweeper := automation.NewSweeper(store, audit, roles, zap.NewNop())
	processed, restored := sweeper.Sweep(context.Background())

	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, restored)

	require.Len(t, roles.calls, 1)
	assert.Equal(t, roleCall{GroupID: 123, UserID: 1001, RoleID: 42}, roles.calls[0])

	stored := store.suspensions("123")
	require.Len(t, stored, 1)
	assert.Equal(t, uint64(1002), stored[0].UserID)
	assert.Empty(t, audit.entries)
}

func TestSweepNoExpiredMeansNoWrite(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := newFakeStore(&types.GroupAutomation{
		GroupID:     "123",
		Suspensions: []types.Suspension{suspensionAt(1001, 42, now.Add(time.Hour))},
	})
	roles := &fakeRoles{}

	sweeper := automation.NewSweeper(store, &fakeAudit{}, roles, zap.NewNop())
	processed, restored := sweeper.Sweep(context.Background())

	assert.Zero(t, processed)
	assert.Zero(t, restored)
	assert.Empty(t, roles.calls)
	assert.Zero(t, store.replaces)
}

func TestSweepEmptyListUntouched(t *testing.T) {
	t.Parallel()

	store := newFakeStore(&types.GroupAutomation{GroupID: "123"})

	sweeper := automation.NewSweeper(store, &fakeAudit{}, &fakeRoles{}, zap.NewNop())
	processed, restored := sweeper.Sweep(context.Background())

	assert.Zero(t, processed)
	assert.Zero(t, restored)
	assert.Zero(t, store.replaces)
}

func TestSweepFailedRestoreIsDroppedAndFlagged(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := newFakeStore(&types.GroupAutomation{
		GroupID:     "123",
		Suspensions: []types.Suspension{suspensionAt(1001, 42, now.Add(-time.Minute))},
	})
	roles := &fakeRoles{fail: map[uint64]error{1001: errRoleAPI}}
	audit := &fakeAudit{}

	sweeper := automation.NewSweeper(store, audit, roles, zap.NewNop())
	processed, restored := sweeper.Sweep(context.Background())

	assert.Equal(t, 1, processed)
	assert.Zero(t, restored)

	// The failed entry is dropped from storage but leaves an audit trail
	assert.Empty(t, store.suspensions("123"))
	require.Len(t, audit.entries, 1)
	assert.Equal(t, types.AuditActionRestoreFailed, audit.entries[0].Action)
	assert.Equal(t, "123", audit.entries[0].GroupID)
	assert.Equal(t, "1001", audit.entries[0].TargetID)
}

func TestSweepRetriesAfterVersionConflict(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := newFakeStore(&types.GroupAutomation{
		GroupID:     "123",
		Suspensions: []types.Suspension{suspensionAt(1001, 42, now.Add(-time.Minute))},
	})
	store.conflicts = 1
	roles := &fakeRoles{}

	sweeper := automation.NewSweeper(store, &fakeAudit{}, roles, zap.NewNop())
	processed, restored := sweeper.Sweep(context.Background())

	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, restored)

	// The member is only restored once despite the re-read
	assert.Len(t, roles.calls, 1)
	assert.Equal(t, 2, store.replaces)
	assert.Empty(t, store.suspensions("123"))
}

func TestSweepSkipsMalformedGroupID(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := newFakeStore(&types.GroupAutomation{
		GroupID:     "not-a-number",
		Suspensions: []types.Suspension{suspensionAt(1001, 42, now.Add(-time.Minute))},
	})
	roles := &fakeRoles{}

	sweeper := automation.NewSweeper(store, &fakeAudit{}, roles, zap.NewNop())
	processed, restored := sweeper.Sweep(context.Background())

	assert.Zero(t, processed)
	assert.Zero(t, restored)
	assert.Empty(t, roles.calls)
}
