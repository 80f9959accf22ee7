package automation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database/types"
	"go.uber.org/zap"
)

// maxReplaceAttempts bounds how often a group's suspension list is re-read
// and re-written after losing a compare-and-swap race.
const maxReplaceAttempts = 3

// Store is the persistence surface the sweeper needs.
type Store interface {
	GetAll(ctx context.Context) ([]*types.VersionedAutomation, error)
	GetVersioned(ctx context.Context, groupID string) (*types.GroupAutomation, int64, error)
	ReplaceSuspensions(
		ctx context.Context, automation *types.GroupAutomation, suspensions []types.Suspension, version int64,
	) error
}

// AuditRecorder records audit entries for permanently failed restorations.
type AuditRecorder interface {
	Record(ctx context.Context, entry *types.AuditLog) error
}

// RoleSetter performs the privileged role-restore write.
type RoleSetter interface {
	SetMemberRole(ctx context.Context, groupID, userID, roleID uint64) error
}

// Sweeper restores expired suspensions across all groups.
type Sweeper struct {
	store  Store
	audit  AuditRecorder
	roles  RoleSetter
	logger *zap.Logger
}

// NewSweeper creates a Sweeper over the given store, audit trail, and role writer.
func NewSweeper(store Store, audit AuditRecorder, roles RoleSetter, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:  store,
		audit:  audit,
		roles:  roles,
		logger: logger.Named("sweeper"),
	}
}

// Sweep walks every group's suspension list once, restores the previous role
// of each expired entry, and drops the expired entries from storage. It never
// fails: per-group and per-user errors are logged, and a failed restoration
// is dropped anyway but flagged in the audit trail. Returns the number of
// expired suspensions handled and how many restorations succeeded.
func (s *Sweeper) Sweep(ctx context.Context) (processed, restored int) {
	now := time.Now()

	records, err := s.store.GetAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load automation records for sweep", zap.Error(err))
		return 0, 0
	}

	for _, record := range records {
		groupProcessed, groupRestored := s.sweepGroup(ctx, now, record)
		processed += groupProcessed
		restored += groupRestored
	}

	s.logger.Info("Suspension sweep finished",
		zap.Int("groups", len(records)),
		zap.Int("processed", processed),
		zap.Int("restored", restored))

	return processed, restored
}

// sweepGroup handles one group's suspension list. Expired entries are
// restored and removed; on a version conflict the record is re-read and the
// partition recomputed, restoring only entries not already attempted.
func (s *Sweeper) sweepGroup(
	ctx context.Context, now time.Time, record *types.VersionedAutomation,
) (processed, restored int) {
	automation := record.Automation
	version := record.Version

	groupID, err := strconv.ParseUint(automation.GroupID, 10, 64)
	if err != nil {
		s.logger.Error("Skipping group with non-numeric id",
			zap.String("groupID", automation.GroupID),
			zap.Error(err))

		return 0, 0
	}

	attempted := make(map[uint64]struct{})

	for attempt := range maxReplaceAttempts {
		expired, pending := automation.PartitionSuspensions(now)
		if len(expired) == 0 {
			// Nothing to do; the stored record stays untouched
			return processed, restored
		}

		for _, suspension := range expired {
			if _, done := attempted[suspension.UserID]; done {
				continue
			}

			attempted[suspension.UserID] = struct{}{}
			processed++

			if s.restore(ctx, groupID, suspension) {
				restored++
			}
		}

		err := s.store.ReplaceSuspensions(ctx, automation, pending, version)
		if err == nil {
			return processed, restored
		}

		if !errors.Is(err, types.ErrVersionConflict) {
			s.logger.Error("Failed to store swept suspension list",
				zap.Uint64("groupID", groupID),
				zap.Error(err))

			return processed, restored
		}

		s.logger.Debug("Suspension list changed during sweep, re-reading",
			zap.Uint64("groupID", groupID),
			zap.Int("attempt", attempt+1))

		automation, version, err = s.store.GetVersioned(ctx, automation.GroupID)
		if err != nil {
			s.logger.Error("Failed to re-read automation record after conflict",
				zap.Uint64("groupID", groupID),
				zap.Error(err))

			return processed, restored
		}
	}

	s.logger.Error("Giving up on suspension list after repeated conflicts",
		zap.Uint64("groupID", groupID))

	return processed, restored
}

// restore puts one member back on their pre-suspension role. Failures are
// logged and recorded in the audit trail; the suspension is dropped either way.
func (s *Sweeper) restore(ctx context.Context, groupID uint64, suspension types.Suspension) bool {
	err := s.roles.SetMemberRole(ctx, groupID, suspension.UserID, suspension.PreviousRoleID)
	if err == nil {
		return true
	}

	s.logger.Warn("Dropping suspension with failed role restoration",
		zap.Uint64("groupID", groupID),
		zap.Uint64("userID", suspension.UserID),
		zap.Uint64("previousRoleID", suspension.PreviousRoleID),
		zap.Error(err))

	auditErr := s.audit.Record(ctx, &types.AuditLog{
		Action:   types.AuditActionRestoreFailed,
		GroupID:  strconv.FormatUint(groupID, 10),
		TargetID: strconv.FormatUint(suspension.UserID, 10),
		Details: fmt.Sprintf("failed to restore %s to role %q: %v",
			suspension.Username, suspension.PreviousRoleName, err),
	})
	if auditErr != nil {
		s.logger.Error("Failed to record restoration failure",
			zap.Uint64("groupID", groupID),
			zap.Uint64("userID", suspension.UserID),
			zap.Error(auditErr))
	}

	return false
}
