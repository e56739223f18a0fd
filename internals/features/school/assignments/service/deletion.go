// file: internals/features/school/assignments/service/deletion.go
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	model "classroom_backend/internals/features/school/assignments/model"
	"classroom_backend/internals/features/school/assignments/repository"
)

const reasonAssignmentDelete = "assignment_delete"

// DeletionOutcome reports a committed deletion. CleanupComplete=false means
// some stored objects may remain; the keys were handed to the cleanup backlog.
type DeletionOutcome struct {
	AssignmentID       uuid.UUID `json:"assignment_id"`
	SubmissionsDeleted int64     `json:"submissions_deleted"`
	ObjectKeys         []string  `json:"object_keys"`
	CleanupAttempts    int       `json:"cleanup_attempts"`
	CleanupComplete    bool      `json:"cleanup_complete"`
	Warning            string    `json:"warning,omitempty"`
}

// Delete removes the assignment and its submissions in one transaction, then
// deletes the referenced objects with bounded retries. Cleanup failure never
// undoes the committed deletion.
func (s *Service) Delete(ctx context.Context, assignmentID, requesterID uuid.UUID) (*DeletionOutcome, error) {
	out := &DeletionOutcome{AssignmentID: assignmentID}

	var keys []string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		a, err := s.loadOwned(ctx, tx, assignmentID, requesterID)
		if err != nil {
			return err
		}
		subKeys, err := tx.Submissions.FileKeysByAssignment(ctx, assignmentID)
		if err != nil {
			return err
		}
		shared, err := tx.Assignments.AttachmentKeysByCreator(ctx, a.AssignmentCreatedBy, a.AssignmentID)
		if err != nil {
			return err
		}
		var foreign []string
		keys, foreign = cleanupKeys(a, subKeys, shared)
		if len(foreign) > 0 {
			s.log.Warn("delete: keys outside the assignment's upload areas left in place",
				zap.Stringer("assignment_id", assignmentID),
				zap.Strings("keys", foreign),
			)
		}

		n, err := tx.Submissions.DeleteByAssignment(ctx, assignmentID)
		if err != nil {
			return err
		}
		out.SubmissionsDeleted = n
		return tx.Assignments.Delete(ctx, assignmentID)
	})
	if err != nil {
		return nil, persistErr(err)
	}

	out.ObjectKeys = keys
	out.CleanupComplete = true
	if len(keys) == 0 {
		return out, nil
	}

	// the records are gone; a client disconnect must not stop the cleanup
	cctx := context.WithoutCancel(ctx)
	attempts, cerr := s.cleanup.Run(cctx, func(ctx context.Context) error {
		return s.objects.DeleteObjects(ctx, keys)
	})
	out.CleanupAttempts = attempts
	if cerr == nil {
		return out, nil
	}

	out.CleanupComplete = false
	out.Warning = fmt.Sprintf("assignment deleted, but %d stored object(s) may remain", len(keys))
	s.log.Warn("object cleanup gave up",
		zap.Stringer("assignment_id", assignmentID),
		zap.Int("keys", len(keys)),
		zap.Int("attempts", attempts),
		zap.Error(cerr),
	)
	if err := s.store.Backlog.Enqueue(cctx, reasonAssignmentDelete, keys, cerr); err != nil {
		s.log.Error("enqueue cleanup backlog", zap.Stringer("assignment_id", assignmentID), zap.Error(err))
	}
	return out, nil
}

// cleanupKeys picks the objects the assignment owns: attachments under the
// creator's prefix that no other assignment of theirs still uses, and
// submission files under the assignment's submission prefix.
func cleanupKeys(a *model.AssignmentModel, subKeys, shared []string) (keys, foreign []string) {
	inUse := make(map[string]struct{}, len(shared))
	for _, k := range shared {
		inUse[k] = struct{}{}
	}

	attachPrefix := AttachmentKeyPrefix(a.AssignmentCreatedBy)
	var attach []string
	for _, k := range a.AttachmentKeys() {
		if _, ok := inUse[k]; ok {
			continue
		}
		if ownedKey(k, attachPrefix) {
			attach = append(attach, k)
		} else {
			foreign = append(foreign, k)
		}
	}

	subPrefix := submissionsPrefix(a.AssignmentID)
	var subs []string
	for _, k := range subKeys {
		if ownedKey(k, subPrefix) {
			subs = append(subs, k)
		} else {
			foreign = append(foreign, k)
		}
	}
	return dedupeKeys(attach, subs), foreign
}

func dedupeKeys(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range groups {
		for _, k := range g {
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
