// file: internals/features/school/assignments/service/assignment_service.go
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	model "classroom_backend/internals/features/school/assignments/model"
	"classroom_backend/internals/features/school/assignments/repository"
	helperAuth "classroom_backend/internals/helpers/auth"
)

type CreateAssignmentInput struct {
	Title        string
	Description  *string
	Deadline     time.Time
	LateDeadline *time.Time
	PostedTo     uuid.UUID
	Attachments  []model.AttachmentFile
}

type UpdateAssignmentInput struct {
	Title             *string
	Description       *string
	Deadline          *time.Time
	LateDeadline      *time.Time
	ClearLateDeadline bool
}

// StatusRollup counts an assignment's submissions per status.
type StatusRollup struct {
	Submitted    int64 `json:"submitted"`
	Late         int64 `json:"late"`
	NotSubmitted int64 `json:"not_submitted"`
	Total        int64 `json:"total"`
}

// AssignmentDetail is what Get returns: teachers see the rollup,
// students see their own submission.
type AssignmentDetail struct {
	Assignment *model.AssignmentModel
	Rollup     *StatusRollup
	Submission *model.SubmissionModel
}

/* =======================================================================
   Create (fan-out)
======================================================================= */

// Create stores the assignment and one NOT_SUBMITTED placeholder per student
// enrolled in the target batch, in a single transaction.
func (s *Service) Create(ctx context.Context, teacherID uuid.UUID, in CreateAssignmentInput) (*model.AssignmentModel, error) {
	now := s.now()
	if err := validateCreate(in, teacherID, now); err != nil {
		return nil, err
	}

	a := &model.AssignmentModel{
		AssignmentID:           uuid.New(),
		AssignmentCreatedBy:    teacherID,
		AssignmentPostedTo:     in.PostedTo,
		AssignmentTitle:        strings.TrimSpace(in.Title),
		AssignmentDescription:  in.Description,
		AssignmentDeadline:     in.Deadline,
		AssignmentLateDeadline: in.LateDeadline,
		AssignmentAttachments:  in.Attachments,
	}

	var placeholders int
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Assignments.Create(ctx, a); err != nil {
			return err
		}
		students, err := s.roster.StudentsOf(ctx, in.PostedTo)
		if err != nil {
			return err
		}
		placeholders = len(students)
		return tx.Submissions.CreatePlaceholders(ctx, a.AssignmentID, students)
	})
	if err != nil {
		return nil, persistErr(err)
	}

	s.log.Info("assignment created",
		zap.Stringer("assignment_id", a.AssignmentID),
		zap.Stringer("batch_id", in.PostedTo),
		zap.Int("placeholders", placeholders),
	)
	return a, nil
}

func validateCreate(in CreateAssignmentInput, teacherID uuid.UUID, now time.Time) error {
	if strings.TrimSpace(in.Title) == "" {
		return model.ErrInvalidAssignmentFields.Withf("title is required")
	}
	if in.PostedTo == uuid.Nil {
		return model.ErrInvalidAssignmentFields.Withf("posted_to is required")
	}
	if in.Deadline.IsZero() {
		return model.ErrInvalidAssignmentFields.Withf("deadline is required")
	}
	if err := validateDeadlines(in.Deadline, in.LateDeadline, now); err != nil {
		return err
	}
	return validateAttachments(in.Attachments, teacherID)
}

// validateDeadlines: without a late deadline the deadline must be in the future;
// with one, deadline < late deadline and the late deadline in the future.
func validateDeadlines(deadline time.Time, late *time.Time, now time.Time) error {
	if late == nil {
		if !deadline.After(now) {
			return model.ErrInvalidAssignmentFields.Withf("deadline must be in the future")
		}
		return nil
	}
	if !deadline.Before(*late) {
		return model.ErrInvalidAssignmentFields.Withf("deadline must be before late_deadline")
	}
	if !late.After(now) {
		return model.ErrInvalidAssignmentFields.Withf("late_deadline must be in the future")
	}
	return nil
}

// validateAttachments: attachment keys must sit in the teacher's own upload
// area, deleting the assignment later deletes them.
func validateAttachments(files []model.AttachmentFile, teacherID uuid.UUID) error {
	if len(files) > model.MaxAssignmentAttachments {
		return model.ErrInvalidAssignmentFields.Withf("at most %d attachments allowed", model.MaxAssignmentAttachments)
	}
	prefix := AttachmentKeyPrefix(teacherID)
	for i, f := range files {
		if !f.Complete() {
			return model.ErrInvalidAssignmentFields.Withf("attachment %d needs name, key and media_type", i)
		}
		if !ownedKey(f.Key, prefix) {
			return model.ErrInvalidAttachment.Withf("attachment %d key is outside the caller's upload area", i)
		}
	}
	return nil
}

/* =======================================================================
   Read
======================================================================= */

// List returns the assignments visible to the caller, newest first.
func (s *Service) List(ctx context.Context, caller helperAuth.Caller, offset, limit int) ([]model.AssignmentModel, int64, error) {
	f := repository.ListFilter{Offset: offset, Limit: limit}
	switch {
	case caller.IsAdmin():
	case caller.IsTeacher():
		f.CreatedBy = &caller.ID
	case caller.IsStudent():
		batches, err := s.roster.BatchesOf(ctx, caller.ID)
		if err != nil {
			return nil, 0, persistErr(err)
		}
		if batches == nil {
			batches = []uuid.UUID{}
		}
		f.PostedTo = batches
	default:
		return nil, 0, model.ErrNotAuthorized
	}

	rows, total, err := s.store.Assignments.List(ctx, f)
	if err != nil {
		return nil, 0, persistErr(err)
	}
	return rows, total, nil
}

func (s *Service) Get(ctx context.Context, caller helperAuth.Caller, assignmentID uuid.UUID) (*AssignmentDetail, error) {
	a, err := s.store.Assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, persistErr(err)
	}

	switch {
	case caller.IsStudent():
		sub, err := s.store.Submissions.Find(ctx, assignmentID, caller.ID)
		if errors.Is(err, model.ErrSubmissionRecordNotFound) {
			// not on the roster: the assignment does not exist for this student
			return nil, model.ErrAssignmentNotFound
		}
		if err != nil {
			return nil, persistErr(err)
		}
		return &AssignmentDetail{Assignment: a, Submission: sub}, nil

	case caller.IsAdmin(), caller.IsTeacher() && a.AssignmentCreatedBy == caller.ID:
		counts, err := s.store.Submissions.StatusCounts(ctx, assignmentID)
		if err != nil {
			return nil, persistErr(err)
		}
		r := &StatusRollup{
			Submitted:    counts[model.StatusSubmitted],
			Late:         counts[model.StatusLate],
			NotSubmitted: counts[model.StatusNotSubmitted],
		}
		r.Total = r.Submitted + r.Late + r.NotSubmitted
		return &AssignmentDetail{Assignment: a, Rollup: r}, nil
	}
	return nil, model.ErrNotAuthorized
}

/* =======================================================================
   Update
======================================================================= */

// Update patches the editable fields. Existing submission statuses are left as
// they were written; they are only re-derived on the next file write.
func (s *Service) Update(ctx context.Context, teacherID, assignmentID uuid.UUID, in UpdateAssignmentInput) (*model.AssignmentModel, error) {
	a, err := s.loadOwned(ctx, s.store, assignmentID, teacherID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, model.ErrInvalidAssignmentFields.Withf("title cannot be empty")
	}
	if in.ClearLateDeadline && in.LateDeadline != nil {
		return nil, model.ErrInvalidAssignmentFields.Withf("late_deadline cannot be set and cleared at once")
	}

	deadline := a.AssignmentDeadline
	if in.Deadline != nil {
		deadline = *in.Deadline
	}
	late := a.AssignmentLateDeadline
	switch {
	case in.ClearLateDeadline:
		late = nil
	case in.LateDeadline != nil:
		late = in.LateDeadline
	}

	if late != nil && !deadline.Before(*late) {
		return nil, model.ErrInvalidAssignmentFields.Withf("deadline must be before late_deadline")
	}
	if in.Deadline != nil || in.LateDeadline != nil || in.ClearLateDeadline {
		next := *a
		next.AssignmentDeadline, next.AssignmentLateDeadline = deadline, late
		if next.Closed(s.now()) {
			return nil, model.ErrInvalidAssignmentFields.Withf("new deadlines must leave the window open")
		}
	}

	patch := repository.AssignmentPatch{
		Description:       in.Description,
		Deadline:          in.Deadline,
		LateDeadline:      in.LateDeadline,
		ClearLateDeadline: in.ClearLateDeadline,
	}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		patch.Title = &t
	}
	if err := s.store.Assignments.Update(ctx, assignmentID, patch); err != nil {
		return nil, persistErr(err)
	}

	out, err := s.store.Assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, persistErr(err)
	}
	return out, nil
}
