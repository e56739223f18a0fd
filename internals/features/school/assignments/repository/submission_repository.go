// file: internals/features/school/assignments/repository/submission_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "classroom_backend/internals/features/school/assignments/model"
)

const placeholderBatchSize = 500

type SubmissionRepository struct {
	db *gorm.DB
}

// CreatePlaceholders inserts one NOT_SUBMITTED row per student.
func (r *SubmissionRepository) CreatePlaceholders(ctx context.Context, assignmentID uuid.UUID, studentIDs []uuid.UUID) error {
	if len(studentIDs) == 0 {
		return nil
	}
	rows := make([]model.SubmissionModel, 0, len(studentIDs))
	for _, sid := range studentIDs {
		rows = append(rows, model.NewPlaceholder(assignmentID, sid))
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&rows, placeholderBatchSize).Error; err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateSubmission.Wrap(err)
		}
		return err
	}
	return nil
}

func (r *SubmissionRepository) Find(ctx context.Context, assignmentID, studentID uuid.UUID) (*model.SubmissionModel, error) {
	var m model.SubmissionModel
	err := r.db.WithContext(ctx).
		Where("submission_assignment_id = ? AND submission_student_id = ?", assignmentID, studentID).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrSubmissionRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FileKeysByAssignment returns the object keys held by the assignment's submissions.
func (r *SubmissionRepository) FileKeysByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&model.SubmissionModel{}).
		Where("submission_assignment_id = ? AND submission_file_key IS NOT NULL AND submission_file_key <> ''", assignmentID).
		Pluck("submission_file_key", &keys).Error
	return keys, err
}

// ReferencedKeys returns the subset of keys some submission still points to.
func (r *SubmissionRepository) ReferencedKeys(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var out []string
	err := r.db.WithContext(ctx).
		Model(&model.SubmissionModel{}).
		Where("submission_file_key IN ?", keys).
		Distinct().
		Pluck("submission_file_key", &out).Error
	return out, err
}

// EachWithFile pages through submissions that hold a file, batchSize rows at a time.
func (r *SubmissionRepository) EachWithFile(ctx context.Context, assignmentID uuid.UUID, batchSize int, fn func([]model.SubmissionModel) error) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	var batch []model.SubmissionModel
	res := r.db.WithContext(ctx).
		Where("submission_assignment_id = ? AND submission_file_key IS NOT NULL AND submission_file_key <> ''", assignmentID).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	return res.Error
}

// SetFile attaches f and re-derives the status from now.
func (r *SubmissionRepository) SetFile(ctx context.Context, sub *model.SubmissionModel, a *model.AssignmentModel, f model.AttachmentFile, now time.Time) error {
	if a.Closed(now) {
		return model.ErrSubmissionWindowClosed
	}
	status, err := model.DeriveStatus(now, a.AssignmentDeadline, a.AssignmentLateDeadline, true)
	if err != nil {
		return err
	}

	name, key, mt := f.Name, f.Key, f.MediaType
	sub.SubmissionFileName = &name
	sub.SubmissionFileKey = &key
	sub.SubmissionFileMediaType = &mt
	sub.SubmissionStatus = status
	sub.SubmissionSubmittedAt = &now
	return r.saveFile(ctx, sub)
}

// ClearFile removes the file reference; status goes back to NOT_SUBMITTED.
func (r *SubmissionRepository) ClearFile(ctx context.Context, sub *model.SubmissionModel, a *model.AssignmentModel, now time.Time) error {
	status, err := model.DeriveStatus(now, a.AssignmentDeadline, a.AssignmentLateDeadline, false)
	if err != nil {
		return err
	}
	sub.SubmissionFileName = nil
	sub.SubmissionFileKey = nil
	sub.SubmissionFileMediaType = nil
	sub.SubmissionSubmittedAt = nil
	sub.SubmissionStatus = status
	return r.saveFile(ctx, sub)
}

func (r *SubmissionRepository) saveFile(ctx context.Context, sub *model.SubmissionModel) error {
	res := r.db.WithContext(ctx).
		Model(sub).
		Select(
			"submission_status",
			"submission_file_name",
			"submission_file_key",
			"submission_file_media_type",
			"submission_submitted_at",
			"submission_updated_at",
		).
		Updates(sub)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrSubmissionRecordNotFound
	}
	return nil
}

func (r *SubmissionRepository) DeleteByAssignment(ctx context.Context, assignmentID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("submission_assignment_id = ?", assignmentID).
		Delete(&model.SubmissionModel{})
	return res.RowsAffected, res.Error
}

// StatusCounts returns the number of submissions per status.
func (r *SubmissionRepository) StatusCounts(ctx context.Context, assignmentID uuid.UUID) (map[model.Status]int64, error) {
	var rows []struct {
		Status model.Status
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.SubmissionModel{}).
		Select("submission_status AS status, COUNT(*) AS total").
		Where("submission_assignment_id = ?", assignmentID).
		Group("submission_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[model.Status]int64{
		model.StatusSubmitted:    0,
		model.StatusLate:         0,
		model.StatusNotSubmitted: 0,
	}
	for _, row := range rows {
		if row.Status.Valid() {
			out[row.Status] = row.Total
		}
	}
	return out, nil
}
