// file: internals/features/school/batches/service/roster.go
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "classroom_backend/internals/features/school/batches/model"
	"classroom_backend/internals/helpers/apperr"
)

var ErrBatchNotFound = apperr.New(apperr.NotFound, "BATCH_NOT_FOUND", "batch not found")

// StudentProfile is what the export needs to name archive entries.
type StudentProfile struct {
	StudentID  uuid.UUID
	RollNumber string
	Name       string
}

// RosterProvider resolves batch enrolment.
type RosterProvider interface {
	// StudentsOf returns the enrolled student ids; ErrBatchNotFound when the batch is unknown.
	StudentsOf(ctx context.Context, batchID uuid.UUID) ([]uuid.UUID, error)
	BatchesOf(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error)
	Profiles(ctx context.Context, batchID uuid.UUID, studentIDs []uuid.UUID) (map[uuid.UUID]StudentProfile, error)
}

// Roster is the GORM-backed RosterProvider over batches/batch_students.
type Roster struct {
	DB *gorm.DB
}

var _ RosterProvider = (*Roster)(nil)

func NewRoster(db *gorm.DB) *Roster {
	return &Roster{DB: db}
}

func (r *Roster) StudentsOf(ctx context.Context, batchID uuid.UUID) ([]uuid.UUID, error) {
	var batch model.BatchModel
	err := r.DB.WithContext(ctx).
		Select("batch_id").
		Where("batch_id = ?", batchID).
		Take(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBatchNotFound.Withf("batch %s not found", batchID)
	}
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	if err := r.DB.WithContext(ctx).
		Model(&model.BatchStudentModel{}).
		Where("batch_student_batch_id = ?", batchID).
		Order("batch_student_roll_number ASC").
		Pluck("batch_student_student_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Roster) BatchesOf(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB.WithContext(ctx).
		Model(&model.BatchStudentModel{}).
		Where("batch_student_student_id = ?", studentID).
		Distinct().
		Pluck("batch_student_batch_id", &ids).Error
	return ids, err
}

func (r *Roster) Profiles(ctx context.Context, batchID uuid.UUID, studentIDs []uuid.UUID) (map[uuid.UUID]StudentProfile, error) {
	out := make(map[uuid.UUID]StudentProfile, len(studentIDs))
	if len(studentIDs) == 0 {
		return out, nil
	}

	var rows []model.BatchStudentModel
	if err := r.DB.WithContext(ctx).
		Where("batch_student_batch_id = ? AND batch_student_student_id IN ?", batchID, studentIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.BatchStudentStudentID] = StudentProfile{
			StudentID:  row.BatchStudentStudentID,
			RollNumber: row.BatchStudentRollNumber,
			Name:       row.BatchStudentName,
		}
	}
	return out, nil
}
