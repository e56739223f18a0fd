// file: internals/features/school/assignments/repository/assignment_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "classroom_backend/internals/features/school/assignments/model"
)

type AssignmentRepository struct {
	db *gorm.DB
}

// ListFilter scopes List; nil slices mean "no filter".
type ListFilter struct {
	CreatedBy *uuid.UUID
	PostedTo  []uuid.UUID
	Offset    int
	Limit     int
}

// AssignmentPatch holds the updatable columns; nil fields are left alone.
type AssignmentPatch struct {
	Title             *string
	Description       *string
	Deadline          *time.Time
	LateDeadline      *time.Time
	ClearLateDeadline bool
}

func (r *AssignmentRepository) Create(ctx context.Context, m *model.AssignmentModel) error {
	if m.AssignmentID == uuid.Nil {
		m.AssignmentID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AssignmentModel, error) {
	var m model.AssignmentModel
	err := r.db.WithContext(ctx).Where("assignment_id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrAssignmentNotFound.Withf("assignment %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *AssignmentRepository) List(ctx context.Context, f ListFilter) ([]model.AssignmentModel, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AssignmentModel{})
	if f.CreatedBy != nil {
		q = q.Where("assignment_created_by = ?", *f.CreatedBy)
	}
	if f.PostedTo != nil {
		if len(f.PostedTo) == 0 {
			return []model.AssignmentModel{}, 0, nil
		}
		q = q.Where("assignment_posted_to IN ?", f.PostedTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.AssignmentModel
	q = q.Order("assignment_created_at DESC").Order("assignment_id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *AssignmentRepository) Update(ctx context.Context, id uuid.UUID, p AssignmentPatch) error {
	updates := map[string]any{}
	if p.Title != nil {
		updates["assignment_title"] = *p.Title
	}
	if p.Description != nil {
		updates["assignment_description"] = *p.Description
	}
	if p.Deadline != nil {
		updates["assignment_deadline"] = *p.Deadline
	}
	if p.ClearLateDeadline {
		updates["assignment_late_deadline"] = nil
	} else if p.LateDeadline != nil {
		updates["assignment_late_deadline"] = *p.LateDeadline
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&model.AssignmentModel{}).
		Where("assignment_id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrAssignmentNotFound.Withf("assignment %s not found", id)
	}
	return nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("assignment_id = ?", id).Delete(&model.AssignmentModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrAssignmentNotFound.Withf("assignment %s not found", id)
	}
	return nil
}

// AttachmentKeysByCreator returns the attachment keys used by the creator's
// other assignments.
func (r *AssignmentRepository) AttachmentKeysByCreator(ctx context.Context, createdBy, exceptID uuid.UUID) ([]string, error) {
	var rows []model.AssignmentModel
	err := r.db.WithContext(ctx).
		Select("assignment_id", "assignment_attachments").
		Where("assignment_created_by = ? AND assignment_id <> ?", createdBy, exceptID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	var keys []string
	for i := range rows {
		keys = append(keys, rows[i].AttachmentKeys()...)
	}
	return keys, nil
}
