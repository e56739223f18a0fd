package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	model "classroom_backend/internals/features/school/assignments/model"
)

type CleanupBacklogRepository struct {
	db *gorm.DB
}

// Enqueue records keys for a later cleanup pass; already queued keys are kept once.
func (r *CleanupBacklogRepository) Enqueue(ctx context.Context, reason string, keys []string, lastErr error) error {
	if len(keys) == 0 {
		return nil
	}
	var msg *string
	if lastErr != nil {
		s := lastErr.Error()
		msg = &s
	}
	rows := make([]model.ObjectCleanupBacklogModel, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, model.ObjectCleanupBacklogModel{
			ObjectCleanupKey:       k,
			ObjectCleanupReason:    reason,
			ObjectCleanupLastError: msg,
		})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "object_cleanup_key"}},
			DoNothing: true,
		}).
		CreateInBatches(&rows, 500).Error
}

// Oldest returns up to limit queued rows, least recently tried first.
func (r *CleanupBacklogRepository) Oldest(ctx context.Context, limit int) ([]model.ObjectCleanupBacklogModel, error) {
	var rows []model.ObjectCleanupBacklogModel
	err := r.db.WithContext(ctx).
		Order("object_cleanup_updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *CleanupBacklogRepository) Remove(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("object_cleanup_id IN ?", ids).
		Delete(&model.ObjectCleanupBacklogModel{}).Error
}

// Forget drops queued rows for keys that are in use again.
func (r *CleanupBacklogRepository) Forget(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("object_cleanup_key IN ?", keys).
		Delete(&model.ObjectCleanupBacklogModel{}).Error
}

// MarkFailed bumps the attempt counter of ids and stores the error.
func (r *CleanupBacklogRepository) MarkFailed(ctx context.Context, ids []uint64, cause error) error {
	if len(ids) == 0 {
		return nil
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.db.WithContext(ctx).
		Model(&model.ObjectCleanupBacklogModel{}).
		Where("object_cleanup_id IN ?", ids).
		Updates(map[string]any{
			"object_cleanup_attempts":   gorm.Expr("object_cleanup_attempts + 1"),
			"object_cleanup_last_error": msg,
		}).Error
}

func (r *CleanupBacklogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ObjectCleanupBacklogModel{}).Count(&n).Error
	return n, err
}
