package model

import "time"

// ObjectCleanupBacklogModel represents table `object_cleanup_backlog`:
// storage keys whose deletion gave up and wait for the reaper.
type ObjectCleanupBacklogModel struct {
	ObjectCleanupID        uint64    `gorm:"column:object_cleanup_id;primaryKey;autoIncrement"`
	ObjectCleanupKey       string    `gorm:"column:object_cleanup_key;type:text;not null;uniqueIndex:uq_object_cleanup_key"`
	ObjectCleanupReason    string    `gorm:"column:object_cleanup_reason;type:varchar(60);not null"`
	ObjectCleanupAttempts  int       `gorm:"column:object_cleanup_attempts;not null;default:0"`
	ObjectCleanupLastError *string   `gorm:"column:object_cleanup_last_error;type:text"`
	ObjectCleanupCreatedAt time.Time `gorm:"column:object_cleanup_created_at;not null;autoCreateTime"`
	ObjectCleanupUpdatedAt time.Time `gorm:"column:object_cleanup_updated_at;not null;autoUpdateTime;index:idx_object_cleanup_updated_at"`
}

func (ObjectCleanupBacklogModel) TableName() string { return "object_cleanup_backlog" }
