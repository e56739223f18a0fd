// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	database "classroom_backend/internals/databases"
	batchModel "classroom_backend/internals/features/school/batches/model"
)

// NewDB opens a migrated SQLite database in t.TempDir.
// A file (not :memory:) is used so separate pool connections see the same data.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedBatch inserts a batch with n students (roll numbers 01..n) and returns ids.
func SeedBatch(t *testing.T, db *gorm.DB, name string, n int) (uuid.UUID, []uuid.UUID) {
	t.Helper()

	batch := batchModel.BatchModel{BatchID: uuid.New(), BatchName: name}
	if err := db.Create(&batch).Error; err != nil {
		t.Fatalf("seed batch: %v", err)
	}

	students := make([]uuid.UUID, 0, n)
	for i := 1; i <= n; i++ {
		row := batchModel.BatchStudentModel{
			BatchStudentID:         uuid.New(),
			BatchStudentBatchID:    batch.BatchID,
			BatchStudentStudentID:  uuid.New(),
			BatchStudentRollNumber: fmt.Sprintf("%02d", i),
			BatchStudentName:       fmt.Sprintf("Student %d", i),
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed student: %v", err)
		}
		students = append(students, row.BatchStudentStudentID)
	}
	return batch.BatchID, students
}
