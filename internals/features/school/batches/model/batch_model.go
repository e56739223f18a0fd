// file: internals/features/school/batches/model/batch_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// BatchModel represents table `batches`
type BatchModel struct {
	BatchID   uuid.UUID `json:"batch_id"   gorm:"column:batch_id;type:uuid;primaryKey"`
	BatchName string    `json:"batch_name" gorm:"column:batch_name;type:varchar(120);not null"`

	BatchCreatedAt time.Time `json:"batch_created_at" gorm:"column:batch_created_at;not null;autoCreateTime"`
	BatchUpdatedAt time.Time `json:"batch_updated_at" gorm:"column:batch_updated_at;not null;autoUpdateTime"`
}

func (BatchModel) TableName() string { return "batches" }

// BatchStudentModel represents table `batch_students` (the roster)
type BatchStudentModel struct {
	BatchStudentID uuid.UUID `json:"batch_student_id" gorm:"column:batch_student_id;type:uuid;primaryKey"`

	BatchStudentBatchID   uuid.UUID `json:"batch_student_batch_id"   gorm:"column:batch_student_batch_id;type:uuid;not null;uniqueIndex:uq_batch_students_batch_student,priority:1"`
	BatchStudentStudentID uuid.UUID `json:"batch_student_student_id" gorm:"column:batch_student_student_id;type:uuid;not null;uniqueIndex:uq_batch_students_batch_student,priority:2;index:idx_batch_students_student"`

	BatchStudentRollNumber string `json:"batch_student_roll_number" gorm:"column:batch_student_roll_number;type:varchar(40);not null"`
	BatchStudentName       string `json:"batch_student_name"        gorm:"column:batch_student_name;type:varchar(160);not null"`

	BatchStudentCreatedAt time.Time `json:"batch_student_created_at" gorm:"column:batch_student_created_at;not null;autoCreateTime"`

	Batch *BatchModel `json:"-" gorm:"foreignKey:BatchStudentBatchID;references:BatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (BatchStudentModel) TableName() string { return "batch_students" }
