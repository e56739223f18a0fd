// file: internals/features/school/assignments/model/submission_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionModel represents table `submissions`; one row per (assignment, student).
type SubmissionModel struct {
	SubmissionID uuid.UUID `json:"submission_id" gorm:"column:submission_id;type:uuid;primaryKey"`

	SubmissionAssignmentID uuid.UUID `json:"submission_assignment_id" gorm:"column:submission_assignment_id;type:uuid;not null;uniqueIndex:uq_submissions_assignment_student,priority:1"`
	SubmissionStudentID    uuid.UUID `json:"submission_student_id"    gorm:"column:submission_student_id;type:uuid;not null;uniqueIndex:uq_submissions_assignment_student,priority:2;index:idx_submissions_student"`

	SubmissionStatus Status `json:"submission_status" gorm:"column:submission_status;type:varchar(20);not null;default:NOT_SUBMITTED"`

	// file columns are all set or all NULL
	SubmissionFileName      *string `json:"submission_file_name"       gorm:"column:submission_file_name;type:varchar(255)"`
	SubmissionFileKey       *string `json:"submission_file_key"        gorm:"column:submission_file_key;type:text"`
	SubmissionFileMediaType *string `json:"submission_file_media_type" gorm:"column:submission_file_media_type;type:varchar(120)"`

	SubmissionSubmittedAt *time.Time `json:"submission_submitted_at" gorm:"column:submission_submitted_at"`

	SubmissionCreatedAt time.Time `json:"submission_created_at" gorm:"column:submission_created_at;not null;autoCreateTime"`
	SubmissionUpdatedAt time.Time `json:"submission_updated_at" gorm:"column:submission_updated_at;not null;autoUpdateTime"`

	Assignment *AssignmentModel `json:"-" gorm:"foreignKey:SubmissionAssignmentID;references:AssignmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (SubmissionModel) TableName() string { return "submissions" }

func (m *SubmissionModel) HasFile() bool {
	return m.SubmissionFileKey != nil && *m.SubmissionFileKey != ""
}

// File returns the stored file, or nil.
func (m *SubmissionModel) File() *AttachmentFile {
	if !m.HasFile() {
		return nil
	}
	f := AttachmentFile{Key: *m.SubmissionFileKey}
	if m.SubmissionFileName != nil {
		f.Name = *m.SubmissionFileName
	}
	if m.SubmissionFileMediaType != nil {
		f.MediaType = *m.SubmissionFileMediaType
	}
	return &f
}

// NewPlaceholder builds the NOT_SUBMITTED row created during fan-out.
func NewPlaceholder(assignmentID, studentID uuid.UUID) SubmissionModel {
	return SubmissionModel{
		SubmissionID:           uuid.New(),
		SubmissionAssignmentID: assignmentID,
		SubmissionStudentID:    studentID,
		SubmissionStatus:       StatusNotSubmitted,
	}
}
