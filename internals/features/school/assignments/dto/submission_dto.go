// file: internals/features/school/assignments/dto/submission_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	model "classroom_backend/internals/features/school/assignments/model"
)

// SubmitRequest references an object already uploaded through an upload URL.
type SubmitRequest struct {
	AttachmentRequest
}

type UploadURLRequest struct {
	FileName  string `json:"file_name"  validate:"required,max=255"`
	MediaType string `json:"media_type" validate:"omitempty,max=120"`
}

type SubmissionResponse struct {
	ID           uuid.UUID             `json:"submission_id"`
	AssignmentID uuid.UUID             `json:"submission_assignment_id"`
	StudentID    uuid.UUID             `json:"submission_student_id"`
	Status       model.Status          `json:"submission_status"`
	File         *model.AttachmentFile `json:"submission_file,omitempty"`
	SubmittedAt  *time.Time            `json:"submission_submitted_at,omitempty"`
	UpdatedAt    time.Time             `json:"submission_updated_at"`
}

func FromSubmission(m *model.SubmissionModel) SubmissionResponse {
	return SubmissionResponse{
		ID:           m.SubmissionID,
		AssignmentID: m.SubmissionAssignmentID,
		StudentID:    m.SubmissionStudentID,
		Status:       m.SubmissionStatus,
		File:         m.File(),
		SubmittedAt:  m.SubmissionSubmittedAt,
		UpdatedAt:    m.SubmissionUpdatedAt,
	}
}
