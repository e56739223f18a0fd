// file: internals/features/school/assignments/dto/assignment_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	model "classroom_backend/internals/features/school/assignments/model"
	service "classroom_backend/internals/features/school/assignments/service"
)

/* =========================================================
   helpers
   ========================================================= */

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

/* =========================================================
   REQUEST DTO
   ========================================================= */

type AttachmentRequest struct {
	Name      string `json:"name"       validate:"required,max=255"`
	Key       string `json:"key"        validate:"required"`
	MediaType string `json:"media_type" validate:"required,max=120"`
}

func (r AttachmentRequest) ToModel() model.AttachmentFile {
	return model.AttachmentFile{
		Name:      strings.TrimSpace(r.Name),
		Key:       strings.TrimSpace(r.Key),
		MediaType: strings.TrimSpace(r.MediaType),
	}
}

type CreateAssignmentRequest struct {
	Title        string              `json:"assignment_title"         validate:"required,max=180"`
	Description  *string             `json:"assignment_description"   validate:"omitempty"`
	Deadline     time.Time           `json:"assignment_deadline"      validate:"required"`
	LateDeadline *time.Time          `json:"assignment_late_deadline" validate:"omitempty"`
	PostedTo     uuid.UUID           `json:"assignment_posted_to"     validate:"required"`
	Attachments  []AttachmentRequest `json:"assignment_attachments"   validate:"omitempty,max=2,dive"`
}

func (r CreateAssignmentRequest) ToInput() service.CreateAssignmentInput {
	files := make([]model.AttachmentFile, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		files = append(files, a.ToModel())
	}
	return service.CreateAssignmentInput{
		Title:        strings.TrimSpace(r.Title),
		Description:  trimPtr(r.Description),
		Deadline:     r.Deadline,
		LateDeadline: r.LateDeadline,
		PostedTo:     r.PostedTo,
		Attachments:  files,
	}
}

type UpdateAssignmentRequest struct {
	Title             *string    `json:"assignment_title"             validate:"omitempty,max=180"`
	Description       *string    `json:"assignment_description"       validate:"omitempty"`
	Deadline          *time.Time `json:"assignment_deadline"          validate:"omitempty"`
	LateDeadline      *time.Time `json:"assignment_late_deadline"     validate:"omitempty"`
	ClearLateDeadline bool       `json:"clear_assignment_late_deadline"`
}

func (r UpdateAssignmentRequest) ToInput() service.UpdateAssignmentInput {
	return service.UpdateAssignmentInput{
		Title:             r.Title,
		Description:       trimPtr(r.Description),
		Deadline:          r.Deadline,
		LateDeadline:      r.LateDeadline,
		ClearLateDeadline: r.ClearLateDeadline,
	}
}

/* =========================================================
   RESPONSE DTO
   ========================================================= */

// AttachmentResponse is what an attachment upload returns; it is sent back
// as-is in assignment_attachments.
type AttachmentResponse struct {
	Name      string `json:"name"`
	Key       string `json:"key"`
	MediaType string `json:"media_type"`
}

type AssignmentResponse struct {
	ID           uuid.UUID              `json:"assignment_id"`
	CreatedBy    uuid.UUID              `json:"assignment_created_by"`
	PostedTo     uuid.UUID              `json:"assignment_posted_to"`
	Title        string                 `json:"assignment_title"`
	Description  *string                `json:"assignment_description,omitempty"`
	Deadline     time.Time              `json:"assignment_deadline"`
	LateDeadline *time.Time             `json:"assignment_late_deadline,omitempty"`
	Attachments  []model.AttachmentFile `json:"assignment_attachments"`
	CreatedAt    time.Time              `json:"assignment_created_at"`
	UpdatedAt    time.Time              `json:"assignment_updated_at"`

	Rollup     *service.StatusRollup `json:"submission_rollup,omitempty"`
	Submission *SubmissionResponse   `json:"my_submission,omitempty"`
}

func FromModel(m *model.AssignmentModel) AssignmentResponse {
	files := []model.AttachmentFile(m.AssignmentAttachments)
	if files == nil {
		files = []model.AttachmentFile{}
	}
	return AssignmentResponse{
		ID:           m.AssignmentID,
		CreatedBy:    m.AssignmentCreatedBy,
		PostedTo:     m.AssignmentPostedTo,
		Title:        m.AssignmentTitle,
		Description:  m.AssignmentDescription,
		Deadline:     m.AssignmentDeadline,
		LateDeadline: m.AssignmentLateDeadline,
		Attachments:  files,
		CreatedAt:    m.AssignmentCreatedAt,
		UpdatedAt:    m.AssignmentUpdatedAt,
	}
}

func FromModels(rows []model.AssignmentModel) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

func FromDetail(d *service.AssignmentDetail) AssignmentResponse {
	resp := FromModel(d.Assignment)
	resp.Rollup = d.Rollup
	if d.Submission != nil {
		s := FromSubmission(d.Submission)
		resp.Submission = &s
	}
	return resp
}
