// file: internals/features/school/assignments/model/assignment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const MaxAssignmentAttachments = 2

// AttachmentFile is a stored file reference: display name, object key, media type.
type AttachmentFile struct {
	Name      string `json:"name"`
	Key       string `json:"key"`
	MediaType string `json:"media_type"`
}

func (f AttachmentFile) Complete() bool {
	return f.Name != "" && f.Key != "" && f.MediaType != ""
}

// AssignmentModel represents table `assignments`
type AssignmentModel struct {
	// =========================
	// Primary Key
	// =========================
	AssignmentID uuid.UUID `json:"assignment_id" gorm:"column:assignment_id;type:uuid;primaryKey"`

	// =========================
	// Ownership
	// =========================
	AssignmentCreatedBy uuid.UUID `json:"assignment_created_by" gorm:"column:assignment_created_by;type:uuid;not null;index:idx_assignments_created_by"`
	AssignmentPostedTo  uuid.UUID `json:"assignment_posted_to"  gorm:"column:assignment_posted_to;type:uuid;not null;index:idx_assignments_posted_to"`

	// =========================
	// Data
	// =========================
	AssignmentTitle       string  `json:"assignment_title"       gorm:"column:assignment_title;type:varchar(180);not null"`
	AssignmentDescription *string `json:"assignment_description" gorm:"column:assignment_description;type:text"`

	AssignmentDeadline     time.Time  `json:"assignment_deadline"      gorm:"column:assignment_deadline;not null"`
	AssignmentLateDeadline *time.Time `json:"assignment_late_deadline" gorm:"column:assignment_late_deadline"`

	AssignmentAttachments datatypes.JSONSlice[AttachmentFile] `json:"assignment_attachments" gorm:"column:assignment_attachments"`

	// =========================
	// Timestamps
	// =========================
	AssignmentCreatedAt time.Time `json:"assignment_created_at" gorm:"column:assignment_created_at;not null;autoCreateTime;index:idx_assignments_created_at,sort:desc"`
	AssignmentUpdatedAt time.Time `json:"assignment_updated_at" gorm:"column:assignment_updated_at;not null;autoUpdateTime"`
}

func (AssignmentModel) TableName() string { return "assignments" }

// ClosesAt is the instant after which no submission write is accepted.
func (m *AssignmentModel) ClosesAt() time.Time {
	if m.AssignmentLateDeadline != nil && m.AssignmentLateDeadline.After(m.AssignmentDeadline) {
		return *m.AssignmentLateDeadline
	}
	return m.AssignmentDeadline
}

// Closed reports whether submission writes are refused at now.
func (m *AssignmentModel) Closed(now time.Time) bool {
	return now.After(m.ClosesAt())
}

// AttachmentKeys returns the object keys referenced by the assignment itself.
func (m *AssignmentModel) AttachmentKeys() []string {
	keys := make([]string, 0, len(m.AssignmentAttachments))
	for _, a := range m.AssignmentAttachments {
		if a.Key != "" {
			keys = append(keys, a.Key)
		}
	}
	return keys
}
