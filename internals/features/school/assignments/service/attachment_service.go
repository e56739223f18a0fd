// file: internals/features/school/assignments/service/attachment_service.go
package service

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	model "classroom_backend/internals/features/school/assignments/model"
	helperOSS "classroom_backend/internals/helpers/oss"
)

// AttachmentUploadURL hands a teacher a presigned PUT target for an assignment
// attachment. The returned key is what Create expects in Attachments.
func (s *Service) AttachmentUploadURL(ctx context.Context, teacherID uuid.UUID, fileName, mediaType string) (*UploadTicket, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, model.ErrInvalidAttachment.Withf("file_name is required")
	}
	return s.signUpload(helperOSS.BuildObjectKey(AttachmentKeyPrefix(teacherID), fileName), mediaType, s.now())
}

// StoreAttachment writes an uploaded body under the teacher's attachment prefix.
func (s *Service) StoreAttachment(ctx context.Context, teacherID uuid.UUID, fileName, mediaType string, body io.Reader) (model.AttachmentFile, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return model.AttachmentFile{}, model.ErrInvalidAttachment.Withf("file name is required")
	}
	key := helperOSS.BuildObjectKey(AttachmentKeyPrefix(teacherID), fileName)
	if _, err := s.objects.PutObject(ctx, key, body, mediaType); err != nil {
		return model.AttachmentFile{}, model.ErrObjectStoreUnavailable.Wrap(err)
	}
	return model.AttachmentFile{Name: fileName, Key: key, MediaType: mediaType}, nil
}
