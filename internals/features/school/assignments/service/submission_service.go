// file: internals/features/school/assignments/service/submission_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	model "classroom_backend/internals/features/school/assignments/model"
	helperOSS "classroom_backend/internals/helpers/oss"
)

const reasonSubmissionReplace = "submission_replace"

// SubmissionKeyPrefix is the object key prefix a student may upload under.
func SubmissionKeyPrefix(assignmentID, studentID uuid.UUID) string {
	return fmt.Sprintf("%s%s/", submissionsPrefix(assignmentID), studentID)
}

func submissionsPrefix(assignmentID uuid.UUID) string {
	return fmt.Sprintf("submissions/%s/", assignmentID)
}

// AttachmentKeyPrefix is the object key prefix a teacher's assignment
// attachments live under.
func AttachmentKeyPrefix(teacherID uuid.UUID) string {
	return fmt.Sprintf("assignments/%s/", teacherID)
}

// ownedKey reports whether key sits under prefix with no path tricks in the rest.
func ownedKey(key, prefix string) bool {
	rest, ok := strings.CutPrefix(key, prefix)
	if !ok || rest == "" {
		return false
	}
	for _, seg := range strings.Split(rest, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// UploadTicket is a presigned direct-upload target.
type UploadTicket struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Submit attaches f to the student's placeholder. A previously stored object
// is deleted before the new one is attached.
func (s *Service) Submit(ctx context.Context, assignmentID, studentID uuid.UUID, f model.AttachmentFile) (*model.SubmissionModel, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Key = strings.TrimSpace(f.Key)
	f.MediaType = strings.TrimSpace(f.MediaType)
	if !f.Complete() {
		return nil, model.ErrInvalidAttachment.Withf("attachment needs name, key and media_type")
	}
	if !ownedKey(f.Key, SubmissionKeyPrefix(assignmentID, studentID)) {
		return nil, model.ErrInvalidAttachment.Withf("attachment key is outside the caller's upload area")
	}

	a, sub, err := s.loadSubmission(ctx, assignmentID, studentID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if a.Closed(now) {
		return nil, model.ErrSubmissionWindowClosed
	}

	if old := sub.File(); old != nil && old.Key != f.Key {
		s.dropObject(ctx, old.Key, assignmentID, studentID)
	}

	if err := s.store.Submissions.SetFile(ctx, sub, a, f, now); err != nil {
		return nil, persistErr(err)
	}
	// a key queued after a failed delete is live again
	if err := s.store.Backlog.Forget(context.WithoutCancel(ctx), []string{f.Key}); err != nil {
		s.log.Error("forget cleanup backlog", zap.String("key", f.Key), zap.Error(err))
	}
	s.log.Debug("submission stored",
		zap.Stringer("assignment_id", assignmentID),
		zap.Stringer("student_id", studentID),
		zap.String("status", string(sub.SubmissionStatus)),
	)
	return sub, nil
}

// Withdraw deletes the stored object and clears the submission.
// Withdrawing a submission without a file is a no-op.
func (s *Service) Withdraw(ctx context.Context, assignmentID, studentID uuid.UUID) (*model.SubmissionModel, error) {
	a, sub, err := s.loadSubmission(ctx, assignmentID, studentID)
	if err != nil {
		return nil, err
	}
	old := sub.File()
	if old == nil {
		return sub, nil
	}
	now := s.now()
	if a.Closed(now) {
		return nil, model.ErrSubmissionWindowClosed
	}

	s.dropObject(ctx, old.Key, assignmentID, studentID)
	if err := s.store.Submissions.ClearFile(ctx, sub, a, now); err != nil {
		return nil, persistErr(err)
	}
	return sub, nil
}

// UploadURL hands out a presigned PUT target under the student's prefix.
func (s *Service) UploadURL(ctx context.Context, assignmentID, studentID uuid.UUID, fileName, mediaType string) (*UploadTicket, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, model.ErrInvalidAttachment.Withf("file_name is required")
	}
	a, _, err := s.loadSubmission(ctx, assignmentID, studentID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if a.Closed(now) {
		return nil, model.ErrSubmissionWindowClosed
	}

	return s.signUpload(helperOSS.BuildObjectKey(SubmissionKeyPrefix(assignmentID, studentID), fileName), mediaType, now)
}

func (s *Service) signUpload(key, mediaType string, now time.Time) (*UploadTicket, error) {
	p, ok := s.objects.(helperOSS.Presigner)
	if !ok {
		return nil, model.ErrObjectStoreUnavailable.Wrap(helperOSS.ErrPresignUnsupported)
	}
	url, err := p.SignUploadURL(key, mediaType, s.uploadTTL)
	if err != nil {
		return nil, model.ErrObjectStoreUnavailable.Wrap(err)
	}
	return &UploadTicket{Key: key, URL: url, Method: "PUT", ExpiresAt: now.Add(s.uploadTTL)}, nil
}

// StoreUpload writes an uploaded body under the student's prefix and returns its key.
func (s *Service) StoreUpload(ctx context.Context, assignmentID, studentID uuid.UUID, fileName, mediaType string, body io.Reader) (string, error) {
	key := helperOSS.BuildObjectKey(SubmissionKeyPrefix(assignmentID, studentID), fileName)
	if _, err := s.objects.PutObject(ctx, key, body, mediaType); err != nil {
		return "", model.ErrObjectStoreUnavailable.Wrap(err)
	}
	return key, nil
}

// DiscardUpload removes an object stored by StoreUpload whose submit failed.
func (s *Service) DiscardUpload(ctx context.Context, key string) {
	if err := s.objects.DeleteObject(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn("discard upload", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) loadSubmission(ctx context.Context, assignmentID, studentID uuid.UUID) (*model.AssignmentModel, *model.SubmissionModel, error) {
	a, err := s.store.Assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, nil, persistErr(err)
	}
	sub, err := s.store.Submissions.Find(ctx, assignmentID, studentID)
	if err != nil {
		return nil, nil, persistErr(err)
	}
	return a, sub, nil
}

// dropObject deletes a replaced or withdrawn object. Failures are queued for
// the reaper instead of blocking the student.
func (s *Service) dropObject(ctx context.Context, key string, assignmentID, studentID uuid.UUID) {
	err := s.objects.DeleteObject(ctx, key)
	if err == nil || errors.Is(err, helperOSS.ErrObjectNotFound) {
		return
	}
	s.log.Warn("delete previous submission object",
		zap.Stringer("assignment_id", assignmentID),
		zap.Stringer("student_id", studentID),
		zap.String("key", key),
		zap.Error(err),
	)
	if qerr := s.store.Backlog.Enqueue(context.WithoutCancel(ctx), reasonSubmissionReplace, []string{key}, err); qerr != nil {
		s.log.Error("enqueue cleanup backlog", zap.String("key", key), zap.Error(qerr))
	}
}
