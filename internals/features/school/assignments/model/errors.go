package model

import "classroom_backend/internals/helpers/apperr"

var (
	ErrAssignmentNotFound       = apperr.New(apperr.NotFound, "ASSIGNMENT_NOT_FOUND", "assignment not found")
	ErrSubmissionRecordNotFound = apperr.New(apperr.NotFound, "SUBMISSION_NOT_FOUND", "submission record not found")
	ErrNotAuthorized            = apperr.New(apperr.Authorization, "NOT_AUTHORIZED", "assignment not found or not owned by caller")
	ErrSubmissionWindowClosed   = apperr.New(apperr.WindowClosed, "SUBMISSION_WINDOW_CLOSED", "submission window is closed")
	ErrInvalidAssignmentFields  = apperr.New(apperr.Validation, "INVALID_ASSIGNMENT_FIELDS", "invalid assignment fields")
	ErrInvalidAttachment        = apperr.New(apperr.Validation, "INVALID_ATTACHMENT", "invalid attachment")
	ErrDuplicateSubmission      = apperr.New(apperr.Validation, "DUPLICATE_SUBMISSION", "submission already exists for this student")
	ErrPersistenceFailure       = apperr.New(apperr.Persistence, "PERSISTENCE_FAILURE", "unit of work aborted, safe to retry")
	ErrObjectStoreUnavailable   = apperr.New(apperr.TransientStore, "OBJECT_STORE_UNAVAILABLE", "object store unavailable")
)
