// file: internals/features/school/assignments/controller/submission_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	dto "classroom_backend/internals/features/school/assignments/dto"
	model "classroom_backend/internals/features/school/assignments/model"
	helper "classroom_backend/internals/helpers"
	helperAuth "classroom_backend/internals/helpers/auth"
)

// studentTarget resolves (assignment, student) for the /api/s routes.
func studentTarget(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	studentID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	assignmentID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return assignmentID, studentID, nil
}

/*
=========================================================

	UPLOAD URL
	POST /api/s/assignments/:id/submission/upload-url

=========================================================
*/
func (h *AssignmentController) UploadURL(c *fiber.Ctx) error {
	aid, sid, err := studentTarget(c)
	if err != nil {
		return helper.FromAppError(c, err)
	}

	var req dto.UploadURLRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid payload")
	}
	if err := h.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	ticket, err := h.Svc.UploadURL(c.Context(), aid, sid, req.FileName, req.MediaType)
	if err != nil {
		return h.fail(c, err)
	}
	return helper.JsonOK(c, "Upload URL issued", ticket)
}

/*
=========================================================

	SUBMIT
	PUT /api/s/assignments/:id/submission
	- JSON: { name, key, media_type } of an uploaded object
	- multipart: "file" part, stored here first

=========================================================
*/
func (h *AssignmentController) Submit(c *fiber.Ctx) error {
	aid, sid, err := studentTarget(c)
	if err != nil {
		return helper.FromAppError(c, err)
	}

	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		return h.submitMultipart(c, aid, sid)
	}

	var req dto.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid payload")
	}
	if err := h.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	sub, err := h.Svc.Submit(c.Context(), aid, sid, req.ToModel())
	if err != nil {
		return h.fail(c, err)
	}
	return helper.JsonUpdated(c, "Submission stored", dto.FromSubmission(sub))
}

func (h *AssignmentController) submitMultipart(c *fiber.Ctx, aid, sid uuid.UUID) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "file is required")
	}
	if h.MaxUploadSize > 0 && fh.Size > h.MaxUploadSize {
		return helper.JsonError(c, fiber.StatusRequestEntityTooLarge, "file is too large")
	}
	mediaType := strings.TrimSpace(fh.Header.Get(fiber.HeaderContentType))
	if mediaType == "" {
		mediaType = fiber.MIMEOctetStream
	}

	src, err := fh.Open()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "cannot read file")
	}
	defer src.Close()

	key, err := h.Svc.StoreUpload(c.Context(), aid, sid, fh.Filename, mediaType, src)
	if err != nil {
		return h.fail(c, err)
	}

	sub, err := h.Svc.Submit(c.Context(), aid, sid, model.AttachmentFile{
		Name:      fh.Filename,
		Key:       key,
		MediaType: mediaType,
	})
	if err != nil {
		h.Svc.DiscardUpload(c.Context(), key)
		h.Log.Debug("submit failed, upload discarded", zap.String("key", key), zap.Error(err))
		return h.fail(c, err)
	}
	return helper.JsonUpdated(c, "Submission stored", dto.FromSubmission(sub))
}

/*
=========================================================

	WITHDRAW
	DELETE /api/s/assignments/:id/submission

=========================================================
*/
func (h *AssignmentController) Withdraw(c *fiber.Ctx) error {
	aid, sid, err := studentTarget(c)
	if err != nil {
		return helper.FromAppError(c, err)
	}

	sub, err := h.Svc.Withdraw(c.Context(), aid, sid)
	if err != nil {
		return h.fail(c, err)
	}
	return helper.JsonOK(c, "Submission withdrawn", dto.FromSubmission(sub))
}
