// file: internals/features/school/assignments/controller/attachment_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	dto "classroom_backend/internals/features/school/assignments/dto"
	helper "classroom_backend/internals/helpers"
	helperAuth "classroom_backend/internals/helpers/auth"
)

/*
=========================================================

	ATTACHMENT UPLOAD URL
	POST /api/t/assignments/attachments/upload-url

=========================================================
*/
func (h *AssignmentController) AttachmentUploadURL(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetUserIDFromToken(c)
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

	ticket, err := h.Svc.AttachmentUploadURL(c.Context(), teacherID, req.FileName, req.MediaType)
	if err != nil {
		return h.fail(c, err)
	}
	return helper.JsonOK(c, "Upload URL issued", ticket)
}

/*
=========================================================

	ATTACHMENT UPLOAD (multipart "file")
	POST /api/t/assignments/attachments
	- returns { name, key, media_type } for assignment_attachments

=========================================================
*/
func (h *AssignmentController) UploadAttachment(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromAppError(c, err)
	}

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

	f, err := h.Svc.StoreAttachment(c.Context(), teacherID, fh.Filename, mediaType, src)
	if err != nil {
		return h.fail(c, err)
	}
	return helper.JsonCreated(c, "Attachment stored", dto.AttachmentResponse(f))
}
