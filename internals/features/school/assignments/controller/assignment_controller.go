// file: internals/features/school/assignments/controller/assignment_controller.go
package controller

import (
	"bufio"
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	dto "classroom_backend/internals/features/school/assignments/dto"
	service "classroom_backend/internals/features/school/assignments/service"
	helper "classroom_backend/internals/helpers"
	"classroom_backend/internals/helpers/apperr"
	helperAuth "classroom_backend/internals/helpers/auth"
)

type AssignmentController struct {
	Svc           *service.Service
	Validate      *validator.Validate
	Log           *zap.Logger
	MaxUploadSize int64
}

func NewAssignmentController(svc *service.Service, lg *zap.Logger, maxUploadSize int64) *AssignmentController {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &AssignmentController{
		Svc:           svc,
		Validate:      validator.New(),
		Log:           lg.Named("http"),
		MaxUploadSize: maxUploadSize,
	}
}

// fail logs server-side failures and renders the error envelope.
func (h *AssignmentController) fail(c *fiber.Ctx, err error) error {
	if apperr.HTTPStatus(err) >= fiber.StatusInternalServerError {
		h.Log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Stringer("kind", apperr.KindOf(err)),
			zap.Error(err),
		)
	}
	return helper.FromAppError(c, err)
}

/*
=========================================================

	CREATE
	POST /api/t/assignments

=========================================================
*/
func (h *AssignmentController) Create(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromAppError(c, err)
	}

	var req dto.CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid payload")
	}
	if err := h.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	a, err := h.Svc.Create(c.Context(), teacherID, req.ToInput())
	if err != nil {
		return h.fail(c, err)
	}
	return helper.JsonCreated(c, "Assignment created", dto.FromModel(a))
}

/*
=========================================================

	LIST / DETAIL
	GET /api/assignments
	GET /api/assignments/:id

=========================================================
*/
func (h *AssignmentController) List(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)

	rows, total, err := h.Svc.List(c.Context(), caller, p.Offset, p.Limit)
	if err != nil {
		return h.fail(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildPagination(total, p, len(rows)))
}

func (h *AssignmentController) Get(c *fiber.Ctx) error {
	caller, err := helperAuth.GetCaller(c)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromAppError(c, err)
	}

	d, err := h.Svc.Get(c.Context(), caller, id)
	if err != nil {
		return h.fail(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromDetail(d))
}

/*
=========================================================

	UPDATE
	PATCH /api/t/assignments/:id

=========================================================
*/
func (h *AssignmentController) Update(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromAppError(c, err)
	}

	var req dto.UpdateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid payload")
	}
	if err := h.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	a, err := h.Svc.Update(c.Context(), teacherID, id, req.ToInput())
	if err != nil {
		return h.fail(c, err)
	}
	return helper.JsonUpdated(c, "Assignment updated", dto.FromModel(a))
}

/*
=========================================================

	DELETE
	DELETE /api/t/assignments/:id

=========================================================
*/
func (h *AssignmentController) Delete(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromAppError(c, err)
	}

	out, err := h.Svc.Delete(c.Context(), id, teacherID)
	if err != nil {
		return h.fail(c, err)
	}
	msg := "Assignment deleted"
	if out.Warning != "" {
		msg = out.Warning
	}
	return helper.JsonDeleted(c, msg, out)
}

/*
=========================================================

	BULK DOWNLOAD
	GET /api/t/assignments/:id/submissions/archive

=========================================================
*/
func (h *AssignmentController) DownloadArchive(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromAppError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromAppError(c, err)
	}

	job, err := h.Svc.PrepareExport(c.Context(), id, teacherID)
	if err != nil {
		return h.fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, job.FileName))
	c.Set(fiber.HeaderCacheControl, "no-store")

	// the request ctx is recycled once the handler returns, the stream gets its own
	ctx, cancel := context.WithCancel(context.Background())
	lg := h.Log.With(zap.Stringer("assignment_id", id))
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		rep, err := job.WriteTo(ctx, w)
		if err != nil {
			if service.IsClientGone(err) {
				lg.Info("archive stream stopped by client", zap.Int("entries", rep.Entries))
				return
			}
			lg.Warn("archive stream aborted", zap.Int("entries", rep.Entries), zap.Error(err))
		}
	})
	return nil
}
