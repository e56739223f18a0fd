// file: internals/route/details/school_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"classroom_backend/internals/configs"
	assignmentController "classroom_backend/internals/features/school/assignments/controller"
	assignmentRepo "classroom_backend/internals/features/school/assignments/repository"
	assignmentRoutes "classroom_backend/internals/features/school/assignments/route"
	assignmentService "classroom_backend/internals/features/school/assignments/service"
	batchService "classroom_backend/internals/features/school/batches/service"
	helperOSS "classroom_backend/internals/helpers/oss"
	"classroom_backend/internals/middlewares"
)

// SchoolDeps is what the school feature routes are built from.
type SchoolDeps struct {
	DB      *gorm.DB
	Objects helperOSS.ObjectStore
	Log     *zap.Logger
	Engine  configs.EngineConfig
}

// NewAssignmentService wires the engine from SchoolDeps.
func NewAssignmentService(d SchoolDeps) *assignmentService.Service {
	return assignmentService.New(
		assignmentRepo.NewStore(d.DB),
		batchService.NewRoster(d.DB),
		d.Objects,
		d.Log,
		assignmentService.WithRetryPolicy(assignmentService.RetryPolicy{
			MaxAttempts: d.Engine.CleanupMaxAttempts,
			Backoff:     assignmentService.LinearBackoff(d.Engine.CleanupBackoffStep),
		}),
		assignmentService.WithUploadURLTTL(d.Engine.UploadURLTTL),
		assignmentService.WithExportTimeout(d.Engine.ExportTimeout),
	)
}

func NewAssignmentController(d SchoolDeps) *assignmentController.AssignmentController {
	return assignmentController.NewAssignmentController(NewAssignmentService(d), d.Log, d.Engine.MaxUploadSize)
}

/* ===================== USER (any role) ===================== */
func SchoolUserRoutes(r fiber.Router, ctl *assignmentController.AssignmentController) {
	assignmentRoutes.AssignmentUserRoutes(r, ctl)
}

/* ===================== TEACHER ===================== */
func SchoolTeacherRoutes(r fiber.Router, ctl *assignmentController.AssignmentController) {
	assignmentRoutes.AssignmentTeacherRoutes(r, ctl)
}

/* ===================== STUDENT ===================== */
func SchoolStudentRoutes(r fiber.Router, ctl *assignmentController.AssignmentController) {
	r.Use(middlewares.SubmissionRateLimiter())
	assignmentRoutes.AssignmentStudentRoutes(r, ctl)
}
