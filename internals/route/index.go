// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"classroom_backend/internals/constants"
	authMiddleware "classroom_backend/internals/middlewares/auth"
	routeDetails "classroom_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, deps routeDetails.SchoolDeps, jwtSecret string) {
	startTime = time.Now()

	lg := deps.Log.Named("routes")

	lg.Info("setting up base routes")
	BaseRoutes(app, deps.DB)

	// ===================== GROUPS =====================
	private := app.Group("/api", authMiddleware.AuthMiddleware(jwtSecret, deps.Log.Named("auth")))

	teacher := private.Group("/t", authMiddleware.OnlyRoles(constants.RoleErrorTeacher("teacher endpoints"), constants.TeacherOnly...))

	student := private.Group("/s", authMiddleware.OnlyRoles(constants.RoleErrorStudent("student endpoints"), constants.StudentOnly...))

	// ===================== MOUNT ROUTES =====================
	lg.Info("mounting school routes")
	assignments := routeDetails.NewAssignmentController(deps)
	routeDetails.SchoolTeacherRoutes(teacher, assignments)
	routeDetails.SchoolStudentRoutes(student, assignments)
	routeDetails.SchoolUserRoutes(private, assignments)
}
