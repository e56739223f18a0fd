// file: internals/features/school/assignments/route/assignment_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	assignmentController "classroom_backend/internals/features/school/assignments/controller"
)

/*
Teacher routes: create / edit / delete / bulk download.
Mount: AssignmentTeacherRoutes(app.Group("/api/t"), ctl)
*/
func AssignmentTeacherRoutes(r fiber.Router, ctl *assignmentController.AssignmentController) {
	g := r.Group("/assignments")
	g.Post("/", ctl.Create)                      // POST   /api/t/assignments
	g.Post("/attachments", ctl.UploadAttachment) // POST   /api/t/assignments/attachments
	g.Post("/attachments/upload-url", ctl.AttachmentUploadURL)
	g.Patch("/:id", ctl.Update)                            // PATCH  /api/t/assignments/:id
	g.Delete("/:id", ctl.Delete)                           // DELETE /api/t/assignments/:id
	g.Get("/:id/submissions/archive", ctl.DownloadArchive) // GET    /api/t/assignments/:id/submissions/archive
}

// AssignmentUserRoutes: read access for any authenticated role, scoped in the service.
func AssignmentUserRoutes(r fiber.Router, ctl *assignmentController.AssignmentController) {
	g := r.Group("/assignments")
	g.Get("/", ctl.List)   // GET /api/assignments
	g.Get("/:id", ctl.Get) // GET /api/assignments/:id
}

func AssignmentStudentRoutes(r fiber.Router, ctl *assignmentController.AssignmentController) {
	g := r.Group("/assignments/:id/submission")
	g.Post("/upload-url", ctl.UploadURL) // POST   /api/s/assignments/:id/submission/upload-url
	g.Put("/", ctl.Submit)               // PUT    /api/s/assignments/:id/submission
	g.Delete("/", ctl.Withdraw)          // DELETE /api/s/assignments/:id/submission
}
