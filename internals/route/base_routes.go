package routes

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	assignmentModel "classroom_backend/internals/features/school/assignments/model"
)

func BaseRoutes(app *fiber.App, db *gorm.DB) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Classroom backend is running 🚀")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Context()) != nil {
			dbStatus = "Database connection error"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		// objects waiting for the cleanup reaper
		var backlog int64
		if serverStatus == "OK" {
			_ = db.WithContext(c.Context()).Model(&assignmentModel.ObjectCleanupBacklogModel{}).Count(&backlog).Error
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":          serverStatus,
			"database":        dbStatus,
			"cleanup_backlog": backlog,
			"server_time":     time.Now().Format(time.RFC3339),
			"uptime_seconds":  int(time.Since(startTime).Seconds()),
			"environment":     os.Getenv("APP_ENV"),
		})
	})
}
