package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/owskk/EmailFileBackup-Cron/internal/config"
)

// SetupRoutes настраивает все маршруты приложения
func SetupRoutes(
	app *fiber.App,
	syncHandler *SyncHandler,
	logHandler *LogHandler,
	serverHandler *ServerHandler,
	db *sql.DB,
	auth config.AuthConfig,
) {
	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Триггер и воркер защищены собственными bearer-ключами
	app.Post("/api/run-task", syncHandler.Trigger)
	app.Post("/api/internal/worker", syncHandler.Worker)

	// Health check
	// @Summary Проверка здоровья
	// @Description Проверяет доступность базы данных без изменения состояния
	// @Tags system
	// @Produce json
	// @Success 200 {object} map[string]string "Сервис здоров"
	// @Failure 503 {object} map[string]string "База данных недоступна"
	// @Router /health [get]
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Читающая поверхность для панели — за Basic-аутентификацией
	api := app.Group("/api/v1", basicauth.New(basicauth.Config{
		Users: map[string]string{
			auth.WebAuthUser: auth.WebAuthPassword,
		},
	}))

	api.Get("/logs", logHandler.GetLogs)
	api.Get("/stats", logHandler.GetStats)

	// Реестр серверов
	api.Get("/servers", serverHandler.List)
	api.Post("/servers", serverHandler.Upsert)
	api.Delete("/servers/:name", serverHandler.Delete)
	api.Post("/servers/:name/test", serverHandler.Test)
}
