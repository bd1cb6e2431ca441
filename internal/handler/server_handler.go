package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
	"github.com/owskk/EmailFileBackup-Cron/internal/service"
)

// ServerHandler — обработчик реестра WebDAV-серверов
type ServerHandler struct {
	service *service.RegistryService
}

// NewServerHandler создаёт новый обработчик
func NewServerHandler(svc *service.RegistryService) *ServerHandler {
	return &ServerHandler{service: svc}
}

// ServerRequest — тело запроса создания/обновления сервера
type ServerRequest struct {
	Name           string `json:"name"`
	URL            string `json:"url"`
	Login          string `json:"login"`
	Password       string `json:"password"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	ChunkSizeBytes int    `json:"chunk_size_bytes"`
	Enabled        *bool  `json:"enabled"` // nil → true
	IsDefault      bool   `json:"is_default"`
}

// List возвращает все серверы реестра
// @Summary Список серверов
// @Description Возвращает все настроенные WebDAV-серверы без паролей
// @Tags servers
// @Produce json
// @Success 200 {array} domain.ServerConfig "Список серверов"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/servers [get]
func (h *ServerHandler) List(c *fiber.Ctx) error {
	servers, err := h.service.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Не удалось прочитать реестр серверов",
		})
	}

	return c.JSON(servers)
}

// Upsert создаёт или обновляет сервер
// @Summary Создать или обновить сервер
// @Description Сохраняет сервер по уникальному имени. Установка is_default снимает прежний default тем же действием.
// @Tags servers
// @Accept json
// @Produce json
// @Param server body ServerRequest true "Описание сервера"
// @Success 200 {object} domain.ServerConfig "Сохранённый сервер"
// @Failure 400 {object} ErrorResponse "Некорректное описание сервера"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/servers [post]
func (h *ServerHandler) Upsert(c *fiber.Ctx) error {
	var req ServerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Некорректное тело запроса",
			Details: err.Error(),
		})
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	srv := &domain.ServerConfig{
		Name:           req.Name,
		URL:            req.URL,
		Login:          req.Login,
		Password:       req.Password,
		TimeoutSeconds: req.TimeoutSeconds,
		ChunkSizeBytes: req.ChunkSizeBytes,
		Enabled:        enabled,
		IsDefault:      req.IsDefault,
	}

	if err := h.service.Upsert(srv); err != nil {
		if errors.Is(err, service.ErrInvalidServer) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "Имя и URL сервера обязательны",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Не удалось сохранить сервер",
		})
	}

	return c.JSON(srv)
}

// Delete удаляет сервер
// @Summary Удалить сервер
// @Description Удаляет сервер из реестра по имени
// @Tags servers
// @Param name path string true "Имя сервера"
// @Success 204 "Сервер удалён"
// @Failure 404 {object} ErrorResponse "Сервер не найден"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/servers/{name} [delete]
func (h *ServerHandler) Delete(c *fiber.Ctx) error {
	name := c.Params("name")

	err := h.service.Delete(name)
	if err != nil {
		if errors.Is(err, service.ErrServerNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "Сервер не найден",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Не удалось удалить сервер",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Test проверяет доступность сервера
// @Summary Проверить подключение
// @Description Выполняет пробный запрос к серверу без записи данных
// @Tags servers
// @Produce json
// @Param name path string true "Имя сервера"
// @Success 200 {object} map[string]string "Сервер доступен"
// @Failure 404 {object} ErrorResponse "Сервер не найден"
// @Failure 502 {object} ErrorResponse "Сервер недоступен"
// @Router /api/v1/servers/{name}/test [post]
func (h *ServerHandler) Test(c *fiber.Ctx) error {
	name := c.Params("name")

	err := h.service.TestConnection(name)
	if err != nil {
		if errors.Is(err, service.ErrServerNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "Сервер не найден",
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Error:   "Сервер недоступен",
			Details: err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
