package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/owskk/EmailFileBackup-Cron/internal/config"
	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
	"github.com/owskk/EmailFileBackup-Cron/internal/service"
)

// SyncHandler — обработчики запуска синхронизации
type SyncHandler struct {
	service   *service.SyncService
	auth      config.AuthConfig
	workerURL string       // Адрес внутреннего воркера
	client    *http.Client // Клиент для fire-and-forget вызова воркера
}

// NewSyncHandler создаёт новый обработчик
// workerURL — полный адрес внутреннего эндпоинта этого же процесса
func NewSyncHandler(svc *service.SyncService, auth config.AuthConfig, workerURL string) *SyncHandler {
	return &SyncHandler{
		service:   svc,
		auth:      auth,
		workerURL: workerURL,
		// Короткий таймаут: ответа воркера мы не ждём
		client: &http.Client{Timeout: 500 * time.Millisecond},
	}
}

// bearerOK проверяет заголовок Authorization
func bearerOK(c *fiber.Ctx, key string) bool {
	return key != "" && c.Get("Authorization") == "Bearer "+key
}

// Trigger запускает синхронизацию асинхронно
// @Summary Запустить синхронизацию
// @Description Проверяет внешний ключ и асинхронно дёргает внутренний воркер. Ответ возвращается сразу, не дожидаясь конца запуска.
// @Tags sync
// @Produce json
// @Param Authorization header string true "Bearer API_SECRET_KEY"
// @Param server query string false "Имя целевого сервера вместо сервера по умолчанию"
// @Success 202 {object} map[string]string "Задача принята"
// @Failure 401 {object} ErrorResponse "Неверный ключ"
// @Failure 500 {object} ErrorResponse "Не удалось запустить воркер"
// @Router /api/run-task [post]
func (h *SyncHandler) Trigger(c *fiber.Ctx) error {
	if !bearerOK(c, h.auth.APISecretKey) {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error: "Неверный или отсутствующий API-ключ",
		})
	}

	target := h.workerURL
	if server := c.Query("server"); server != "" {
		target += "?server=" + url.QueryEscape(server)
	}

	req, err := http.NewRequest(http.MethodPost, target, nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "Не удалось запустить воркер",
			Details: err.Error(),
		})
	}
	req.Header.Set("Authorization", "Bearer "+h.auth.InternalAPIKey)

	// Fire-and-forget: таймаут клиента истечёт раньше, чем воркер
	// закончит работу, и это ожидаемо
	resp, err := h.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if !(errors.As(err, &urlErr) && urlErr.Timeout()) {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error:   "Не удалось запустить воркер",
				Details: err.Error(),
			})
		}
	} else {
		resp.Body.Close()
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":  "accepted",
		"message": "Задача синхронизации запущена",
	})
}

// Worker выполняет запуск синхронизации синхронно
// @Summary Внутренний воркер синхронизации
// @Description Выполняет один запуск целиком. Вызывается только триггером с внутренним ключом.
// @Tags sync
// @Produce json
// @Param Authorization header string true "Bearer INTERNAL_API_KEY"
// @Param server query string false "Имя целевого сервера вместо сервера по умолчанию"
// @Success 200 {object} domain.RunSummary "Сводка запуска"
// @Failure 401 {object} ErrorResponse "Неверный ключ"
// @Failure 500 {object} domain.RunSummary "Запуск прерван фатальной ошибкой"
// @Router /api/internal/worker [post]
func (h *SyncHandler) Worker(c *fiber.Ctx) error {
	if !bearerOK(c, h.auth.InternalAPIKey) {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error: "Неверный или отсутствующий API-ключ",
		})
	}

	summary := h.service.Run(service.RunOptions{
		ServerName: c.Query("server"),
	})

	status := fiber.StatusOK
	if summary.Status == domain.RunAborted {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(summary)
}

// WorkerAddress собирает адрес внутреннего воркера по порту HTTP-сервера
func WorkerAddress(httpPort int) string {
	return fmt.Sprintf("http://127.0.0.1:%d/api/internal/worker", httpPort)
}
