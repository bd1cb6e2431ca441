package handler

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/owskk/EmailFileBackup-Cron/internal/service"
)

// Размер страницы журнала
const logsPerPage = 20

// LogHandler — обработчик чтения журнала выгрузок
type LogHandler struct {
	service *service.AuditService
}

// NewLogHandler создаёт новый обработчик
func NewLogHandler(svc *service.AuditService) *LogHandler {
	return &LogHandler{service: svc}
}

// LogEntryResponse — запись журнала в ответе API
type LogEntryResponse struct {
	ID           int64  `json:"id"`
	Timestamp    string `json:"timestamp"`
	Filename     string `json:"filename"`
	SizeBytes    int64  `json:"size_bytes"`
	SizeReadable string `json:"size_readable"`
	ServerName   string `json:"server_name"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// LogsPageResponse — страница журнала
type LogsPageResponse struct {
	Logs       []LogEntryResponse `json:"logs"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
	Total      int                `json:"total"`
}

// GetLogs возвращает страницу журнала
// @Summary Журнал выгрузок
// @Description Возвращает страницу журнала, новые записи первыми. Параметр q фильтрует по подстроке имени файла.
// @Tags logs
// @Produce json
// @Param page query int false "Номер страницы" default(1)
// @Param q query string false "Подстрока имени файла"
// @Success 200 {object} LogsPageResponse "Страница журнала"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/logs [get]
func (h *LogHandler) GetLogs(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	search := c.Query("q")

	logsPage, err := h.service.GetLogsPage(page, logsPerPage, search)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Не удалось прочитать журнал",
		})
	}

	response := LogsPageResponse{
		Logs:       make([]LogEntryResponse, len(logsPage.Entries)),
		Page:       logsPage.Page,
		TotalPages: logsPage.TotalPages,
		Total:      logsPage.Total,
	}
	for i, entry := range logsPage.Entries {
		response.Logs[i] = LogEntryResponse{
			ID:           entry.ID,
			Timestamp:    entry.Timestamp.Format(time.RFC3339),
			Filename:     entry.Filename,
			SizeBytes:    entry.SizeBytes,
			SizeReadable: formatSize(entry.SizeBytes),
			ServerName:   entry.ServerName,
			Status:       entry.Status,
			ErrorMessage: entry.ErrorMessage,
		}
	}

	return c.JSON(response)
}

// GetStats возвращает статистику выгрузок
// @Summary Статистика сервиса
// @Description Возвращает счётчики журнала по статусам и счётчики процесса
// @Tags logs
// @Produce json
// @Success 200 {object} map[string]interface{} "Статистика"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/stats [get]
func (h *LogHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.service.GetStatistics()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Не удалось собрать статистику",
		})
	}

	lastRun := ""
	if !stats.Runtime.LastRunAt.IsZero() {
		lastRun = stats.Runtime.LastRunAt.Format("2006-01-02 15:04:05")
	}

	return c.JSON(fiber.Map{
		"success_uploads":    stats.SuccessCount,
		"failed_uploads":     stats.FailedCount,
		"skipped_uploads":    stats.SkippedCount,
		"total_runs":         stats.Runtime.TotalRuns,
		"skipped_runs":       stats.Runtime.SkippedRuns,
		"aborted_runs":       stats.Runtime.AbortedRuns,
		"processed_messages": stats.Runtime.ProcessedMessages,
		"last_run_at":        lastRun,
		"last_run_status":    stats.Runtime.LastRunStatus,
	})
}

// formatSize переводит байты в читаемый вид (KB, MB, GB)
func formatSize(sizeBytes int64) string {
	const unit = 1024
	if sizeBytes < unit {
		return fmt.Sprintf("%d B", sizeBytes)
	}

	div, exp := int64(unit), 0
	for n := sizeBytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.2f %s", float64(sizeBytes)/float64(div), units[exp])
}
