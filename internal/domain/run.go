package domain

import (
	"time"
)

// Статусы запуска синхронизации
const (
	RunCompleted   = "completed"    // Запуск отработал свою партию писем
	RunSkippedBusy = "skipped_busy" // Другой запуск ещё активен, работа не выполнялась
	RunAborted     = "aborted"      // Запуск прерван фатальной ошибкой (ящик или реестр)
)

// RunSummary — итог одного запуска синхронизации
type RunSummary struct {
	Status       string        `json:"status"`          // completed / skipped_busy / aborted
	Messages     int           `json:"messages"`        // Обработано писем
	Uploaded     int           `json:"uploaded"`        // Выгружено вложений
	Skipped      int           `json:"skipped"`         // Пропущено вложений (размер)
	Failed       int           `json:"failed"`          // Вложений с терминальной ошибкой
	Retried      int           `json:"retried"`         // Писем, оставленных на повтор
	Elapsed      time.Duration `json:"-"`               // Длительность запуска
	ElapsedHuman string        `json:"elapsed"`         // Длительность в читаемом виде
	Error        string        `json:"error,omitempty"` // Текст фатальной ошибки запуска
}
