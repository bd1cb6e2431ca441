package domain

import (
	"time"
)

// ProcessedRecord — отметка об уже обработанном письме
// Наличие записи — единственный источник истины против повторной обработки,
// флаг «прочитано» в самом ящике считается лишь вспомогательным сигналом
type ProcessedRecord struct {
	MessageUID  uint32    `json:"message_uid"`  // UID письма (уникален)
	ProcessedAt time.Time `json:"processed_at"` // Когда письмо было обработано
	Outcome     string    `json:"outcome"`      // Итог обработки (success, partial, skipped)
}

// Статусы записи журнала выгрузок
const (
	LogStatusSuccess = "success" // Вложение выгружено
	LogStatusFailed  = "failed"  // Выгрузка завершилась терминальной ошибкой
	LogStatusSkipped = "skipped" // Вложение пропущено (превышен лимит размера)
)

// LogEntry — запись журнала о попытке выгрузки одного вложения
// Журнал только дописывается, записи никогда не изменяются
type LogEntry struct {
	ID           int64     `json:"id"`                      // Идентификатор записи
	Timestamp    time.Time `json:"timestamp"`               // Время попытки
	Filename     string    `json:"filename"`                // Имя файла
	SizeBytes    int64     `json:"size_bytes"`              // Размер файла
	ServerName   string    `json:"server_name"`             // Имя целевого сервера
	Status       string    `json:"status"`                  // success / failed / skipped
	ErrorMessage string    `json:"error_message,omitempty"` // Текст ошибки для диагностики
}
