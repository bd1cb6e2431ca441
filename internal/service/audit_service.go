package service

import (
	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

// LogReader — читающая сторона журнала выгрузок
type LogReader interface {
	GetPaginated(page, perPage int, search string) ([]*domain.LogEntry, error)
	CountTotal(search string) (int, error)
	CountByStatus(status string) (int, error)
}

// AuditService — сервис чтения журнала для панели
type AuditService struct {
	logs  LogReader
	stats *Stats
}

// NewAuditService создаёт новый сервис
func NewAuditService(logs LogReader, stats *Stats) *AuditService {
	return &AuditService{logs: logs, stats: stats}
}

// LogsPage — одна страница журнала
type LogsPage struct {
	Entries    []*domain.LogEntry // Записи страницы
	Page       int                // Номер страницы (от 1)
	TotalPages int                // Всего страниц с учётом фильтра
	Total      int                // Всего записей с учётом фильтра
}

// GetLogsPage возвращает страницу журнала с фильтром по имени файла
func (s *AuditService) GetLogsPage(page, perPage int, search string) (*LogsPage, error) {
	if page < 1 {
		page = 1
	}

	entries, err := s.logs.GetPaginated(page, perPage, search)
	if err != nil {
		return nil, err
	}

	total, err := s.logs.CountTotal(search)
	if err != nil {
		return nil, err
	}

	totalPages := (total + perPage - 1) / perPage

	return &LogsPage{
		Entries:    entries,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}, nil
}

// Statistics — сводная статистика для панели
type Statistics struct {
	SuccessCount int           // Записей со статусом success
	FailedCount  int           // Записей со статусом failed
	SkippedCount int           // Записей со статусом skipped
	Runtime      StatsSnapshot // Счётчики процесса с момента старта
}

// GetStatistics собирает статистику журнала и счётчики процесса
func (s *AuditService) GetStatistics() (*Statistics, error) {
	success, err := s.logs.CountByStatus(domain.LogStatusSuccess)
	if err != nil {
		return nil, err
	}
	failed, err := s.logs.CountByStatus(domain.LogStatusFailed)
	if err != nil {
		return nil, err
	}
	skipped, err := s.logs.CountByStatus(domain.LogStatusSkipped)
	if err != nil {
		return nil, err
	}

	return &Statistics{
		SuccessCount: success,
		FailedCount:  failed,
		SkippedCount: skipped,
		Runtime:      s.stats.GetStats(),
	}, nil
}
