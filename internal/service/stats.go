package service

import (
	"sync"
	"time"

	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

// Stats хранит счётчики работы движка с момента старта процесса
type Stats struct {
	mu                sync.RWMutex
	totalRuns         int64
	skippedRuns       int64
	abortedRuns       int64
	processedMessages int64
	uploadedFiles     int64
	skippedFiles      int64
	failedFiles       int64
	lastRunAt         time.Time
	lastRunStatus     string
}

// StatsSnapshot — моментальный срез счётчиков без мьютекса
type StatsSnapshot struct {
	TotalRuns         int64     // Всего запусков
	SkippedRuns       int64     // Запусков, пропущенных из-за блокировки
	AbortedRuns       int64     // Запусков, прерванных фатальной ошибкой
	ProcessedMessages int64     // Всего обработано писем
	UploadedFiles     int64     // Всего выгружено вложений
	SkippedFiles      int64     // Всего пропущено вложений
	FailedFiles       int64     // Всего вложений с ошибкой
	LastRunAt         time.Time // Время последнего запуска
	LastRunStatus     string    // Статус последнего запуска
}

// RecordRun учитывает итог одного запуска
func (s *Stats) RecordRun(summary *domain.RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRuns++
	switch summary.Status {
	case domain.RunSkippedBusy:
		s.skippedRuns++
	case domain.RunAborted:
		s.abortedRuns++
	}

	s.processedMessages += int64(summary.Messages)
	s.uploadedFiles += int64(summary.Uploaded)
	s.skippedFiles += int64(summary.Skipped)
	s.failedFiles += int64(summary.Failed)
	s.lastRunAt = time.Now()
	s.lastRunStatus = summary.Status
}

// GetStats возвращает срез статистики
func (s *Stats) GetStats() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatsSnapshot{
		TotalRuns:         s.totalRuns,
		SkippedRuns:       s.skippedRuns,
		AbortedRuns:       s.abortedRuns,
		ProcessedMessages: s.processedMessages,
		UploadedFiles:     s.uploadedFiles,
		SkippedFiles:      s.skippedFiles,
		FailedFiles:       s.failedFiles,
		LastRunAt:         s.lastRunAt,
		LastRunStatus:     s.lastRunStatus,
	}
}
