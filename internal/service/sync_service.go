package service

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/owskk/EmailFileBackup-Cron/internal/config"
	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
	"github.com/owskk/EmailFileBackup-Cron/internal/mailbox"
	"github.com/owskk/EmailFileBackup-Cron/internal/webdav"
)

// Имя блокировки запуска в БД
const runLockName = "mail_sync_run"

// LockStore — долговременная блокировка запуска
type LockStore interface {
	Acquire(lockName, holderID string, ttl time.Duration) (bool, error)
	Release(lockName, holderID string) error
}

// ProcessedStore — реестр обработанных писем
type ProcessedStore interface {
	Contains(uid uint32) (bool, error)
	Add(uid uint32, outcome string) error
}

// LogStore — журнал попыток выгрузки
type LogStore interface {
	Append(entry *domain.LogEntry) error
}

// Uploader переносит вложение на выбранный сервер
type Uploader interface {
	Upload(att *domain.Attachment, srv *domain.ServerConfig) (string, error)
}

// MailSession — одна открытая сессия почтового ящика
type MailSession interface {
	Candidates(keyword string, limit int, processed func(uint32) (bool, error)) ([]*domain.MailMessage, error)
	MarkSeen(uid uint32) error
	Close()
}

// MailSource открывает сессии почтового ящика
type MailSource interface {
	Connect() (MailSession, error)
}

// SyncService — оркестратор запуска синхронизации
//
// Один запуск: взять блокировку → отобрать кандидатов → для каждого
// вложения выгрузить и записать журнал → отметить письмо в реестре →
// снять блокировку → вернуть сводку. Блокировка снимается на любом
// пути выхода
type SyncService struct {
	locks    LockStore
	ledger   ProcessedStore
	logs     LogStore
	registry *RegistryService
	uploader Uploader
	mail     MailSource
	cfg      config.SyncConfig
	stats    *Stats
}

// NewSyncService создаёт новый оркестратор
func NewSyncService(
	locks LockStore,
	ledger ProcessedStore,
	logs LogStore,
	registry *RegistryService,
	uploader Uploader,
	mail MailSource,
	cfg config.SyncConfig,
	stats *Stats,
) *SyncService {
	return &SyncService{
		locks:    locks,
		ledger:   ledger,
		logs:     logs,
		registry: registry,
		uploader: uploader,
		mail:     mail,
		cfg:      cfg,
		stats:    stats,
	}
}

// RunOptions — параметры одного запуска
type RunOptions struct {
	ServerName string // Явный выбор сервера; пусто — сервер по умолчанию
}

// Run выполняет один запуск синхронизации и возвращает сводку
//
// Отказ взять блокировку — не ошибка: значит, другой запуск ещё
// работает, и этот выходит сразу со статусом skipped_busy
func (s *SyncService) Run(opts RunOptions) *domain.RunSummary {
	started := time.Now()
	summary := &domain.RunSummary{Status: domain.RunCompleted}

	// Каждый запуск — отдельный держатель блокировки
	holderID := uuid.New().String()

	granted, err := s.locks.Acquire(runLockName, holderID, s.cfg.LockTTL)
	if err != nil {
		return s.finish(summary, domain.RunAborted, err, started)
	}
	if !granted {
		log.Println("Синхронизация: другой запуск ещё активен, выходим")
		return s.finish(summary, domain.RunSkippedBusy, nil, started)
	}
	// Блокировка снимается на каждом пути выхода, включая панику
	// в обработке писем (её погасит recover выше по стеку)
	defer func() {
		if err := s.locks.Release(runLockName, holderID); err != nil {
			log.Printf("Синхронизация: не удалось снять блокировку: %v", err)
		}
	}()

	// Выбираем целевой сервер один раз на весь запуск
	server, err := s.resolveServer(opts)
	if err != nil {
		return s.finish(summary, domain.RunAborted, err, started)
	}

	session, err := s.mail.Connect()
	if err != nil {
		// Ошибка аутентификации ящика фатальна: письма недоступны,
		// реестр не трогаем
		return s.finish(summary, domain.RunAborted, err, started)
	}
	defer session.Close()

	messages, err := session.Candidates(s.cfg.SearchSubject, s.cfg.MaxEmailsPerRun, s.ledger.Contains)
	if err != nil {
		return s.finish(summary, domain.RunAborted, err, started)
	}

	log.Printf("Синхронизация: отобрано %d писем (ключевое слово %q)", len(messages), s.cfg.SearchSubject)

	for _, msg := range messages {
		s.processMessage(session, msg, server, summary)
	}

	return s.finish(summary, domain.RunCompleted, nil, started)
}

// resolveServer выбирает целевой сервер запуска
func (s *SyncService) resolveServer(opts RunOptions) (*domain.ServerConfig, error) {
	if opts.ServerName != "" {
		return s.registry.ResolveByName(opts.ServerName)
	}
	return s.registry.ResolveDefault()
}

// processMessage обрабатывает все вложения одного письма
//
// Сбой одного вложения не прерывает соседние: каждое вложение —
// самостоятельная единица работы. Письмо попадает в реестр и
// помечается прочитанным только когда каждое его вложение дошло до
// терминального исхода; временный сбой оставляет письмо на повтор
func (s *SyncService) processMessage(session MailSession, msg *domain.MailMessage, server *domain.ServerConfig, summary *domain.RunSummary) {
	log.Printf("[UID %d] обработка письма %q, вложений: %d", msg.UID, msg.Subject, len(msg.Attachments))

	maxSize := s.cfg.MaxAttachmentSizeBytes()
	uploaded, skipped, failed := 0, 0, 0
	retryLater := false

	for _, att := range msg.Attachments {
		att := att

		// Лимит размера проверяется до передачи байтов
		if att.SizeBytes > maxSize {
			log.Printf("[UID %d] вложение %q превышает лимит (%d байт), пропуск", msg.UID, att.Filename, att.SizeBytes)
			s.appendLog(&domain.LogEntry{
				Filename:     att.Filename,
				SizeBytes:    att.SizeBytes,
				ServerName:   server.Name,
				Status:       domain.LogStatusSkipped,
				ErrorMessage: "превышен лимит размера вложения",
			})
			skipped++
			continue
		}

		remotePath, err := s.uploader.Upload(&att, server)
		if err == nil {
			log.Printf("[UID %d] вложение %q выгружено: %s", msg.UID, att.Filename, remotePath)
			s.appendLog(&domain.LogEntry{
				Filename:   att.Filename,
				SizeBytes:  att.SizeBytes,
				ServerName: server.Name,
				Status:     domain.LogStatusSuccess,
			})
			uploaded++
			continue
		}

		// Любой исход фиксируется ровно одной записью журнала:
		// вложение не может исчезнуть без следа
		log.Printf("[UID %d] вложение %q не выгружено: %v", msg.UID, att.Filename, err)
		s.appendLog(&domain.LogEntry{
			Filename:     att.Filename,
			SizeBytes:    att.SizeBytes,
			ServerName:   server.Name,
			Status:       domain.LogStatusFailed,
			ErrorMessage: err.Error(),
		})
		failed++

		var uploadErr *webdav.UploadError
		if errors.As(err, &uploadErr) && uploadErr.Transient {
			// Повторы исчерпаны, но сбой временный: письмо
			// остаётся непрочитанным и ждёт следующего запуска
			retryLater = true
		}
	}

	summary.Uploaded += uploaded
	summary.Skipped += skipped
	summary.Failed += failed

	if retryLater {
		summary.Retried++
		log.Printf("[UID %d] временный сбой, письмо будет обработано повторно", msg.UID)
		return
	}

	// Все вложения дошли до терминального исхода — фиксируем письмо
	outcome := messageOutcome(uploaded, skipped, failed)
	if err := s.ledger.Add(msg.UID, outcome); err != nil {
		// Без записи в реестре письмо нельзя помечать прочитанным:
		// реестр — источник истины идемпотентности
		log.Printf("[UID %d] ошибка записи в реестр: %v", msg.UID, err)
		summary.Retried++
		return
	}

	if err := session.MarkSeen(msg.UID); err != nil {
		// Флаг в ящике вторичен: реестр уже защищает от повтора
		log.Printf("[UID %d] не удалось пометить письмо прочитанным: %v", msg.UID, err)
	}

	summary.Messages++
	log.Printf("[UID %d] письмо обработано, итог: %s", msg.UID, outcome)
}

// messageOutcome сводит исходы вложений письма к итогу для реестра
func messageOutcome(uploaded, skipped, failed int) string {
	switch {
	case failed > 0:
		return "partial"
	case uploaded == 0 && skipped > 0:
		return "skipped"
	default:
		return "success"
	}
}

// appendLog пишет запись журнала
// Сбой журнала не прерывает запуск, но попадает в лог процесса
func (s *SyncService) appendLog(entry *domain.LogEntry) {
	entry.Timestamp = time.Now()
	if err := s.logs.Append(entry); err != nil {
		log.Printf("Синхронизация: ошибка записи журнала для %q: %v", entry.Filename, err)
	}
}

// finish заполняет сводку и отдаёт её вызывающему
func (s *SyncService) finish(summary *domain.RunSummary, status string, err error, started time.Time) *domain.RunSummary {
	summary.Status = status
	if err != nil {
		summary.Error = err.Error()
		log.Printf("Синхронизация: запуск прерван: %v", err)
	}
	summary.Elapsed = time.Since(started)
	summary.ElapsedHuman = summary.Elapsed.Round(time.Millisecond).String()

	if s.stats != nil {
		s.stats.RecordRun(summary)
	}

	return summary
}

// защита от случайного несоответствия интерфейсу
var _ MailSession = (*mailbox.Session)(nil)
