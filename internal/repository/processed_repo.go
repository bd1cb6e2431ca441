package repository

import (
	"database/sql"
	"time"

	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

// ProcessedRepository — реестр уже обработанных писем
type ProcessedRepository struct {
	db *sql.DB
}

// NewProcessedRepository создаёт новый репозиторий
func NewProcessedRepository(db *sql.DB) *ProcessedRepository {
	return &ProcessedRepository{db: db}
}

// Contains проверяет, обрабатывалось ли письмо с данным UID
func (r *ProcessedRepository) Contains(uid uint32) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM processed_messages WHERE message_uid = $1)`

	var exists bool
	err := r.db.QueryRow(query, int64(uid)).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// Add фиксирует письмо как обработанное
// Повторная вставка того же UID не ошибка: два пересёкшихся запуска
// могут дойти сюда с одним письмом, побеждает первая запись
func (r *ProcessedRepository) Add(uid uint32, outcome string) error {
	query := `
        INSERT INTO processed_messages (message_uid, processed_at, outcome)
        VALUES ($1, NOW(), $2)
        ON CONFLICT (message_uid) DO NOTHING
    `

	_, err := r.db.Exec(query, int64(uid), outcome)
	return err
}

// Get возвращает запись реестра или nil, если письма там нет
func (r *ProcessedRepository) Get(uid uint32) (*domain.ProcessedRecord, error) {
	query := `
        SELECT message_uid, processed_at, outcome
        FROM processed_messages
        WHERE message_uid = $1
    `

	rec := &domain.ProcessedRecord{}
	var dbUID int64
	var processedAt time.Time
	err := r.db.QueryRow(query, int64(uid)).Scan(&dbUID, &processedAt, &rec.Outcome)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.MessageUID = uint32(dbUID)
	rec.ProcessedAt = processedAt
	return rec, nil
}

// Count возвращает количество обработанных писем
func (r *ProcessedRepository) Count() (int, error) {
	query := `SELECT COUNT(*) FROM processed_messages`

	var count int
	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
