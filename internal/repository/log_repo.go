package repository

import (
	"database/sql"

	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

// LogRepository — журнал попыток выгрузки вложений
// Записи только добавляются и никогда не изменяются
type LogRepository struct {
	db *sql.DB
}

// NewLogRepository создаёт новый репозиторий
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Append добавляет одну запись журнала
func (r *LogRepository) Append(entry *domain.LogEntry) error {
	query := `
        INSERT INTO upload_logs (filename, size_bytes, server_name, status, error_message)
        VALUES ($1, $2, $3, $4, $5)
    `

	_, err := r.db.Exec(query,
		entry.Filename,
		entry.SizeBytes,
		entry.ServerName,
		entry.Status,
		entry.ErrorMessage,
	)

	return err
}

// GetPaginated возвращает страницу журнала, новые записи первыми
// search фильтрует по подстроке имени файла; пустая строка — без фильтра
func (r *LogRepository) GetPaginated(page, perPage int, search string) ([]*domain.LogEntry, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	query := `
        SELECT id, timestamp, filename, size_bytes, server_name, status, error_message
        FROM upload_logs
        WHERE ($1 = '' OR filename ILIKE '%' || $1 || '%')
        ORDER BY timestamp DESC
        LIMIT $2 OFFSET $3
    `

	rows, err := r.db.Query(query, search, perPage, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LogEntry
	for rows.Next() {
		entry := &domain.LogEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.Filename,
			&entry.SizeBytes,
			&entry.ServerName,
			&entry.Status,
			&entry.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// CountTotal возвращает общее число записей с учётом фильтра
func (r *LogRepository) CountTotal(search string) (int, error) {
	query := `
        SELECT COUNT(*)
        FROM upload_logs
        WHERE ($1 = '' OR filename ILIKE '%' || $1 || '%')
    `

	var count int
	err := r.db.QueryRow(query, search).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CountByStatus возвращает число записей с указанным статусом
// Используется панелью для статистики успешности
func (r *LogRepository) CountByStatus(status string) (int, error) {
	query := `SELECT COUNT(*) FROM upload_logs WHERE status = $1`

	var count int
	err := r.db.QueryRow(query, status).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
