package repository

import (
	"database/sql"
	"fmt"

	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

// ServerRepository — реестр WebDAV-серверов
type ServerRepository struct {
	db *sql.DB
}

// NewServerRepository создаёт новый репозиторий
func NewServerRepository(db *sql.DB) *ServerRepository {
	return &ServerRepository{db: db}
}

// столбцы, общие для всех выборок сервера
const serverColumns = `name, url, login, password, timeout_seconds, chunk_size_bytes, enabled, is_default`

// scanServer читает одну строку результата в структуру
func scanServer(row interface{ Scan(...any) error }) (*domain.ServerConfig, error) {
	srv := &domain.ServerConfig{}
	err := row.Scan(
		&srv.Name,
		&srv.URL,
		&srv.Login,
		&srv.Password,
		&srv.TimeoutSeconds,
		&srv.ChunkSizeBytes,
		&srv.Enabled,
		&srv.IsDefault,
	)
	if err != nil {
		return nil, err
	}
	return srv, nil
}

// GetDefault возвращает включённый сервер по умолчанию или nil
func (r *ServerRepository) GetDefault() (*domain.ServerConfig, error) {
	query := `
        SELECT ` + serverColumns + `
        FROM webdav_servers
        WHERE is_default = TRUE AND enabled = TRUE
    `

	srv, err := scanServer(r.db.QueryRow(query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return srv, nil
}

// GetByName находит сервер по имени или возвращает nil
func (r *ServerRepository) GetByName(name string) (*domain.ServerConfig, error) {
	query := `
        SELECT ` + serverColumns + `
        FROM webdav_servers
        WHERE name = $1
    `

	srv, err := scanServer(r.db.QueryRow(query, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return srv, nil
}

// List возвращает все серверы в алфавитном порядке
func (r *ServerRepository) List() ([]*domain.ServerConfig, error) {
	query := `
        SELECT ` + serverColumns + `
        FROM webdav_servers
        ORDER BY name
    `

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []*domain.ServerConfig
	for rows.Next() {
		srv, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		servers = append(servers, srv)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}

// Upsert создаёт или обновляет сервер по имени
// Инвариант «не больше одного сервера по умолчанию» держится транзакцией:
// перед установкой нового default старый снимается тем же коммитом
func (r *ServerRepository) Upsert(srv *domain.ServerConfig) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	// Rollback после успешного Commit — безобидный no-op
	defer tx.Rollback()

	if srv.IsDefault {
		_, err = tx.Exec(`UPDATE webdav_servers SET is_default = FALSE WHERE is_default = TRUE AND name <> $1`, srv.Name)
		if err != nil {
			return fmt.Errorf("ошибка сброса прежнего сервера по умолчанию: %w", err)
		}
	}

	query := `
        INSERT INTO webdav_servers (name, url, login, password, timeout_seconds, chunk_size_bytes, enabled, is_default)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (name) DO UPDATE
        SET url = EXCLUDED.url,
            login = EXCLUDED.login,
            password = EXCLUDED.password,
            timeout_seconds = EXCLUDED.timeout_seconds,
            chunk_size_bytes = EXCLUDED.chunk_size_bytes,
            enabled = EXCLUDED.enabled,
            is_default = EXCLUDED.is_default
    `

	_, err = tx.Exec(query,
		srv.Name,
		srv.URL,
		srv.Login,
		srv.Password,
		srv.TimeoutSeconds,
		srv.ChunkSizeBytes,
		srv.Enabled,
		srv.IsDefault,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete удаляет сервер по имени
func (r *ServerRepository) Delete(name string) error {
	query := `DELETE FROM webdav_servers WHERE name = $1`
	_, err := r.db.Exec(query, name)
	return err
}

// Count возвращает количество серверов в реестре
// Нужен для идемпотентного первичного заполнения
func (r *ServerRepository) Count() (int, error) {
	query := `SELECT COUNT(*) FROM webdav_servers`

	var count int
	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
