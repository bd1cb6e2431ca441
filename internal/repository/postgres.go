package repository

import (
	"database/sql"
	"fmt"

	// Импортируем драйвер PostgreSQL
	_ "github.com/lib/pq"

	"github.com/owskk/EmailFileBackup-Cron/internal/config"
)

// PostgresDB — обёртка над подключением к PostgreSQL
type PostgresDB struct {
	DB *sql.DB // Стандартный интерфейс Go для работы с БД
}

// NewPostgresDB создаёт новое подключение к PostgreSQL
func NewPostgresDB(cfg config.DatabaseConfig) (*PostgresDB, error) {
	// Формируем строку подключения
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	// Открываем соединение с базой данных
	// sql.Open не устанавливает соединение сразу, только проверяет параметры
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}

	// Проверяем, что соединение работает
	// Ping отправляет запрос к БД и ждёт ответа
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Ограничиваем пул соединений: все операции движка — одиночные
	// атомарные запросы, большой пул не нужен
	db.SetMaxOpenConns(5)

	return &PostgresDB{DB: db}, nil
}

// InitSchema создаёт таблицы и индексы, если их ещё нет
// Вызывается один раз при старте приложения
func (p *PostgresDB) InitSchema() error {
	statements := []string{
		// Журнал выгрузок — только дописывается
		`CREATE TABLE IF NOT EXISTS upload_logs (
			id BIGSERIAL PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			filename VARCHAR(255) NOT NULL,
			size_bytes BIGINT NOT NULL,
			server_name VARCHAR(255) NOT NULL,
			status VARCHAR(50) NOT NULL,
			error_message TEXT NOT NULL DEFAULT ''
		)`,
		// Реестр обработанных писем — источник истины идемпотентности
		`CREATE TABLE IF NOT EXISTS processed_messages (
			message_uid BIGINT PRIMARY KEY,
			processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			outcome VARCHAR(50) NOT NULL
		)`,
		// Блокировки запусков с истечением срока
		`CREATE TABLE IF NOT EXISTS run_locks (
			lock_name VARCHAR(255) PRIMARY KEY,
			holder_id VARCHAR(64) NOT NULL,
			acquired_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		// Реестр WebDAV-серверов
		`CREATE TABLE IF NOT EXISTS webdav_servers (
			name VARCHAR(255) PRIMARY KEY,
			url TEXT NOT NULL,
			login VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			timeout_seconds INT NOT NULL,
			chunk_size_bytes INT NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			is_default BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		// Индексы под типовые запросы панели
		`CREATE INDEX IF NOT EXISTS idx_upload_logs_timestamp ON upload_logs (timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_upload_logs_filename ON upload_logs (filename)`,
		`CREATE INDEX IF NOT EXISTS idx_upload_logs_status ON upload_logs (status)`,
	}

	for _, stmt := range statements {
		if _, err := p.DB.Exec(stmt); err != nil {
			return fmt.Errorf("ошибка инициализации схемы: %w", err)
		}
	}

	return nil
}

// Close закрывает соединение с базой данных
func (p *PostgresDB) Close() error {
	return p.DB.Close()
}
