package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config — главная структура конфигурации приложения
// Все поля заполняются из переменных окружения
type Config struct {
	Server   ServerConfig   // Настройки HTTP-сервера
	Database DatabaseConfig // Настройки базы данных
	IMAP     IMAPConfig     // Настройки почтового ящика
	Sync     SyncConfig     // Настройки задачи синхронизации
	Upload   UploadConfig   // Настройки выгрузки на WebDAV
	Auth     AuthConfig     // Ключи и пароли API
}

// ServerConfig — настройки HTTP-сервера
type ServerConfig struct {
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"` // Порт HTTP сервера
}

// DatabaseConfig — настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`  // Адрес сервера БД
	Port     int    `envconfig:"DB_PORT" default:"5432"`       // Порт БД
	Name     string `envconfig:"DB_NAME" default:"mailbridge"` // Имя базы данных
	User     string `envconfig:"DB_USER" default:"postgres"`   // Пользователь БД
	Password string `envconfig:"DB_PASSWORD" required:"true"`  // Пароль БД (обязательный)
}

// IMAPConfig — параметры подключения к почтовому серверу
type IMAPConfig struct {
	Hostname string `envconfig:"IMAP_HOSTNAME" required:"true"` // Адрес IMAP-сервера (host:port)
	Username string `envconfig:"IMAP_USERNAME" required:"true"` // Логин почтового ящика
	Password string `envconfig:"IMAP_PASSWORD" required:"true"` // Пароль почтового ящика
	Mailbox  string `envconfig:"IMAP_MAILBOX" default:"INBOX"`  // Папка для поиска писем
}

// SyncConfig — параметры одного запуска синхронизации
type SyncConfig struct {
	SearchSubject       string        `envconfig:"EMAIL_SEARCH_SUBJECT" required:"true"` // Ключевое слово в теме письма
	MaxAttachmentSizeMB int           `envconfig:"MAX_ATTACHMENT_SIZE_MB" default:"50"`  // Макс. размер вложения (МБ)
	MaxEmailsPerRun     int           `envconfig:"MAX_EMAILS_PER_RUN" default:"10"`      // Макс. писем за один запуск
	LockTTL             time.Duration `envconfig:"LOCK_TTL" default:"10m"`               // Время жизни блокировки запуска
}

// UploadConfig — политика выгрузки вложений
type UploadConfig struct {
	RetryCount int           `envconfig:"UPLOAD_RETRY_COUNT" default:"3"`  // Количество повторных попыток
	RetryDelay time.Duration `envconfig:"UPLOAD_RETRY_DELAY" default:"5s"` // Начальная задержка между попытками
	Servers    string        `envconfig:"WEBDAV_SERVERS"`                  // JSON с начальным списком серверов
}

// AuthConfig — ключи доступа к API
type AuthConfig struct {
	APISecretKey    string `envconfig:"API_SECRET_KEY" required:"true"`    // Ключ внешнего триггера
	InternalAPIKey  string `envconfig:"INTERNAL_API_KEY" required:"true"`  // Ключ внутреннего воркера
	WebAuthUser     string `envconfig:"WEB_AUTH_USER" default:"admin"`     // Логин панели просмотра
	WebAuthPassword string `envconfig:"WEB_AUTH_PASSWORD" required:"true"` // Пароль панели просмотра
}

// MaxAttachmentSizeBytes возвращает лимит размера вложения в байтах
func (c SyncConfig) MaxAttachmentSizeBytes() int64 {
	return int64(c.MaxAttachmentSizeMB) * 1024 * 1024
}

// Load загружает конфигурацию из переменных окружения
// Сначала пытается прочитать файл .env, затем читает переменные окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл
	// Если файла нет — не страшно, будем читать из системных переменных
	_ = godotenv.Load()

	// Создаём пустую структуру конфигурации
	var cfg Config

	// Заполняем структуру из переменных окружения
	// Если обязательное поле отсутствует — вернётся ошибка
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	// Числовые лимиты обязаны быть положительными
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate проверяет корректность числовых лимитов
func (c *Config) validate() error {
	if c.Sync.MaxAttachmentSizeMB <= 0 {
		return fmt.Errorf("MAX_ATTACHMENT_SIZE_MB должен быть положительным, получено %d", c.Sync.MaxAttachmentSizeMB)
	}
	if c.Sync.MaxEmailsPerRun <= 0 {
		return fmt.Errorf("MAX_EMAILS_PER_RUN должен быть положительным, получено %d", c.Sync.MaxEmailsPerRun)
	}
	if c.Sync.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL должен быть положительным, получено %s", c.Sync.LockTTL)
	}
	if c.Upload.RetryCount < 0 {
		return fmt.Errorf("UPLOAD_RETRY_COUNT не может быть отрицательным, получено %d", c.Upload.RetryCount)
	}
	return nil
}
