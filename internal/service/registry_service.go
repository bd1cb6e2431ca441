package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

// Ошибки реестра серверов
var (
	ErrNoServerConfigured = errors.New("не настроен ни один сервер по умолчанию")
	ErrServerNotFound     = errors.New("сервер не найден")
	ErrInvalidServer      = errors.New("некорректное описание сервера")
)

// ServerStore — хранилище реестра серверов
type ServerStore interface {
	GetDefault() (*domain.ServerConfig, error)
	GetByName(name string) (*domain.ServerConfig, error)
	List() ([]*domain.ServerConfig, error)
	Upsert(srv *domain.ServerConfig) error
	Delete(name string) error
	Count() (int, error)
}

// ConnectionTester проверяет доступность сервера без записи данных
type ConnectionTester interface {
	TestConnection(srv *domain.ServerConfig) error
}

// RegistryService — сервис реестра WebDAV-серверов
// Отвечает на вопрос «куда выгружать» и держит инварианты реестра
type RegistryService struct {
	repo   ServerStore
	tester ConnectionTester
}

// NewRegistryService создаёт новый сервис
func NewRegistryService(repo ServerStore, tester ConnectionTester) *RegistryService {
	return &RegistryService{repo: repo, tester: tester}
}

// ResolveDefault возвращает включённый сервер по умолчанию
func (s *RegistryService) ResolveDefault() (*domain.ServerConfig, error) {
	srv, err := s.repo.GetDefault()
	if err != nil {
		return nil, err
	}
	if srv == nil {
		return nil, ErrNoServerConfigured
	}

	return srv, nil
}

// ResolveByName возвращает сервер по имени
func (s *RegistryService) ResolveByName(name string) (*domain.ServerConfig, error) {
	srv, err := s.repo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if srv == nil {
		return nil, ErrServerNotFound
	}

	return srv, nil
}

// List возвращает все серверы реестра
func (s *RegistryService) List() ([]*domain.ServerConfig, error) {
	return s.repo.List()
}

// Upsert создаёт или обновляет сервер
// Уникальность имени и единственность default обеспечивает хранилище
func (s *RegistryService) Upsert(srv *domain.ServerConfig) error {
	if srv.Name == "" || srv.URL == "" {
		return ErrInvalidServer
	}
	srv.Normalize()

	return s.repo.Upsert(srv)
}

// Delete удаляет сервер по имени
func (s *RegistryService) Delete(name string) error {
	srv, err := s.repo.GetByName(name)
	if err != nil {
		return err
	}
	if srv == nil {
		return ErrServerNotFound
	}

	return s.repo.Delete(name)
}

// TestConnection проверяет доступность сервера по имени
func (s *RegistryService) TestConnection(name string) error {
	srv, err := s.ResolveByName(name)
	if err != nil {
		return err
	}

	return s.tester.TestConnection(srv)
}

// Seed один раз заполняет пустой реестр серверами из конфигурации
// Повторные старты приложения реестр не трогают, чтобы не затереть
// правки оператора; первый сервер списка становится default
func (s *RegistryService) Seed(seedJSON string) error {
	count, err := s.repo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		// Реестр уже заполнен — начальная загрузка не повторяется
		return nil
	}
	if seedJSON == "" {
		return nil
	}

	var seeds []domain.SeedServer
	if err := json.Unmarshal([]byte(seedJSON), &seeds); err != nil {
		return fmt.Errorf("разбор WEBDAV_SERVERS: %w", err)
	}

	for i, seed := range seeds {
		srv := &domain.ServerConfig{
			Name:           seed.Name,
			URL:            seed.URL,
			Login:          seed.Login,
			Password:       seed.Password,
			TimeoutSeconds: seed.Timeout,
			ChunkSizeBytes: seed.ChunkSize,
			Enabled:        true,
			IsDefault:      i == 0,
		}

		if err := s.Upsert(srv); err != nil {
			return fmt.Errorf("начальная загрузка сервера %q: %w", seed.Name, err)
		}
		log.Printf("Реестр: добавлен сервер %q (default=%v)", srv.Name, srv.IsDefault)
	}

	return nil
}
