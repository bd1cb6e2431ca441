package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

// Фейковые хранилища в памяти для тестов оркестратора —
// те же контракты, что у репозиториев на PostgreSQL

// memoryLockStore — блокировка запуска в памяти
type memoryLockStore struct {
	mu      sync.Mutex
	holder  string
	expires time.Time
}

func (s *memoryLockStore) Acquire(lockName, holderID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Живую чужую блокировку перехватить нельзя
	if s.holder != "" && time.Now().Before(s.expires) {
		return false, nil
	}

	s.holder = holderID
	s.expires = time.Now().Add(ttl)
	return true, nil
}

func (s *memoryLockStore) Release(lockName, holderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.holder == holderID && time.Now().Before(s.expires) {
		s.holder = ""
		s.expires = time.Time{}
	}
	return nil
}

func (s *memoryLockStore) held() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holder != "" && time.Now().Before(s.expires)
}

// memoryLedger — реестр обработанных писем в памяти
type memoryLedger struct {
	mu      sync.Mutex
	records map[uint32]string
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{records: make(map[uint32]string)}
}

func (l *memoryLedger) Contains(uid uint32) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.records[uid]
	return ok, nil
}

func (l *memoryLedger) Add(uid uint32, outcome string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.records[uid]; !ok {
		l.records[uid] = outcome
	}
	return nil
}

func (l *memoryLedger) outcome(uid uint32) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records[uid]
}

func (l *memoryLedger) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// memoryLogStore — журнал выгрузок в памяти
type memoryLogStore struct {
	mu      sync.Mutex
	entries []*domain.LogEntry
}

func (s *memoryLogStore) Append(entry *domain.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *entry
	s.entries = append(s.entries, &copied)
	return nil
}

func (s *memoryLogStore) byStatus(status string) []*domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.LogEntry
	for _, e := range s.entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

func (s *memoryLogStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// memoryServerStore — реестр серверов в памяти
// Инвариант единственного default повторяет SQL-репозиторий
type memoryServerStore struct {
	mu      sync.Mutex
	servers map[string]*domain.ServerConfig
}

func newMemoryServerStore() *memoryServerStore {
	return &memoryServerStore{servers: make(map[string]*domain.ServerConfig)}
}

func (s *memoryServerStore) GetDefault() (*domain.ServerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, srv := range s.servers {
		if srv.IsDefault && srv.Enabled {
			copied := *srv
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memoryServerStore) GetByName(name string) (*domain.ServerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	srv, ok := s.servers[name]
	if !ok {
		return nil, nil
	}
	copied := *srv
	return &copied, nil
}

func (s *memoryServerStore) List() ([]*domain.ServerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ServerConfig
	for _, srv := range s.servers {
		copied := *srv
		out = append(out, &copied)
	}
	return out, nil
}

func (s *memoryServerStore) Upsert(srv *domain.ServerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if srv.IsDefault {
		for _, other := range s.servers {
			if other.Name != srv.Name {
				other.IsDefault = false
			}
		}
	}
	copied := *srv
	s.servers[srv.Name] = &copied
	return nil
}

func (s *memoryServerStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.servers, name)
	return nil
}

func (s *memoryServerStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.servers), nil
}

// fakeUploader — загрузчик с программируемыми исходами по имени файла
type fakeUploader struct {
	mu       sync.Mutex
	failWith map[string]error // имя файла → ошибка выгрузки
	uploads  []string         // имена успешно выгруженных файлов
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{failWith: make(map[string]error)}
}

func (u *fakeUploader) Upload(att *domain.Attachment, srv *domain.ServerConfig) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err, ok := u.failWith[att.Filename]; ok {
		return "", err
	}
	u.uploads = append(u.uploads, att.Filename)
	return srv.URL + "/" + att.Filename, nil
}

func (u *fakeUploader) TestConnection(srv *domain.ServerConfig) error {
	return nil
}

// fakeMailSource — почтовый ящик в памяти
type fakeMailSource struct {
	messages   []*domain.MailMessage
	seen       map[uint32]bool
	connectErr error
}

func newFakeMailSource(messages ...*domain.MailMessage) *fakeMailSource {
	return &fakeMailSource{
		messages: messages,
		seen:     make(map[uint32]bool),
	}
}

func (m *fakeMailSource) Connect() (MailSession, error) {
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	return &fakeMailSession{source: m}, nil
}

// fakeMailSession применяет то же правило отбора, что и настоящий сканер:
// непрочитанное письмо, тема с ключевым словом, UID не в реестре
type fakeMailSession struct {
	source *fakeMailSource
}

func (s *fakeMailSession) Candidates(keyword string, limit int, processed func(uint32) (bool, error)) ([]*domain.MailMessage, error) {
	var out []*domain.MailMessage
	for _, msg := range s.source.messages {
		if len(out) >= limit {
			break
		}
		if s.source.seen[msg.UID] {
			continue
		}
		if !containsFold(msg.Subject, keyword) {
			continue
		}
		done, err := processed(msg.UID)
		if err != nil {
			return nil, err
		}
		if done {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *fakeMailSession) MarkSeen(uid uint32) error {
	s.source.seen[uid] = true
	return nil
}

func (s *fakeMailSession) Close() {}

// containsFold — регистронезависимое вхождение подстроки
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

var errBoom = errors.New("boom")
