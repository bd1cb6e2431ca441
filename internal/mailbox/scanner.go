package mailbox

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/owskk/EmailFileBackup-Cron/internal/config"
	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

// AuthError — ошибка аутентификации на IMAP-сервере
// Для запуска это фатально: без ящика делать нечего
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("ошибка аутентификации IMAP: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Scanner подключается к почтовому ящику и отбирает письма-кандидаты
type Scanner struct {
	cfg config.IMAPConfig
}

// NewScanner создаёт новый сканер
func NewScanner(cfg config.IMAPConfig) *Scanner {
	return &Scanner{cfg: cfg}
}

// Session — одно живое подключение к ящику
// IMAP-сессия не переживает конкурентные команды, поэтому весь запуск
// работает через одну сессию строго последовательно
type Session struct {
	client  *imapclient.Client
	mailbox string
}

// Connect устанавливает TLS-соединение, логинится и выбирает папку
// Закрыть сессию обязан вызывающий
func (s *Scanner) Connect() (*Session, error) {
	client, err := imapclient.DialTLS(s.cfg.Hostname, nil)
	if err != nil {
		return nil, fmt.Errorf("подключение к IMAP %s: %w", s.cfg.Hostname, err)
	}

	if err := client.Login(s.cfg.Username, s.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{Err: err}
	}

	if _, err := client.Select(s.cfg.Mailbox, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("выбор папки %s: %w", s.cfg.Mailbox, err)
	}

	return &Session{client: client, mailbox: s.cfg.Mailbox}, nil
}

// Close завершает сессию
func (s *Session) Close() {
	_ = s.client.Logout().Wait()
}

// Candidates возвращает письма-кандидаты в порядке возрастания UID
//
// Правило отбора: письмо не прочитано, тема содержит ключевое слово
// (без учёта регистра) и UID отсутствует в реестре обработанных.
// Проверка реестра защищает от ящика, у которого флаг «прочитано»
// не сохранился после прошлого запуска.
//
// processed — проверка UID по реестру; limit ограничивает размер партии
func (s *Session) Candidates(keyword string, limit int, processed func(uint32) (bool, error)) ([]*domain.MailMessage, error) {
	// Ищем только непрочитанные письма
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}

	searchData, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("поиск непрочитанных писем: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	// Старые письма обрабатываем первыми, чтобы партия с лимитом
	// двигалась вперёд, а не топталась на свежей почте
	slices.Sort(uids)

	envelopes, err := s.fetchEnvelopes(uids)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)

	var messages []*domain.MailMessage
	for _, env := range envelopes {
		if len(messages) >= limit {
			break
		}
		if !strings.Contains(strings.ToLower(env.subject), needle) {
			continue
		}

		done, err := processed(env.uid)
		if err != nil {
			return nil, fmt.Errorf("проверка реестра для UID %d: %w", env.uid, err)
		}
		if done {
			continue
		}

		msg, err := s.fetchMessage(env)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// envelopeInfo — минимум данных письма для фильтрации кандидатов
type envelopeInfo struct {
	uid        uint32
	subject    string
	receivedAt time.Time
}

// fetchEnvelopes забирает конверты писем без тел
func (s *Session) fetchEnvelopes(uids []imap.UID) ([]envelopeInfo, error) {
	uidSet := imap.UIDSetNum(uids...)

	fetchOpts := &imap.FetchOptions{
		Envelope: true,
		UID:      true,
	}

	fetchCmd := s.client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	var envelopes []envelopeInfo
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		info := envelopeInfo{uid: uint32(buf.UID)}
		if buf.Envelope != nil {
			info.subject = buf.Envelope.Subject
			info.receivedAt = buf.Envelope.Date
		}
		envelopes = append(envelopes, info)
	}

	if err := fetchCmd.Close(); err != nil {
		return envelopes, fmt.Errorf("загрузка конвертов: %w", err)
	}

	// Порядок ответа сервера не гарантирован — восстанавливаем
	slices.SortFunc(envelopes, func(a, b envelopeInfo) int {
		return int(a.uid) - int(b.uid)
	})

	return envelopes, nil
}

// fetchMessage забирает тело письма и извлекает вложения
// Peek не ставит флаг «прочитано»: пометка делается отдельно и только
// после того, как все вложения дошли до терминального исхода
func (s *Session) fetchMessage(env envelopeInfo) (*domain.MailMessage, error) {
	uidSet := imap.UIDSetNum(imap.UID(env.uid))

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := s.client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	fetched := fetchCmd.Next()
	if fetched == nil {
		return nil, fmt.Errorf("письмо UID %d не найдено", env.uid)
	}

	buf, err := fetched.Collect()
	if err != nil {
		return nil, fmt.Errorf("чтение письма UID %d: %w", env.uid, err)
	}

	msg := &domain.MailMessage{
		UID:        env.uid,
		Subject:    env.subject,
		ReceivedAt: env.receivedAt,
	}

	rawBody := buf.FindBodySection(bodySection)
	if rawBody != nil {
		msg.Attachments = ExtractAttachments(rawBody)
	}

	if err := fetchCmd.Close(); err != nil {
		return msg, fmt.Errorf("завершение загрузки UID %d: %w", env.uid, err)
	}

	return msg, nil
}

// MarkSeen помечает письмо прочитанным
func (s *Session) MarkSeen(uid uint32) error {
	uidSet := imap.UIDSetNum(imap.UID(uid))

	storeCmd := s.client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)

	return storeCmd.Close()
}
