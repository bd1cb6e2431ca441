package webdav

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

// UploadError — результат неудачной выгрузки одного вложения
// Transient говорит вызывающему, имеет ли смысл повтор в будущем запуске
type UploadError struct {
	Filename   string // Имя файла
	StatusCode int    // HTTP-статус ответа, 0 если до сервера не дошли
	Transient  bool   // true — временный сбой, false — терминальная ошибка
	Err        error  // Исходная ошибка
}

func (e *UploadError) Error() string {
	kind := "терминальная ошибка"
	if e.Transient {
		kind = "временный сбой"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("выгрузка %q: %s (HTTP %d): %v", e.Filename, kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("выгрузка %q: %s: %v", e.Filename, kind, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// RetryPolicy — ограниченная политика повторов с нарастающей задержкой
// Повторяются только временные сбои; каждая следующая попытка ждёт
// вдвое дольше предыдущей
type RetryPolicy struct {
	MaxRetries   int           // Сколько повторов после первой попытки
	InitialDelay time.Duration // Задержка перед первым повтором
}

// delay возвращает паузу перед повтором с номером retry (от 1)
func (p RetryPolicy) delay(retry int) time.Duration {
	d := p.InitialDelay
	for i := 1; i < retry; i++ {
		d *= 2
	}
	return d
}

// Client выгружает вложения на WebDAV-серверы
// Протокол сводится к HTTP PUT/HEAD/MKCOL с Basic-аутентификацией
type Client struct {
	retry RetryPolicy
	sleep func(time.Duration) // Подменяется в тестах
}

// NewClient создаёт новый клиент с заданной политикой повторов
func NewClient(retry RetryPolicy) *Client {
	return &Client{
		retry: retry,
		sleep: time.Sleep,
	}
}

// httpClient собирает клиент с таймаутом конкретного сервера
func httpClient(srv *domain.ServerConfig) *http.Client {
	timeout := time.Duration(srv.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultServerTimeoutSeconds) * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// fileURL собирает полный URL файла на сервере
func fileURL(srv *domain.ServerConfig, filename string) string {
	return strings.TrimRight(srv.URL, "/") + "/" + url.PathEscape(filename)
}

// Upload выгружает вложение на сервер и возвращает удалённый путь
//
// Перед выгрузкой создаются недостающие каталоги пути и подбирается
// свободное имя файла, чтобы не перезаписать уже лежащий файл.
// Временные сбои повторяются ограниченное число раз; ошибки
// аутентификации, 4xx и переполнение хранилища не повторяются
func (c *Client) Upload(att *domain.Attachment, srv *domain.ServerConfig) (string, error) {
	if err := c.ensureCollection(srv); err != nil {
		return "", err
	}

	filename, err := c.uniqueFilename(srv, att.Filename)
	if err != nil {
		return "", err
	}

	target := fileURL(srv, filename)

	var lastErr *UploadError
	// Первая попытка плюс MaxRetries повторов
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			c.sleep(c.retry.delay(attempt))
		}

		uploadErr := c.put(srv, target, att)
		if uploadErr == nil {
			return target, nil
		}

		lastErr = uploadErr
		lastErr.Filename = att.Filename
		if !uploadErr.Transient {
			// Терминальную ошибку повторять бессмысленно
			return "", lastErr
		}
	}

	// Повторы исчерпаны, сбой остаётся временным: следующий запуск
	// попробует письмо ещё раз
	return "", lastErr
}

// put выполняет одну попытку выгрузки
func (c *Client) put(srv *domain.ServerConfig, target string, att *domain.Attachment) *UploadError {
	chunkSize := srv.ChunkSizeBytes
	if chunkSize <= 0 {
		chunkSize = domain.DefaultServerChunkSizeBytes
	}

	body := newChunkReader(bytes.NewReader(att.Data), chunkSize)

	req, err := http.NewRequest(http.MethodPut, target, body)
	if err != nil {
		return &UploadError{Transient: false, Err: err}
	}
	req.SetBasicAuth(srv.Login, srv.Password)
	req.ContentLength = att.SizeBytes
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := httpClient(srv).Do(req)
	if err != nil {
		// Таймауты и обрывы соединения — временные сбои
		return &UploadError{Transient: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return classifyStatus(resp.StatusCode)
}

// classifyStatus относит HTTP-статус к временным или терминальным ошибкам
func classifyStatus(status int) *UploadError {
	err := fmt.Errorf("сервер ответил %s", http.StatusText(status))

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// Неверные учётные данные — повтор не поможет
		return &UploadError{StatusCode: status, Transient: false, Err: err}
	case status == http.StatusInsufficientStorage:
		// Хранилище переполнено — тоже терминально
		return &UploadError{StatusCode: status, Transient: false, Err: err}
	case status >= 500:
		return &UploadError{StatusCode: status, Transient: true, Err: err}
	default:
		// Остальные 4xx — ошибка клиента, повторять нечего
		return &UploadError{StatusCode: status, Transient: false, Err: err}
	}
}

// ensureCollection создаёт недостающие каталоги базового пути сервера
// MKCOL на существующем каталоге возвращает 405 — это не ошибка
func (c *Client) ensureCollection(srv *domain.ServerConfig) error {
	parsed, err := url.Parse(srv.URL)
	if err != nil {
		return &UploadError{Transient: false, Err: fmt.Errorf("некорректный URL сервера: %w", err)}
	}

	cleanPath := strings.Trim(path.Clean(parsed.Path), "/")
	if cleanPath == "" || cleanPath == "." {
		return nil
	}

	base := parsed.Scheme + "://" + parsed.Host
	current := ""
	for _, segment := range strings.Split(cleanPath, "/") {
		current = current + "/" + segment

		req, err := http.NewRequest("MKCOL", base+current, nil)
		if err != nil {
			return &UploadError{Transient: false, Err: err}
		}
		req.SetBasicAuth(srv.Login, srv.Password)

		resp, err := httpClient(srv).Do(req)
		if err != nil {
			return &UploadError{Transient: true, Err: err}
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			// Каталог создан
		case resp.StatusCode == http.StatusMethodNotAllowed:
			// Каталог уже существует
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return classifyStatus(resp.StatusCode)
		default:
			// Прочие ответы не мешают попробовать PUT: часть серверов
			// отвечает на MKCOL нестандартно
		}
	}

	return nil
}

// exists проверяет наличие файла на сервере запросом HEAD
// При ошибке считаем, что файла нет, чтобы не блокировать выгрузку
func (c *Client) exists(srv *domain.ServerConfig, filename string) bool {
	req, err := http.NewRequest(http.MethodHead, fileURL(srv, filename), nil)
	if err != nil {
		return false
	}
	req.SetBasicAuth(srv.Login, srv.Password)

	resp, err := httpClient(srv).Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// uniqueFilename подбирает свободное имя файла на сервере
// Если file.txt занят, пробуем file (1).txt, file (2).txt и так далее
func (c *Client) uniqueFilename(srv *domain.ServerConfig, filename string) (string, error) {
	if !c.exists(srv, filename) {
		return filename, nil
	}

	ext := path.Ext(filename)
	name := strings.TrimSuffix(filename, ext)

	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s (%d)%s", name, counter, ext)
		if !c.exists(srv, candidate) {
			return candidate, nil
		}
	}
}

// TestConnection проверяет доступность сервера без записи данных
func (c *Client) TestConnection(srv *domain.ServerConfig) error {
	req, err := http.NewRequest(http.MethodOptions, strings.TrimRight(srv.URL, "/"), nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(srv.Login, srv.Password)

	resp, err := httpClient(srv).Do(req)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("сервер отверг учётные данные (HTTP %d)", resp.StatusCode)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("сервер вернул ошибку (HTTP %d)", resp.StatusCode)
	}

	return nil
}
