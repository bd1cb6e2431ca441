package webdav

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

// davServer — тестовый WebDAV-сервер, запоминающий запросы
type davServer struct {
	mu        sync.Mutex
	server    *httptest.Server
	files     map[string][]byte // путь → содержимое
	putStatus []int             // очередь статусов для PUT, пусто → 201
	puts      int
	mkcols    []string
	lastAuth  string
}

func newDavServer(t *testing.T) *davServer {
	t.Helper()
	ds := &davServer{files: map[string][]byte{}}

	ds.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ds.mu.Lock()
		defer ds.mu.Unlock()

		user, pass, _ := r.BasicAuth()
		ds.lastAuth = user + ":" + pass

		switch r.Method {
		case "MKCOL":
			ds.mkcols = append(ds.mkcols, r.URL.Path)
			w.WriteHeader(http.StatusCreated)
		case http.MethodHead:
			if _, ok := ds.files[r.URL.Path]; ok {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusNotFound)
			}
		case http.MethodPut:
			ds.puts++
			if len(ds.putStatus) > 0 {
				status := ds.putStatus[0]
				ds.putStatus = ds.putStatus[1:]
				if status >= 400 {
					w.WriteHeader(status)
					return
				}
			}
			body, _ := io.ReadAll(r.Body)
			ds.files[r.URL.Path] = body
			w.WriteHeader(http.StatusCreated)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(ds.server.Close)

	return ds
}

func (ds *davServer) config() *domain.ServerConfig {
	return &domain.ServerConfig{
		Name:           "test",
		URL:            ds.server.URL + "/dav/backup",
		Login:          "user",
		Password:       "secret",
		TimeoutSeconds: 5,
		ChunkSizeBytes: 8,
		Enabled:        true,
	}
}

// клиент без реальных пауз между повторами
func testClient(retries int) *Client {
	c := NewClient(RetryPolicy{MaxRetries: retries, InitialDelay: time.Millisecond})
	c.sleep = func(time.Duration) {}
	return c
}

func TestUploadSuccess(t *testing.T) {
	ds := newDavServer(t)
	client := testClient(0)

	data := []byte("attachment payload bytes")
	remotePath, err := client.Upload(&domain.Attachment{
		Filename:  "report.pdf",
		SizeBytes: int64(len(data)),
		Data:      data,
	}, ds.config())

	require.NoError(t, err)
	assert.Equal(t, ds.server.URL+"/dav/backup/report.pdf", remotePath)

	// Файл дошёл целиком, с учётными данными сервера
	assert.Equal(t, data, ds.files["/dav/backup/report.pdf"])
	assert.Equal(t, "user:secret", ds.lastAuth)

	// Недостающие каталоги созданы по сегментам пути
	assert.Equal(t, []string{"/dav", "/dav/backup"}, ds.mkcols)
}

// Занятые имена не перезаписываются: подбирается свободный суффикс
func TestUploadFindsUniqueFilename(t *testing.T) {
	ds := newDavServer(t)
	ds.files["/dav/backup/report.pdf"] = []byte("old")
	ds.files["/dav/backup/report (1).pdf"] = []byte("older")

	client := testClient(0)

	data := []byte("new content")
	remotePath, err := client.Upload(&domain.Attachment{
		Filename:  "report.pdf",
		SizeBytes: int64(len(data)),
		Data:      data,
	}, ds.config())

	require.NoError(t, err)
	assert.Contains(t, remotePath, "report%20(2).pdf")
	assert.Equal(t, data, ds.files["/dav/backup/report (2).pdf"])
	// Старый файл не тронут
	assert.Equal(t, []byte("old"), ds.files["/dav/backup/report.pdf"])
}

// Временные сбои повторяются до успеха в пределах лимита
func TestUploadRetriesTransient(t *testing.T) {
	ds := newDavServer(t)
	ds.putStatus = []int{500, 503}

	client := testClient(3)

	_, err := client.Upload(&domain.Attachment{
		Filename:  "flaky.bin",
		SizeBytes: 4,
		Data:      []byte("data"),
	}, ds.config())

	require.NoError(t, err)
	assert.Equal(t, 3, ds.puts)
}

// После исчерпания повторов ошибка остаётся временной
func TestUploadRetriesExhausted(t *testing.T) {
	ds := newDavServer(t)
	ds.putStatus = []int{503, 503, 503}

	client := testClient(2)

	_, err := client.Upload(&domain.Attachment{
		Filename:  "down.bin",
		SizeBytes: 4,
		Data:      []byte("data"),
	}, ds.config())

	require.Error(t, err)
	uploadErr, ok := err.(*UploadError)
	require.True(t, ok)
	assert.True(t, uploadErr.Transient)
	assert.Equal(t, 3, ds.puts) // первая попытка + два повтора
}

// Ошибка аутентификации терминальна и не повторяется
func TestUploadAuthErrorNotRetried(t *testing.T) {
	ds := newDavServer(t)
	ds.putStatus = []int{401}

	client := testClient(3)

	_, err := client.Upload(&domain.Attachment{
		Filename:  "secret.bin",
		SizeBytes: 4,
		Data:      []byte("data"),
	}, ds.config())

	require.Error(t, err)
	uploadErr, ok := err.(*UploadError)
	require.True(t, ok)
	assert.False(t, uploadErr.Transient)
	assert.Equal(t, 401, uploadErr.StatusCode)
	assert.Equal(t, 1, ds.puts)
}

// Переполненное хранилище — терминальная ошибка, несмотря на 5xx
func TestUploadStorageFullNotRetried(t *testing.T) {
	ds := newDavServer(t)
	ds.putStatus = []int{507}

	client := testClient(3)

	_, err := client.Upload(&domain.Attachment{
		Filename:  "big.bin",
		SizeBytes: 4,
		Data:      []byte("data"),
	}, ds.config())

	require.Error(t, err)
	uploadErr, ok := err.(*UploadError)
	require.True(t, ok)
	assert.False(t, uploadErr.Transient)
	assert.Equal(t, 1, ds.puts)
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusNotFound, false},
		{http.StatusConflict, false},
		{http.StatusInsufficientStorage, false},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
	}

	for _, tc := range tests {
		err := classifyStatus(tc.status)
		assert.Equal(t, tc.transient, err.Transient, "HTTP %d", tc.status)
		assert.Equal(t, tc.status, err.StatusCode)
	}
}

func TestRetryPolicyDelayDoubles(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}

	assert.Equal(t, time.Second, policy.delay(1))
	assert.Equal(t, 2*time.Second, policy.delay(2))
	assert.Equal(t, 4*time.Second, policy.delay(3))
}

func TestTestConnection(t *testing.T) {
	ds := newDavServer(t)
	client := testClient(0)

	assert.NoError(t, client.TestConnection(ds.config()))
}

func TestTestConnectionRejectsBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(0)
	err := client.TestConnection(&domain.ServerConfig{
		Name: "bad", URL: server.URL, TimeoutSeconds: 5,
	})

	assert.Error(t, err)
}
