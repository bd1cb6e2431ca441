package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv выставляет минимальный набор обязательных переменных
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "dbpass")
	t.Setenv("IMAP_HOSTNAME", "imap.example.com:993")
	t.Setenv("IMAP_USERNAME", "backup@example.com")
	t.Setenv("IMAP_PASSWORD", "mailpass")
	t.Setenv("EMAIL_SEARCH_SUBJECT", "Backup")
	t.Setenv("API_SECRET_KEY", "external-key")
	t.Setenv("INTERNAL_API_KEY", "internal-key")
	t.Setenv("WEB_AUTH_PASSWORD", "webpass")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "INBOX", cfg.IMAP.Mailbox)
	assert.Equal(t, 50, cfg.Sync.MaxAttachmentSizeMB)
	assert.Equal(t, 10, cfg.Sync.MaxEmailsPerRun)
	assert.Equal(t, 10*time.Minute, cfg.Sync.LockTTL)
	assert.Equal(t, 3, cfg.Upload.RetryCount)
	assert.Equal(t, 5*time.Second, cfg.Upload.RetryDelay)
	assert.Equal(t, "admin", cfg.Auth.WebAuthUser)
}

func TestLoadConvertsSizeLimit(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_ATTACHMENT_SIZE_MB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(2*1024*1024), cfg.Sync.MaxAttachmentSizeBytes())
}

func TestLoadRejectsNonPositiveLimits(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"нулевой лимит размера", "MAX_ATTACHMENT_SIZE_MB", "0"},
		{"отрицательный лимит размера", "MAX_ATTACHMENT_SIZE_MB", "-5"},
		{"нулевой лимит писем", "MAX_EMAILS_PER_RUN", "0"},
		{"нулевой TTL", "LOCK_TTL", "0s"},
		{"отрицательные повторы", "UPLOAD_RETRY_COUNT", "-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
