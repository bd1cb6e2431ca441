package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

func newRegistry(t *testing.T) (*RegistryService, *memoryServerStore) {
	t.Helper()
	store := newMemoryServerStore()
	return NewRegistryService(store, newFakeUploader()), store
}

func TestResolveDefaultEmpty(t *testing.T) {
	registry, _ := newRegistry(t)

	_, err := registry.ResolveDefault()
	assert.ErrorIs(t, err, ErrNoServerConfigured)
}

// Установка нового default снимает флаг с прежнего тем же действием
func TestUpsertSingleDefaultInvariant(t *testing.T) {
	registry, store := newRegistry(t)

	require.NoError(t, registry.Upsert(&domain.ServerConfig{
		Name: "a", URL: "https://a.example.com", Enabled: true, IsDefault: true,
	}))
	require.NoError(t, registry.Upsert(&domain.ServerConfig{
		Name: "b", URL: "https://b.example.com", Enabled: true, IsDefault: true,
	}))

	def, err := registry.ResolveDefault()
	require.NoError(t, err)
	assert.Equal(t, "b", def.Name)

	a, err := store.GetByName("a")
	require.NoError(t, err)
	assert.False(t, a.IsDefault)
}

func TestUpsertValidation(t *testing.T) {
	registry, _ := newRegistry(t)

	err := registry.Upsert(&domain.ServerConfig{Name: "", URL: "https://x"})
	assert.ErrorIs(t, err, ErrInvalidServer)

	err = registry.Upsert(&domain.ServerConfig{Name: "x", URL: ""})
	assert.ErrorIs(t, err, ErrInvalidServer)
}

// Незаполненные таймаут и размер блока получают значения по умолчанию
func TestUpsertNormalizesDefaults(t *testing.T) {
	registry, store := newRegistry(t)

	require.NoError(t, registry.Upsert(&domain.ServerConfig{
		Name: "a", URL: "https://a.example.com", Enabled: true,
	}))

	a, err := store.GetByName("a")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultServerTimeoutSeconds, a.TimeoutSeconds)
	assert.Equal(t, domain.DefaultServerChunkSizeBytes, a.ChunkSizeBytes)
}

func TestResolveByNameNotFound(t *testing.T) {
	registry, _ := newRegistry(t)

	_, err := registry.ResolveByName("ghost")
	assert.ErrorIs(t, err, ErrServerNotFound)
}

// Первичное заполнение: первый сервер списка становится default
func TestSeedPopulatesEmptyRegistry(t *testing.T) {
	registry, _ := newRegistry(t)

	seed := `[
        {"name": "main", "url": "https://dav.example.com/files", "login": "u", "password": "p", "timeout": 60, "chunk_size": 4096},
        {"name": "spare", "url": "https://spare.example.com", "login": "u2", "password": "p2"}
    ]`

	require.NoError(t, registry.Seed(seed))

	def, err := registry.ResolveDefault()
	require.NoError(t, err)
	assert.Equal(t, "main", def.Name)
	assert.Equal(t, 60, def.TimeoutSeconds)
	assert.Equal(t, 4096, def.ChunkSizeBytes)

	spare, err := registry.ResolveByName("spare")
	require.NoError(t, err)
	assert.False(t, spare.IsDefault)
	assert.True(t, spare.Enabled)
}

// Повторная загрузка не перетирает правки оператора
func TestSeedIsIdempotent(t *testing.T) {
	registry, store := newRegistry(t)

	seed := `[{"name": "main", "url": "https://dav.example.com", "login": "u", "password": "p"}]`
	require.NoError(t, registry.Seed(seed))

	// Оператор переименовал URL сервера
	main, err := store.GetByName("main")
	require.NoError(t, err)
	main.URL = "https://edited.example.com"
	require.NoError(t, store.Upsert(main))

	// Второй старт приложения не должен вернуть старый URL
	require.NoError(t, registry.Seed(seed))

	main, err = store.GetByName("main")
	require.NoError(t, err)
	assert.Equal(t, "https://edited.example.com", main.URL)
}

func TestSeedRejectsMalformedJSON(t *testing.T) {
	registry, _ := newRegistry(t)

	err := registry.Seed(`{"not": "an array"}`)
	assert.Error(t, err)
}

func TestSeedEmptyStringNoop(t *testing.T) {
	registry, store := newRegistry(t)

	require.NoError(t, registry.Seed(""))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
