package domain

// ServerConfig — настроенный WebDAV-сервер для выгрузки вложений
// Имя сервера уникально; среди включённых серверов не больше одного по умолчанию
type ServerConfig struct {
	Name           string `json:"name"`             // Уникальное имя сервера
	URL            string `json:"url"`              // Базовый URL WebDAV-хранилища
	Login          string `json:"login"`            // Логин для Basic-аутентификации
	Password       string `json:"-"`                // Пароль (в JSON не отдаём)
	TimeoutSeconds int    `json:"timeout_seconds"`  // Таймаут одного HTTP-запроса
	ChunkSizeBytes int    `json:"chunk_size_bytes"` // Размер блока при потоковой выгрузке
	Enabled        bool   `json:"enabled"`          // Включён ли сервер
	IsDefault      bool   `json:"is_default"`       // Сервер по умолчанию
}

// Значения по умолчанию для необязательных полей сервера
const (
	DefaultServerTimeoutSeconds = 30
	DefaultServerChunkSizeBytes = 1 << 20 // 1 МБ
)

// Normalize подставляет значения по умолчанию вместо нулевых
func (s *ServerConfig) Normalize() {
	if s.TimeoutSeconds <= 0 {
		s.TimeoutSeconds = DefaultServerTimeoutSeconds
	}
	if s.ChunkSizeBytes <= 0 {
		s.ChunkSizeBytes = DefaultServerChunkSizeBytes
	}
}

// SeedServer — элемент начального списка серверов из переменной окружения
// Формат потребляется один раз при первом запуске с пустым реестром
type SeedServer struct {
	Name      string `json:"name"`       // Имя сервера
	URL       string `json:"url"`        // Базовый URL
	Login     string `json:"login"`      // Логин
	Password  string `json:"password"`   // Пароль
	Timeout   int    `json:"timeout"`    // Таймаут в секундах (необязательно)
	ChunkSize int    `json:"chunk_size"` // Размер блока в байтах (необязательно)
}
