package domain

import (
	"time"
)

// MailMessage — письмо из почтового ящика, кандидат на обработку
// Движок никогда не изменяет содержимое письма, только флаг «прочитано»
type MailMessage struct {
	UID         uint32       `json:"uid"`         // Уникальный идентификатор письма в ящике
	Subject     string       `json:"subject"`     // Тема письма
	ReceivedAt  time.Time    `json:"received_at"` // Дата получения
	Attachments []Attachment `json:"attachments"` // Вложения в порядке следования в письме
}

// Attachment — вложение письма
// Существует только на время запуска, в БД не сохраняется
type Attachment struct {
	Filename  string `json:"filename"`   // Имя файла после декодирования и очистки
	SizeBytes int64  `json:"size_bytes"` // Размер в байтах
	Data      []byte `json:"-"`          // Содержимое вложения
}
