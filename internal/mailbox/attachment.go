package mailbox

import (
	"bytes"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

// символы, запрещённые в именах файлов на большинстве хранилищ
var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// ExtractAttachments разбирает MIME-тело письма и возвращает все части,
// помеченные как вложения, в порядке их следования
// Часть с нечитаемым телом пропускается, не ломая соседние вложения
func ExtractAttachments(raw []byte) []domain.Attachment {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Письмо без разборного MIME — значит и без вложений
		return nil
	}
	defer mr.Close()

	var attachments []domain.Attachment
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		header, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}

		filename, _ := header.Filename()
		data, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		attachments = append(attachments, domain.Attachment{
			Filename:  SanitizeFilename(DecodeFilename(filename)),
			SizeBytes: int64(len(data)),
			Data:      data,
		})
	}

	return attachments
}

// DecodeFilename приводит имя вложения к обычной строке
// Некоторые клиенты присылают имя в виде RFC 2231 (charset''имя)
// и с URL-экранированием — снимаем и то и другое
func DecodeFilename(filename string) string {
	if filename == "" {
		return "unknown_attachment"
	}

	// Отбрасываем префикс кодировки, оставляя часть после последнего "''"
	if idx := strings.LastIndex(filename, "''"); idx >= 0 {
		filename = filename[idx+2:]
	}

	decoded, err := url.PathUnescape(filename)
	if err != nil {
		// Не декодировалось — используем как есть
		return filename
	}

	return decoded
}

// SanitizeFilename убирает из имени файла переходы по каталогам
// и символы, небезопасные для удалённого хранилища
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "..", "")
	filename = unsafeFilenameChars.ReplaceAllString(filename, "_")
	if filename == "" {
		return "unknown_attachment"
	}
	return filename
}
