package domain

import (
	"time"
)

// RunLock — долговременная блокировка запуска с истечением срока
// В каждый момент существует не больше одной живой блокировки;
// TTL защищает систему от зависшего или упавшего держателя
type RunLock struct {
	HolderID   string    `json:"holder_id"`   // Идентификатор держателя
	AcquiredAt time.Time `json:"acquired_at"` // Когда блокировка взята
	ExpiresAt  time.Time `json:"expires_at"`  // Когда блокировка протухает
}

// IsExpired проверяет, истёк ли срок блокировки
func (l *RunLock) IsExpired() bool {
	return time.Now().After(l.ExpiresAt)
}
