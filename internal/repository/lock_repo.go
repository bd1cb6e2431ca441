package repository

import (
	"database/sql"
	"time"

	"github.com/owskk/EmailFileBackup-Cron/internal/domain"
)

// LockRepository — репозиторий блокировок запуска
// Блокировка живёт в БД, поэтому работает и между процессами,
// которые не делят память
type LockRepository struct {
	db *sql.DB
}

// NewLockRepository создаёт новый репозиторий
func NewLockRepository(db *sql.DB) *LockRepository {
	return &LockRepository{db: db}
}

// Acquire пытается взять именованную блокировку на срок ttl
// Возвращает true, если блокировка получена
//
// Запрос атомарный: вставка либо перезапись строки происходит только
// когда строки нет или её срок уже истёк. Раздельные чтение и запись
// здесь недопустимы — это гонка между двумя конкурентными запусками
func (r *LockRepository) Acquire(lockName, holderID string, ttl time.Duration) (bool, error) {
	query := `
        INSERT INTO run_locks (lock_name, holder_id, acquired_at, expires_at)
        VALUES ($1, $2, NOW(), NOW() + $3 * INTERVAL '1 second')
        ON CONFLICT (lock_name) DO UPDATE
        SET holder_id = EXCLUDED.holder_id,
            acquired_at = EXCLUDED.acquired_at,
            expires_at = EXCLUDED.expires_at
        WHERE run_locks.expires_at < NOW()
    `

	result, err := r.db.Exec(query, lockName, holderID, int64(ttl.Seconds()))
	if err != nil {
		return false, err
	}

	// Если строка не вставлена и не перезаписана — блокировку держит другой
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// Release снимает блокировку, но только если её всё ещё держит holderID
// Держатель с истёкшим сроком не может снять чужую живую блокировку
func (r *LockRepository) Release(lockName, holderID string) error {
	query := `
        DELETE FROM run_locks
        WHERE lock_name = $1 AND holder_id = $2 AND expires_at > NOW()
    `

	_, err := r.db.Exec(query, lockName, holderID)
	return err
}

// Get возвращает текущую блокировку или nil, если её нет
// Используется панелью для отображения состояния
func (r *LockRepository) Get(lockName string) (*domain.RunLock, error) {
	query := `
        SELECT holder_id, acquired_at, expires_at
        FROM run_locks
        WHERE lock_name = $1
    `

	lock := &domain.RunLock{}
	err := r.db.QueryRow(query, lockName).Scan(
		&lock.HolderID,
		&lock.AcquiredAt,
		&lock.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return lock, nil
}
