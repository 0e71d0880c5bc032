package db

import (
	"gorm.io/gorm"
)

// WithExclusiveHold runs fn inside a transaction that holds the
// Postgres advisory lock for key. The lock is transaction-scoped:
// commit or rollback releases it, so fn can never leak a held lock.
// Concurrent callers with the same key are serialized at the
// database, which is what makes this safe across multiple stateless
// API instances; distinct keys never contend.
func WithExclusiveHold(key int64, fn func(tx *gorm.DB) error) error {
	db := GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", key).Error; err != nil {
			return err
		}
		return fn(tx)
	})
}
