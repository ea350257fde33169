package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/invsaas/backend/internal/domain/shared"
	"gorm.io/gorm"
)

type txKey struct{}

// GormTxManager implements shared.TxManager on top of gorm transactions
type GormTxManager struct {
	db *gorm.DB
}

var _ shared.TxManager = (*GormTxManager)(nil)

// NewTxManager creates a transaction manager
func NewTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithinTransaction runs fn in a transaction. A nested call joins the outer
// transaction instead of opening a new one.
func (m *GormTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db when there is none
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// isDuplicateKeyError recognises unique violations whether or not the
// dialector translated them.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "sqlstate 23505")
}
