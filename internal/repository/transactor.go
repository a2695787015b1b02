package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrDuplicate   = errors.New("duplicate record")
	ErrLockTimeout = errors.New("lock wait timed out")
)

const (
	codeUniqueViolation  = "23505"
	codeLockNotAvailable = "55P03"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewTransactor bounds row lock waits inside each transaction by lockTimeout.
func NewTransactor(db *gorm.DB, lockTimeout time.Duration) Transactor {
	return &gormTransactor{db: db, lockTimeout: lockTimeout}
}

func (t *gormTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(tx)
	})
	return classify(err)
}

// classify tags Postgres failures the service layer reacts to.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	case codeLockNotAvailable:
		return fmt.Errorf("%w: %s", ErrLockTimeout, pgErr.Message)
	}
	return err
}
