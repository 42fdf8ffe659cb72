package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no entity has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidReference is returned when a sale points at a product that does not exist.
	ErrInvalidReference = errors.New("invalid product reference")
	// ErrProductHasSales is returned when deleting a product that still has sales.
	ErrProductHasSales = errors.New("product has sales")
	// ErrStoreFailure wraps unexpected errors from the underlying store.
	ErrStoreFailure = errors.New("store failure")
)

// translate maps a gorm/driver error onto the repository taxonomy.
// Sentinels and context errors pass through untouched.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrProductHasSales), errors.Is(err, ErrStoreFailure):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
}

// inTx runs fn in a transaction bound to ctx. A context cancelled before commit
// rolls the transaction back and its error is returned.
func inTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		return ctx.Err()
	})
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		return ctxErr
	}
	return translate(err)
}

// flush waits for the store to accept a statement, which on a single-connection
// store means every earlier write has committed.
func flush(ctx context.Context, db *gorm.DB) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return translate(err)
	}
	return translate(sqlDB.PingContext(ctx))
}
