package auth

import (
	"context"
	"database/sql"

	"github.com/pwstorage/pwstorage/internal/repository"
)

// sqlRunner is the production TxRunner: each protocol step runs on
// repositories bound to one serializable MySQL transaction.
type sqlRunner struct {
	db *sql.DB
}

// NewSQLRunner wraps the pooled database handle as a TxRunner.
func NewSQLRunner(db *sql.DB) TxRunner {
	return &sqlRunner{db: db}
}

func (r *sqlRunner) InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	return repository.WithSerializable(ctx, r.db, func(tx *sql.Tx) error {
		return fn(ctx, Stores{
			Users:    repository.NewUserRepo(tx),
			Sessions: repository.NewAuthSessionRepo(tx),
			Settings: repository.NewSettingsRepo(tx),
			Folders:  repository.NewFolderRepo(tx),
			Records:  repository.NewRecordRepo(tx),
		})
	})
}
