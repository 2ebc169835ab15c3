package repomanager

import (
	"context"
	"database/sql"

	"github.com/tradexinvest/tradex/internal/dbx"
	"github.com/tradexinvest/tradex/internal/server/repositories/accounts"
	"github.com/tradexinvest/tradex/internal/server/repositories/ledger"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Ledger(db dbx.DBTX) ledger.Repository
}
