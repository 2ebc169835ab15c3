// Package ledger stores deposit and withdrawal requests.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tradexinvest/tradex/internal/server/models"
)

type Repository interface {
	// Create inserts a pending entry and fills ID, Status and CreatedAt.
	Create(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error)
	// Get returns common.ErrorNotFound when the entry does not exist.
	Get(ctx context.Context, id string) (*models.LedgerEntry, error)
	// ListByAccount returns the account's entries, newest first.
	ListByAccount(ctx context.Context, accountID string) ([]*models.LedgerEntry, error)
	// ListByStatus joins the owner email and name. An empty status lists all.
	ListByStatus(ctx context.Context, status models.EntryStatus) ([]*models.LedgerEntry, error)
	// PendingWithdrawalTotal sums the account's pending withdrawals.
	PendingWithdrawalTotal(ctx context.Context, accountID string) (decimal.Decimal, error)
	// Transition moves a pending entry to status. An entry that is no longer
	// pending yields common.ErrAlreadyProcessed.
	Transition(ctx context.Context, id string, status models.EntryStatus, decidedBy string) (*models.LedgerEntry, error)
}
