package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/dbx"
	"github.com/tradexinvest/tradex/internal/server/models"
)

const entryColumns = `id, account_id, kind, amount, method, status, created_at, decided_at, decided_by`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner, extra ...any) (*models.LedgerEntry, error) {
	e := &models.LedgerEntry{}
	var decidedAt sql.NullTime
	var decidedBy sql.NullString

	dest := []any{&e.ID, &e.AccountID, &e.Kind, &e.Amount, &e.Method, &e.Status, &e.CreatedAt, &decidedAt, &decidedBy}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		e.DecidedAt = &t
	}
	if decidedBy.Valid {
		s := decidedBy.String
		e.DecidedBy = &s
	}
	return e, nil
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	query :=
		`INSERT INTO ledger_entries (id, account_id, kind, amount, method, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `

	entry.ID = uuid.NewString()
	entry.Status = models.StatusPending

	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.AccountID, entry.Kind, entry.Amount, entry.Method, entry.Status).
		Scan(&entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entry, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.LedgerEntry, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + entryColumns + ` FROM ledger_entries
		 WHERE id = $1
		 `
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries
		 WHERE account_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.LedgerEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status models.EntryStatus) ([]*models.LedgerEntry, error) {
	query :=
		`SELECT l.id, l.account_id, l.kind, l.amount, l.method, l.status, l.created_at, l.decided_at, l.decided_by,
		        a.email, a.full_name
		 FROM ledger_entries l
		 JOIN accounts a ON a.id = l.account_id
		 WHERE ($1 = '' OR l.status = $1)
		 ORDER BY l.created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.LedgerEntry, 0)
	for rows.Next() {
		var email, name string
		e, err := scanEntry(rows, &email, &name)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.AccountEmail = email
		e.AccountName = name
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) PendingWithdrawalTotal(ctx context.Context, accountID string) (decimal.Decimal, error) {
	query :=
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		 WHERE account_id = $1 AND kind = 'withdrawal' AND status = 'pending'
		 `

	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) Transition(ctx context.Context, id string, status models.EntryStatus, decidedBy string) (*models.LedgerEntry, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}
	query :=
		`UPDATE ledger_entries SET status = $2, decided_at = now(), decided_by = $3
		 WHERE id = $1 AND status = 'pending'
		 RETURNING ` + entryColumns

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id, status, decidedBy))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	// Nothing was pending: tell a missing entry from one already decided.
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	return nil, common.ErrAlreadyProcessed
}
