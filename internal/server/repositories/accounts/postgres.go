package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/dbx"
	"github.com/tradexinvest/tradex/internal/server/models"
)

const uniqueViolation = "23505"

const accountColumns = `id, email, password_hash, full_name, role, totp_secret, two_fa_enabled,
		terms_accepted, challenge_sent_at, balance, profit, interest, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// NormalizeEmail is the canonical stored form of an email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	var challengeSentAt sql.NullTime
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.Role, &a.TOTPSecret, &a.TwoFAEnabled,
		&a.TermsAccepted, &challengeSentAt, &a.Balance, &a.Profit, &a.Interest, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if challengeSentAt.Valid {
		t := challengeSentAt.Time
		a.ChallengeSentAt = &t
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, email, password_hash, full_name, role, terms_accepted)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	account.ID = uuid.NewString()
	account.Email = NormalizeEmail(account.Email)

	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.FullName, account.Role, account.TermsAccepted).
		Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE lower(email) = $1
		 `
	return r.getOne(ctx, query, NormalizeEmail(email))
}

// validID reports whether id can be compared with a UUID column. Anything
// else cannot match a row.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context, role models.Role) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE role = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, id string, args ...any) error {
	if !validID(id) {
		return common.ErrorNotFound
	}
	res, err := r.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ok, err := dbx.Affected(res)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetTOTPSecret(ctx context.Context, id string, sealedSecret string) error {
	return r.exec(ctx,
		`UPDATE accounts SET totp_secret = $2, updated_at = now()
		 WHERE id = $1
		 `, id, sealedSecret)
}

func (r *PostgresRepository) EnableTwoFA(ctx context.Context, id string) error {
	return r.exec(ctx,
		`UPDATE accounts SET two_fa_enabled = TRUE, updated_at = now()
		 WHERE id = $1
		 `, id)
}

func (r *PostgresRepository) AcceptTerms(ctx context.Context, id string) error {
	return r.exec(ctx,
		`UPDATE accounts SET terms_accepted = TRUE, updated_at = now()
		 WHERE id = $1
		 `, id)
}

func (r *PostgresRepository) MarkChallengeSent(ctx context.Context, id string, at, notBefore time.Time) (bool, error) {
	if !validID(id) {
		return false, common.ErrorNotFound
	}
	query :=
		`UPDATE accounts SET challenge_sent_at = $2
		 WHERE id = $1 AND (challenge_sent_at IS NULL OR challenge_sent_at <= $3)
		 `
	res, err := r.db.ExecContext(ctx, query, id, at, notBefore)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	ok, err := dbx.Affected(res)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) UpdateInvestment(ctx context.Context, id string, inv models.Investment) (*models.Account, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	query :=
		`UPDATE accounts SET balance = $2, profit = $3, interest = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + accountColumns

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id, inv.Balance, inv.Profit, inv.Interest))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Debit(ctx context.Context, id string, amount decimal.Decimal) (bool, error) {
	if !validID(id) {
		return false, common.ErrorNotFound
	}
	query :=
		`UPDATE accounts SET balance = balance - $2, updated_at = now()
		 WHERE id = $1 AND balance >= $2
		 `
	res, err := r.db.ExecContext(ctx, query, id, amount)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	ok, err := dbx.Affected(res)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Credit(ctx context.Context, id string, amount decimal.Decimal) error {
	return r.exec(ctx,
		`UPDATE accounts SET balance = balance + $2, updated_at = now()
		 WHERE id = $1
		 `, id, amount)
}
