// Package accounts declares the credential store contract and its
// PostgreSQL implementation.
package accounts

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradexinvest/tradex/internal/server/models"
)

// Repository owns Account records. Emails are matched case-insensitively.
type Repository interface {
	// Create inserts a new account and returns it with ID and timestamps set.
	// A duplicate email yields common.ErrAlreadyExists.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// GetByEmail and GetByID return common.ErrorNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// List returns accounts with the given role, newest first.
	List(ctx context.Context, role models.Role) ([]*models.Account, error)

	SetTOTPSecret(ctx context.Context, id string, sealedSecret string) error
	EnableTwoFA(ctx context.Context, id string) error
	AcceptTerms(ctx context.Context, id string) error

	// MarkChallengeSent records at as the last 2FA email time unless a code
	// was already sent after notBefore. It reports whether the mark was taken.
	MarkChallengeSent(ctx context.Context, id string, at, notBefore time.Time) (bool, error)

	// UpdateInvestment overwrites the admin-curated figures.
	UpdateInvestment(ctx context.Context, id string, inv models.Investment) (*models.Account, error)

	// Debit subtracts amount only if the balance covers it; it reports
	// whether the debit happened.
	Debit(ctx context.Context, id string, amount decimal.Decimal) (bool, error)
	Credit(ctx context.Context, id string, amount decimal.Decimal) error
}
