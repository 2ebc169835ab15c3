// Package services implements the application operations on top of the
// repositories. Each operation takes the caller's verified token claims and
// performs its own capability check.
package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/server/models"
	"github.com/tradexinvest/tradex/internal/server/notify"
)

// Notifier renders and sends application emails.
type Notifier interface {
	TwoFACode(ctx context.Context, a *models.Account, code string) error
	RequestReceived(ctx context.Context, a *models.Account, e *models.LedgerEntry) error
	AdminNewRequest(ctx context.Context, a *models.Account, e *models.LedgerEntry) error
	Decision(ctx context.Context, a *models.Account, e *models.LedgerEntry) error
	Contact(ctx context.Context, f notify.ContactForm) error
}

// Money columns are NUMERIC(20, 2).
const moneyScale = 2

var moneyLimit = decimal.New(1, 20-moneyScale)

// checkMoney rejects values the money columns would round or overflow.
func checkMoney(field string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(moneyScale)) {
		return fmt.Errorf("%w: %s must have at most %d decimal places", common.ErrValidation, field, moneyScale)
	}
	if d.Abs().GreaterThanOrEqual(moneyLimit) {
		return fmt.Errorf("%w: %s is too large", common.ErrValidation, field)
	}
	return nil
}

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Dispatcher runs a notification after the request has its answer. Failures
// are logged by the dispatcher and never reach the caller.
type Dispatcher interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context) error)
}

func summaries(list []*models.Account) []models.AccountSummary {
	out := make([]models.AccountSummary, 0, len(list))
	for _, a := range list {
		out = append(out, a.Summary())
	}
	return out
}
