package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/dbx"
	"github.com/tradexinvest/tradex/internal/logging"
	"github.com/tradexinvest/tradex/internal/server/auth"
	"github.com/tradexinvest/tradex/internal/server/models"
	"github.com/tradexinvest/tradex/internal/server/report"
	"github.com/tradexinvest/tradex/internal/server/repositories/repomanager"
)

// AdminService holds the operations reserved for admin sessions.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	dispatch    Dispatcher
	log         logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, notifier Notifier, dispatch Dispatcher, log logging.Logger) *AdminService {
	return &AdminService{db: db, repomanager: m, notifier: notifier, dispatch: dispatch, log: log}
}

func authorizeAdmin(claims *auth.Claims) error {
	return auth.Authorize(claims, auth.KindSession, models.RoleAdmin)
}

func (s *AdminService) ListPending(ctx context.Context, claims *auth.Claims) ([]*models.LedgerEntry, error) {
	return s.ListEntries(ctx, claims, models.StatusPending)
}

// ListEntries lists entries in the given status. An empty status lists all.
func (s *AdminService) ListEntries(ctx context.Context, claims *auth.Claims, status models.EntryStatus) ([]*models.LedgerEntry, error) {
	if err := authorizeAdmin(claims); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrValidation, status)
	}
	list, err := s.repomanager.Ledger(s.db).ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("error listing entries: %w", err)
	}
	return list, nil
}

// Decide approves or rejects a pending entry. Approving a withdrawal debits
// the holder and approving a deposit credits them, atomically with the
// status change. At most one decision per entry succeeds.
func (s *AdminService) Decide(ctx context.Context, claims *auth.Claims, entryID string, action models.Action) (*models.LedgerEntry, error) {
	if err := authorizeAdmin(claims); err != nil {
		return nil, err
	}
	target, ok := action.Target()
	if !ok {
		return nil, fmt.Errorf("%w: action must be approve or reject", common.ErrValidation)
	}

	var holder *models.Account
	var decided *models.LedgerEntry

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accountsRepo := s.repomanager.Accounts(tx)
		ledgerRepo := s.repomanager.Ledger(tx)

		entry, err := ledgerRepo.Get(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != models.StatusPending {
			return common.ErrAlreadyProcessed
		}

		if target == models.StatusApproved {
			switch entry.Kind {
			case models.KindWithdrawal:
				debited, err := accountsRepo.Debit(ctx, entry.AccountID, entry.Amount)
				if err != nil {
					return fmt.Errorf("error debiting account: %w", err)
				}
				if !debited {
					return common.ErrInsufficientFunds
				}
			case models.KindDeposit:
				if err := accountsRepo.Credit(ctx, entry.AccountID, entry.Amount); err != nil {
					return fmt.Errorf("error crediting account: %w", err)
				}
			}
		}

		// Losing this compare-and-swap rolls the balance change back.
		decided, err = ledgerRepo.Transition(ctx, entry.ID, target, claims.AccountID())
		if err != nil {
			return err
		}

		holder, err = accountsRepo.GetByID(ctx, entry.AccountID)
		if err != nil {
			return fmt.Errorf("error loading holder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "ledger entry decided", "entry_id", decided.ID, "status", decided.Status,
		"admin_id", claims.AccountID())

	// The decision is committed; its email goes out in the background.
	notice := *decided
	s.dispatch.Go(ctx, "decision", func(ctx context.Context) error {
		return s.notifier.Decision(ctx, holder, &notice)
	})
	decided.AccountEmail = holder.Email
	decided.AccountName = holder.FullName
	return decided, nil
}

func (s *AdminService) ListUsers(ctx context.Context, claims *auth.Claims) ([]models.AccountSummary, error) {
	if err := authorizeAdmin(claims); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Accounts(s.db).List(ctx, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	return summaries(list), nil
}

func (s *AdminService) UpdateInvestment(ctx context.Context, claims *auth.Claims, accountID string, inv models.Investment) (*models.AccountSummary, error) {
	if err := authorizeAdmin(claims); err != nil {
		return nil, err
	}
	if inv.Balance.IsNegative() || inv.Profit.IsNegative() || inv.Interest.IsNegative() {
		return nil, fmt.Errorf("%w: balance, profit and interest must not be negative", common.ErrValidation)
	}
	for field, v := range map[string]decimal.Decimal{"balance": inv.Balance, "profit": inv.Profit, "interest": inv.Interest} {
		if err := checkMoney(field, v); err != nil {
			return nil, err
		}
	}

	a, err := s.repomanager.Accounts(s.db).UpdateInvestment(ctx, accountID, inv)
	if err != nil {
		return nil, fmt.Errorf("error updating investment: %w", err)
	}

	s.log.Info(ctx, "investment updated", "account_id", a.ID, "admin_id", claims.AccountID())
	summary := a.Summary()
	return &summary, nil
}

// ExportEntries writes the entries in the given status as an XLSX workbook.
func (s *AdminService) ExportEntries(ctx context.Context, claims *auth.Claims, status models.EntryStatus, w io.Writer) error {
	list, err := s.ListEntries(ctx, claims, status)
	if err != nil {
		return err
	}
	if err := report.WriteEntries(w, list); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	return nil
}
