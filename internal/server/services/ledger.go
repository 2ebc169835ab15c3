package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/dbx"
	"github.com/tradexinvest/tradex/internal/logging"
	"github.com/tradexinvest/tradex/internal/server/auth"
	"github.com/tradexinvest/tradex/internal/server/models"
	"github.com/tradexinvest/tradex/internal/server/repositories/repomanager"
)

type TransactionRequest struct {
	Kind   models.EntryKind `json:"type"`
	Amount decimal.Decimal  `json:"amount"`
	Method models.Method    `json:"method"`
}

func (r TransactionRequest) validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: type must be withdrawal or deposit", common.ErrValidation)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", common.ErrValidation)
	}
	if err := checkMoney("amount", r.Amount); err != nil {
		return err
	}
	if !r.Method.Valid() {
		return fmt.Errorf("%w: unsupported method %q", common.ErrValidation, r.Method)
	}
	return nil
}

// LedgerService lets an account holder file and review their requests.
type LedgerService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	dispatch    Dispatcher
	log         logging.Logger
}

func NewLedgerService(db *sql.DB, m repomanager.RepositoryManager, notifier Notifier, dispatch Dispatcher, log logging.Logger) *LedgerService {
	return &LedgerService{db: db, repomanager: m, notifier: notifier, dispatch: dispatch, log: log}
}

// RequestTransaction files a pending entry. A withdrawal may not exceed the
// balance left after the holder's other pending withdrawals.
func (s *LedgerService) RequestTransaction(ctx context.Context, claims *auth.Claims, req TransactionRequest) (*models.LedgerEntry, error) {
	if err := auth.Authorize(claims, auth.KindSession); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	var account *models.Account
	var entry *models.LedgerEntry

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accountsRepo := s.repomanager.Accounts(tx)
		ledgerRepo := s.repomanager.Ledger(tx)

		var err error
		account, err = accountsRepo.GetByID(ctx, claims.AccountID())
		if err != nil {
			return fmt.Errorf("error loading account: %w", err)
		}

		if req.Kind == models.KindWithdrawal {
			pending, err := ledgerRepo.PendingWithdrawalTotal(ctx, account.ID)
			if err != nil {
				return fmt.Errorf("error summing pending withdrawals: %w", err)
			}
			if req.Amount.GreaterThan(account.Balance.Sub(pending)) {
				return common.ErrInsufficientFunds
			}
		}

		entry, err = ledgerRepo.Create(ctx, &models.LedgerEntry{
			AccountID: account.ID,
			Kind:      req.Kind,
			Amount:    req.Amount,
			Method:    req.Method,
		})
		if err != nil {
			return fmt.Errorf("error creating entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "ledger entry requested", "entry_id", entry.ID, "account_id", account.ID,
		"type", entry.Kind, "amount", entry.Amount.String())

	holder, filed := *account, *entry
	s.dispatch.Go(ctx, "request_received", func(ctx context.Context) error {
		return s.notifier.RequestReceived(ctx, &holder, &filed)
	})
	s.dispatch.Go(ctx, "admin_new_request", func(ctx context.Context) error {
		return s.notifier.AdminNewRequest(ctx, &holder, &filed)
	})
	return entry, nil
}

func (s *LedgerService) ListMine(ctx context.Context, claims *auth.Claims) ([]*models.LedgerEntry, error) {
	if err := auth.Authorize(claims, auth.KindSession); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Ledger(s.db).ListByAccount(ctx, claims.AccountID())
	if err != nil {
		return nil, fmt.Errorf("error listing entries: %w", err)
	}
	return list, nil
}
