package services

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/dbx"
	"github.com/tradexinvest/tradex/internal/server/models"
	"github.com/tradexinvest/tradex/internal/server/notify"
	"github.com/tradexinvest/tradex/internal/server/repositories/accounts"
	"github.com/tradexinvest/tradex/internal/server/repositories/ledger"
)

// store is an in-memory stand-in for both repositories.
type store struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	entries  map[string]*models.LedgerEntry
	seq      int
	clock    time.Time

	err error // returned by every call when set

	// beforeTransition runs ahead of every Transition, unlocked.
	beforeTransition func()
}

func newStore() *store {
	return &store{
		accounts: map[string]*models.Account{},
		entries:  map[string]*models.LedgerEntry{},
		clock:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *store) addAccount(a *models.Account) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = s.nextID("acct")
	}
	if a.Role == "" {
		a.Role = models.RoleUser
	}
	a.CreatedAt = s.tick()
	s.accounts[a.ID] = a
	return a
}

func (s *store) addEntry(e *models.LedgerEntry) *models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = s.nextID("entry")
	}
	if e.Status == "" {
		e.Status = models.StatusPending
	}
	e.CreatedAt = s.tick()
	s.entries[e.ID] = e
	return e
}

func (s *store) account(id string) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.accounts[id]
}

func (s *store) entry(id string) models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.entries[id]
}

type fakeAccounts struct{ s *store }

func (f fakeAccounts) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.err != nil {
		return nil, f.s.err
	}
	a.Email = accounts.NormalizeEmail(a.Email)
	for _, existing := range f.s.accounts {
		if existing.Email == a.Email {
			return nil, common.ErrAlreadyExists
		}
	}
	a.ID = f.s.nextID("acct")
	a.CreatedAt = f.s.tick()
	cp := *a
	f.s.accounts[a.ID] = &cp
	return a, nil
}

func (f fakeAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.err != nil {
		return nil, f.s.err
	}
	email = accounts.NormalizeEmail(email)
	for _, a := range f.s.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f fakeAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.err != nil {
		return nil, f.s.err
	}
	a, ok := f.s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f fakeAccounts) List(_ context.Context, role models.Role) ([]*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.err != nil {
		return nil, f.s.err
	}
	out := make([]*models.Account, 0)
	for _, a := range f.s.accounts {
		if a.Role == role {
			cp := *a
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.Account) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f fakeAccounts) update(id string, fn func(a *models.Account)) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.err != nil {
		return f.s.err
	}
	a, ok := f.s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(a)
	return nil
}

func (f fakeAccounts) SetTOTPSecret(_ context.Context, id string, sealed string) error {
	return f.update(id, func(a *models.Account) { a.TOTPSecret = sealed })
}

func (f fakeAccounts) EnableTwoFA(_ context.Context, id string) error {
	return f.update(id, func(a *models.Account) { a.TwoFAEnabled = true })
}

func (f fakeAccounts) AcceptTerms(_ context.Context, id string) error {
	return f.update(id, func(a *models.Account) { a.TermsAccepted = true })
}

func (f fakeAccounts) MarkChallengeSent(_ context.Context, id string, at, notBefore time.Time) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.err != nil {
		return false, f.s.err
	}
	a, ok := f.s.accounts[id]
	if !ok {
		return false, nil
	}
	if a.ChallengeSentAt != nil && a.ChallengeSentAt.After(notBefore) {
		return false, nil
	}
	t := at
	a.ChallengeSentAt = &t
	return true, nil
}

func (f fakeAccounts) UpdateInvestment(_ context.Context, id string, inv models.Investment) (*models.Account, error) {
	var out models.Account
	err := f.update(id, func(a *models.Account) {
		a.Balance, a.Profit, a.Interest = inv.Balance, inv.Profit, inv.Interest
		out = *a
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (f fakeAccounts) Debit(_ context.Context, id string, amount decimal.Decimal) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.err != nil {
		return false, f.s.err
	}
	a, ok := f.s.accounts[id]
	if !ok || a.Balance.LessThan(amount) {
		return false, nil
	}
	a.Balance = a.Balance.Sub(amount)
	return true, nil
}

func (f fakeAccounts) Credit(_ context.Context, id string, amount decimal.Decimal) error {
	return f.update(id, func(a *models.Account) { a.Balance = a.Balance.Add(amount) })
}

type fakeLedger struct{ s *store }

func (f fakeLedger) Create(_ context.Context, e *models.LedgerEntry) (*models.LedgerEntry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.err != nil {
		return nil, f.s.err
	}
	e.ID = f.s.nextID("entry")
	e.Status = models.StatusPending
	e.CreatedAt = f.s.tick()
	cp := *e
	f.s.entries[e.ID] = &cp
	return e, nil
}

func (f fakeLedger) Get(_ context.Context, id string) (*models.LedgerEntry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.err != nil {
		return nil, f.s.err
	}
	e, ok := f.s.entries[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *e
	return &cp, nil
}

func (f fakeLedger) list(match func(e *models.LedgerEntry) bool) ([]*models.LedgerEntry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.err != nil {
		return nil, f.s.err
	}
	out := make([]*models.LedgerEntry, 0)
	for _, e := range f.s.entries {
		if match(e) {
			cp := *e
			if a, ok := f.s.accounts[e.AccountID]; ok {
				cp.AccountEmail, cp.AccountName = a.Email, a.FullName
			}
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.LedgerEntry) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f fakeLedger) ListByAccount(_ context.Context, accountID string) ([]*models.LedgerEntry, error) {
	list, err := f.list(func(e *models.LedgerEntry) bool { return e.AccountID == accountID })
	for _, e := range list {
		e.AccountEmail, e.AccountName = "", ""
	}
	return list, err
}

func (f fakeLedger) ListByStatus(_ context.Context, status models.EntryStatus) ([]*models.LedgerEntry, error) {
	return f.list(func(e *models.LedgerEntry) bool { return status == "" || e.Status == status })
}

func (f fakeLedger) PendingWithdrawalTotal(_ context.Context, accountID string) (decimal.Decimal, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.err != nil {
		return decimal.Zero, f.s.err
	}
	total := decimal.Zero
	for _, e := range f.s.entries {
		if e.AccountID == accountID && e.Kind == models.KindWithdrawal && e.Status == models.StatusPending {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (f fakeLedger) Transition(_ context.Context, id string, status models.EntryStatus, decidedBy string) (*models.LedgerEntry, error) {
	if f.s.beforeTransition != nil {
		f.s.beforeTransition()
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.err != nil {
		return nil, f.s.err
	}
	e, ok := f.s.entries[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if e.Status != models.StatusPending {
		return nil, common.ErrAlreadyProcessed
	}
	now := f.s.tick()
	e.Status = status
	e.DecidedAt = &now
	e.DecidedBy = &decidedBy
	cp := *e
	return &cp, nil
}

type fakeRepoManager struct{ s *store }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return fakeAccounts{m.s} }
func (m *fakeRepoManager) Ledger(dbx.DBTX) ledger.Repository            { return fakeLedger{m.s} }

type sent struct {
	kind    string
	to      string
	entryID string
	code    string
	status  models.EntryStatus
}

// fakeNotifier records every notification and fails when err is set. With
// gate set, every call blocks until the gate is closed.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
	gate chan struct{}
}

func (n *fakeNotifier) record(s sent) error {
	if n.gate != nil {
		<-n.gate
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, s)
	return n.err
}

func (n *fakeNotifier) TwoFACode(_ context.Context, a *models.Account, code string) error {
	return n.record(sent{kind: "2fa", to: a.Email, code: code})
}

func (n *fakeNotifier) RequestReceived(_ context.Context, a *models.Account, e *models.LedgerEntry) error {
	return n.record(sent{kind: "received", to: a.Email, entryID: e.ID})
}

func (n *fakeNotifier) AdminNewRequest(_ context.Context, a *models.Account, e *models.LedgerEntry) error {
	return n.record(sent{kind: "admin", to: "admin", entryID: e.ID})
}

func (n *fakeNotifier) Decision(_ context.Context, a *models.Account, e *models.LedgerEntry) error {
	return n.record(sent{kind: "decision", to: a.Email, entryID: e.ID, status: e.Status})
}

func (n *fakeNotifier) Contact(_ context.Context, f notify.ContactForm) error {
	return n.record(sent{kind: "contact", to: "admin"})
}

func (n *fakeNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.kind == kind {
			c++
		}
	}
	return c
}

func (n *fakeNotifier) last() sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

// inlineDispatch runs jobs on the caller's goroutine and keeps the names of
// the ones that failed.
type inlineDispatch struct {
	mu     sync.Mutex
	failed []string
}

func (d *inlineDispatch) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if err := fn(ctx); err != nil {
		d.mu.Lock()
		d.failed = append(d.failed, name)
		d.mu.Unlock()
	}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}
