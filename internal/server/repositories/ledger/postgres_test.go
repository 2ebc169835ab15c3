package ledger

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/server/models"
)

var columns = []string{"id", "account_id", "kind", "amount", "method", "status", "created_at", "decided_at", "decided_by"}

const (
	accountID      = "2d9e7c41-5a3b-4f60-8c12-7e4b9a0c3d01"
	entryID        = "9a4b1c7e-2f3d-4e58-b6a0-1c2d3e4f5a01"
	otherEntryID   = "9a4b1c7e-2f3d-4e58-b6a0-1c2d3e4f5a02"
	missingEntryID = "9a4b1c7e-2f3d-4e58-b6a0-1c2d3e4f5aff"
)

var created = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+ledger_entries\s*\(id,\s*account_id,\s*kind,\s*amount,\s*method,\s*status\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+created_at\s*$`
	amount := decimal.NewFromInt(40)

	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), accountID, models.KindWithdrawal, amount, models.MethodBank, models.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	got, err := repo.Create(context.Background(), &models.LedgerEntry{
		AccountID: accountID, Kind: models.KindWithdrawal, Amount: amount, Method: models.MethodBank,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, created, got.CreatedAt)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+ledger_entries`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.LedgerEntry{AccountID: accountID})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*account_id,.*FROM\s+ledger_entries\s+WHERE\s+id\s*=\s*\$1\s*$`
	decided := created.Add(time.Hour)
	mock.ExpectQuery(q).WithArgs(entryID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(entryID, accountID, "deposit", "25.00", "paypal", "approved", created, decided, "admin-1"))

	got, err := repo.Get(context.Background(), entryID)
	require.NoError(t, err)
	assert.Equal(t, models.KindDeposit, got.Kind)
	assert.Equal(t, models.StatusApproved, got.Status)
	require.NotNil(t, got.DecidedAt)
	require.NotNil(t, got.DecidedBy)
	assert.Equal(t, "admin-1", *got.DecidedBy)

	mock.ExpectQuery(q).WithArgs(otherEntryID).WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), otherEntryID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListByAccount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(columns).
		AddRow(otherEntryID, accountID, "withdrawal", "10", "bank", "pending", created.Add(time.Minute), nil, nil).
		AddRow(entryID, accountID, "deposit", "5", "bitcoin", "rejected", created, created, "admin-1")
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+ledger_entries\s+WHERE\s+account_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC\s*$`).
		WithArgs(accountID).
		WillReturnRows(rows)

	got, err := repo.ListByAccount(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, otherEntryID, got[0].ID)
	assert.Nil(t, got[0].DecidedAt)
	assert.Nil(t, got[0].DecidedBy)
}

func TestListByStatus(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+l\.id,.*a\.email,\s*a\.full_name\s+FROM\s+ledger_entries\s+l\s+JOIN\s+accounts\s+a\s+ON\s+a\.id\s*=\s*l\.account_id\s+WHERE\s+\(\$1\s*=\s*''\s+OR\s+l\.status\s*=\s*\$1\)`
	rows := sqlmock.NewRows(append(columns, "email", "full_name")).
		AddRow(entryID, accountID, "withdrawal", "40", "bank", "pending", created, nil, nil, "alice@example.com", "Alice")
	mock.ExpectQuery(q).WithArgs("pending").WillReturnRows(rows)

	got, err := repo.ListByStatus(context.Background(), models.StatusPending)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice@example.com", got[0].AccountEmail)
	assert.Equal(t, "Alice", got[0].AccountName)

	mock.ExpectQuery(q).WithArgs("").WillReturnRows(sqlmock.NewRows(append(columns, "email", "full_name")))
	got, err = repo.ListByStatus(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingWithdrawalTotal(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+COALESCE\(SUM\(amount\),\s*0\)\s+FROM\s+ledger_entries\s+WHERE\s+account_id\s*=\s*\$1\s+AND\s+kind\s*=\s*'withdrawal'\s+AND\s+status\s*=\s*'pending'\s*$`
	mock.ExpectQuery(q).WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("70.50"))

	got, err := repo.PendingWithdrawalTotal(context.Background(), accountID)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("70.5")))

	mock.ExpectQuery(q).WithArgs(accountID).WillReturnError(errors.New("db down"))
	_, err = repo.PendingWithdrawalTotal(context.Background(), accountID)
	assert.Error(t, err)
}

func TestTransition_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+ledger_entries\s+SET\s+status\s*=\s*\$2,\s*decided_at\s*=\s*now\(\),\s*decided_by\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1\s+AND\s+status\s*=\s*'pending'\s+RETURNING`
	mock.ExpectQuery(q).WithArgs(entryID, models.StatusApproved, "admin-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(entryID, accountID, "withdrawal", "40", "bank", "approved", created, created, "admin-1"))

	got, err := repo.Transition(context.Background(), entryID, models.StatusApproved, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestTransition_AlreadyProcessed(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE\s+ledger_entries`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+ledger_entries\s+WHERE\s+id\s*=\s*\$1`).WithArgs(entryID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(entryID, accountID, "withdrawal", "40", "bank", "rejected", created, created, "admin-1"))

	_, err := repo.Transition(context.Background(), entryID, models.StatusApproved, "admin-2")
	assert.ErrorIs(t, err, common.ErrAlreadyProcessed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransition_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE\s+ledger_entries`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+ledger_entries`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Transition(context.Background(), missingEntryID, models.StatusRejected, "admin-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMalformedID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.Transition(context.Background(), "abc", models.StatusApproved, "admin-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
