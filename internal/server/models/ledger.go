package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	KindWithdrawal EntryKind = "withdrawal"
	KindDeposit    EntryKind = "deposit"
)

func (k EntryKind) Valid() bool {
	return k == KindWithdrawal || k == KindDeposit
}

type Method string

const (
	MethodBank    Method = "bank"
	MethodPaypal  Method = "paypal"
	MethodBitcoin Method = "bitcoin"
	MethodCashApp Method = "cashapp"
)

func (m Method) Valid() bool {
	switch m {
	case MethodBank, MethodPaypal, MethodBitcoin, MethodCashApp:
		return true
	}
	return false
}

// EntryStatus moves one way: pending -> approved | rejected.
type EntryStatus string

const (
	StatusPending  EntryStatus = "pending"
	StatusApproved EntryStatus = "approved"
	StatusRejected EntryStatus = "rejected"
)

func (s EntryStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Target returns the status an action moves a pending entry to.
func (a Action) Target() (EntryStatus, bool) {
	switch a {
	case ActionApprove:
		return StatusApproved, true
	case ActionReject:
		return StatusRejected, true
	}
	return "", false
}

// LedgerEntry is a deposit or withdrawal request. AccountEmail and
// AccountName are filled by list queries that join the owner.
type LedgerEntry struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"accountId"`
	AccountEmail string          `json:"accountEmail,omitempty"`
	AccountName  string          `json:"accountName,omitempty"`
	Kind         EntryKind       `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Method       Method          `json:"method"`
	Status       EntryStatus     `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	DecidedAt    *time.Time      `json:"decidedAt,omitempty"`
	DecidedBy    *string         `json:"decidedBy,omitempty"`
}
