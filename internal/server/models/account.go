package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is a person who can sign in. PasswordHash and TOTPSecret stay
// inside the server; use Summary for anything sent to a client.
type Account struct {
	ID              string
	Email           string
	PasswordHash    []byte
	FullName        string
	Role            Role
	TOTPSecret      string
	TwoFAEnabled    bool
	TermsAccepted   bool
	ChallengeSentAt *time.Time
	Balance         decimal.Decimal
	Profit          decimal.Decimal
	Interest        decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AccountSummary is the client-facing view of an Account.
type AccountSummary struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	FullName      string          `json:"fullName"`
	Role          Role            `json:"role"`
	TwoFAEnabled  bool            `json:"twoFAEnabled"`
	TermsAccepted bool            `json:"termsAccepted"`
	Balance       decimal.Decimal `json:"balance"`
	Profit        decimal.Decimal `json:"profit"`
	Interest      decimal.Decimal `json:"interest"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:            a.ID,
		Email:         a.Email,
		FullName:      a.FullName,
		Role:          a.Role,
		TwoFAEnabled:  a.TwoFAEnabled,
		TermsAccepted: a.TermsAccepted,
		Balance:       a.Balance,
		Profit:        a.Profit,
		Interest:      a.Interest,
		CreatedAt:     a.CreatedAt,
	}
}

// Investment holds the admin-curated figures of an account.
type Investment struct {
	Balance  decimal.Decimal `json:"balance"`
	Profit   decimal.Decimal `json:"profit"`
	Interest decimal.Decimal `json:"interest"`
}
