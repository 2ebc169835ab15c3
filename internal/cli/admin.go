package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/server/models"
	"github.com/tradexinvest/tradex/internal/server/repositories/accounts"
)

// ErrPasswordMismatch is returned when the confirmation differs.
var ErrPasswordMismatch = errors.New("passwords do not match")

type Hasher interface {
	Hash(password string) ([]byte, error)
}

// AdminCreator provisions admin accounts. Admins can only be created this
// way; the public API always registers plain users.
type AdminCreator struct {
	repo   accounts.Repository
	hasher Hasher
}

func NewAdminCreator(repo accounts.Repository, hasher Hasher) *AdminCreator {
	return &AdminCreator{repo: repo, hasher: hasher}
}

// Run prompts for the admin's email, name and password and stores the
// account. An existing email is reported, not overwritten.
func (c *AdminCreator) Run(ctx context.Context, in *bufio.Reader, out io.Writer) error {
	email, err := GetSimpleText(in, "Admin email", out)
	if err != nil {
		return err
	}
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	}

	name, err := GetSimpleText(in, "Full name", out)
	if err != nil {
		return err
	}

	password, err := GetPassword("Password", out)
	if err != nil {
		return err
	}
	if len(password) < common.MinPasswordLength {
		return fmt.Errorf("%w: password must have at least %d characters", common.ErrValidation, common.MinPasswordLength)
	}
	confirm, err := GetPassword("Repeat password", out)
	if err != nil {
		return err
	}
	if confirm != password {
		return ErrPasswordMismatch
	}

	hash, err := c.hasher.Hash(password)
	if err != nil {
		return err
	}

	a, err := c.repo.Create(ctx, &models.Account{
		Email:         email,
		PasswordHash:  hash,
		FullName:      name,
		Role:          models.RoleAdmin,
		TermsAccepted: true,
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			fmt.Fprintf(out, "Account %s already exists\n", accounts.NormalizeEmail(email))
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "Admin %s created (id %s)\n", a.Email, a.ID)
	return nil
}
