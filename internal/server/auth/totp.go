package auth

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod = 30
	// totpSkew accepts codes up to two steps before or after the current one.
	totpSkew = 2
)

// TOTP generates secrets and checks six-digit SHA1 codes.
type TOTP struct {
	issuer string
	now    func() time.Time
}

func NewTOTP(issuer string) *TOTP {
	return &TOTP{issuer: issuer, now: time.Now}
}

func (t *TOTP) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// NewSecret returns a fresh base32 shared secret for accountName.
func (t *TOTP) NewSecret(accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer,
		AccountName: accountName,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// Code is the current code for secret.
func (t *TOTP) Code(secret string) (string, error) {
	return totp.GenerateCodeCustom(secret, t.now().UTC(), t.opts())
}

// Validate reports whether code matches secret within the skew window.
func (t *TOTP) Validate(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, t.now().UTC(), t.opts())
	return err == nil && ok
}
