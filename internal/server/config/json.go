package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/tradexinvest/tradex/internal/flagx"
	"github.com/tradexinvest/tradex/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Duration
// fields use timex.Duration so both "10m" and nanosecond integers parse.
// Absent fields leave the corresponding Config value untouched.
type JsonConfig struct {
	EndpointAddrHTTP       *string         `json:"endpoint_addr_http"`
	DatabaseDSN            *string         `json:"database_dsn"`
	SecretKey              *string         `json:"secret_key"`
	TOTPSealKey            *string         `json:"totp_seal_key"`
	ChallengeTokenValidity *timex.Duration `json:"challenge_token_validity"`
	UserTokenValidity      *timex.Duration `json:"user_token_validity"`
	AdminTokenValidity     *timex.Duration `json:"admin_token_validity"`
	ResendCooldown         *timex.Duration `json:"resend_cooldown"`
	TOTPIssuer             *string         `json:"totp_issuer"`
	SMTPHost               *string         `json:"smtp_host"`
	SMTPPort               *int            `json:"smtp_port"`
	SMTPUser               *string         `json:"smtp_user"`
	SMTPPassword           *string         `json:"smtp_password"`
	MailFrom               *string         `json:"mail_from"`
	AdminEmail             *string         `json:"admin_email"`
	NotifyAttempts         *int            `json:"notify_attempts"`
	NotifyTimeout          *timex.Duration `json:"notify_timeout"`
	LogBackend             *string         `json:"log_backend"`
}

// parseJson loads the file named by -c/-config into config. Without the
// flag nothing happens. An unreadable file or invalid JSON panics, since
// the server cannot start with a half-applied configuration.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TOTPSealKey, c.TOTPSealKey)
	setDuration(&config.ChallengeTokenValidity, c.ChallengeTokenValidity)
	setDuration(&config.UserTokenValidity, c.UserTokenValidity)
	setDuration(&config.AdminTokenValidity, c.AdminTokenValidity)
	setDuration(&config.ResendCooldown, c.ResendCooldown)
	setString(&config.TOTPIssuer, c.TOTPIssuer)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.AdminEmail, c.AdminEmail)
	setInt(&config.NotifyAttempts, c.NotifyAttempts)
	setDuration(&config.NotifyTimeout, c.NotifyTimeout)
	setString(&config.LogBackend, c.LogBackend)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
