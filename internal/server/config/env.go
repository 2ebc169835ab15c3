package config

import (
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces the environment overrides, e.g. TRADEX_SECRET_KEY.
const EnvPrefix = "TRADEX"

// parseEnv overlays values from TRADEX_* environment variables. Only
// variables that are present are applied; durations use Go syntax ("10m").
func parseEnv(config *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	envString(v, "endpoint_addr_http", &config.EndpointAddrHTTP)
	envString(v, "database_dsn", &config.DatabaseDSN)
	envString(v, "secret_key", &config.SecretKey)
	envString(v, "totp_seal_key", &config.TOTPSealKey)
	envDuration(v, "challenge_token_validity", &config.ChallengeTokenValidity)
	envDuration(v, "user_token_validity", &config.UserTokenValidity)
	envDuration(v, "admin_token_validity", &config.AdminTokenValidity)
	envDuration(v, "resend_cooldown", &config.ResendCooldown)
	envString(v, "totp_issuer", &config.TOTPIssuer)
	envString(v, "smtp_host", &config.SMTPHost)
	envInt(v, "smtp_port", &config.SMTPPort)
	envString(v, "smtp_user", &config.SMTPUser)
	envString(v, "smtp_password", &config.SMTPPassword)
	envString(v, "mail_from", &config.MailFrom)
	envString(v, "admin_email", &config.AdminEmail)
	envInt(v, "notify_attempts", &config.NotifyAttempts)
	envDuration(v, "notify_timeout", &config.NotifyTimeout)
	envString(v, "log_backend", &config.LogBackend)
}

func envString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func envInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func envDuration(v *viper.Viper, key string, dst *time.Duration) {
	if v.IsSet(key) {
		*dst = v.GetDuration(key)
	}
}
