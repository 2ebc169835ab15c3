package config

import (
	"flag"
	"os"
	"time"

	"github.com/tradexinvest/tradex/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":10000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-k string   TOTP seal key
//	-t int      challenge token validity, minutes
//	-u int      user session validity, minutes
//	-m int      admin session validity, minutes
//	-l string   log backend (slog|zap)
//
// Duration flags are integers in minutes, converted to time.Duration.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-k", "-t", "-u", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.TOTPSealKey, "k", config.TOTPSealKey, "TOTP seal key")

	challenge := fs.Int("t", int(config.ChallengeTokenValidity.Minutes()), "challenge token validity (in minutes)")
	user := fs.Int("u", int(config.UserTokenValidity.Minutes()), "user session validity (in minutes)")
	admin := fs.Int("m", int(config.AdminTokenValidity.Minutes()), "admin session validity (in minutes)")

	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend: slog or zap")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ChallengeTokenValidity = time.Duration(*challenge) * time.Minute
	config.UserTokenValidity = time.Duration(*user) * time.Minute
	config.AdminTokenValidity = time.Duration(*admin) * time.Minute
}
