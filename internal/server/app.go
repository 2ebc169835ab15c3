// Package server wires configuration, storage, notifications and the HTTP
// API together and runs them until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/tradexinvest/tradex/internal/cryptox"
	"github.com/tradexinvest/tradex/internal/logging"
	"github.com/tradexinvest/tradex/internal/server/auth"
	"github.com/tradexinvest/tradex/internal/server/config"
	"github.com/tradexinvest/tradex/internal/server/httpserver"
	"github.com/tradexinvest/tradex/internal/server/notify"
	"github.com/tradexinvest/tradex/internal/server/repositories/repomanager"
	"github.com/tradexinvest/tradex/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	handlers    *httpserver.Handlers
	closers     []io.Closer
}

type syncCloser struct{ z *logging.ZapLogger }

func (c syncCloser) Close() error { return c.z.Sync() }

// NewLogger builds the logger selected by backend ("slog" or "zap").
func NewLogger(backend string, w io.Writer) (logging.Logger, io.Closer, error) {
	switch backend {
	case "", "slog":
		return logging.NewJSONSlogLogger(w, slog.LevelInfo), nil, nil
	case "zap":
		z, err := logging.NewProductionZapLogger()
		if err != nil {
			return nil, nil, err
		}
		return z, syncCloser{z}, nil
	default:
		return nil, nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

// NewSender picks SMTP delivery when a host is configured and a log-only
// sender otherwise, wrapped in the retry policy.
func NewSender(c *config.Config, logger logging.Logger) (notify.Sender, error) {
	var sender notify.Sender
	if c.SMTPHost == "" {
		logger.Warn(context.Background(), "SMTP host not configured, emails will only be logged")
		sender = notify.NewLogSender(logger)
	} else {
		smtp, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUser,
			Password: c.SMTPPassword,
			From:     c.MailFrom,
			Timeout:  c.NotifyTimeout,
		})
		if err != nil {
			return nil, err
		}
		sender = smtp
	}
	return notify.NewRetryingSender(sender, c.NotifyAttempts, c.NotifyTimeout, logger), nil
}

func NewApp(c *config.Config) (*App, error) {
	logger, logCloser, err := NewLogger(c.LogBackend, os.Stdout)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	sealer, err := cryptox.NewSealer(c.TOTPSealKey)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("totp sealer init error: %w", err)
	}

	sender, err := NewSender(c, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("mail sender init error: %w", err)
	}
	notifier := notify.NewNotifier(sender, c.AdminEmail)
	dispatcher := notify.NewDispatcher(c.NotifyBudget(), logger.With("module", "dispatcher"))

	rm := repomanager.NewPostgresRepositoryManager()
	hasher := auth.NewPasswordHasher(0)

	as := services.NewAuthService(db, rm, c, hasher, sealer, notifier, dispatcher, logger.With("service", "auth"))
	ls := services.NewLedgerService(db, rm, notifier, dispatcher, logger.With("service", "ledger"))
	ads := services.NewAdminService(db, rm, notifier, dispatcher, logger.With("service", "admin"))
	cs := services.NewContactService(notifier, logger.With("service", "contact"))

	app := &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		handlers:    httpserver.NewHandlers(as, ls, ads, cs, logger, c.SecretKey),
		// The HTTP server has drained before these run; pending emails
		// finish before the logger is flushed.
		closers: []io.Closer{dispatcher, db},
	}
	if logCloser != nil {
		app.closers = append(app.closers, logCloser)
	}
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) close() {
	for _, c := range app.closers {
		_ = c.Close()
	}
}

// Run migrates the schema and serves HTTP until a signal arrives.
func (app *App) Run(ctx context.Context) error {
	defer app.close()

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migrations failed", "error", err)
		return err
	}

	s := httpserver.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.handlers.Router())
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
