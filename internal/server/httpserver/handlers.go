package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/logging"
	"github.com/tradexinvest/tradex/internal/server/auth"
	"github.com/tradexinvest/tradex/internal/server/models"
	"github.com/tradexinvest/tradex/internal/server/notify"
	"github.com/tradexinvest/tradex/internal/server/services"
)

const maxBodyBytes = 1 << 20

type AuthAPI interface {
	Register(ctx context.Context, email, password, fullName string) (*models.AccountSummary, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	AcceptTerms(ctx context.Context, claims *auth.Claims) (*services.AcceptTermsResult, error)
	Verify2FA(ctx context.Context, claims *auth.Claims, code string) (*services.SessionResult, error)
	Resend2FA(ctx context.Context, claims *auth.Claims) error
	Me(ctx context.Context, claims *auth.Claims) (*models.AccountSummary, error)
}

type LedgerAPI interface {
	RequestTransaction(ctx context.Context, claims *auth.Claims, req services.TransactionRequest) (*models.LedgerEntry, error)
	ListMine(ctx context.Context, claims *auth.Claims) ([]*models.LedgerEntry, error)
}

type AdminAPI interface {
	ListEntries(ctx context.Context, claims *auth.Claims, status models.EntryStatus) ([]*models.LedgerEntry, error)
	Decide(ctx context.Context, claims *auth.Claims, entryID string, action models.Action) (*models.LedgerEntry, error)
	ListUsers(ctx context.Context, claims *auth.Claims) ([]models.AccountSummary, error)
	UpdateInvestment(ctx context.Context, claims *auth.Claims, accountID string, inv models.Investment) (*models.AccountSummary, error)
	ExportEntries(ctx context.Context, claims *auth.Claims, status models.EntryStatus, w io.Writer) error
}

type ContactAPI interface {
	Send(ctx context.Context, f notify.ContactForm) error
}

type Handlers struct {
	auth      AuthAPI
	ledger    LedgerAPI
	admin     AdminAPI
	contact   ContactAPI
	logger    logging.Logger
	jwtSecret []byte
}

func NewHandlers(a AuthAPI, l LedgerAPI, ad AdminAPI, c ContactAPI, logger logging.Logger, secretKey string) *Handlers {
	return &Handlers{
		auth:      a,
		ledger:    l,
		admin:     ad,
		contact:   c,
		logger:    logger.With("module", "http_handlers"),
		jwtSecret: []byte(secretKey),
	}
}

// Router builds the chi router with all API routes.
func (s *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.register)
		r.Post("/auth/login", s.login)
		r.Post("/contact", s.sendContact)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/auth/accept-terms", s.acceptTerms)
			r.Post("/auth/verify-2fa", s.verify2FA)
			r.Post("/auth/resend-2fa", s.resend2FA)
			r.Get("/auth/me", s.me)

			r.Post("/transactions", s.requestTransaction)
			r.Get("/transactions/my", s.listMine)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/users", s.listUsers)
				r.Put("/users/{id}/investment", s.updateInvestment)
				r.Get("/transactions", s.listEntries)
				r.Get("/transactions/export", s.exportEntries)
				r.Post("/transactions/{id}/decision", s.decide)
			})
		})
	})

	return r
}

func (s *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind, status, msg := classify(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeErrorKind(w, kind, status, msg)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", common.ErrValidation)
		}
		return fmt.Errorf("%w: malformed JSON body", common.ErrValidation)
	}
	return nil
}

func (s *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

func (s *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.auth.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Handlers) acceptTerms(w http.ResponseWriter, r *http.Request) {
	res, err := s.auth.AcceptTerms(r.Context(), ClaimsFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Handlers) verify2FA(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.auth.Verify2FA(r.Context(), ClaimsFromContext(r.Context()), req.Code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Handlers) resend2FA(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Resend2FA(r.Context(), ClaimsFromContext(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Handlers) me(w http.ResponseWriter, r *http.Request) {
	res, err := s.auth.Me(r.Context(), ClaimsFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Handlers) requestTransaction(w http.ResponseWriter, r *http.Request) {
	var req services.TransactionRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.ledger.RequestTransaction(r.Context(), ClaimsFromContext(r.Context()), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Handlers) listMine(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.ListMine(r.Context(), ClaimsFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	res, err := s.admin.ListUsers(r.Context(), ClaimsFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Handlers) updateInvestment(w http.ResponseWriter, r *http.Request) {
	var req models.Investment
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.admin.UpdateInvestment(r.Context(), ClaimsFromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// statusParam defaults to pending; "all" lists every entry.
func statusParam(r *http.Request) models.EntryStatus {
	switch v := r.URL.Query().Get("status"); v {
	case "":
		return models.StatusPending
	case "all":
		return ""
	default:
		return models.EntryStatus(v)
	}
}

func (s *Handlers) listEntries(w http.ResponseWriter, r *http.Request) {
	res, err := s.admin.ListEntries(r.Context(), ClaimsFromContext(r.Context()), statusParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Handlers) decide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action models.Action `json:"action"`
	}
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.admin.Decide(r.Context(), ClaimsFromContext(r.Context()), chi.URLParam(r, "id"), req.Action)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Handlers) exportEntries(w http.ResponseWriter, r *http.Request) {
	status := statusParam(r)

	// Buffer so authorization and storage errors can still be sent as JSON.
	var buf bytes.Buffer
	if err := s.admin.ExportEntries(r.Context(), ClaimsFromContext(r.Context()), status, &buf); err != nil {
		s.writeError(w, r, err)
		return
	}

	name := "transactions.xlsx"
	if status != "" {
		name = "transactions-" + string(status) + ".xlsx"
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Handlers) sendContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.contact.Send(r.Context(), notify.ContactForm{Name: req.Name, Email: req.Email, Message: req.Message}); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
