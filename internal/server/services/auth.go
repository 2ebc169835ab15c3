package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/cryptox"
	"github.com/tradexinvest/tradex/internal/logging"
	"github.com/tradexinvest/tradex/internal/server/auth"
	"github.com/tradexinvest/tradex/internal/server/config"
	"github.com/tradexinvest/tradex/internal/server/models"
	"github.com/tradexinvest/tradex/internal/server/repositories/repomanager"
)

// LoginResult tells the client which step comes next. ChallengeToken only
// opens accept-terms, verify-2fa and resend-2fa.
type LoginResult struct {
	RequiresTerms  bool   `json:"requiresTerms,omitempty"`
	Requires2FA    bool   `json:"requires2FA,omitempty"`
	ChallengeToken string `json:"challengeToken"`
}

type AcceptTermsResult struct {
	OK          bool `json:"ok"`
	Requires2FA bool `json:"requires2FA"`
}

type SessionResult struct {
	Token   string                `json:"token"`
	Account models.AccountSummary `json:"user"`
}

type AuthService struct {
	db                     *sql.DB
	repomanager            repomanager.RepositoryManager
	hasher                 *auth.PasswordHasher
	totp                   *auth.TOTP
	sealer                 *cryptox.Sealer
	notifier               Notifier
	dispatch               Dispatcher
	log                    logging.Logger
	jwtSecret              []byte
	challengeTokenValidity time.Duration
	userTokenValidity      time.Duration
	adminTokenValidity     time.Duration
	resendCooldown         time.Duration
	now                    func() time.Time
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, hasher *auth.PasswordHasher,
	sealer *cryptox.Sealer, notifier Notifier, dispatch Dispatcher, log logging.Logger) *AuthService {
	return &AuthService{
		db:                     db,
		repomanager:            m,
		hasher:                 hasher,
		totp:                   auth.NewTOTP(cfg.TOTPIssuer),
		sealer:                 sealer,
		notifier:               notifier,
		dispatch:               dispatch,
		log:                    log,
		jwtSecret:              []byte(cfg.SecretKey),
		challengeTokenValidity: cfg.ChallengeTokenValidity,
		userTokenValidity:      cfg.UserTokenValidity,
		adminTokenValidity:     cfg.AdminTokenValidity,
		resendCooldown:         cfg.ResendCooldown,
		now:                    time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*models.AccountSummary, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: a valid email is required", common.ErrValidation)
	}
	if len(password) < common.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", common.ErrValidation, common.MinPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	a, err := s.repomanager.Accounts(s.db).Create(ctx, &models.Account{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		Role:         models.RoleUser,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.log.Info(ctx, "account registered", "account_id", a.ID)
	summary := a.Summary()
	return &summary, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	repo := s.repomanager.Accounts(s.db)

	a, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	if !s.hasher.Compare(a.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(a.ID, a.Role, auth.KindChallenge, s.jwtSecret, s.challengeTokenValidity)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	if !a.TermsAccepted {
		return &LoginResult{RequiresTerms: true, ChallengeToken: token}, nil
	}

	if _, err := s.issueChallenge(ctx, a, false); err != nil {
		return nil, err
	}
	return &LoginResult{Requires2FA: true, ChallengeToken: token}, nil
}

func (s *AuthService) AcceptTerms(ctx context.Context, claims *auth.Claims) (*AcceptTermsResult, error) {
	if err := auth.Authorize(claims, auth.KindChallenge); err != nil {
		return nil, err
	}

	repo := s.repomanager.Accounts(s.db)
	if err := repo.AcceptTerms(ctx, claims.AccountID()); err != nil {
		return nil, fmt.Errorf("error accepting terms: %w", err)
	}

	a, err := repo.GetByID(ctx, claims.AccountID())
	if err != nil {
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	// Repeated calls within the cooldown keep the code already sent.
	if _, err := s.issueChallenge(ctx, a, true); err != nil {
		return nil, err
	}
	return &AcceptTermsResult{OK: true, Requires2FA: true}, nil
}

func (s *AuthService) Verify2FA(ctx context.Context, claims *auth.Claims, code string) (*SessionResult, error) {
	if err := auth.Authorize(claims, auth.KindChallenge); err != nil {
		return nil, err
	}

	repo := s.repomanager.Accounts(s.db)
	a, err := repo.GetByID(ctx, claims.AccountID())
	if err != nil {
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	if !a.TermsAccepted {
		return nil, common.ErrForbidden
	}
	if a.TOTPSecret == "" {
		return nil, common.ErrInvalidCode
	}

	secret, err := s.sealer.Open(a.TOTPSecret)
	if err != nil {
		return nil, fmt.Errorf("error opening totp secret: %w", err)
	}
	if !s.totp.Validate(strings.TrimSpace(code), secret) {
		return nil, common.ErrInvalidCode
	}

	if !a.TwoFAEnabled {
		if err := repo.EnableTwoFA(ctx, a.ID); err != nil {
			return nil, fmt.Errorf("error enabling 2fa: %w", err)
		}
		a.TwoFAEnabled = true
	}

	token, err := auth.GenerateToken(a.ID, a.Role, auth.KindSession, s.jwtSecret, s.sessionValidity(a.Role))
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	s.log.Info(ctx, "session issued", "account_id", a.ID, "role", a.Role)
	return &SessionResult{Token: token, Account: a.Summary()}, nil
}

func (s *AuthService) Resend2FA(ctx context.Context, claims *auth.Claims) error {
	if err := auth.Authorize(claims, auth.KindChallenge); err != nil {
		return err
	}

	a, err := s.repomanager.Accounts(s.db).GetByID(ctx, claims.AccountID())
	if err != nil {
		return fmt.Errorf("error loading account: %w", err)
	}
	if !a.TermsAccepted {
		return common.ErrForbidden
	}

	sent, err := s.issueChallenge(ctx, a, true)
	if err != nil {
		return err
	}
	if !sent {
		return common.ErrTooManyRequests
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, claims *auth.Claims) (*models.AccountSummary, error) {
	if err := auth.Authorize(claims, auth.KindSession); err != nil {
		return nil, err
	}

	a, err := s.repomanager.Accounts(s.db).GetByID(ctx, claims.AccountID())
	if err != nil {
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	summary := a.Summary()
	return &summary, nil
}

func (s *AuthService) sessionValidity(role models.Role) time.Duration {
	if role == models.RoleAdmin {
		return s.adminTokenValidity
	}
	return s.userTokenValidity
}

// issueChallenge makes sure the account has a TOTP secret and emails the
// current code. With enforceCooldown set, nothing is sent if a code went
// out less than resendCooldown ago, and false is returned.
func (s *AuthService) issueChallenge(ctx context.Context, a *models.Account, enforceCooldown bool) (bool, error) {
	repo := s.repomanager.Accounts(s.db)

	secret, err := s.ensureSecret(ctx, a)
	if err != nil {
		return false, err
	}

	now := s.now()
	notBefore := now
	if enforceCooldown {
		notBefore = now.Add(-s.resendCooldown)
	}
	marked, err := repo.MarkChallengeSent(ctx, a.ID, now, notBefore)
	if err != nil {
		return false, fmt.Errorf("error recording challenge: %w", err)
	}
	if !marked && enforceCooldown {
		return false, nil
	}

	code, err := s.totp.Code(secret)
	if err != nil {
		return false, fmt.Errorf("error generating code: %w", err)
	}

	holder := *a
	s.dispatch.Go(ctx, "2fa_code", func(ctx context.Context) error {
		return s.notifier.TwoFACode(ctx, &holder, code)
	})
	return true, nil
}

func (s *AuthService) ensureSecret(ctx context.Context, a *models.Account) (string, error) {
	if a.TOTPSecret != "" {
		secret, err := s.sealer.Open(a.TOTPSecret)
		if err != nil {
			return "", fmt.Errorf("error opening totp secret: %w", err)
		}
		return secret, nil
	}

	secret, err := s.totp.NewSecret(a.Email)
	if err != nil {
		return "", fmt.Errorf("error generating totp secret: %w", err)
	}
	sealed, err := s.sealer.Seal(secret)
	if err != nil {
		return "", fmt.Errorf("error sealing totp secret: %w", err)
	}
	if err := s.repomanager.Accounts(s.db).SetTOTPSecret(ctx, a.ID, sealed); err != nil {
		return "", fmt.Errorf("error storing totp secret: %w", err)
	}
	a.TOTPSecret = sealed
	return secret, nil
}
