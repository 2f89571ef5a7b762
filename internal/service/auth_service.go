package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/opsdeck/support-portal/internal/auth"
	"github.com/opsdeck/support-portal/internal/config"
	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/notifier"
	"github.com/opsdeck/support-portal/internal/repository"
	"github.com/opsdeck/support-portal/pkg/util"
)

// AuthService handles staff password sign-in and client magic-link
// sign-in. Clients never carry a password.
type AuthService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	orgs       repository.OrganizationRepository
	magicLinks repository.MagicLinkRepository
	tokens     *auth.TokenManager
	limiter    *auth.MagicLinkLimiter
	notifier   notifier.Notifier
	cfg        config.MagicLinkConfig
	appURL     string
	logger     *zap.Logger
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo      repository.UserRepository
	RoleRepo      repository.RoleRepository
	OrgRepo       repository.OrganizationRepository
	MagicLinkRepo repository.MagicLinkRepository
	Tokens        *auth.TokenManager
	Limiter       *auth.MagicLinkLimiter
	Notifier      notifier.Notifier
	MagicLinkCfg  config.MagicLinkConfig
	AppURL        string
	Logger        *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		orgs:       deps.OrgRepo,
		magicLinks: deps.MagicLinkRepo,
		tokens:     deps.Tokens,
		limiter:    deps.Limiter,
		notifier:   deps.Notifier,
		cfg:        deps.MagicLinkCfg,
		appURL:     deps.AppURL,
		logger:     deps.Logger,
	}
}

// Session is an issued access token with its principal snapshot.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
	Roles     domain.RoleSet
	OrgID     *string
}

// LoginWithPassword authenticates a staff account.
func (s *AuthService) LoginWithPassword(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewUnauthorized("invalid credentials")
		}
		return nil, util.MapError(err)
	}
	if !user.IsActive || user.PasswordHash == nil {
		return nil, util.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(*user.PasswordHash, password); err != nil {
		return nil, util.NewUnauthorized("invalid credentials")
	}
	return s.issueSession(ctx, user)
}

// RequestMagicLink issues a one-time sign-in link, throttled per email.
// Unknown addresses return success without sending so the endpoint does
// not leak which emails have accounts.
func (s *AuthService) RequestMagicLink(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return util.NewValidationError("email is required", nil)
	}

	if err := s.limiter.Allow(ctx, email); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Info("magic link requested for unknown email", zap.String("email", email))
			return nil
		}
		return util.MapError(err)
	}
	if !user.IsActive {
		return nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return util.NewInternalError(err)
	}
	token := &repository.MagicLinkToken{
		UserID:    user.ID,
		Token:     hex.EncodeToString(raw),
		ExpiresAt: time.Now().Add(time.Duration(s.cfg.TokenTTLMinutes) * time.Minute),
	}
	if err := s.magicLinks.Create(ctx, token); err != nil {
		return util.MapError(err)
	}

	link := s.appURL + "/auth/verify?token=" + token.Token
	err = s.notifier.Send(ctx, notifier.Message{
		To:      user.Email,
		Subject: "Your sign-in link",
		Body:    "Use the link below to sign in. It expires in " + (time.Duration(s.cfg.TokenTTLMinutes) * time.Minute).String() + ".",
		Link:    link,
	})
	if err != nil {
		return util.NewInternalError(err)
	}
	return nil
}

// VerifyMagicLink exchanges a valid one-time token for a session and
// resets the sender throttle for the address.
func (s *AuthService) VerifyMagicLink(ctx context.Context, tokenStr string) (*Session, error) {
	record, err := s.magicLinks.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewUnauthorized("invalid or expired link")
		}
		return nil, util.MapError(err)
	}
	if record.UsedAt != nil || time.Now().After(record.ExpiresAt) {
		return nil, util.NewUnauthorized("invalid or expired link")
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if !user.IsActive {
		return nil, util.NewForbidden("account is disabled")
	}

	if err := s.magicLinks.MarkUsed(ctx, record.ID); err != nil {
		return nil, util.MapError(err)
	}
	if err := s.limiter.Reset(ctx, user.Email); err != nil {
		s.logger.Warn("failed to reset magic link throttle", zap.Error(err))
	}
	return s.issueSession(ctx, user)
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*Session, error) {
	roles, err := s.roles.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, util.MapError(err)
	}

	var orgID *string
	if roles.Has(domain.RoleClient) {
		membership, err := s.orgs.GetMembershipByUser(ctx, user.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, util.MapError(err)
		}
		if membership != nil {
			orgID = &membership.OrganizationID
		}
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, roles, orgID)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user, Roles: roles, OrgID: orgID}, nil
}
