// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/research-portal/internal/core"
	"github.com/carterperez-dev/research-portal/internal/event"
	"github.com/carterperez-dev/research-portal/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
)

const blacklistPrefix = "blacklist:"

type EventRecorder interface {
	Record(ctx context.Context, entry event.Entry)
}

type Service struct {
	repo     Repository
	accounts AccountRepository
	jwt      *JWTManager
	redis    redis.UniversalClient
	events   EventRecorder
	logger   *slog.Logger
}

type ServiceConfig struct {
	Tokens   Repository
	Accounts AccountRepository
	JWT      *JWTManager
	Redis    redis.UniversalClient
	Events   EventRecorder
	Logger   *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     cfg.Tokens,
		accounts: cfg.Accounts,
		jwt:      cfg.JWT,
		redis:    cfg.Redis,
		events:   cfg.Events,
		logger:   logger,
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // equalizes timing with the found-account path
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	valid, rehash, err := core.VerifyPasswordTimingSafe(req.Password, &account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if rehash != "" {
		if err := s.accounts.UpdatePassword(ctx, account.ID, rehash); err != nil {
			s.logger.WarnContext(ctx, "password rehash not stored",
				"account_id", account.ID,
				"error", err,
			)
		}
	}

	resp, err := s.issue(ctx, account, userAgent, ipAddress, "", nil)
	if err != nil {
		return nil, err
	}

	s.record(ctx, account.ID, event.TypeLogin)
	return resp, nil
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &Account{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(req.Email),
		PasswordHash: passwordHash,
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		account.DisplayName = &name
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	resp, err := s.issue(ctx, account, userAgent, ipAddress, "", nil)
	if err != nil {
		return nil, err
	}

	s.record(ctx, account.ID, event.TypeSignup)
	return resp, nil
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if stored.IsUsed {
		if err := s.repo.RevokeByFamilyID(ctx, stored.FamilyID); err != nil {
			s.logger.ErrorContext(ctx, "revoke reused token family",
				"family_id", stored.FamilyID,
				"error", err,
			)
		}
		return nil, ErrTokenReuse
	}

	if !stored.IsValid() {
		if stored.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	account, err := s.accounts.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	return s.issue(ctx, account, userAgent, ipAddress, stored.FamilyID, &stored.ID)
}

// Logout revokes the refresh token and blacklists the presented access
// token for the rest of its lifetime.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken string,
	principal *middleware.Principal,
) error {
	if principal.TokenID != "" {
		if err := s.RevokeAccessToken(ctx, principal.TokenID, principal.ExpiresAt); err != nil {
			s.logger.WarnContext(ctx, "access token not blacklisted",
				"user_id", principal.UserID,
				"error", err,
			)
		}
	}

	if refreshToken == "" {
		return nil
	}

	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if stored.UserID != principal.UserID {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, stored.ID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.accounts.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 || s.redis == nil {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

// VerifyAccessToken validates the token and rejects blacklisted ones. When
// the blacklist is unreachable the token is accepted and a warning logged.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.Principal, error) {
	principal, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if principal.TokenID == "" || s.redis == nil {
		return principal, nil
	}

	exists, err := s.redis.Exists(ctx, blacklistPrefix+principal.TokenID).Result()
	if err != nil {
		s.logger.WarnContext(ctx, "token blacklist unavailable",
			"user_id", principal.UserID,
			"error", err,
		)
		return principal, nil
	}
	if exists > 0 {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return principal, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	valid, _, err := core.VerifyPassword(currentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

func (s *Service) GetAccount(ctx context.Context, userID string) (*AccountResponse, error) {
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toAccountResponse(account)
	return &resp, nil
}

func (s *Service) issue(
	ctx context.Context,
	account *Account,
	userAgent, ipAddress, familyID string,
	previousTokenID *string,
) (*AuthResponse, error) {
	accessToken, expiresAt, err := s.jwt.CreateAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refresh, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.New().String()

	if err := s.repo.Create(ctx, &RefreshToken{
		ID:        newTokenID,
		UserID:    account.ID,
		TokenHash: refresh.Hash,
		FamilyID:  refresh.FamilyID,
		ExpiresAt: refresh.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if previousTokenID != nil {
		if err := s.repo.MarkAsUsed(ctx, *previousTokenID, newTokenID); err != nil {
			s.logger.WarnContext(ctx, "refresh chain not recorded",
				"token_id", *previousTokenID,
				"error", err,
			)
		}
	}

	return &AuthResponse{
		Account: toAccountResponse(account),
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refresh.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.jwt.AccessTokenTTL() / time.Second),
			ExpiresAt:    expiresAt,
		},
	}, nil
}

func (s *Service) record(ctx context.Context, userID string, t event.Type) {
	if s.events == nil {
		return
	}
	s.events.Record(ctx, event.Entry{UserID: userID, Type: t})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
