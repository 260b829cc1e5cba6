package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/catalog/internal/auth/domain"
	"github.com/smallbiznis/catalog/internal/auth/password"
	"github.com/smallbiznis/catalog/internal/auth/token"
	"github.com/smallbiznis/catalog/internal/observability/metrics"
	"github.com/smallbiznis/catalog/internal/validation"
	"github.com/smallbiznis/catalog/pkg/clock"
	"github.com/smallbiznis/catalog/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	SessionRepo domain.SessionRepository
	Tokens      *token.Issuer
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	tokens      *token.Issuer
	metrics     *metrics.Metrics
	validator   *validation.Validator
}

func New(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("auth.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		sessionRepo: p.SessionRepo,
		tokens:      p.Tokens,
		metrics:     p.Metrics,
		validator:   validation.NewValidator(),
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, emailTakenError()
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         normalizeRole(req.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, emailTakenError()
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))
	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordAuthAttempt(ctx, "invalid")
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.metrics.RecordAuthAttempt(ctx, "failure")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !password.Verify(req.Password, user.PasswordHash) {
		s.metrics.RecordAuthAttempt(ctx, "failure")
		return nil, domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:         s.genID.Generate(),
		UserID:     user.ID,
		UserAgent:  strings.TrimSpace(req.UserAgent),
		IPAddress:  strings.TrimSpace(req.IPAddress),
		ExpiresAt:  now.Add(s.tokens.TTL()),
		CreatedAt:  now,
		LastSeenAt: now,
	}

	raw, expiresAt, err := s.tokens.Issue(*user, session.ID)
	if err != nil {
		return nil, err
	}
	session.ExpiresAt = expiresAt

	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.metrics.RecordAuthAttempt(ctx, "success")
	s.log.Info("user logged in", zap.String("user_id", user.ID.String()), zap.String("session_id", session.ID.String()))

	return &domain.LoginResult{
		User:      user,
		Token:     raw,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) Logout(ctx context.Context, principal domain.Principal) error {
	err := s.sessionRepo.RevokeSession(ctx, principal.SessionID, s.clock.Now())
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.ErrInvalidSession
	}
	return err
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Principal, error) {
	raw := strings.TrimSpace(rawToken)
	if raw == "" {
		return nil, domain.ErrInvalidSession
	}

	principal, err := s.tokens.Parse(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return nil, domain.ErrSessionExpired
		}
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSession(ctx, principal.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}
	if session.UserID != principal.UserID {
		return nil, domain.ErrInvalidSession
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if !now.Before(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	if err := s.sessionRepo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		return nil, err
	}

	return principal, nil
}

func (s *Service) CurrentUser(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	return s.repo.FindByID(ctx, principal.UserID)
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func normalizeRole(role string) string {
	switch role {
	case domain.RoleAdmin, domain.RoleViewer:
		return role
	default:
		return domain.RoleMember
	}
}

func emailTakenError() error {
	return validation.New("email", "unique", "The email has already been taken.")
}
