package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository"
)

// TokenConfig controls issued access tokens.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Login is the result of a successful login or refresh.
type Login struct {
	Token     string          `json:"token"`
	Session   *domain.Session `json:"session"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   TokenConfig
	logger   *zap.Logger
	now      func() time.Time
}

func New(users repository.UserRepository, sessions repository.SessionRepository, tokens TokenConfig, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens.TTL <= 0 {
		tokens.TTL = 24 * time.Hour
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// Login opens a session for username and signs a token referencing it.
func (uc *UseCase) Login(ctx context.Context, username string) (*Login, error) {
	if username == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "username is required")
	}
	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	session, err := uc.CreateSession(ctx, user, uc.tokens.TTL)
	if err != nil {
		return nil, err
	}
	token, err := uc.sign(session)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("session_id", session.ID))
	return &Login{Token: token, Session: session, ExpiresAt: session.ExpiresAt}, nil
}

func (uc *UseCase) CreateSession(ctx context.Context, user *domain.User, ttl time.Duration) (*domain.Session, error) {
	now := uc.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Refresh extends the session and issues a new token for it.
func (uc *UseCase) Refresh(ctx context.Context, sessionID string) (*Login, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, int(uc.tokens.TTL.Seconds())); err != nil {
		return nil, err
	}
	session.ExpiresAt = uc.now().Add(uc.tokens.TTL)

	token, err := uc.sign(session)
	if err != nil {
		return nil, err
	}
	return &Login{Token: token, Session: session, ExpiresAt: session.ExpiresAt}, nil
}

func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

// RevokeUserSessions logs userID out everywhere.
func (uc *UseCase) RevokeUserSessions(ctx context.Context, userID string) error {
	if err := uc.sessions.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	uc.logger.Info("user sessions revoked", zap.String("user_id", userID))
	return nil
}

func (uc *UseCase) sign(session *domain.Session) (string, error) {
	if uc.tokens.Secret == "" {
		return "", domain.NewError(domain.ErrCodeInternal, "token secret is not configured")
	}
	claims := jwt.MapClaims{
		"user_id":    session.UserID,
		"session_id": session.ID,
		"iss":        uc.tokens.Issuer,
		"iat":        uc.now().Unix(),
		"exp":        session.ExpiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.tokens.Secret))
}
