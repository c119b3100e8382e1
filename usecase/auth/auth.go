// Package auth owns the session lifecycle: login establishes and persists
// a session, logout clears it, and a server-side 401 invalidates it.
package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskwire/client/domain"
	"github.com/taskwire/client/gateway"
	"github.com/taskwire/client/pkg/token"
	"github.com/taskwire/client/usecase"
)

type UseCase struct {
	users  gateway.UserGateway
	store  usecase.SessionStore
	logger *zap.Logger
}

func New(users gateway.UserGateway, store usecase.SessionStore, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		store:  store,
		logger: logger,
	}
}

// Login exchanges credentials for a session and persists it.
func (uc *UseCase) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	if username == "" || password == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "username and password are required")
	}

	result, err := uc.users.Login(ctx, gateway.Credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		UserID:    result.ID,
		Username:  result.Username,
		Role:      result.Role,
		Token:     result.Token,
		CreatedAt: time.Now(),
	}
	if exp, err := token.Expiry(result.Token); err == nil {
		session.ExpiresAt = exp
	} else {
		uc.logger.Debug("login token has no readable expiry", zap.Error(err))
	}

	if err := uc.store.Save(session); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "could not persist session", err)
	}

	uc.logger.Info("session established",
		zap.Int64("user_id", session.UserID),
		zap.String("role", string(session.Role)))
	return session, nil
}

// Current returns the stored session. An expired session is cleared and
// reported as missing so the caller falls back to the login flow.
func (uc *UseCase) Current() (*domain.Session, error) {
	session, err := uc.store.Load()
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		uc.logger.Info("stored session expired", zap.Int64("user_id", session.UserID))
		_ = uc.store.Clear()
		return nil, domain.ErrNoSession
	}
	return session, nil
}

// Logout clears the stored session.
func (uc *UseCase) Logout() error {
	uc.logger.Info("session cleared")
	return uc.store.Clear()
}

// Invalidate drops the stored session after the server rejected it. Used
// as the 401 hook on the REST client.
func (uc *UseCase) Invalidate() {
	if err := uc.store.Clear(); err != nil {
		uc.logger.Error("failed to clear rejected session", zap.Error(err))
		return
	}
	uc.logger.Warn("session invalidated by server")
}

// Users returns the account directory. The endpoint is admin-only; the
// local check mirrors the server rule so the UI can skip a doomed call.
func (uc *UseCase) Users(ctx context.Context, session *domain.Session) ([]domain.User, error) {
	if !session.Authenticated() {
		return nil, domain.ErrNoSession
	}
	if !session.IsAdmin() {
		return nil, domain.NewError(domain.ErrCodeForbidden, "only admins may list users")
	}
	return uc.users.ListUsers(ctx)
}
