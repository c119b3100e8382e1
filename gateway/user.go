package gateway

import (
	"context"

	"github.com/taskwire/client/domain"
)

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the body returned by a successful login.
type LoginResult struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	Token    string      `json:"token"`
}

// UserGateway performs the network operations against the user resource.
// ListUsers is admin-only on the server side.
type UserGateway interface {
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}
