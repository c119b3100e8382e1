package rest

import (
	"context"

	"github.com/valyala/fasthttp"

	"github.com/taskwire/client/domain"
	"github.com/taskwire/client/gateway"
)

// UserGateway talks to the /users resource.
type UserGateway struct {
	client *Client
}

// NewUserGateway creates a REST-backed user gateway.
func NewUserGateway(client *Client) *UserGateway {
	return &UserGateway{client: client}
}

func (g *UserGateway) Login(ctx context.Context, creds gateway.Credentials) (*gateway.LoginResult, error) {
	var result gateway.LoginResult
	if err := g.client.do(ctx, fasthttp.MethodPost, "/users/login", nil, creds, &result, "login failed"); err != nil {
		return nil, err
	}
	return &result, nil
}

func (g *UserGateway) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := g.client.do(ctx, fasthttp.MethodGet, "/users", nil, nil, &users, "could not load users"); err != nil {
		return nil, err
	}
	return users, nil
}

var _ gateway.UserGateway = (*UserGateway)(nil)
