// Package cli wires the client's components together behind a cobra
// command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taskwire/client/domain"
	"github.com/taskwire/client/gateway"
	"github.com/taskwire/client/gateway/rest"
	"github.com/taskwire/client/internal/config"
	"github.com/taskwire/client/internal/infrastructure/sessionstore"
	"github.com/taskwire/client/internal/lifecycle"
	"github.com/taskwire/client/pkg/logger"
	authUC "github.com/taskwire/client/usecase/auth"
)

// App holds the wired components shared by all commands.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	manager *lifecycle.Manager
	store   *sessionstore.Store
	auth    *authUC.UseCase
	tasks   gateway.TaskGateway
	users   gateway.UserGateway
}

// NewRootCmd builds the taskwire command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "taskwire",
		Short:        "Command-line client for the task service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init()
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.shutdown(cmd.Context())
	}

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newTasksCmd(app))

	return cmd
}

func (a *App) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	log, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.logger = log

	a.manager = lifecycle.New(5*time.Second, log)
	a.manager.Register("logger", func(ctx context.Context) error {
		_ = log.Sync()
		return nil
	})

	store, err := sessionstore.Open(cfg.Session.StorePath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	a.store = store
	a.manager.Register("session_store", func(ctx context.Context) error {
		return store.Close()
	})

	client := rest.NewClient(rest.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.RequestTimeout,
		Token: func() string {
			session, err := store.Load()
			if err != nil {
				return ""
			}
			return session.Token
		},
		OnAuthFailure: func() {
			if a.auth != nil {
				a.auth.Invalidate()
			}
		},
		Logger: log,
	})

	a.tasks = rest.NewTaskGateway(client)
	a.users = rest.NewUserGateway(client)
	a.auth = authUC.New(a.users, store, log)
	return nil
}

func (a *App) shutdown(ctx context.Context) error {
	if a.manager == nil {
		return nil
	}
	return a.manager.Shutdown(ctx)
}

// session returns the active session or a friendly error telling the user
// to log in.
func (a *App) session() (*domain.Session, error) {
	session, err := a.auth.Current()
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			return nil, errors.New("not logged in; run 'taskwire login' first")
		}
		return nil, err
	}
	return session, nil
}

func parseStatus(raw string) (domain.Status, error) {
	if raw == "" {
		return "", nil
	}
	status := domain.Status(strings.ToUpper(raw))
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q (one of NEW, IN_PROGRESS, DONE)", raw)
	}
	return status, nil
}
