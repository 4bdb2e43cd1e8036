// Package clientapp assembles the client stack and exposes the
// per-operation flows the UI layer calls.
package clientapp

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/enkitstudio/accountkit/internal/config"
	"github.com/enkitstudio/accountkit/internal/credstore"
	"github.com/enkitstudio/accountkit/internal/infra/httpclient"
	guardsvc "github.com/enkitstudio/accountkit/internal/services/guard"
	"github.com/enkitstudio/accountkit/internal/services/notify"
	sessionsvc "github.com/enkitstudio/accountkit/internal/services/session"
	"github.com/enkitstudio/accountkit/internal/transport/rest"
)

type App struct {
	cfg      config.Config
	log      *zap.Logger
	creds    credstore.Storage
	sessions *sessionsvc.Service
	notifier *notify.Service
	client   *rest.Client
	guard    *guardsvc.Guard
	redis    *goredis.Client
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		sessions: sessionsvc.NewService(),
		notifier: notify.NewService(notify.Durations{
			Success:      cfg.Notifications.Success,
			Error:        cfg.Notifications.Error,
			Warning:      cfg.Notifications.Warning,
			Info:         cfg.Notifications.Info,
			NetworkError: cfg.Notifications.NetworkError,
		}),
	}

	switch cfg.Credentials.Backend {
	case config.CredentialBackendFile:
		store, err := credstore.NewFileStore(cfg.Credentials.File.Path)
		if err != nil {
			return nil, fmt.Errorf("create file credential store: %w", err)
		}
		a.creds = store
	case config.CredentialBackendRedis:
		a.redis = credstore.NewRedisClient(
			cfg.Credentials.Redis.Addr,
			cfg.Credentials.Redis.Password,
			cfg.Credentials.Redis.DB,
		)
		store, err := credstore.NewRedisStore(a.redis, cfg.Credentials.Redis.Key)
		if err != nil {
			return nil, fmt.Errorf("create redis credential store: %w", err)
		}
		a.creds = store
	default:
		a.creds = credstore.NewMemoryStore()
	}

	transport := rest.NewAuthTransport(nil, a.creds, a.sessions, log)
	a.client = rest.NewClient(cfg.Server.BaseURL, httpclient.New(cfg.Server.Timeout, transport), log)
	a.guard = guardsvc.New(a.sessions, cfg.Routes.Login)

	return a, nil
}

// Close tears down the display surface and any owned connections.
func (a *App) Close() error {
	a.notifier.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			return fmt.Errorf("close redis client: %w", err)
		}
	}
	return nil
}

func (a *App) Guard() *guardsvc.Guard {
	return a.guard
}

func (a *App) Sessions() *sessionsvc.Service {
	return a.sessions
}

func (a *App) Notifier() *notify.Service {
	return a.notifier
}

func (a *App) Credentials() credstore.Storage {
	return a.creds
}
