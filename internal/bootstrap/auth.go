package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/target/webui-auth/config"
	"github.com/target/webui-auth/internal/adapters/devauth"
	"github.com/target/webui-auth/internal/adapters/oauthgw"
	"github.com/target/webui-auth/internal/adapters/restgw"
	"github.com/target/webui-auth/internal/adapters/tokenfile"
	"github.com/target/webui-auth/internal/adapters/tokenredis"
	"github.com/target/webui-auth/internal/apiclient"
	domainauth "github.com/target/webui-auth/internal/domain/auth"
	"github.com/target/webui-auth/internal/notify"
	"github.com/target/webui-auth/internal/observability/statsd"
	"github.com/target/webui-auth/internal/ports"
	"github.com/target/webui-auth/internal/service"
	"github.com/target/webui-auth/internal/store"
	"github.com/target/webui-auth/internal/theme"
)

// ClientOptions contains the dependencies for building the auth client.
// Only Config is required; everything else has a working default.
type ClientOptions struct {
	Config config.AppConfig
	Logger *slog.Logger

	// Navigator receives route changes (401 expiry, guard redirects).
	// Defaults to a navigator that only logs.
	Navigator ports.Navigator

	// Notifier receives user-facing notices. Defaults to the log notifier.
	Notifier ports.Notifier

	// Grabber completes the interactive OAuth step. Defaults to a
	// loopback listener on the configured redirect URL.
	Grabber oauthgw.CodeGrabber

	// RedisClient overrides the client built from config (tests).
	RedisClient redis.UniversalClient
}

// Client bundles the wired-up auth subsystem.
type Client struct {
	Store   *store.Store
	Auth    *service.AuthService
	API     *apiclient.Client
	Theme   *theme.Manager
	Tokens  ports.TokenStorage
	Storage ports.KeyValueStorage

	// Metrics is the StatsD client behind the auth service. Callers
	// should Close it on shutdown; it is nil-safe and may be disabled.
	Metrics *statsd.Client
}

// BuildClient wires storage, store, gateway, service, and API client
// from configuration. A misconfigured or absent identity backend does
// not fail the build: the auth service is still returned and reports
// not-configured on use.
func BuildClient(opts ClientOptions) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	navigator := opts.Navigator
	if navigator == nil {
		navigator = loggingNavigator(logger)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}

	storage, err := buildStorage(opts.Config.Storage, opts.RedisClient)
	if err != nil {
		return nil, fmt.Errorf("build storage: %w", err)
	}

	sessionStore := store.New(storage, logger)

	gateway := buildGateway(opts, storage, logger)

	metricsClient, err := statsd.New(statsd.Config{
		Addr:   opts.Config.Metrics.StatsdAddr,
		Prefix: opts.Config.Metrics.Prefix,
		Logger: logger,
		Tags:   map[string]string{"auth_mode": string(opts.Config.Auth.Mode)},
	})
	if err != nil {
		return nil, fmt.Errorf("build statsd client: %w", err)
	}

	authService := service.NewAuthService(service.AuthServiceOptions{
		Gateway: gateway,
		Store:   sessionStore,
		Logger:  logger,
		Metrics: metricsClient,
	})

	interceptor := apiclient.NewInterceptor(apiclient.InterceptorOptions{
		Tokens:    storage,
		Store:     sessionStore,
		Navigator: navigator,
		Notifier:  notifier,
		Logger:    logger,
	})
	api, err := apiclient.New(apiclient.Config{
		BaseURL:     opts.Config.API.BaseURL,
		Timeout:     opts.Config.API.Timeout,
		Interceptor: interceptor,
	})
	if err != nil {
		return nil, fmt.Errorf("build api client: %w", err)
	}

	return &Client{
		Store:   sessionStore,
		Auth:    authService,
		API:     api,
		Theme:   theme.NewManager(storage),
		Tokens:  storage,
		Storage: storage,
		Metrics: metricsClient,
	}, nil
}

// storageBackend is what every storage implementation provides: the
// fixed-key token port plus general key-value access for preferences.
type storageBackend interface {
	ports.TokenStorage
	ports.KeyValueStorage
}

func buildStorage(cfg config.StorageConfig, client redis.UniversalClient) (storageBackend, error) {
	switch cfg.Backend {
	case config.StorageRedis:
		if client == nil {
			client = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
		}
		return tokenredis.New(client), nil

	default:
		path := cfg.Path
		if path == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("resolve config directory: %w", err)
			}
			path = filepath.Join(dir, "webui-auth", "storage.json")
		}
		return tokenfile.New(path)
	}
}

// buildGateway selects the identity backend for the configured mode.
// Returns nil (auth disabled, not an error) when the mode is none or
// the mode's required configuration is missing.
func buildGateway(opts ClientOptions, tokens ports.TokenStorage, logger *slog.Logger) ports.IdentityGateway {
	cfg := opts.Config

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		gw, err := devauth.NewGateway(devauth.Config{
			UserID:      cfg.Auth.DevAuth.UserID,
			Email:       cfg.Auth.DevAuth.Email,
			DisplayName: cfg.Auth.DevAuth.DisplayName,
			Role:        domainauth.Role(cfg.Auth.DevAuth.Role),
		})
		if err != nil {
			logger.Warn("failed to create dev auth gateway, auth disabled", "error", err)
			return nil
		}
		return gw

	case config.AuthModeRest:
		return buildRestGateway(cfg, tokens, logger)

	case config.AuthModeOAuth:
		rest := buildRestGateway(cfg, tokens, logger)
		oauth := buildOAuthGateway(opts, logger)
		if oauth == nil {
			return rest
		}
		if rest == nil {
			return oauth
		}
		return &compositeGateway{rest: rest, providers: oauth}

	default:
		return nil
	}
}

func buildRestGateway(cfg config.AppConfig, tokens ports.TokenStorage, logger *slog.Logger) ports.IdentityGateway {
	gw, err := restgw.New(restgw.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Tokens:  tokens,
	})
	if err != nil {
		logger.Warn("failed to create rest gateway, auth disabled", "error", err)
		return nil
	}
	return gw
}

func buildOAuthGateway(opts ClientOptions, logger *slog.Logger) ports.IdentityGateway {
	oauth := opts.Config.Auth.OAuth
	if !oauth.AnyConfigured() {
		logger.Warn("AuthModeOAuth selected but no provider credentials configured")
		return nil
	}

	grabber := opts.Grabber
	if grabber == nil {
		var err error
		grabber, err = oauthgw.NewLoopbackGrabber(oauth.RedirectURL, logger)
		if err != nil {
			logger.Warn("failed to create loopback grabber, provider sign-in disabled", "error", err)
			return nil
		}
	}

	gw, err := oauthgw.New(oauthgw.Config{
		Google:      oauthgw.ClientCredentials{ClientID: oauth.Google.ClientID, ClientSecret: oauth.Google.ClientSecret},
		Facebook:    oauthgw.ClientCredentials{ClientID: oauth.Facebook.ClientID, ClientSecret: oauth.Facebook.ClientSecret},
		GitHub:      oauthgw.ClientCredentials{ClientID: oauth.GitHub.ClientID, ClientSecret: oauth.GitHub.ClientSecret},
		RedirectURL: oauth.RedirectURL,
		Grabber:     grabber,
	})
	if err != nil {
		logger.Warn("failed to create oauth gateway, provider sign-in disabled", "error", err)
		return nil
	}
	return gw
}

// compositeGateway routes provider sign-in to the OAuth gateway and
// everything else to the REST backend.
type compositeGateway struct {
	rest      ports.IdentityGateway
	providers ports.IdentityGateway
}

var _ ports.IdentityGateway = (*compositeGateway)(nil)

func (c *compositeGateway) Login(ctx context.Context, email, password string) (ports.AuthResult, error) {
	return c.rest.Login(ctx, email, password)
}

func (c *compositeGateway) SignUp(ctx context.Context, creds domainauth.SignUpCredentials) (ports.AuthResult, error) {
	return c.rest.SignUp(ctx, creds)
}

func (c *compositeGateway) Logout(ctx context.Context) error {
	return c.rest.Logout(ctx)
}

func (c *compositeGateway) SignInWithProvider(ctx context.Context, provider domainauth.Provider) (ports.AuthResult, error) {
	return c.providers.SignInWithProvider(ctx, provider)
}

func (c *compositeGateway) SendPasswordReset(ctx context.Context, email string) error {
	return c.rest.SendPasswordReset(ctx, email)
}

func (c *compositeGateway) ResetPassword(ctx context.Context, code, newPassword string) error {
	return c.rest.ResetPassword(ctx, code, newPassword)
}

func (c *compositeGateway) Refresh(ctx context.Context) (ports.AuthResult, error) {
	return c.rest.Refresh(ctx)
}

func loggingNavigator(logger *slog.Logger) ports.Navigator {
	return ports.NavigatorFunc(func(route domainauth.Route) {
		logger.Info("navigate", slog.String("route", string(route)))
	})
}
