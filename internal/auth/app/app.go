package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/discord"
	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	httpapi "github.com/aussiebroadwan/botdash/internal/auth/http"
	"github.com/aussiebroadwan/botdash/internal/auth/provisioner"
	"github.com/aussiebroadwan/botdash/internal/auth/service"
	"github.com/aussiebroadwan/botdash/internal/auth/store"
	"github.com/aussiebroadwan/botdash/internal/auth/store/drivers/rest"
	"github.com/aussiebroadwan/botdash/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
	"github.com/aussiebroadwan/botdash/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application wires the dashboard service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	upstream    *http.Client
	cipher      *cryptox.SecretCipher
	discord     *discord.Client
	provisioner *provisioner.Client

	sessionService      *service.SessionService
	loginService        *service.LoginService
	userService         *service.UserService
	botService          *service.BotService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New validates cfg and builds every dependency. Configuration problems
// come back as *cryptox.ConfigError.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "botdash",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		upstream: &http.Client{Timeout: cfg.UpstreamTimeout},
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("botdash starting", "port", app.cfg.Port, "version", BuildVersion, "store", app.cfg.StoreDriver)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down botdash...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("botdash stopped")
	return nil
}

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase() error {
	var db store.Store
	switch app.cfg.StoreDriver {
	case StoreDriverREST:
		s, err := rest.NewStore(app.cfg.StoreRESTURL, app.cfg.StoreRESTKey, app.upstream)
		if err != nil {
			return fmt.Errorf("failed to initialize rest store: %w", err)
		}
		db = s
	default:
		s, err := sqlite.NewStore(app.cfg.DatabaseFile)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		db = s
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

// initServices builds the business services and their upstream clients
func (app *Application) initServices() error {
	cipher, err := cryptox.NewSecretCipher(app.cfg.EncryptionKey)
	if err != nil {
		return err
	}
	app.cipher = cipher

	sessions, err := service.NewSessionService(app.db, app.cfg.SessionSecret)
	if err != nil {
		return err
	}
	app.sessionService = sessions

	app.discord = discord.NewClient(discord.Config{
		ClientID:     app.cfg.DiscordClientID,
		ClientSecret: app.cfg.DiscordClientSecret,
		RedirectURL:  app.cfg.DiscordRedirectURL,
		Scopes:       app.cfg.DiscordScopes,
		BotToken:     app.cfg.DiscordBotToken,
		GuildID:      app.cfg.DiscordGuildID,
		APIURL:       app.cfg.DiscordAPIURL,
		AuthURL:      app.cfg.DiscordAuthURL,
		TokenURL:     app.cfg.DiscordTokenURL,
		HTTPClient:   app.upstream,
	})

	refresher := &service.TokenRefresher{
		Store:    app.db,
		Cipher:   cipher,
		Provider: app.discord,
		Now:      time.Now,
	}

	app.loginService = &service.LoginService{
		Provider: app.discord,
		Store:    app.db,
		Cipher:   cipher,
		Sessions: sessions,
		Paths: service.LoginPaths{
			Dashboard:  app.cfg.DashboardPath,
			Onboarding: app.cfg.OnboardingPath,
			Join:       app.cfg.JoinPath,
			Login:      app.cfg.LoginPath,
		},
		Now: time.Now,
	}
	if app.cfg.DiscordGuildID != "" {
		app.loginService.Guilds = app.discord
	} else {
		app.logger.Warn("DISCORD_GUILD_ID not set, guild membership checks disabled")
	}

	app.userService = &service.UserService{
		Store:     app.db,
		Refresher: refresher,
		Guilds:    app.discord,
	}

	if err := app.initBots(); err != nil {
		return err
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initBots wires the provisioner lookups. Without a provisioner the bot
// endpoints answer 404.
func (app *Application) initBots() error {
	var decoder *cryptox.FernetDecoder
	if app.cfg.BotSecretKey != "" {
		d, err := cryptox.NewFernetDecoder(app.cfg.BotSecretKey)
		if err != nil {
			return err
		}
		decoder = d
	}

	var dir service.BotDirectory = noDirectory{}
	if app.cfg.ProvisionerURL != "" {
		c, err := provisioner.NewClient(app.cfg.ProvisionerURL, app.cfg.ProvisionerSecret, app.upstream)
		if err != nil {
			return &cryptox.ConfigError{Setting: "PROVISIONER_SECRET", Err: err}
		}
		app.provisioner = c
		dir = c
	} else {
		app.logger.Warn("PROVISIONER_URL not set, bot lookups disabled")
	}

	app.botService = service.NewBotService(dir, decoder, app.cfg.IdentityCacheTTL, app.cfg.GuildCacheTTL)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		httpx.CookiePolicy{Secure: app.cfg.SecureCookies()},
		app.logger,
	)

	router.SessionService = app.sessionService
	router.LoginService = app.loginService
	router.UserService = app.userService
	router.BotService = app.botService
	if app.provisioner != nil {
		router.Provisioner = app.provisioner
	}
	if app.cfg.ProvisionerSecret != "" {
		router.ServiceTokens = provisioner.NewCallbackVerifier(app.cfg.ProvisionerSecret)
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// noDirectory stands in for an unconfigured provisioner: every lookup is a
// miss.
type noDirectory struct{}

func (noDirectory) GetBotIdentity(context.Context, string) (*domain.BotIdentity, error) {
	return nil, nil
}

func (noDirectory) GetGuild(context.Context, string) (*domain.GuildInfo, error) {
	return nil, nil
}
