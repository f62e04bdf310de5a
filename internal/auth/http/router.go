package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/provisioner"
	"github.com/aussiebroadwan/botdash/internal/auth/service"
	"github.com/aussiebroadwan/botdash/internal/auth/store"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
	"github.com/aussiebroadwan/botdash/pkg/jwtx"
	"github.com/aussiebroadwan/botdash/pkg/slogx"

	_ "github.com/aussiebroadwan/botdash/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	cookies      httpx.CookiePolicy

	store          store.Store
	Provisioner    Pinger        // Optional: only probed by /readyz when set
	ServiceTokens  jwtx.Verifier // Optional: enables the /internal cache hooks
	LoginService   *service.LoginService
	SessionService *service.SessionService
	UserService    *service.UserService
	BotService     *service.BotService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	cookies httpx.CookiePolicy,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		cookies:      cookies,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMe()
	r.registerBots()
	r.registerInternal()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						botdash API
//	@version					0.1.0
//	@description				Session and secret management for the bot dashboard: Discord OAuth2 login with PKCE, opaque session cookies, and cached bot and guild lookups.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/botdash
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						botdash_session
//	@description				Opaque session token set by the login callback.
//
//	@securityDefinitions.apikey	ServiceToken
//	@in							header
//	@name						Authorization
//	@description				HS256 service token signed by the provisioner, as "Bearer <jwt>".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authed wraps h with session resolution and a per-user rate limit.
func (r *Router) authed(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		SessionMiddleware(r.SessionService, r.cookies),
		httpx.RateLimitByUser(limit),
	)
}

func (r *Router) registerAuth() {
	h := &LoginHandler{
		LoginService:   r.LoginService,
		SessionService: r.SessionService,
		Cookies:        r.cookies,
	}

	// Every login and callback may cost a round trip to the provider
	r.Mux.Handle("GET /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /v1/auth/callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerMe() {
	h := &MeHandler{UserService: r.UserService}

	r.Mux.Handle("GET /v1/me", r.authed(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PUT /v1/me/guild", r.authed(h.HandleSelectGuild, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/me/guilds", r.authed(h.HandleListGuilds, httpx.ModerateLimit))
}

func (r *Router) registerBots() {
	h := &BotsHandler{BotService: r.BotService}

	r.Mux.Handle("GET /v1/tenants/{tenant}/bot", r.authed(h.HandleGetBot, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/guilds/{guild}", r.authed(h.HandleGetGuild, httpx.ModerateLimit))
}

func (r *Router) registerInternal() {
	if r.ServiceTokens == nil {
		return
	}
	h := &CacheHandler{BotService: r.BotService}

	internal := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.RateLimitByIP(httpx.ModerateLimit),
			httpx.ServiceAuthMiddleware(r.ServiceTokens),
			httpx.RequireAnyScope(provisioner.ScopeCacheInvalidate),
		)
	}
	r.Mux.Handle("POST /internal/v1/tenants/{tenant}/bot/invalidate", internal(h.HandleInvalidateBot))
	r.Mux.Handle("POST /internal/v1/guilds/{guild}/invalidate", internal(h.HandleInvalidateGuild))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Provisioner),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
