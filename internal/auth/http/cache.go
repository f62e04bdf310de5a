package http

import (
	"net/http"

	"github.com/aussiebroadwan/botdash/internal/auth/service"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
	"github.com/aussiebroadwan/botdash/pkg/slogx"
)

// CacheHandler lets the provisioner evict records it has just changed so the
// dashboard does not serve them until the TTL runs out.
type CacheHandler struct {
	BotService *service.BotService
}

// HandleInvalidateBot drops a tenant's cached bot identity.
//
//	@Summary		Invalidate bot identity
//	@Description	Called by the provisioner after it rotates or deletes a tenant's bot. Requires a service token with scope cache:invalidate.
//	@Tags			Internal
//	@Security		ServiceToken
//	@Param			tenant	path	string	true	"Tenant ID"
//	@Success		204		"Evicted"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"insufficient_scope"
//	@Router			/internal/v1/tenants/{tenant}/bot/invalidate [post].
func (h *CacheHandler) HandleInvalidateBot(w http.ResponseWriter, r *http.Request) {
	tenant := r.PathValue("tenant")
	h.BotService.InvalidateBot(tenant)
	logEviction(r, "bot", tenant)
	w.WriteHeader(http.StatusNoContent)
}

// HandleInvalidateGuild drops a guild's cached metadata.
//
//	@Summary		Invalidate guild metadata
//	@Tags			Internal
//	@Security		ServiceToken
//	@Param			guild	path	string	true	"Guild ID"
//	@Success		204		"Evicted"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"insufficient_scope"
//	@Router			/internal/v1/guilds/{guild}/invalidate [post].
func (h *CacheHandler) HandleInvalidateGuild(w http.ResponseWriter, r *http.Request) {
	guild := r.PathValue("guild")
	h.BotService.InvalidateGuild(guild)
	logEviction(r, "guild", guild)
	w.WriteHeader(http.StatusNoContent)
}

func logEviction(r *http.Request, kind, key string) {
	caller, _ := httpx.ServiceFromContext(r.Context())
	slogx.FromContext(r.Context()).Info("cache entry evicted", "kind", kind, "key", key, "caller", caller)
}
