package http

import (
	"net/http"

	"github.com/aussiebroadwan/botdash/internal/auth/service"
	"github.com/aussiebroadwan/botdash/pkg/authsdk"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
)

type BotsHandler struct {
	BotService *service.BotService
}

// HandleGetBot returns a tenant's bot.
//
//	@Summary		Tenant bot
//	@Description	Returns the bot provisioned for a tenant. Results are cached for a few minutes; the credential is only shown masked.
//	@Tags			Bots
//	@Security		SessionCookie
//	@Produce		json
//	@Param			tenant	path		string	true	"Tenant ID"
//	@Success		200		{object}	authsdk.BotResponse
//	@Failure		401		{object}	authsdk.ErrorResponse	"session_not_found or session_expired"
//	@Failure		404		{object}	authsdk.ErrorResponse	"No bot for this tenant"
//	@Failure		502		{object}	authsdk.ErrorResponse	"Provisioner failed"
//	@Router			/v1/tenants/{tenant}/bot [get].
func (h *BotsHandler) HandleGetBot(w http.ResponseWriter, r *http.Request) {
	bot, err := h.BotService.GetBotIdentity(r.Context(), r.PathValue("tenant"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.BotResponse{
		TenantID:      bot.TenantID,
		ApplicationID: bot.ApplicationID,
		Username:      bot.Username,
		Avatar:        bot.Avatar,
		TokenHint:     service.MaskToken(bot.Token),
		UpdatedAt:     bot.UpdatedAt,
	})
}

// HandleGetGuild returns guild metadata.
//
//	@Summary		Guild metadata
//	@Description	Returns guild metadata from the provisioner, cached for a few seconds.
//	@Tags			Bots
//	@Security		SessionCookie
//	@Produce		json
//	@Param			guild	path		string	true	"Guild ID"
//	@Success		200		{object}	authsdk.GuildResponse
//	@Failure		401		{object}	authsdk.ErrorResponse	"session_not_found or session_expired"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Unknown guild"
//	@Failure		502		{object}	authsdk.ErrorResponse	"Provisioner failed"
//	@Router			/v1/guilds/{guild} [get].
func (h *BotsHandler) HandleGetGuild(w http.ResponseWriter, r *http.Request) {
	g, err := h.BotService.GetGuild(r.Context(), r.PathValue("guild"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.GuildResponse{
		ID:          g.ID,
		Name:        g.Name,
		Icon:        g.Icon,
		MemberCount: g.MemberCount,
		BotPresent:  g.BotPresent,
	})
}
