package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/botdash/internal/auth/service"
	"github.com/aussiebroadwan/botdash/pkg/authsdk"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
	"github.com/aussiebroadwan/botdash/pkg/slogx"
)

// MeHandler serves the logged in user's own resources. Every route sits
// behind SessionMiddleware.
type MeHandler struct {
	UserService *service.UserService
}

// HandleGet returns the current user.
//
//	@Summary		Current user
//	@Description	Returns the logged in user's profile and guild status. Provider tokens are never included.
//	@Tags			Me
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"session_not_found or session_expired"
//	@Router			/v1/me [get].
func (h *MeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	u, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Avatar:          u.Avatar,
		InGuild:         u.InGuild,
		NeedsInvite:     u.NeedsInvite,
		SelectedGuildID: u.SelectedGuildID,
		TokenExpiresAt:  u.TokenExpiresAt,
	})
}

// HandleSelectGuild records the onboarding guild choice.
//
//	@Summary		Select guild
//	@Description	Stores the guild the user picked during onboarding.
//	@Tags			Me
//	@Security		SessionCookie
//	@Accept			json
//	@Param			body	body	authsdk.SelectGuildRequest	true	"Guild to select"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Missing guild_id"
//	@Failure		401	{object}	authsdk.ErrorResponse	"session_not_found or session_expired"
//	@Router			/v1/me/guild [put].
func (h *MeHandler) HandleSelectGuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	var req authsdk.SelectGuildRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil || req.GuildID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.UserService.SelectGuild(ctx, userID, req.GuildID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListGuilds lists the user's guilds at the identity provider.
//
//	@Summary		Provider guilds
//	@Description	Lists the guilds the user belongs to, refreshing the stored provider access token when it is about to expire.
//	@Tags			Me
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{array}		authsdk.UserGuildResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"session or provider authorization missing"
//	@Failure		502	{object}	authsdk.ErrorResponse	"Identity provider failed"
//	@Router			/v1/me/guilds [get].
func (h *MeHandler) HandleListGuilds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	guilds, err := h.UserService.ListProviderGuilds(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]authsdk.UserGuildResponse, 0, len(guilds))
	for _, g := range guilds {
		out = append(out, authsdk.UserGuildResponse{
			ID:          g.ID,
			Name:        g.Name,
			Icon:        g.Icon,
			Owner:       g.Owner,
			Permissions: g.Permissions,
		})
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, out)
}

// writeServiceError maps service and upstream errors onto API errors.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var ue *httpx.UpstreamError
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrBotNotFound),
		errors.Is(err, service.ErrGuildNotFound):
		authsdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrMissingTokens),
		errors.Is(err, service.ErrMissingRefreshToken):
		authsdk.ErrReauthRequired.WriteError(w)
	case errors.As(err, &ue):
		log.Warn("upstream call failed", "op", ue.Op, "status", ue.StatusCode, "error", err)
		if ue.StatusCode == http.StatusUnauthorized || ue.StatusCode == http.StatusBadRequest {
			authsdk.ErrReauthRequired.WriteError(w)
			return
		}
		authsdk.ErrUpstream.WriteError(w)
	default:
		log.Error("request failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
	}
}
