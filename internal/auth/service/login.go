package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/internal/auth/store"
	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/aussiebroadwan/botdash/pkg/slogx"
)

// Callback error codes, carried back to the login page as ?error=.
const (
	CallbackErrMissingCode  = "missing_code"
	CallbackErrInvalidState = "invalid_state"
	CallbackErrFailed       = "callback_failed"
)

var (
	errMissingCode  = errors.New(CallbackErrMissingCode)
	errInvalidState = errors.New(CallbackErrInvalidState)
)

// LoginPaths are the dashboard routes the callback may send a user to.
type LoginPaths struct {
	Dashboard  string
	Onboarding string
	Join       string
	Login      string
}

// DefaultLoginPaths are used for any empty field of LoginService.Paths.
var DefaultLoginPaths = LoginPaths{
	Dashboard:  "/dashboard",
	Onboarding: "/select-server",
	Join:       "/join",
	Login:      "/login",
}

// LoginService drives the OAuth2 authorization code flow with PKCE. Guilds
// may be nil, in which case every user counts as a member.
type LoginService struct {
	Provider IdentityProvider
	Guilds   GuildMembership
	Store    store.Store
	Cipher   *cryptox.SecretCipher
	Sessions *SessionService
	Paths    LoginPaths
	Now      func() time.Time
}

// LoginStart is everything the handler needs to bind the browser to a
// handshake: the values go into short-lived cookies, URL is the redirect.
type LoginStart struct {
	URL      string
	State    string
	Verifier string
	Redirect string
}

// BeginLogin creates a fresh state and PKCE pair for one handshake.
func (s *LoginService) BeginLogin(redirect string) (*LoginStart, error) {
	state, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}
	pkce, err := cryptox.GeneratePKCEChallenge()
	if err != nil {
		return nil, err
	}

	return &LoginStart{
		URL:      s.Provider.AuthCodeURL(state, pkce.Challenge),
		State:    state,
		Verifier: pkce.Verifier,
		Redirect: s.SanitizeRedirect(redirect),
	}, nil
}

// CallbackRequest is what came back from the provider plus the handshake
// cookies the browser presented.
type CallbackRequest struct {
	Code           string
	State          string
	StateCookie    string
	VerifierCookie string
	RedirectCookie string
}

// IssuedSession is a freshly created session to hand to the browser.
type IssuedSession struct {
	Token  string
	MaxAge time.Duration
}

// CallbackResult tells the handler where to send the browser. Session is
// set only on success. Err records why a failure happened, for logging.
type CallbackResult struct {
	Location string
	Session  *IssuedSession
	Err      error
}

// CompleteLogin finishes a handshake. It never fails outright: every outcome
// is a redirect, failures land on the login page with an error code.
func (s *LoginService) CompleteLogin(ctx context.Context, req CallbackRequest) CallbackResult {
	log := slogx.FromContext(ctx)

	if req.Code == "" || req.State == "" {
		return s.fail(CallbackErrMissingCode, errMissingCode)
	}
	if req.StateCookie == "" || req.StateCookie != req.State || req.VerifierCookie == "" {
		log.Warn("oauth callback state mismatch")
		return s.fail(CallbackErrInvalidState, errInvalidState)
	}

	user, tok, err := s.establishUser(ctx, req.Code, req.VerifierCookie)
	if err != nil {
		log.Error("oauth callback failed", "error", err)
		return s.fail(CallbackErrFailed, err)
	}
	log = log.With("user_id", user.ID)

	status := s.checkGuild(ctx, user.ID, tok.AccessToken)
	if err := s.Store.Users().UpdateGuildStatus(ctx, user.ID, status); err != nil {
		log.Error("failed to store guild status", "error", err)
		return s.fail(CallbackErrFailed, err)
	}

	lifetime := TokenLifetime(tok.ExpiresIn)
	raw, err := s.Sessions.CreateSession(ctx, user.ID, s.Now().Add(lifetime))
	if err != nil {
		log.Error("failed to create session", "error", err)
		return s.fail(CallbackErrFailed, err)
	}

	next := s.nextPath(status, user.SelectedGuildID, req.RedirectCookie)
	log.Info("user logged in", "in_guild", status.InGuild, "needs_invite", status.NeedsInvite, "next", next)

	return CallbackResult{
		Location: next,
		Session:  &IssuedSession{Token: raw, MaxAge: lifetime},
	}
}

// establishUser exchanges the code, loads the profile and stores the user
// with freshly sealed tokens.
func (s *LoginService) establishUser(ctx context.Context, code, verifier string) (domain.User, domain.ProviderToken, error) {
	tok, err := s.Provider.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return domain.User{}, tok, fmt.Errorf("exchange code: %w", err)
	}

	profile, err := s.Provider.FetchProfile(ctx, tok.AccessToken)
	if err != nil {
		return domain.User{}, tok, fmt.Errorf("fetch profile: %w", err)
	}

	u := domain.User{
		ID:       profile.ID,
		Username: profile.Username,
		Email:    profile.Email,
		Avatar:   profile.Avatar,
	}
	if err := sealTokens(s.Cipher, &u, tok, s.Now()); err != nil {
		return domain.User{}, tok, err
	}

	stored, err := s.Store.Users().UpsertUser(ctx, u)
	if err != nil {
		return domain.User{}, tok, fmt.Errorf("upsert user: %w", err)
	}
	return stored, tok, nil
}

// checkGuild resolves membership, trying to add the user with their own
// access token when they are not in the guild yet. Any failure means the
// user has to be invited by hand.
func (s *LoginService) checkGuild(ctx context.Context, userID, accessToken string) domain.GuildStatus {
	if s.Guilds == nil {
		return domain.GuildStatus{InGuild: true}
	}
	log := slogx.FromContext(ctx)

	member, err := s.Guilds.IsMember(ctx, userID)
	if err != nil {
		log.Warn("guild membership check failed", "user_id", userID, "error", err)
		return domain.GuildStatus{NeedsInvite: true}
	}
	if member {
		return domain.GuildStatus{InGuild: true}
	}

	if err := s.Guilds.AddMember(ctx, userID, accessToken); err != nil {
		log.Warn("guild auto-join failed", "user_id", userID, "error", err)
		return domain.GuildStatus{NeedsInvite: true}
	}
	return domain.GuildStatus{InGuild: true}
}

func (s *LoginService) nextPath(status domain.GuildStatus, selectedGuild, redirect string) string {
	paths := s.paths()
	switch {
	case status.NeedsInvite:
		return paths.Join
	case selectedGuild == "":
		return paths.Onboarding
	}

	target := s.SanitizeRedirect(redirect)
	if strings.Trim(target, "/") == "select-server" {
		return paths.Dashboard
	}
	return target
}

func (s *LoginService) fail(code string, err error) CallbackResult {
	return CallbackResult{
		Location: s.paths().Login + "?error=" + url.QueryEscape(code),
		Err:      err,
	}
}

// SanitizeRedirect keeps same-site relative paths and replaces anything else
// with the dashboard path.
func (s *LoginService) SanitizeRedirect(target string) string {
	dashboard := s.paths().Dashboard
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.ContainsAny(target, "\\\r\n") {
		return dashboard
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return dashboard
	}
	return target
}

func (s *LoginService) paths() LoginPaths {
	p := s.Paths
	if p.Dashboard == "" {
		p.Dashboard = DefaultLoginPaths.Dashboard
	}
	if p.Onboarding == "" {
		p.Onboarding = DefaultLoginPaths.Onboarding
	}
	if p.Join == "" {
		p.Join = DefaultLoginPaths.Join
	}
	if p.Login == "" {
		p.Login = DefaultLoginPaths.Login
	}
	return p
}
