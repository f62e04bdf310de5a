/*
Package authsdk is a client for the botdash API, and the home of the JSON
types and error values the server writes.

# Clients and sessions

An SDKClient talks to public endpoints. Redirects are never followed, so the
login flow can be observed step by step:

	client := authsdk.NewSDKClient("https://dash.example.com")

	health, err := client.GetReadiness(ctx)

	start, err := client.BeginLogin(ctx, "/bots/42")
	// start.Location is the provider consent URL,
	// start.Cookies are the oauth-state, oauth-verifier and oauth-redirect cookies.

A Session presents a session token as the botdash_session cookie:

	session := client.WithSession(token)
	me, err := session.GetMe(ctx)
	err = session.SelectGuild(ctx, guildID)
	bot, err := session.GetBot(ctx, tenantID)

# Errors

Every non-2xx response is returned as an *APIError carrying the status and
the error code from the body:

	_, err := session.GetMe(ctx)
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeSessionExpired {
		// send the user back through login
	}
*/
package authsdk
