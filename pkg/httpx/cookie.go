package httpx

import (
	"net/http"
	"time"
)

// CookiePolicy carries the attributes shared by every cookie the service sets.
type CookiePolicy struct {
	// Secure should be true whenever the public URL is https.
	Secure bool
	Path   string
}

// Set writes an HttpOnly, SameSite=Lax cookie that expires after maxAge.
func (p CookiePolicy) Set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     p.path(),
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the named cookie immediately.
func (p CookiePolicy) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     p.path(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p CookiePolicy) path() string {
	if p.Path == "" {
		return "/"
	}
	return p.Path
}

// CookieValue returns the named cookie's value or "" when absent.
func CookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
