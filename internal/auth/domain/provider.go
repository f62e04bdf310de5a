package domain

// ProviderToken is what the identity provider returns from a code exchange or
// refresh grant. ExpiresIn is in seconds; zero means the provider did not say.
type ProviderToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Profile is the identity provider's view of the logged in user.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// ProviderGuild is a guild the user belongs to, as listed by the provider.
type ProviderGuild struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Owner       bool   `json:"owner"`
	Permissions string `json:"permissions,omitempty"`
}
