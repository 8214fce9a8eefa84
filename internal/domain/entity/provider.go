// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

// Provider identifies an external identity provider supported for sign-in.
type Provider string

const (
	ProviderGoogle  Provider = "google"
	ProviderGitHub  Provider = "github"
	ProviderDiscord Provider = "discord"
	ProviderApple   Provider = "apple"
)

// ParseProvider maps a URL path segment to a known provider.
// The boolean is false for anything that is not a supported provider.
func ParseProvider(s string) (Provider, bool) {
	switch Provider(s) {
	case ProviderGoogle, ProviderGitHub, ProviderDiscord, ProviderApple:
		return Provider(s), true
	}

	return "", false
}

// String returns the wire/storage form of the provider name.
func (p Provider) String() string {
	return string(p)
}

// StateCookieName returns the name of the anti-forgery state cookie for this provider.
func (p Provider) StateCookieName() string {
	return string(p) + "_oauth_state"
}
