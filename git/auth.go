package git

import "github.com/Staticpast/WeatherVoting/git/internal/auth"

// NewTokenAuth returns an AuthProvider that sends token to https remotes.
//
//nolint:ireturn // AuthProvider is the contract Options expects
func NewTokenAuth(token string) AuthProvider {
	return auth.ByScheme{
		"https": auth.NewToken(token),
		"http":  auth.NewToken(token),
	}
}

// NewAuth returns an AuthProvider for https remotes (token) and, when
// useAgent is set, ssh remotes (ssh-agent).
//
//nolint:ireturn // AuthProvider is the contract Options expects
func NewAuth(token string, useAgent bool) AuthProvider {
	p := auth.ByScheme{
		"https": auth.NewToken(token),
		"http":  auth.NewToken(token),
	}
	if useAgent {
		p["ssh"] = &auth.Agent{}
	}
	return p
}
