// Package auth resolves go-git transport credentials per remote URL.
package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// Provider returns the transport.AuthMethod for a remote URL, or nil when
// the URL needs no credentials from this provider.
type Provider interface {
	Method(remoteURL string) (transport.AuthMethod, error)
}

// Token authenticates https remotes with a personal access token sent as
// the basic-auth password. GitHub ignores the username but requires one.
type Token struct {
	Username string
	Token    string
}

// NewToken creates a Token provider.
func NewToken(token string) *Token {
	return &Token{Username: "x-access-token", Token: token}
}

// Method implements Provider.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *Token) Method(remoteURL string) (transport.AuthMethod, error) {
	scheme, _, err := Parse(remoteURL)
	if err != nil {
		return nil, err
	}
	if scheme != "https" && scheme != "http" {
		return nil, fmt.Errorf("token auth only supports http(s) remotes, got %s", scheme)
	}
	if p.Token == "" {
		return nil, nil
	}
	return &http.BasicAuth{Username: p.Username, Password: p.Token}, nil
}

// Agent authenticates ssh remotes through the running ssh-agent.
type Agent struct {
	User string
}

// Method implements Provider.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *Agent) Method(remoteURL string) (transport.AuthMethod, error) {
	scheme, _, err := Parse(remoteURL)
	if err != nil {
		return nil, err
	}
	if scheme != "ssh" {
		return nil, fmt.Errorf("agent auth only supports ssh remotes, got %s", scheme)
	}

	user := p.User
	if user == "" {
		user = "git"
	}
	method, err := ssh.NewSSHAgentAuth(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH agent auth: %w", err)
	}
	return method, nil
}

// ByScheme dispatches to a provider keyed by URL scheme ("https", "ssh").
// Schemes without a provider (file, local paths) get no credentials.
type ByScheme map[string]Provider

// Method implements Provider.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (b ByScheme) Method(remoteURL string) (transport.AuthMethod, error) {
	scheme, _, err := Parse(remoteURL)
	if err != nil {
		return nil, err
	}
	p, ok := b[scheme]
	if !ok || p == nil {
		return nil, nil
	}
	return p.Method(remoteURL)
}

// Parse returns the scheme and host of a remote URL. scp-like addresses
// (git@github.com:owner/repo.git) report "ssh" and local paths "file".
func Parse(remoteURL string) (scheme, host string, err error) {
	if remoteURL == "" {
		return "", "", fmt.Errorf("empty remote URL")
	}

	if !strings.Contains(remoteURL, "://") {
		at := strings.Index(remoteURL, "@")
		colon := strings.Index(remoteURL, ":")
		if colon > 0 && at < colon && !strings.HasPrefix(remoteURL, "/") {
			return "ssh", remoteURL[at+1 : colon], nil
		}
		return "file", "", nil
	}

	u, err := url.Parse(remoteURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %w", err)
	}

	scheme = u.Scheme
	if scheme == "git+ssh" || scheme == "ssh+git" {
		scheme = "ssh"
	}
	return scheme, u.Hostname(), nil
}
