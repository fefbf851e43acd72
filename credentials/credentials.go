// Package credentials resolves the token used to talk to the release service
// and to authenticate git pushes over https.
package credentials

import (
	"context"
	"errors"
	"os"
	"strings"

	perrors "github.com/Staticpast/WeatherVoting/errors"
)

// ErrNoToken is returned by a Resolver that has no token to offer. Chain
// moves on to the next resolver when it sees it.
var ErrNoToken = errors.New("no token available")

// DefaultEnvVars are the environment variables Env consults, in order.
var DefaultEnvVars = []string{"GITHUB_TOKEN", "GH_TOKEN"}

// Resolver yields a token.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (string, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context) (string, error) {
	return f(ctx)
}

// Env reads the first non-empty variable from Vars.
type Env struct {
	Vars   []string
	Lookup func(string) (string, bool)
}

// NewEnv creates an Env over DefaultEnvVars.
func NewEnv() *Env {
	return &Env{Vars: DefaultEnvVars, Lookup: os.LookupEnv}
}

// Resolve implements Resolver.
func (e *Env) Resolve(ctx context.Context) (string, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, name := range e.Vars {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", ErrNoToken
}

// Chain tries resolvers in order and returns the first token found.
type Chain []Resolver

// Resolve implements Resolver. When no resolver has a token the error is a
// ReleaseAuth error.
func (c Chain) Resolve(ctx context.Context) (string, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		token, err := r.Resolve(ctx)
		switch {
		case err == nil && token != "":
			return token, nil
		case err == nil, errors.Is(err, ErrNoToken):
			continue
		default:
			return "", perrors.Wrap(err, perrors.CodeReleaseAuth, "credentials", "resolve token")
		}
	}
	return "", perrors.New(perrors.CodeReleaseAuth, "credentials",
		"no token found; set GITHUB_TOKEN or configure release.token_secret")
}
