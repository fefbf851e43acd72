package auth

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		url    string
		scheme string
		host   string
	}{
		{"https://github.com/Staticpast/WeatherVoting.git", "https", "github.com"},
		{"git@github.com:Staticpast/WeatherVoting.git", "ssh", "github.com"},
		{"ssh://git@github.com:22/Staticpast/WeatherVoting.git", "ssh", "github.com"},
		{"git+ssh://git@example.com/repo.git", "ssh", "example.com"},
		{"/srv/git/WeatherVoting.git", "file", ""},
		{"file:///srv/git/WeatherVoting.git", "file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			scheme, host, err := Parse(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, scheme)
			assert.Equal(t, tt.host, host)
		})
	}

	_, _, err := Parse("")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	p := NewToken("ghp_secret")

	method, err := p.Method("https://github.com/Staticpast/WeatherVoting.git")
	require.NoError(t, err)
	basic, ok := method.(*http.BasicAuth)
	require.True(t, ok)
	assert.Equal(t, "x-access-token", basic.Username)
	assert.Equal(t, "ghp_secret", basic.Password)

	_, err = p.Method("git@github.com:Staticpast/WeatherVoting.git")
	assert.Error(t, err)

	method, err = NewToken("").Method("https://github.com/x/y.git")
	require.NoError(t, err)
	assert.Nil(t, method)
}

type stubProvider struct{ calls []string }

//nolint:ireturn // test stub
func (s *stubProvider) Method(remoteURL string) (transport.AuthMethod, error) {
	s.calls = append(s.calls, remoteURL)
	return &http.BasicAuth{Username: "stub"}, nil
}

func TestByScheme(t *testing.T) {
	https := &stubProvider{}
	ssh := &stubProvider{}
	p := ByScheme{"https": https, "ssh": ssh}

	method, err := p.Method("https://github.com/x/y.git")
	require.NoError(t, err)
	assert.NotNil(t, method)

	_, err = p.Method("git@github.com:x/y.git")
	require.NoError(t, err)

	method, err = p.Method("/tmp/origin.git")
	require.NoError(t, err)
	assert.Nil(t, method)

	assert.Equal(t, []string{"https://github.com/x/y.git"}, https.calls)
	assert.Equal(t, []string{"git@github.com:x/y.git"}, ssh.calls)
}
