package release_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	perrors "github.com/Staticpast/WeatherVoting/errors"
	fsb "github.com/Staticpast/WeatherVoting/fs/billy"
	"github.com/Staticpast/WeatherVoting/release"
)

// fakeGitHub serves the handful of REST endpoints the service calls.
type fakeGitHub struct {
	mu       sync.Mutex
	token    string
	releases map[string]map[string]any
	uploads  map[string][]byte
	nextID   int
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		token:    "secret",
		releases: map[string]map[string]any{},
		uploads:  map[string][]byte{},
	}
}

func (f *fakeGitHub) handler() http.Handler {
	const base = "/repos/Staticpast/WeatherVoting"
	mux := http.NewServeMux()

	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"login": "release-bot"})
	})

	mux.HandleFunc("GET "+base, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "full_name": "Staticpast/WeatherVoting"})
	})

	mux.HandleFunc("GET "+base+"/releases/tags/{tag}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		rel, ok := f.releases[r.PathValue("tag")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, rel)
	})

	mux.HandleFunc("POST "+base+"/releases", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		f.nextID++
		tag, _ := in["tag_name"].(string)
		in["id"] = f.nextID
		in["html_url"] = "https://github.com/Staticpast/WeatherVoting/releases/tag/" + tag
		f.releases[tag] = in
		writeJSON(w, http.StatusCreated, in)
	})

	mux.HandleFunc("POST "+base+"/releases/{id}/assets", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		name := r.URL.Query().Get("name")

		f.mu.Lock()
		f.uploads[name] = data
		f.mu.Unlock()

		writeJSON(w, http.StatusCreated, map[string]any{
			"id":           1,
			"name":         name,
			"content_type": r.Header.Get("Content-Type"),
		})
	})

	mux.HandleFunc("DELETE "+base+"/releases/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for tag, rel := range f.releases {
			if id, ok := rel["id"].(int); ok && r.PathValue("id") == strconv.Itoa(id) {
				delete(f.releases, tag)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newGitHub(t *testing.T, fake *fakeGitHub, token string) *release.GitHub {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)

	client := release.NewClient(token)
	client.BaseURL = u
	client.UploadURL = u

	return release.NewGitHub(client, release.Slug{Owner: "Staticpast", Name: "WeatherVoting"}, zaptest.NewLogger(t))
}

func TestGitHubAuthenticate(t *testing.T) {
	ctx := context.Background()
	fake := newFakeGitHub()

	require.NoError(t, newGitHub(t, fake, "secret").Authenticate(ctx))

	err := newGitHub(t, fake, "wrong").Authenticate(ctx)
	require.Error(t, err)
	assert.True(t, perrors.HasCode(err, perrors.CodeReleaseAuth))
}

func TestGitHubLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := newFakeGitHub()
	svc := newGitHub(t, fake, "secret")

	rec, err := svc.Find(ctx, "v1.3.0")
	require.NoError(t, err)
	assert.Nil(t, rec)

	exists, err := release.Exists(ctx, svc, "v1.3.0")
	require.NoError(t, err)
	assert.False(t, exists)

	fsys := fsb.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("target/WeatherVoting-1.3.0.jar", []byte("PK\x03\x04jar"), 0o644))

	created, err := svc.Create(ctx, release.Draft{
		Tag:    "v1.3.0",
		Name:   "WeatherVoting v1.3.0",
		Body:   "notes",
		Target: "0123456789abcdef",
		Assets: []release.Asset{{Path: "target/WeatherVoting-1.3.0.jar", FS: fsys}},
	})
	require.NoError(t, err)
	assert.Equal(t, "v1.3.0", created.Tag)
	assert.Equal(t, "0123456789abcdef", created.Target)
	assert.Equal(t, "https://github.com/Staticpast/WeatherVoting/releases/tag/v1.3.0", created.URL)
	assert.Equal(t, []string{"WeatherVoting-1.3.0.jar"}, created.Assets)
	assert.Equal(t, []byte("PK\x03\x04jar"), fake.uploads["WeatherVoting-1.3.0.jar"])

	found, err := svc.Find(ctx, "v1.3.0")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "notes", found.Body)

	deleted, err := svc.Delete(ctx, "v1.3.0")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(ctx, "v1.3.0")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGitHubMissingAsset(t *testing.T) {
	ctx := context.Background()
	svc := newGitHub(t, newFakeGitHub(), "secret")

	rec, err := svc.Create(ctx, release.Draft{
		Tag:    "v1.0.0",
		Assets: []release.Asset{{Path: "target/missing.jar", FS: fsb.NewInMemoryFS()}},
	})
	require.Error(t, err)
	assert.True(t, perrors.HasCode(err, perrors.CodeArtifactNotFound))
	require.NotNil(t, rec, "the release exists even though the upload failed")
	assert.Empty(t, rec.Assets)
}

func TestParseSlug(t *testing.T) {
	tests := []struct {
		in   string
		want release.Slug
	}{
		{"https://github.com/Staticpast/WeatherVoting.git", release.Slug{Host: "github.com", Owner: "Staticpast", Name: "WeatherVoting"}},
		{"https://x-access-token@github.com/Staticpast/WeatherVoting", release.Slug{Host: "github.com", Owner: "Staticpast", Name: "WeatherVoting"}},
		{"git@github.com:Staticpast/WeatherVoting.git", release.Slug{Host: "github.com", Owner: "Staticpast", Name: "WeatherVoting"}},
		{"ssh://git@ghe.example.com/team/plugin.git", release.Slug{Host: "ghe.example.com", Owner: "team", Name: "plugin"}},
		{"Staticpast/WeatherVoting", release.Slug{Host: "github.com", Owner: "Staticpast", Name: "WeatherVoting"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := release.ParseSlug(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := release.ParseSlug("https://github.com/only-owner")
	assert.True(t, perrors.HasCode(err, perrors.CodeInvalidConfig))

	assert.Equal(t, "https://github.com/Staticpast/WeatherVoting",
		release.Slug{Owner: "Staticpast", Name: "WeatherVoting"}.WebURL())
}
