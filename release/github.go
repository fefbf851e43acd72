package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"

	perrors "github.com/Staticpast/WeatherVoting/errors"
)

// DefaultHost is the web host of public GitHub.
const DefaultHost = "github.com"

// scpLike matches "git@github.com:owner/repo.git".
var scpLike = regexp.MustCompile(`^(?:[\w.-]+@)?([\w.-]+):([^/].*)$`)

// Slug names a GitHub repository.
type Slug struct {
	Host  string
	Owner string
	Name  string
}

// String returns "owner/name".
func (s Slug) String() string {
	return s.Owner + "/" + s.Name
}

// WebURL returns the repository's web page.
func (s Slug) WebURL() string {
	host := s.Host
	if host == "" {
		host = DefaultHost
	}
	return fmt.Sprintf("https://%s/%s/%s", host, s.Owner, s.Name)
}

// ParseSlug extracts the repository from a remote URL in HTTPS, SSH or
// scp-like form, or from a bare "owner/name".
func ParseSlug(remote string) (Slug, error) {
	remote = strings.TrimSpace(remote)
	var host, p string

	switch {
	case strings.Contains(remote, "://"):
		u, err := url.Parse(remote)
		if err != nil {
			return Slug{}, perrors.Wrapf(err, perrors.CodeInvalidConfig, "github", "parse remote %q", remote)
		}
		host, p = u.Hostname(), u.Path
	case scpLike.MatchString(remote):
		m := scpLike.FindStringSubmatch(remote)
		host, p = m[1], m[2]
	default:
		host, p = DefaultHost, remote
	}

	parts := strings.Split(strings.Trim(strings.TrimSuffix(p, ".git"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Slug{}, perrors.Newf(perrors.CodeInvalidConfig, "github", "cannot derive owner/repo from %q", remote)
	}
	return Slug{Host: host, Owner: parts[0], Name: parts[1]}, nil
}

// NewClient returns a go-github client authenticated with token.
func NewClient(token string) *github.Client {
	return github.NewClient(nil).WithAuthToken(token)
}

// GitHub is the Service backed by GitHub Releases.
type GitHub struct {
	client *github.Client
	slug   Slug
	logger *zap.Logger
}

var _ Service = (*GitHub)(nil)

// NewGitHub creates the service for one repository.
func NewGitHub(client *github.Client, slug Slug, logger *zap.Logger) *GitHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitHub{client: client, slug: slug, logger: logger}
}

// Authenticate checks the token and that the repository is visible to it.
func (g *GitHub) Authenticate(ctx context.Context) error {
	user, _, err := g.client.Users.Get(ctx, "")
	if err != nil {
		return perrors.Wrap(err, perrors.CodeReleaseAuth, "github", "authenticate")
	}

	if _, _, err := g.client.Repositories.Get(ctx, g.slug.Owner, g.slug.Name); err != nil {
		if isNotFound(err) {
			return perrors.Newf(perrors.CodeReleaseAuth, "github",
				"repository %s not found or not accessible to %s", g.slug, user.GetLogin())
		}
		return classifyAPIError(err, "look up repository "+g.slug.String())
	}

	g.logger.Debug("authenticated", zap.String("user", user.GetLogin()), zap.String("repo", g.slug.String()))
	return nil
}

// Find implements Service.
func (g *GitHub) Find(ctx context.Context, tag string) (*Record, error) {
	rel, _, err := g.client.Repositories.GetReleaseByTag(ctx, g.slug.Owner, g.slug.Name, tag)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, classifyAPIError(err, "get release "+tag)
	}
	return toRecord(rel), nil
}

// Create implements Service. The release is created first and assets are
// uploaded to it; a failed upload leaves the release in place.
func (g *GitHub) Create(ctx context.Context, d Draft) (*Record, error) {
	rel, _, err := g.client.Repositories.CreateRelease(ctx, g.slug.Owner, g.slug.Name, &github.RepositoryRelease{
		TagName:         github.String(d.Tag),
		TargetCommitish: github.String(d.Target),
		Name:            github.String(d.Name),
		Body:            github.String(d.Body),
	})
	if err != nil {
		return nil, classifyAPIError(err, "create release "+d.Tag)
	}

	rec := toRecord(rel)
	for _, a := range d.Assets {
		name, err := g.upload(ctx, rel.GetID(), a)
		if err != nil {
			return rec, err
		}
		rec.Assets = append(rec.Assets, name)
	}

	g.logger.Info("release created", zap.String("tag", d.Tag), zap.String("url", rec.URL))
	return rec, nil
}

// Delete implements Service. The tag itself is kept.
func (g *GitHub) Delete(ctx context.Context, tag string) (bool, error) {
	rec, err := g.Find(ctx, tag)
	if err != nil || rec == nil {
		return false, err
	}

	if _, err := g.client.Repositories.DeleteRelease(ctx, g.slug.Owner, g.slug.Name, rec.ID); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, classifyAPIError(err, "delete release "+tag)
	}

	g.logger.Info("release deleted", zap.String("tag", tag), zap.Int64("id", rec.ID))
	return true, nil
}

// upload streams one asset. go-github's UploadReleaseAsset needs an *os.File;
// assets here come from the fs abstraction, so the request is built directly.
func (g *GitHub) upload(ctx context.Context, id int64, a Asset) (string, error) {
	name := a.Name
	if name == "" {
		name = path.Base(a.Path)
	}

	f, err := a.FS.Open(a.Path)
	if err != nil {
		return "", perrors.Wrapf(err, perrors.CodeArtifactNotFound, "github", "open asset %s", a.Path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", perrors.Wrapf(err, perrors.CodePublishFailed, "github", "stat asset %s", a.Path)
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", perrors.Wrapf(err, perrors.CodePublishFailed, "github", "read asset %s", a.Path)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", perrors.Wrapf(err, perrors.CodePublishFailed, "github", "rewind asset %s", a.Path)
	}

	u := fmt.Sprintf("repos/%s/%s/releases/%d/assets?name=%s",
		g.slug.Owner, g.slug.Name, id, url.QueryEscape(name))
	req, err := g.client.NewUploadRequest(u, f, info.Size(), mt.String())
	if err != nil {
		return "", perrors.Wrapf(err, perrors.CodePublishFailed, "github", "prepare upload of %s", name)
	}

	asset := new(github.ReleaseAsset)
	if _, err := g.client.Do(ctx, req, asset); err != nil {
		return "", classifyAPIError(err, "upload asset "+name)
	}

	g.logger.Info("asset uploaded",
		zap.String("asset", name),
		zap.String("content_type", mt.String()),
		zap.Int64("size", info.Size()),
	)
	return name, nil
}

func toRecord(rel *github.RepositoryRelease) *Record {
	rec := &Record{
		ID:     rel.GetID(),
		Tag:    rel.GetTagName(),
		Name:   rel.GetName(),
		Body:   rel.GetBody(),
		Target: rel.GetTargetCommitish(),
		URL:    rel.GetHTMLURL(),
	}
	for _, a := range rel.Assets {
		rec.Assets = append(rec.Assets, a.GetName())
	}
	return rec
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

// classifyAPIError maps rejected credentials to ReleaseAuth and everything else to
// PublishFailed.
func classifyAPIError(err error, msg string) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return perrors.Wrap(err, perrors.CodeReleaseAuth, "github", msg)
		}
	}
	return perrors.Wrap(err, perrors.CodePublishFailed, "github", msg)
}
