package release

import (
	"context"
	"errors"
	"fmt"
	"text/template"

	"go.uber.org/zap"

	"github.com/Staticpast/WeatherVoting/build"
	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/fs"
	"github.com/Staticpast/WeatherVoting/git"
	"github.com/Staticpast/WeatherVoting/version"
)

// Action is the transition the reconciler took.
type Action string

const (
	ActionCreate   Action = "create"
	ActionSkip     Action = "skip"
	ActionRecreate Action = "recreate"
)

// Repository is the subset of *git.Repo the reconciler reads.
type Repository interface {
	Head(ctx context.Context) (string, error)
	TagExists(ctx context.Context, name string) (bool, error)
	TagTarget(ctx context.Context, name string) (string, error)
	Tags(ctx context.Context, filters ...git.TagFilter) ([]string, error)
	CommitsBetween(ctx context.Context, from, to string) ([]git.Commit, error)
}

var _ Repository = (*git.Repo)(nil)

// Request selects the release to reconcile.
type Request struct {
	Version version.State

	// Artifact is attached to a created release when set. Its path is
	// resolved on ArtifactFS.
	Artifact   *build.Artifact
	ArtifactFS fs.Filesystem

	// Force recreates an existing release.
	Force bool
}

// Result describes one reconciliation.
type Result struct {
	Action   Action
	Record   *Record
	Previous string
	Target   string

	// Outcome is informational ReleaseConflict for a skip, success otherwise.
	Outcome perrors.Outcome
}

// Reconciler drives a tag's release to the published state.
type Reconciler struct {
	svc          Service
	repo         Repository
	project      string
	reviewer     Reviewer
	tmpl         *template.Template
	requirements []string
	repoURL      string
	logger       *zap.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithReviewer sets the notes review hook. Defaults to PassThrough.
func WithReviewer(rv Reviewer) Option {
	return func(r *Reconciler) {
		if rv != nil {
			r.reviewer = rv
		}
	}
}

// WithTemplate sets the notes template. Defaults to DefaultTemplate.
func WithTemplate(t *template.Template) Option {
	return func(r *Reconciler) {
		r.tmpl = t
	}
}

// WithRequirements sets the platform requirement lines of the notes.
func WithRequirements(lines ...string) Option {
	return func(r *Reconciler) {
		r.requirements = lines
	}
}

// WithRepoURL sets the repository web page the changelog link points into.
func WithRepoURL(u string) Option {
	return func(r *Reconciler) {
		r.repoURL = u
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Reconciler. repo may be nil, in which case every
// reconciliation fails before contacting svc.
func New(svc Service, repo Repository, project string, opts ...Option) *Reconciler {
	r := &Reconciler{
		svc:      svc,
		repo:     repo,
		project:  project,
		reviewer: PassThrough{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile makes sure a release exists for req.Version's tag.
//
// Without a release one is created. An existing release is left untouched
// unless req.Force is set, in which case it is deleted and created again.
// A missing repository or failed authentication aborts before any change.
func (r *Reconciler) Reconcile(ctx context.Context, req Request) (*Result, error) {
	if r.repo == nil {
		return nil, perrors.New(perrors.CodeGitOperation, "release", "no git repository")
	}
	if req.Version.IsZero() {
		return nil, perrors.New(perrors.CodeVersionFormat, "release", "no version to release")
	}

	if err := r.svc.Authenticate(ctx); err != nil {
		if perrors.HasCode(err, perrors.CodeReleaseAuth) {
			return nil, err
		}
		return nil, perrors.Wrap(err, perrors.CodeReleaseAuth, "release", "authenticate")
	}

	tag := req.Version.Tag()
	logger := r.logger.With(zap.String("tag", tag))

	existing, err := r.svc.Find(ctx, tag)
	if err != nil {
		return nil, publishErr(err, "look up release "+tag)
	}

	action := ActionCreate
	if existing != nil {
		if !req.Force {
			logger.Info("release already exists, skipping", zap.String("url", existing.URL))
			return &Result{
				Action: ActionSkip,
				Record: existing,
				Outcome: perrors.OutcomeOf(perrors.Newf(perrors.CodeReleaseConflict, "release",
					"release %s already exists at %s", tag, existing.URL)),
			}, nil
		}
		action = ActionRecreate
	}

	draft, prev, err := r.draft(ctx, req)
	if err != nil {
		return nil, err
	}

	if action == ActionRecreate {
		if _, err := r.svc.Delete(ctx, tag); err != nil {
			return nil, publishErr(err, "delete release "+tag)
		}
		logger.Info("deleted existing release", zap.String("url", existing.URL))
	}

	rec, err := r.svc.Create(ctx, draft)
	if err != nil {
		return nil, publishErr(err, "create release "+tag)
	}

	logger.Info("release published",
		zap.String("action", string(action)),
		zap.String("url", rec.URL),
		zap.String("target", draft.Target),
		zap.String("previous", prev),
	)
	return &Result{
		Action:   action,
		Record:   rec,
		Previous: prev,
		Target:   draft.Target,
		Outcome:  perrors.Succeeded(),
	}, nil
}

// draft assembles the release: target commit, notes and asset.
func (r *Reconciler) draft(ctx context.Context, req Request) (Draft, string, error) {
	tag := req.Version.Tag()

	target, err := r.target(ctx, tag)
	if err != nil {
		return Draft{}, "", err
	}

	prev := r.PreviousTag(ctx, req.Version)

	commits, err := r.repo.CommitsBetween(ctx, prev, target)
	if err != nil {
		r.logger.Warn("cannot read history for notes", zap.String("from", prev), zap.Error(err))
		commits = nil
	}

	body, err := RenderNotes(r.tmpl, NotesData{
		Project:      r.project,
		Tag:          tag,
		Previous:     prev,
		Groups:       GroupCommits(commits),
		Requirements: r.requirements,
		ChangelogURL: ChangelogURL(r.repoURL, prev, tag),
	})
	if err != nil {
		return Draft{}, "", err
	}

	body, err = r.reviewer.Review(ctx, tag, body)
	if err != nil {
		return Draft{}, "", err
	}

	d := Draft{
		Tag:    tag,
		Name:   fmt.Sprintf("%s %s", r.project, tag),
		Body:   body,
		Target: target,
	}
	if req.Artifact != nil && req.ArtifactFS != nil {
		d.Assets = []Asset{{Name: req.Artifact.File(), Path: req.Artifact.Path, FS: req.ArtifactFS}}
	}
	return d, prev, nil
}

// target is the commit the tag points to, or HEAD when the tag is absent.
func (r *Reconciler) target(ctx context.Context, tag string) (string, error) {
	exists, err := r.repo.TagExists(ctx, tag)
	if err != nil {
		return "", perrors.Wrap(err, perrors.CodeGitOperation, "release", "look up "+tag)
	}
	if exists {
		hash, err := r.repo.TagTarget(ctx, tag)
		if err != nil {
			return "", perrors.Wrap(err, perrors.CodeGitOperation, "release", "resolve "+tag)
		}
		return hash, nil
	}

	hash, err := r.repo.Head(ctx)
	if err != nil {
		return "", perrors.Wrap(err, perrors.CodeGitOperation, "release", "resolve HEAD")
	}
	return hash, nil
}

// PreviousTag returns the highest version tag below v, or "" when there is
// none or the tags cannot be listed.
func (r *Reconciler) PreviousTag(ctx context.Context, v version.State) string {
	tags, err := r.repo.Tags(ctx, git.TagPrefixFilter(version.TagPrefix))
	if err != nil {
		r.logger.Warn("cannot list tags, changelog has no previous tag", zap.Error(err))
		return ""
	}

	var best version.State
	prev := ""
	for _, tag := range tags {
		tv, ok := version.FromTag(tag)
		if !ok || !tv.LessThan(v) {
			continue
		}
		if best.IsZero() || best.LessThan(tv) {
			best, prev = tv, tag
		}
	}
	return prev
}

func publishErr(err error, msg string) error {
	var coded *perrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return perrors.Wrap(err, perrors.CodePublishFailed, "release", msg)
}
