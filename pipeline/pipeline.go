// Package pipeline runs a release end to end: change detection, version
// resolution, build, deployment and publication. Stages run sequentially and
// a fatal error in any stage stops the run.
package pipeline

import (
	"context"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/Staticpast/WeatherVoting/build"
	"github.com/Staticpast/WeatherVoting/deploy"
	"github.com/Staticpast/WeatherVoting/descriptor"
	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/fs"
	"github.com/Staticpast/WeatherVoting/release"
	"github.com/Staticpast/WeatherVoting/snapshot"
	"github.com/Staticpast/WeatherVoting/state"
	"github.com/Staticpast/WeatherVoting/version"
)

// Tagger records releases in version control. *tagger.Tagger implements it.
type Tagger interface {
	CommitVersionBump(ctx context.Context, v version.State, files ...string) (bool, error)
	Tag(ctx context.Context, v version.State) perrors.Outcome
	Push(ctx context.Context, tag string) perrors.Outcome
	PushBranch(ctx context.Context) perrors.Outcome
	PruneUnpublished(ctx context.Context, dryRun bool) ([]string, error)
}

// Releaser reconciles the remote release. *release.Reconciler implements it.
type Releaser interface {
	Reconcile(ctx context.Context, req release.Request) (*release.Result, error)
}

// Pipeline holds the collaborators of a run.
type Pipeline struct {
	fs             fs.Filesystem
	store          *state.Store
	builder        build.Tool
	descriptor     string
	pluginMetadata string
	name           string
	snapshot       snapshot.Options
	deployer       *deploy.Deployer
	slotDir        string
	tagger         Tagger
	pushBranch     bool
	releaser       Releaser
	logger         *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDescriptor sets the descriptor and plugin metadata paths on the
// project filesystem.
func WithDescriptor(pom, pluginMetadata string) Option {
	return func(p *Pipeline) {
		if pom != "" {
			p.descriptor = pom
		}
		p.pluginMetadata = pluginMetadata
	}
}

// WithName overrides the artifact name read from the descriptor. Artifacts
// are then expected as <name>-<version>.<ext>.
func WithName(name string) Option {
	return func(p *Pipeline) {
		p.name = name
	}
}

// WithSnapshot selects the tracked files.
func WithSnapshot(opts snapshot.Options) Option {
	return func(p *Pipeline) {
		p.snapshot = opts
	}
}

// WithDeployer installs artifacts into dir through d.
func WithDeployer(d *deploy.Deployer, dir string) Option {
	return func(p *Pipeline) {
		p.deployer = d
		p.slotDir = dir
	}
}

// WithTagger enables version control publication. pushBranch also pushes
// the current branch before the tag.
func WithTagger(t Tagger, pushBranch bool) Option {
	return func(p *Pipeline) {
		p.tagger = t
		p.pushBranch = pushBranch
	}
}

// WithReleaser enables remote release reconciliation.
func WithReleaser(r Releaser) Option {
	return func(p *Pipeline) {
		p.releaser = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Pipeline over the project filesystem fsys.
func New(fsys fs.Filesystem, store *state.Store, builder build.Tool, opts ...Option) *Pipeline {
	p := &Pipeline{
		fs:             fsys,
		store:          store,
		builder:        builder,
		descriptor:     descriptor.DefaultPOM,
		pluginMetadata: descriptor.DefaultPluginMetadata,
		snapshot: snapshot.Options{
			Root:  ".",
			Roots: []string{"src"},
			Files: []string{descriptor.DefaultPOM},
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one pipeline run in the given mode.
func (p *Pipeline) Run(ctx context.Context, mode Mode) (*Report, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if err := p.preflight(mode); err != nil {
		return nil, err
	}

	report := &Report{}
	if mode.CleanupTags {
		return report, p.cleanup(ctx, mode, report)
	}

	st, err := p.store.Load()
	if err != nil {
		return nil, err
	}

	pom, err := descriptor.LoadPOM(p.fs, p.descriptor)
	if err != nil {
		return nil, err
	}
	current, err := pom.CurrentVersion()
	if err != nil {
		return nil, err
	}
	name := p.name
	if name == "" {
		name = pom.ProjectName()
	}
	report.Project = name
	report.Previous = current

	snap, err := snapshot.Take(p.fs, p.snapshot)
	if err != nil {
		return nil, err
	}
	report.Changed = snapshot.HasChanged(snap, st.LastDigest)
	report.Digest = snap.Hex()

	logger := p.logger.With(zap.String("project", name))
	logger.Info("project scanned",
		zap.String("version", current.String()),
		zap.Int("tracked_files", len(snap.Paths)),
		zap.Bool("changed", report.Changed),
	)

	target, err := version.Resolve(current, mode.Version)
	if err != nil {
		return nil, err
	}
	report.Version = target

	if mode.Check {
		report.Stage = StageChecked
		return report, nil
	}

	if !report.Changed && !mode.Force {
		report.Version = current
		if !mode.publishes() {
			logger.Info("no changes since last build, nothing to do")
			report.Stage = StageUnchanged
			return report, nil
		}
		logger.Info("no changes since last build, publishing current version")
		return report, p.publish(ctx, mode, report, p.existingArtifact(p.artifactBase(pom, current), current))
	}

	artifact, err := p.build(ctx, logger, p.artifactBase(pom, target), target)
	if err != nil {
		return nil, err
	}
	report.Artifact = artifact
	report.Stage = StageBuilt

	// Checkpoint: the descriptor now carries the new version, so the
	// baseline is taken again before it is persisted.
	after, err := snapshot.Take(p.fs, p.snapshot)
	if err != nil {
		return nil, err
	}
	report.Digest = after.Hex()
	if err := p.store.Save(state.State{LastVersion: target.String(), LastDigest: after.Hex()}); err != nil {
		return nil, err
	}

	if !mode.BuildOnly {
		slot := deploy.Slot{Dir: p.slotDir, Glob: p.artifactGlob(pom), Ext: strings.TrimPrefix(path.Ext(artifact.Path), ".")}
		res, err := p.deployer.Deploy(ctx, artifact, slot)
		if err != nil {
			return nil, err
		}
		report.Deploy = res
		report.Stage = StageDeployed
	}

	if mode.publishes() {
		return report, p.publish(ctx, mode, report, artifact)
	}
	return report, nil
}

func (p *Pipeline) build(ctx context.Context, logger *zap.Logger, base string, v version.State) (*build.Artifact, error) {
	if err := p.builder.ApplyVersion(ctx, v); err != nil {
		return nil, err
	}

	if p.pluginMetadata != "" {
		changed, err := descriptor.SyncPluginMetadata(p.fs, p.pluginMetadata, v.String())
		if err != nil {
			return nil, err
		}
		if changed {
			logger.Info("plugin metadata version updated", zap.String("file", p.pluginMetadata))
		}
	}

	return p.builder.Build(ctx, base, v)
}

// publish commits, tags and pushes v, then reconciles the release when the
// mode asks for one. Recoverable outcomes become report warnings.
func (p *Pipeline) publish(ctx context.Context, mode Mode, report *Report, artifact *build.Artifact) error {
	v := report.Version
	tag := v.Tag()
	report.Tag = tag

	files := []string{p.descriptor}
	if p.pluginMetadata != "" {
		files = append(files, p.pluginMetadata)
	}
	committed, err := p.tagger.CommitVersionBump(ctx, v, files...)
	if err != nil {
		return err
	}
	report.Committed = committed

	if out := p.tagger.Tag(ctx, v); !report.record(out) {
		return out.Err
	}

	if p.pushBranch {
		report.record(p.tagger.PushBranch(ctx))
	}
	report.record(p.tagger.Push(ctx, tag))
	report.Stage = StageTagged

	if !mode.wantsRelease() {
		return nil
	}

	req := release.Request{Version: v, Force: mode.ForceRelease}
	if artifact != nil {
		req.Artifact, req.ArtifactFS = artifact, p.fs
	}
	res, err := p.releaser.Reconcile(ctx, req)
	if err != nil {
		return err
	}
	report.Release = res
	report.record(res.Outcome)
	report.Stage = StageReleased
	return nil
}

func (p *Pipeline) cleanup(ctx context.Context, mode Mode, report *Report) error {
	pruned, err := p.tagger.PruneUnpublished(ctx, mode.DryRun)
	if err != nil {
		return err
	}
	report.Pruned = pruned
	report.Stage = StageCleaned
	return nil
}

// artifactBase is the packaged file name of v without extension. A configured
// name yields <name>-<version>; otherwise the descriptor's finalName rules apply.
func (p *Pipeline) artifactBase(pom *descriptor.POM, v version.State) string {
	if p.name != "" {
		return p.name + "-" + v.String()
	}
	return pom.ArtifactBase(v.String())
}

// artifactGlob matches artifactBase for any version.
func (p *Pipeline) artifactGlob(pom *descriptor.POM) string {
	if p.name != "" {
		return p.name + "-*"
	}
	return pom.ArtifactGlob()
}

// existingArtifact returns the artifact of a previous build of v, or nil.
func (p *Pipeline) existingArtifact(base string, v version.State) *build.Artifact {
	a := &build.Artifact{
		Name:    base,
		Version: v,
		Path:    path.Join(build.TargetDir, build.ArtifactFile(base, p.builder.ArtifactExt())),
	}
	if ok, err := p.fs.Exists(a.Path); err != nil || !ok {
		p.logger.Warn("no artifact from a previous build, release will have no asset", zap.String("path", a.Path))
		return nil
	}
	return a
}

// preflight rejects modes the configured collaborators cannot serve.
func (p *Pipeline) preflight(mode Mode) error {
	var missing []string
	if mode.needsTagger() && p.tagger == nil {
		missing = append(missing, "git repository")
	}
	if mode.wantsRelease() && p.releaser == nil {
		missing = append(missing, "release service")
	}
	if mode.needsDeployer() && (p.deployer == nil || strings.TrimSpace(p.slotDir) == "") {
		missing = append(missing, "deployment directory")
	}
	if len(missing) > 0 {
		return perrors.Newf(perrors.CodeInvalidConfig, "pipeline",
			"mode requires %s", strings.Join(missing, ", "))
	}
	return nil
}
