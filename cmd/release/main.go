// Command release builds, deploys and publishes a Maven plugin project.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Staticpast/WeatherVoting/build"
	"github.com/Staticpast/WeatherVoting/config"
	"github.com/Staticpast/WeatherVoting/credentials"
	"github.com/Staticpast/WeatherVoting/deploy"
	"github.com/Staticpast/WeatherVoting/descriptor"
	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/executor"
	fsb "github.com/Staticpast/WeatherVoting/fs/billy"
	"github.com/Staticpast/WeatherVoting/git"
	"github.com/Staticpast/WeatherVoting/internal/logging"
	"github.com/Staticpast/WeatherVoting/pipeline"
	"github.com/Staticpast/WeatherVoting/release"
	"github.com/Staticpast/WeatherVoting/snapshot"
	"github.com/Staticpast/WeatherVoting/state"
	"github.com/Staticpast/WeatherVoting/tagger"
	"github.com/Staticpast/WeatherVoting/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// modeFlags are the flags that select what a run does.
type modeFlags struct {
	level        string
	setVersion   string
	noIncrement  bool
	force        bool
	check        bool
	buildOnly    bool
	release      bool
	gitOnly      bool
	forceRelease bool
	cleanupTags  bool
	dryRun       bool
}

func (f *modeFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.level, "level", string(version.Patch), "version increment: patch, minor or major")
	fs.StringVar(&f.setVersion, "set-version", "", "use this exact version instead of incrementing")
	fs.BoolVar(&f.noIncrement, "no-increment", false, "keep the current version")
	fs.BoolVar(&f.force, "force", false, "build even when nothing changed")
	fs.BoolVar(&f.check, "check", false, "report the next version and change state, then exit")
	fs.BoolVar(&f.buildOnly, "build-only", false, "build without deploying")
	fs.BoolVar(&f.release, "release", false, "tag, push and publish a GitHub release")
	fs.BoolVar(&f.gitOnly, "git-only", false, "tag and push without a GitHub release")
	fs.BoolVar(&f.forceRelease, "force-release", false, "recreate an existing GitHub release")
	fs.BoolVar(&f.cleanupTags, "cleanup-tags", false, "delete local version tags that were never pushed")
	fs.BoolVar(&f.dryRun, "dry-run", false, "with --cleanup-tags, list tags without deleting them")
}

func (f *modeFlags) mode() (pipeline.Mode, error) {
	level, err := version.ParseLevel(f.level)
	if err != nil {
		return pipeline.Mode{}, err
	}
	m := pipeline.Mode{
		Version: version.Request{
			Level:       level,
			Override:    f.setVersion,
			NoIncrement: f.noIncrement,
		},
		Check:        f.check,
		Force:        f.force,
		BuildOnly:    f.buildOnly,
		Release:      f.release,
		GitOnly:      f.gitOnly,
		ForceRelease: f.forceRelease,
		CleanupTags:  f.cleanupTags,
		DryRun:       f.dryRun,
	}
	return m, m.Validate()
}

func run(args []string, stdout, stderr io.Writer) int {
	var mf modeFlags
	flags := pflag.NewFlagSet("release", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	mf.register(flags)
	config.RegisterFlags(flags)

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return perrors.CodeInvalidConfig.ExitCode()
	}

	mode, err := mf.mode()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return perrors.ExitCode(err)
	}

	cfg, err := config.Load(config.LoadOptions{Flags: flags})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return perrors.ExitCode(err)
	}
	if abs, err := filepath.Abs(cfg.ProjectDir); err == nil {
		cfg.ProjectDir = abs
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Path(cfg.Log.File),
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
		Console:    stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return perrors.CodeInvalidConfig.ExitCode()
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := execute(ctx, cfg, mode, logger)
	if report != nil {
		for _, line := range report.Summary() {
			fmt.Fprintln(stdout, line)
		}
	}
	if err != nil {
		logger.Error("release failed",
			zap.String("code", string(perrors.CodeOf(err))),
			zap.Error(err),
		)
		return perrors.ExitCode(err)
	}
	return 0
}

// execute wires the collaborators the mode needs and runs the pipeline.
func execute(ctx context.Context, cfg *config.Config, mode pipeline.Mode, logger *zap.Logger) (*pipeline.Report, error) {
	if !mode.CleanupTags && !mode.Check {
		if err := executor.Require(cfg.Build.Program); err != nil {
			return nil, err
		}
	}

	project := fsb.NewOSFS(cfg.ProjectDir)
	host := fsb.NewBaseOSFS()

	name := projectName(cfg, project)
	stateDir := cfg.Path(cfg.State.Dir)
	if stateDir == "" {
		stateDir = state.DefaultDir(name)
	}
	store := state.NewStore(host, stateDir)

	maven := build.NewMaven(executor.NewOSRunner(os.Stderr), project, cfg.ProjectDir,
		build.WithProgram(cfg.Build.Program),
		build.WithExtraArgs(cfg.Build.Args...),
		build.WithArtifactExt(cfg.Build.ArtifactExt),
		build.WithLogger(logger.Named("build")),
	)

	opts := []pipeline.Option{
		pipeline.WithDescriptor(cfg.Project.Descriptor, cfg.Project.PluginMetadata),
		pipeline.WithName(cfg.Project.Name),
		pipeline.WithSnapshot(snapshot.Options{
			Root:       ".",
			Roots:      cfg.Snapshot.Roots,
			Files:      cfg.Snapshot.Files,
			Extensions: cfg.Snapshot.Extensions,
		}),
		pipeline.WithLogger(logger),
	}

	if !mode.Check && !mode.BuildOnly && !mode.CleanupTags {
		if err := cfg.ValidateDeploy(); err != nil {
			return nil, err
		}
		deployer, err := newDeployer(ctx, cfg, project, host, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithDeployer(deployer, cfg.Path(cfg.Deploy.Dir)))
	}

	if !mode.Check && (mode.Release || mode.GitOnly || mode.ForceRelease || mode.CleanupTags) {
		publishing, err := newPublishing(ctx, cfg, mode, project, name, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, publishing...)
	}

	return pipeline.New(project, store, maven, opts...).Run(ctx, mode)
}

func newDeployer(ctx context.Context, cfg *config.Config, project, host *fsb.FS, logger *zap.Logger) (*deploy.Deployer, error) {
	dopts := []deploy.Option{deploy.WithLogger(logger.Named("deploy"))}
	if cfg.Deploy.S3.Enabled() {
		mirror, err := deploy.NewS3MirrorFromEnv(ctx, cfg.Deploy.S3.Region, cfg.Deploy.S3.Bucket, cfg.Deploy.S3.Prefix, logger.Named("s3"))
		if err != nil {
			return nil, err
		}
		dopts = append(dopts, deploy.WithMirror(mirror))
	}
	return deploy.New(project, host, dopts...), nil
}

// newPublishing opens the repository and, when a remote release is involved,
// the GitHub service.
func newPublishing(ctx context.Context, cfg *config.Config, mode pipeline.Mode, project *fsb.FS, name string, logger *zap.Logger) ([]pipeline.Option, error) {
	needsService := mode.Release || mode.ForceRelease

	token, err := resolveToken(ctx, cfg, logger)
	if err != nil {
		if needsService {
			return nil, err
		}
		logger.Warn("no token found, pushing with ssh-agent or anonymous access", zap.Error(err))
	}

	gopts := &git.Options{FS: project, Auth: git.NewAuth(token, cfg.Git.SSHAgent)}
	if cfg.HasAuthor() {
		gopts.Tagger = &git.Signature{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	}
	repo, err := git.Open(ctx, gopts)
	if err != nil {
		return nil, perrors.Wrapf(err, perrors.CodeGitOperation, "release", "open repository in %s", cfg.ProjectDir)
	}

	var svc release.Service
	var slug release.Slug
	if needsService {
		slug, err = repositorySlug(ctx, cfg, repo)
		if err != nil {
			return nil, err
		}
		svc = release.NewGitHub(release.NewClient(token), slug, logger.Named("github"))
	}

	tg := tagger.New(repo, name, repo.Identity(),
		tagger.WithRemote(cfg.Git.Remote),
		tagger.WithLogger(logger.Named("tagger")),
	)
	opts := []pipeline.Option{pipeline.WithTagger(tg, cfg.Git.PushBranch)}

	if needsService {
		reconciler, err := newReconciler(cfg, svc, repo, slug, name, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithReleaser(reconciler))
	}
	return opts, nil
}

func newReconciler(cfg *config.Config, svc release.Service, repo *git.Repo, slug release.Slug, name string, logger *zap.Logger) (*release.Reconciler, error) {
	var text string
	if cfg.Release.Template != "" {
		data, err := os.ReadFile(cfg.Path(cfg.Release.Template))
		if err != nil {
			return nil, perrors.Wrapf(err, perrors.CodeInvalidConfig, "release", "read template %s", cfg.Release.Template)
		}
		text = string(data)
	}
	tmpl, err := release.ParseTemplate(text)
	if err != nil {
		return nil, err
	}

	ropts := []release.Option{
		release.WithTemplate(tmpl),
		release.WithRequirements(cfg.Release.Requirements...),
		release.WithRepoURL(slug.WebURL()),
		release.WithLogger(logger.Named("release")),
	}
	if cfg.Release.Edit {
		ropts = append(ropts, release.WithReviewer(release.NewEditor(executor.NewOSRunner(nil), logger)))
	}
	return release.New(svc, repo, name, ropts...), nil
}

// projectName is the configured name, else the descriptor's, else the
// directory name.
func projectName(cfg *config.Config, project *fsb.FS) string {
	if cfg.Project.Name != "" {
		return cfg.Project.Name
	}
	if pom, err := descriptor.LoadPOM(project, cfg.Project.Descriptor); err == nil {
		return pom.ProjectName()
	}
	return filepath.Base(cfg.ProjectDir)
}

func resolveToken(ctx context.Context, cfg *config.Config, logger *zap.Logger) (string, error) {
	chain := credentials.Chain{&credentials.Env{Vars: cfg.TokenEnv(), Lookup: os.LookupEnv}}
	if cfg.Release.TokenSecret != "" {
		secret, err := credentials.NewAWSSecretFromEnv(ctx, cfg.Release.AWSRegion,
			cfg.Release.TokenSecret, cfg.Release.TokenSecretKey, logger.Named("secrets"))
		if err != nil {
			return "", err
		}
		chain = append(chain, secret)
	}
	return chain.Resolve(ctx)
}

func repositorySlug(ctx context.Context, cfg *config.Config, repo *git.Repo) (release.Slug, error) {
	if cfg.Release.Repository != "" {
		return release.ParseSlug(cfg.Release.Repository)
	}
	remote, err := repo.RemoteURL(ctx, cfg.Git.Remote)
	if err != nil {
		return release.Slug{}, perrors.Wrapf(err, perrors.CodeInvalidConfig, "release",
			"set release.repository or add a %q remote", cfg.Git.Remote)
	}
	return release.ParseSlug(remote)
}
