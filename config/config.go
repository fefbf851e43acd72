// Package config loads the release pipeline configuration.
//
// Settings come from, in increasing precedence: built-in defaults, a YAML
// file (release.yaml in the project directory, or an explicit path),
// RELEASE_* environment variables and command-line flags.
//
// # Basic Usage
//
//	flags := pflag.NewFlagSet("release", pflag.ContinueOnError)
//	config.RegisterFlags(flags)
//	_ = flags.Parse(os.Args[1:])
//
//	cfg, err := config.Load(config.LoadOptions{Flags: flags})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Path(cfg.Deploy.Dir))
//
// Environment variables map onto keys with dots replaced by underscores:
// RELEASE_DEPLOY_DIR overrides deploy.dir.
package config

// DefaultFileName is the configuration file looked up in the project directory.
const DefaultFileName = "release"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RELEASE"

// Config is the complete pipeline configuration.
type Config struct {
	ProjectDir string         `mapstructure:"project_dir"`
	Project    ProjectConfig  `mapstructure:"project"`
	Snapshot   SnapshotConfig `mapstructure:"snapshot"`
	Build      BuildConfig    `mapstructure:"build"`
	Deploy     DeployConfig   `mapstructure:"deploy"`
	Git        GitConfig      `mapstructure:"git"`
	Release    ReleaseConfig  `mapstructure:"release"`
	State      StateConfig    `mapstructure:"state"`
	Log        LogConfig      `mapstructure:"log"`
}

// ProjectConfig locates the version-of-record files.
type ProjectConfig struct {
	// Name overrides the artifact name read from the descriptor.
	Name           string `mapstructure:"name"`
	Descriptor     string `mapstructure:"descriptor"`
	PluginMetadata string `mapstructure:"plugin_metadata"`
}

// SnapshotConfig selects the files change detection tracks.
type SnapshotConfig struct {
	Roots      []string `mapstructure:"roots"`
	Files      []string `mapstructure:"files"`
	Extensions []string `mapstructure:"extensions"`
}

// BuildConfig configures the Maven invocation.
type BuildConfig struct {
	Program     string   `mapstructure:"program"`
	Args        []string `mapstructure:"args"`
	ArtifactExt string   `mapstructure:"artifact_ext"`
}

// DeployConfig names the deployment slot and the optional S3 mirror.
type DeployConfig struct {
	Dir string   `mapstructure:"dir"`
	S3  S3Config `mapstructure:"s3"`
}

// S3Config enables the mirror when Bucket is set.
type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
}

// Enabled reports whether artifacts are mirrored.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// GitConfig configures commits, tags and pushes.
type GitConfig struct {
	Remote      string `mapstructure:"remote"`
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
	PushBranch  bool   `mapstructure:"push_branch"`
	SSHAgent    bool   `mapstructure:"ssh_agent"`
}

// ReleaseConfig configures the GitHub release.
type ReleaseConfig struct {
	// Repository is "owner/name"; empty derives it from the git remote.
	Repository string `mapstructure:"repository"`

	TokenEnv       []string `mapstructure:"token_env"`
	TokenSecret    string   `mapstructure:"token_secret"`
	TokenSecretKey string   `mapstructure:"token_secret_key"`
	AWSRegion      string   `mapstructure:"aws_region"`

	// Template is a text/template file for the notes body.
	Template     string   `mapstructure:"template"`
	Requirements []string `mapstructure:"requirements"`

	// Edit opens the notes in $EDITOR before publishing.
	Edit bool `mapstructure:"edit"`
}

// StateConfig locates the persisted caches. An empty Dir uses the XDG
// state directory.
type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig configures logging. File enables a rotated JSON log.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}
