package config

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Staticpast/WeatherVoting/build"
	"github.com/Staticpast/WeatherVoting/credentials"
	"github.com/Staticpast/WeatherVoting/descriptor"
	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/git"
	"github.com/Staticpast/WeatherVoting/snapshot"
)

// Flag names bound onto configuration keys.
const (
	FlagConfig     = "config"
	FlagProjectDir = "project-dir"
	FlagLogLevel   = "log-level"
)

// flagKeys maps bound flags to their keys.
var flagKeys = map[string]string{
	FlagProjectDir: "project_dir",
	FlagLogLevel:   "log.level",
}

// LoadOptions configures Load.
type LoadOptions struct {
	// ConfigFile is an explicit file path. It must exist. Empty looks up
	// release.yaml in the project directory and tolerates its absence.
	ConfigFile string

	// ProjectDir overrides the project directory used to look up the file.
	ProjectDir string

	// Flags, when set, overrides keys from bound flags that were changed.
	Flags *pflag.FlagSet

	// SkipValidation disables Validate after loading.
	SkipValidation bool
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagConfig, "", "path to the configuration file (default <project-dir>/release.yaml)")
	fs.String(FlagProjectDir, ".", "project directory containing pom.xml")
	fs.String(FlagLogLevel, "info", "log level: debug, info, warn or error")
}

// Load reads the configuration.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
		if opts.ConfigFile == "" {
			if f := opts.Flags.Lookup(FlagConfig); f != nil {
				opts.ConfigFile = f.Value.String()
			}
		}
	}
	if opts.ProjectDir != "" {
		v.Set("project_dir", opts.ProjectDir)
	}

	if err := readFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, perrors.Wrap(err, perrors.CodeInvalidConfig, "config", "decode configuration")
	}

	if !opts.SkipValidation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func readFile(v *viper.Viper, explicit string) error {
	v.SetConfigType("yaml")
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return perrors.Wrapf(err, perrors.CodeInvalidConfig, "config", "read %s", explicit)
		}
		return nil
	}

	v.SetConfigName(DefaultFileName)
	v.AddConfigPath(v.GetString("project_dir"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return perrors.Wrap(err, perrors.CodeInvalidConfig, "config", "read configuration file")
	}
	return nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return perrors.Wrapf(err, perrors.CodeInternal, "config", "bind flag --%s", name)
		}
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("project_dir", ".")

	v.SetDefault("project.name", "")
	v.SetDefault("project.descriptor", descriptor.DefaultPOM)
	v.SetDefault("project.plugin_metadata", descriptor.DefaultPluginMetadata)

	v.SetDefault("snapshot.roots", []string{"src"})
	v.SetDefault("snapshot.files", []string{descriptor.DefaultPOM})
	v.SetDefault("snapshot.extensions", snapshot.DefaultExtensions)

	v.SetDefault("build.program", build.DefaultProgram)
	v.SetDefault("build.args", []string{})
	v.SetDefault("build.artifact_ext", build.DefaultArtifactExt)

	v.SetDefault("deploy.dir", "server/plugins")
	v.SetDefault("deploy.s3.bucket", "")
	v.SetDefault("deploy.s3.prefix", "")
	v.SetDefault("deploy.s3.region", "")

	v.SetDefault("git.remote", git.DefaultRemoteName)
	v.SetDefault("git.author_name", "")
	v.SetDefault("git.author_email", "")
	v.SetDefault("git.push_branch", true)
	v.SetDefault("git.ssh_agent", false)

	v.SetDefault("release.repository", "")
	v.SetDefault("release.token_env", credentials.DefaultEnvVars)
	v.SetDefault("release.token_secret", "")
	v.SetDefault("release.token_secret_key", "")
	v.SetDefault("release.aws_region", "")
	v.SetDefault("release.template", "")
	v.SetDefault("release.requirements", []string{})
	v.SetDefault("release.edit", false)

	v.SetDefault("state.dir", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
}
