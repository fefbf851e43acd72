// Package deploy installs a built artifact into its deployment slot, the
// server directory where exactly one version of the artifact is live.
package deploy

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Staticpast/WeatherVoting/build"
	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/fs"
)

// Slot is the live artifact location: every file in Dir matching
// <Glob>.<Ext> belongs to the slot.
type Slot struct {
	Dir string
	// Glob matches the artifact file name, without extension, of any version.
	Glob string
	Ext  string
}

// Pattern returns the glob that matches the slot's files.
func (s Slot) Pattern() string {
	return s.Glob + "." + s.Ext
}

// Mirror publishes a deployed artifact to secondary storage.
type Mirror interface {
	Publish(ctx context.Context, artifact *build.Artifact, src fs.Filesystem) (string, error)
}

// Result describes one deployment.
type Result struct {
	Removed   []string
	Installed string
	Mirrored  string
}

// Deployer copies artifacts from the project filesystem into slots on the
// target filesystem.
type Deployer struct {
	src    fs.Filesystem
	dst    fs.Filesystem
	mirror Mirror
	logger *zap.Logger
}

// Option configures a Deployer.
type Option func(*Deployer)

// WithMirror publishes every installed artifact to m as well.
func WithMirror(m Mirror) Option {
	return func(d *Deployer) {
		d.mirror = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Deployer) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Deployer reading artifacts from src and writing slots on dst.
func New(src, dst fs.Filesystem, opts ...Option) *Deployer {
	d := &Deployer{src: src, dst: dst, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ClearStale creates the slot directory if needed and removes every file
// matching the slot pattern. It returns the removed file names.
func (d *Deployer) ClearStale(slot Slot) ([]string, error) {
	if err := d.dst.MkdirAll(slot.Dir, 0o755); err != nil {
		return nil, perrors.Wrapf(err, perrors.CodeDeployFailed, "deploy", "create %s", slot.Dir)
	}

	matches, err := d.dst.Glob(filepath.Join(slot.Dir, slot.Pattern()))
	if err != nil {
		return nil, perrors.Wrapf(err, perrors.CodeDeployFailed, "deploy", "list %s", slot.Dir)
	}

	removed := make([]string, 0, len(matches))
	for _, m := range matches {
		if err := d.dst.Remove(m); err != nil {
			return removed, perrors.Wrapf(err, perrors.CodeDeployFailed, "deploy", "remove %s", m)
		}
		removed = append(removed, filepath.Base(m))
		d.logger.Debug("removed stale artifact", zap.String("file", m))
	}

	return removed, nil
}

// Install copies the artifact into the slot and returns the installed file name.
func (d *Deployer) Install(artifact *build.Artifact, slot Slot) (string, error) {
	ok, err := d.src.Exists(artifact.Path)
	if err != nil {
		return "", perrors.Wrapf(err, perrors.CodeDeployFailed, "deploy", "stat %s", artifact.Path)
	}
	if !ok {
		return "", perrors.Newf(perrors.CodeArtifactNotFound, "deploy", "artifact %s not found", artifact.Path)
	}

	name := path.Base(artifact.Path)
	dest := filepath.Join(slot.Dir, name)

	if err := d.copy(artifact.Path, dest); err != nil {
		return "", perrors.Wrapf(err, perrors.CodeDeployFailed, "deploy", "install %s", dest)
	}

	d.logger.Info("artifact installed", zap.String("file", dest))
	return name, nil
}

// Deploy clears the slot, installs the artifact and runs the mirror if one
// is configured. Afterwards the slot holds exactly one matching file.
func (d *Deployer) Deploy(ctx context.Context, artifact *build.Artifact, slot Slot) (*Result, error) {
	removed, err := d.ClearStale(slot)
	if err != nil {
		return nil, err
	}

	installed, err := d.Install(artifact, slot)
	if err != nil {
		return nil, err
	}

	res := &Result{Removed: removed, Installed: installed}
	if d.mirror != nil {
		loc, err := d.mirror.Publish(ctx, artifact, d.src)
		if err != nil {
			return res, err
		}
		res.Mirrored = loc
	}

	return res, nil
}

func (d *Deployer) copy(from, to string) error {
	in, err := d.src.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := to + ".partial"
	out, err := d.dst.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = d.dst.Remove(tmp)
		return err
	}
	if err = out.Close(); err != nil {
		_ = d.dst.Remove(tmp)
		return err
	}

	return d.dst.Rename(tmp, to)
}
