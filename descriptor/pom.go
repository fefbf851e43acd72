// Package descriptor reads the project's version-of-record files: the Maven
// project descriptor and the plugin metadata bundled into the jar.
package descriptor

import (
	"encoding/xml"
	"strings"

	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/fs"
	"github.com/Staticpast/WeatherVoting/version"
)

// DefaultPOM is the descriptor path relative to the project directory.
const DefaultPOM = "pom.xml"

// POM holds the descriptor fields the pipeline uses. Fields nested under
// <parent> are ignored.
type POM struct {
	XMLName    xml.Name `xml:"project"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Name       string   `xml:"name"`
	Version    string   `xml:"version"`
	Packaging  string   `xml:"packaging"`
	Build      struct {
		FinalName string `xml:"finalName"`
	} `xml:"build"`
}

// LoadPOM reads and decodes the descriptor at path.
func LoadPOM(fsys fs.Filesystem, path string) (*POM, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, perrors.Wrapf(err, perrors.CodeInvalidConfig, "descriptor", "read %s", path)
	}

	var pom POM
	if err := xml.Unmarshal(data, &pom); err != nil {
		return nil, perrors.Wrapf(err, perrors.CodeInvalidConfig, "descriptor", "decode %s", path)
	}
	pom.ArtifactID = strings.TrimSpace(pom.ArtifactID)
	pom.Name = strings.TrimSpace(pom.Name)
	pom.Version = strings.TrimSpace(pom.Version)
	pom.Build.FinalName = strings.TrimSpace(pom.Build.FinalName)

	if pom.ArtifactID == "" {
		return nil, perrors.Newf(perrors.CodeInvalidConfig, "descriptor", "%s has no artifactId", path)
	}
	return &pom, nil
}

// ProjectName is the display name: <name> when set, else <artifactId>.
func (p *POM) ProjectName() string {
	if p.Name != "" && !strings.Contains(p.Name, "${") {
		return p.Name
	}
	return p.ArtifactID
}

// ArtifactBase is the packaged file name without extension when the project
// is built at version v. Maven names it <build><finalName>, defaulting to
// <artifactId>-<version>.
func (p *POM) ArtifactBase(v string) string {
	if p.Build.FinalName == "" {
		return p.ArtifactID + "-" + v
	}
	return p.interpolate(p.Build.FinalName, v)
}

// ArtifactGlob matches the artifact file name, without extension, of any
// version. A finalName without a version placeholder matches only itself.
func (p *POM) ArtifactGlob() string {
	const mark = "\x00"
	base := p.ArtifactBase(mark)
	for _, meta := range []string{`\`, "*", "?", "["} {
		base = strings.ReplaceAll(base, meta, `\`+meta)
	}
	return strings.ReplaceAll(base, mark, "*")
}

// interpolate resolves the project properties Maven allows in finalName.
// Unknown placeholders are left as written.
func (p *POM) interpolate(s, v string) string {
	name := p.Name
	if name == "" || strings.Contains(name, "${") {
		name = p.ArtifactID
	}
	return strings.NewReplacer(
		"${project.artifactId}", p.ArtifactID,
		"${artifactId}", p.ArtifactID,
		"${project.groupId}", p.GroupID,
		"${project.name}", name,
		"${project.version}", v,
		"${version}", v,
	).Replace(s)
}

// CurrentVersion parses the descriptor's version field.
func (p *POM) CurrentVersion() (version.State, error) {
	v, err := version.Parse(p.Version)
	if err != nil {
		return version.State{}, perrors.Wrap(err, perrors.CodeVersionFormat, "descriptor", "descriptor version")
	}
	return v, nil
}
