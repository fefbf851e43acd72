package release

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"

	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/git"
)

// DefaultTemplate renders the release body.
const DefaultTemplate = `## What's New in {{ .Tag }}
{{ range .Groups }}
### {{ .Title }}
{{ range .Entries }}- {{ . }}
{{ end }}{{ else }}
- Maintenance release.
{{ end }}
{{- if .Requirements }}
## Requirements
{{ range .Requirements }}- {{ . }}
{{ end }}{{ end }}
{{- if .ChangelogURL }}
**Full Changelog**: {{ .ChangelogURL }}
{{ end }}`

// bumpPrefix marks the commits the tagger creates; they are not notable.
const bumpPrefix = "chore(release):"

// Section titles in render order.
const (
	SectionBreaking = "Breaking Changes"
	SectionFeatures = "Features"
	SectionFixes    = "Bug Fixes"
	SectionPerf     = "Performance"
	SectionOther    = "Other Changes"
)

var sectionOrder = []string{SectionBreaking, SectionFeatures, SectionFixes, SectionPerf, SectionOther}

// Group is one titled list of changes.
type Group struct {
	Title   string
	Entries []string
}

// NotesData is the template input.
type NotesData struct {
	Project      string
	Tag          string
	Previous     string
	Groups       []Group
	Requirements []string
	ChangelogURL string
}

// ParseTemplate compiles a notes template. An empty text yields DefaultTemplate.
func ParseTemplate(text string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultTemplate
	}
	tmpl, err := template.New("notes").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, perrors.Wrap(err, perrors.CodeInvalidConfig, "notes", "parse release notes template")
	}
	return tmpl, nil
}

// RenderNotes executes tmpl with data. A nil tmpl uses DefaultTemplate.
func RenderNotes(tmpl *template.Template, data NotesData) (string, error) {
	if tmpl == nil {
		var err error
		if tmpl, err = ParseTemplate(""); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", perrors.Wrap(err, perrors.CodePublishFailed, "notes", "render release notes")
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

// ChangelogURL links the changes between prev and tag on the repository web
// page. Without a previous tag it links the history of tag.
func ChangelogURL(repoURL, prev, tag string) string {
	repoURL = strings.TrimSuffix(repoURL, "/")
	if repoURL == "" {
		return ""
	}
	if prev == "" {
		return fmt.Sprintf("%s/commits/%s", repoURL, tag)
	}
	return fmt.Sprintf("%s/compare/%s...%s", repoURL, prev, tag)
}

// GroupCommits sorts commits into sections by their conventional-commit
// type. Commits that do not parse land in Other Changes; version bump
// commits are dropped. Empty sections are omitted.
func GroupCommits(commits []git.Commit) []Group {
	machine := parser.NewMachine(parser.WithTypes(conventionalcommits.TypesConventional))

	entries := map[string][]string{}
	for _, c := range commits {
		if strings.HasPrefix(c.Subject, bumpPrefix) || c.Subject == "" {
			continue
		}
		section, text := classify(machine, c)
		entries[section] = append(entries[section], fmt.Sprintf("%s (%s)", text, c.ShortHash()))
	}

	var groups []Group
	for _, title := range sectionOrder {
		if len(entries[title]) > 0 {
			groups = append(groups, Group{Title: title, Entries: entries[title]})
		}
	}
	return groups
}

func classify(machine conventionalcommits.Machine, c git.Commit) (string, string) {
	msg, err := machine.Parse([]byte(c.Message))
	if err != nil || msg == nil || !msg.Ok() {
		return SectionOther, c.Subject
	}

	cc, ok := msg.(*conventionalcommits.ConventionalCommit)
	if !ok {
		return SectionOther, c.Subject
	}

	text := cc.Description
	if cc.Scope != nil && *cc.Scope != "" {
		text = fmt.Sprintf("**%s:** %s", *cc.Scope, cc.Description)
	}

	switch {
	case cc.IsBreakingChange():
		return SectionBreaking, text
	case cc.Type == "feat":
		return SectionFeatures, text
	case cc.Type == "fix":
		return SectionFixes, text
	case cc.Type == "perf":
		return SectionPerf, text
	default:
		return SectionOther, c.Subject
	}
}
