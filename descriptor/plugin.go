package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/fs"
)

// DefaultPluginMetadata is the plugin metadata path relative to the project directory.
const DefaultPluginMetadata = "src/main/resources/plugin.yml"

// SyncPluginMetadata rewrites the literal top-level version of the plugin
// metadata file at path to v. Only the value's text changes; its quoting and
// the rest of the file are kept as written. Values containing a Maven
// placeholder are left to resource filtering. A missing file is not an error.
// changed reports whether the file was rewritten.
func SyncPluginMetadata(fsys fs.Filesystem, path, v string) (changed bool, err error) {
	exists, err := fsys.Exists(path)
	if err != nil {
		return false, perrors.Wrapf(err, perrors.CodeInternal, "descriptor", "stat %s", path)
	}
	if !exists {
		return false, nil
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return false, perrors.Wrapf(err, perrors.CodeInternal, "descriptor", "read %s", path)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false, perrors.Wrapf(err, perrors.CodeInvalidConfig, "descriptor", "decode %s", path)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return false, perrors.Newf(perrors.CodeInvalidConfig, "descriptor", "%s is not a YAML mapping", path)
	}

	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if key.Value != "version" {
			continue
		}
		if strings.Contains(val.Value, "${") || val.Value == v {
			return false, nil
		}
		if val.Kind != yaml.ScalarNode {
			return false, perrors.Newf(perrors.CodeInvalidConfig, "descriptor", "%s: version is not a scalar", path)
		}

		out, err := replaceScalar(data, val, v)
		if err != nil {
			return false, perrors.Wrapf(err, perrors.CodeInvalidConfig, "descriptor", "rewrite version in %s", path)
		}
		if err := fsys.WriteFile(path, out, 0o644); err != nil {
			return false, perrors.Wrapf(err, perrors.CodeInternal, "descriptor", "write %s", path)
		}
		return true, nil
	}
	return false, nil
}

const quoting = yaml.SingleQuotedStyle | yaml.DoubleQuotedStyle | yaml.LiteralStyle | yaml.FoldedStyle

// replaceScalar swaps the source text of val for v, quoted the way val was.
func replaceScalar(data []byte, val *yaml.Node, v string) ([]byte, error) {
	start, err := offset(data, val.Line, val.Column)
	if err != nil {
		return nil, err
	}
	if data[start] == '!' {
		for start < len(data) && data[start] != ' ' && data[start] != '\t' {
			start++
		}
		for start < len(data) && (data[start] == ' ' || data[start] == '\t') {
			start++
		}
	}

	var end int
	var text string
	switch val.Style & quoting {
	case 0:
		end = plainEnd(data, start)
		text = v
	case yaml.SingleQuotedStyle:
		end = quotedEnd(data, start, '\'')
		text = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case yaml.DoubleQuotedStyle:
		end = quotedEnd(data, start, '"')
		text = strconv.Quote(v)
	default:
		return nil, errors.New("block scalars are not supported")
	}
	if end < 0 {
		return nil, fmt.Errorf("unterminated scalar at line %d", val.Line)
	}

	out := make([]byte, 0, len(data)-(end-start)+len(text))
	out = append(out, data[:start]...)
	out = append(out, text...)
	return append(out, data[end:]...), nil
}

// offset converts a 1-based line and rune column into a byte offset.
func offset(data []byte, line, column int) (int, error) {
	pos := 0
	for l := 1; l < line; l++ {
		i := bytes.IndexByte(data[pos:], '\n')
		if i < 0 {
			return 0, fmt.Errorf("line %d is past the end of the file", line)
		}
		pos += i + 1
	}
	for c := 1; c < column; c++ {
		if pos >= len(data) || data[pos] == '\n' {
			return 0, fmt.Errorf("column %d is past the end of line %d", column, line)
		}
		_, size := utf8.DecodeRune(data[pos:])
		pos += size
	}
	if pos >= len(data) {
		return 0, fmt.Errorf("line %d is past the end of the file", line)
	}
	return pos, nil
}

// plainEnd returns the end of a single-line plain scalar: the line break or
// comment, with trailing blanks excluded.
func plainEnd(data []byte, start int) int {
	end := start
	for end < len(data) && data[end] != '\n' && data[end] != '\r' {
		if data[end] == '#' && end > start && (data[end-1] == ' ' || data[end-1] == '\t') {
			break
		}
		end++
	}
	for end > start && (data[end-1] == ' ' || data[end-1] == '\t') {
		end--
	}
	return end
}

// quotedEnd returns the offset just past the closing quote, or -1.
func quotedEnd(data []byte, start int, quote byte) int {
	for i := start + 1; i < len(data); i++ {
		switch {
		case quote == '"' && data[i] == '\\':
			i++
		case data[i] == quote && quote == '\'' && i+1 < len(data) && data[i+1] == '\'':
			i++
		case data[i] == quote:
			return i + 1
		}
	}
	return -1
}
