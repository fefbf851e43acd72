// Package fstest provides a conformance suite for fs.Filesystem
// implementations. Every behaviour the release pipeline relies on is checked:
// existence probes for change detection, sorted globbing for deployment
// slots, walking for snapshots and whole-file writes for state caches.
//
// Example usage:
//
//	func TestInMemoryFS(t *testing.T) {
//	    fstest.TestSuite(t, func(t *testing.T) (fs.Filesystem, string) {
//	        return billy.NewInMemoryFS(), "/"
//	    })
//	}
package fstest

import (
	"bytes"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/Staticpast/WeatherVoting/fs"
)

// Factory returns a fresh, empty filesystem and the directory within it the
// suite may use.
type Factory func(t *testing.T) (fs.Filesystem, string)

// TestSuite runs every conformance test against filesystems from newFS.
func TestSuite(t *testing.T, newFS Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, filesystem fs.Filesystem, root string)
	}{
		{"WriteReadFile", testWriteReadFile},
		{"WriteFileCreatesParents", testWriteFileCreatesParents},
		{"Exists", testExists},
		{"OpenNotExist", testOpenNotExist},
		{"Stat", testStat},
		{"OpenFileSeek", testOpenFileSeek},
		{"GlobSorted", testGlobSorted},
		{"RenameRemove", testRenameRemove},
		{"Walk", testWalk},
		{"MkdirAll", testMkdirAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filesystem, root := newFS(t)
			tt.fn(t, filesystem, root)
		})
	}
}

func testWriteReadFile(t *testing.T, filesystem fs.Filesystem, root string) {
	p := filepath.Join(root, "last-version")
	for _, content := range []string{"1.2.3\n", "1.3.0\n"} {
		if err := filesystem.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%q): %v", p, err)
		}
		data, err := filesystem.ReadFile(p)
		if err != nil {
			t.Fatalf("ReadFile(%q): %v", p, err)
		}
		if string(data) != content {
			t.Errorf("ReadFile(%q) = %q, want %q (overwrite must truncate)", p, data, content)
		}
	}
}

func testWriteFileCreatesParents(t *testing.T, filesystem fs.Filesystem, root string) {
	p := filepath.Join(root, "target", "classes", "plugin.yml")
	if err := filesystem.WriteFile(p, []byte("name: WeatherVoting\n"), 0o644); err != nil {
		t.Fatalf("WriteFile(%q): %v", p, err)
	}
	info, err := filesystem.Stat(filepath.Join(root, "target", "classes"))
	if err != nil {
		t.Fatalf("Stat parent: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("parent of %q is not a directory", p)
	}
}

func testExists(t *testing.T, filesystem fs.Filesystem, root string) {
	dir := filepath.Join(root, "src")
	file := filepath.Join(dir, "Main.java")
	if err := filesystem.WriteFile(file, []byte("class Main {}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	for _, tc := range []struct {
		path string
		want bool
	}{
		{file, true},
		{dir, true},
		{filepath.Join(root, "missing.java"), false},
		{filepath.Join(root, "missing", "deeper"), false},
	} {
		got, err := filesystem.Exists(tc.path)
		if err != nil {
			t.Errorf("Exists(%q): %v", tc.path, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Exists(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func testOpenNotExist(t *testing.T, filesystem fs.Filesystem, root string) {
	p := filepath.Join(root, "nonexistent")
	if _, err := filesystem.Open(p); !errors.Is(err, iofs.ErrNotExist) {
		t.Errorf("Open(%q) error = %v, want fs.ErrNotExist", p, err)
	}
	if _, err := filesystem.ReadFile(p); !errors.Is(err, iofs.ErrNotExist) {
		t.Errorf("ReadFile(%q) error = %v, want fs.ErrNotExist", p, err)
	}
}

func testStat(t *testing.T, filesystem fs.Filesystem, root string) {
	p := filepath.Join(root, "plugins", "WeatherVoting-1.0.0.jar")
	content := []byte("PK jar")
	if err := filesystem.WriteFile(p, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	info, err := filesystem.Stat(p)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.IsDir() || info.Size() != int64(len(content)) {
		t.Errorf("Stat: IsDir=%v Size=%d, want file of %d bytes", info.IsDir(), info.Size(), len(content))
	}

	f, err := filesystem.Open(p)
	if err != nil {
		t.Fatalf("Open(%q): %v", p, err)
	}
	defer f.Close()

	handle, err := f.Stat()
	if err != nil {
		t.Fatalf("File.Stat: %v", err)
	}
	if handle.Name() != "WeatherVoting-1.0.0.jar" || handle.Size() != info.Size() {
		t.Errorf("File.Stat = %s (%d bytes), want %s (%d bytes)", handle.Name(), handle.Size(), info.Name(), info.Size())
	}

	if _, err := filesystem.Stat(filepath.Join(root, "plugins", "absent.jar")); !errors.Is(err, iofs.ErrNotExist) {
		t.Errorf("Stat on missing file error = %v, want fs.ErrNotExist", err)
	}
}

func testOpenFileSeek(t *testing.T, filesystem fs.Filesystem, root string) {
	p := filepath.Join(root, "notes.md")
	f, err := filesystem.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		t.Fatalf("OpenFile(%q): %v", p, err)
	}
	if _, err := f.Write([]byte("## What's New")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := filesystem.Open(p)
	if err != nil {
		t.Fatalf("Open(%q): %v", p, err)
	}
	defer r.Close()

	head := make([]byte, 2)
	if _, err := r.Read(head); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if _, err := r.Seek(0, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	all := make([]byte, 13)
	n, err := r.Read(all)
	if err != nil {
		t.Fatalf("Read after Seek: %v", err)
	}
	if !bytes.Equal(all[:n], []byte("## What's New")) {
		t.Errorf("Read after Seek = %q", all[:n])
	}
}

func testGlobSorted(t *testing.T, filesystem fs.Filesystem, root string) {
	dir := filepath.Join(root, "plugins")
	for _, name := range []string{"WeatherVoting-1.1.0.jar", "Other-2.0.0.jar", "WeatherVoting-1.0.0.jar"} {
		if err := filesystem.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	matches, err := filesystem.Glob(filepath.Join(dir, "WeatherVoting-*.jar"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	want := []string{
		filepath.Join(dir, "WeatherVoting-1.0.0.jar"),
		filepath.Join(dir, "WeatherVoting-1.1.0.jar"),
	}
	if len(matches) != len(want) || matches[0] != want[0] || matches[1] != want[1] {
		t.Errorf("Glob = %v, want %v", matches, want)
	}

	none, err := filesystem.Glob(filepath.Join(root, "absent", "*.jar"))
	if err != nil {
		t.Fatalf("Glob on missing dir: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Glob on missing dir = %v, want none", none)
	}
}

func testRenameRemove(t *testing.T, filesystem fs.Filesystem, root string) {
	from := filepath.Join(root, "digest.tmp")
	to := filepath.Join(root, "last-digest")
	if err := filesystem.WriteFile(from, []byte("abc"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := filesystem.Rename(from, to); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if ok, _ := filesystem.Exists(from); ok {
		t.Errorf("Exists(%q) after Rename = true", from)
	}
	if err := filesystem.Remove(to); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, _ := filesystem.Exists(to); ok {
		t.Errorf("Exists(%q) after Remove = true", to)
	}
}

func testWalk(t *testing.T, filesystem fs.Filesystem, root string) {
	base := filepath.Join(root, "project")
	files := []string{"pom.xml", "src/main/java/Main.java", "src/main/resources/plugin.yml"}
	for _, f := range files {
		if err := filesystem.WriteFile(filepath.Join(base, f), []byte(f), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	var seen []string
	err := filesystem.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		seen = append(seen, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	sort.Strings(seen)
	if len(seen) != len(files) {
		t.Fatalf("Walk saw %v, want %v", seen, files)
	}
	for i := range files {
		if seen[i] != files[i] {
			t.Errorf("Walk saw %v, want %v", seen, files)
			break
		}
	}
}

func testMkdirAll(t *testing.T, filesystem fs.Filesystem, root string) {
	dir := filepath.Join(root, "server", "plugins")
	for i := 0; i < 2; i++ {
		if err := filesystem.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("MkdirAll(%q) pass %d: %v", dir, i, err)
		}
	}
	info, err := filesystem.Stat(dir)
	if err != nil {
		t.Fatalf("Stat(%q): %v", dir, err)
	}
	if !info.IsDir() {
		t.Errorf("%q is not a directory", dir)
	}
}
