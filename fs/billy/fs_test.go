package billy

import (
	"io"
	"strings"
	"testing"

	parentfs "github.com/Staticpast/WeatherVoting/fs"
	"github.com/Staticpast/WeatherVoting/fs/fstest"
)

func TestInMemoryFS(t *testing.T) {
	fstest.TestSuite(t, func(*testing.T) (parentfs.Filesystem, string) {
		return NewInMemoryFS(), "/"
	})
}

func TestOSFS(t *testing.T) {
	fstest.TestSuite(t, func(t *testing.T) (parentfs.Filesystem, string) {
		return NewOSFS(t.TempDir()), "."
	})
}

func TestBaseOSFS(t *testing.T) {
	fstest.TestSuite(t, func(t *testing.T) (parentfs.Filesystem, string) {
		return NewBaseOSFS(), t.TempDir()
	})
}

func TestErrorsNamePath(t *testing.T) {
	fsys := NewInMemoryFS()

	_, err := fsys.Open("/plugins/missing.jar")
	if err == nil || !strings.Contains(err.Error(), `billy: open "/plugins/missing.jar"`) {
		t.Errorf("Open error = %v, want it to name the operation and path", err)
	}

	if err := fsys.WriteFile("/plugins/WeatherVoting-1.3.0.jar", []byte("PK"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := fsys.Open("/plugins/WeatherVoting-1.3.0.jar")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if _, err := io.ReadAll(f); err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if _, err := f.Read(make([]byte, 1)); err != io.EOF { //nolint:errorlint // EOF must not be wrapped
		t.Errorf("Read at end = %v, want io.EOF", err)
	}
}
