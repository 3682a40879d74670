package finder

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"units":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindSnapshots(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "old.json"))
	touch(t, filepath.Join(root, "rounds", "new.json"))
	touch(t, filepath.Join(root, "rounds", "notes.txt"))
	touch(t, filepath.Join(root, ".git", "config.json"))

	files, err := FindSnapshots(root)
	if err != nil {
		t.Fatalf("FindSnapshots() error = %v", err)
	}

	want := []string{
		filepath.Join(root, "old.json"),
		filepath.Join(root, "rounds", "new.json"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("FindSnapshots() = %v, expected %v", files, want)
	}
}

func TestFindSnapshotsSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	touch(t, path)

	files, err := FindSnapshots(path)
	if err != nil {
		t.Fatalf("FindSnapshots() error = %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Errorf("Expected [%s], got %v", path, files)
	}
}

func TestFindSnapshotsMissing(t *testing.T) {
	if _, err := FindSnapshots(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected an error for a missing root")
	}
}
