package finder

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotExt is the extension of snapshot documents
const SnapshotExt = ".json"

// FindSnapshots walks root and returns every snapshot document under it,
// skipping hidden directories and build output. A root that is itself a
// file is returned as is.
func FindSnapshots(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var snapshots []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) == SnapshotExt {
			snapshots = append(snapshots, path)
		}
		return nil
	})

	return snapshots, err
}
