package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SnapshotPrefix is the file name prefix the fetchers use for price
// snapshots. Files carry a trailing unix timestamp, so name order is
// capture order.
const SnapshotPrefix = "on_sale"

// AllFiles lists the files in dir whose names start with prefix, sorted by
// name ascending. A missing directory is treated as empty.
func AllFiles(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LatestFile returns the newest matching file by name, or "" when none.
func LatestFile(dir, prefix string) (string, error) {
	files, err := AllFiles(dir, prefix)
	if err != nil || len(files) == 0 {
		return "", err
	}
	return files[len(files)-1], nil
}

// FileTS returns the file's modification time as unix seconds. The fetchers
// write each snapshot once, so mtime is the capture time.
func FileTS(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.ModTime().Unix(), nil
}

// MoveToBackup relocates a committed snapshot file into the per-store backup
// directory. The move is the durable marker that the file was imported.
func MoveToBackup(path, backupDir, store string) error {
	dest := filepath.Join(backupDir, store)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create backup dir %s: %w", dest, err)
	}
	if err := os.Rename(path, filepath.Join(dest, filepath.Base(path))); err != nil {
		return fmt.Errorf("move %s to backup: %w", path, err)
	}
	return nil
}
