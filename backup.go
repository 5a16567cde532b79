package peripheral

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// BackupFile copies path into dir under a timestamped name and prunes the
// oldest copies beyond keep. keep <= 0 keeps everything. The returned path
// is the backup just written.
func BackupFile(path, dir string, keep int) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cannot open %q: %w", path, err)
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create backup directory %q: %w", dir, err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := fmt.Sprintf("%s-%s%s", stem, time.Now().Format("20060102-150405"), ext)
	dest := filepath.Join(dir, name)

	dst, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("cannot create backup %q: %w", dest, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dest)
		return "", fmt.Errorf("cannot write backup %q: %w", dest, err)
	}
	if err := dst.Close(); err != nil {
		return "", err
	}

	if keep > 0 {
		if err := pruneBackups(dir, stem, ext, keep); err != nil {
			return dest, err
		}
	}
	return dest, nil
}

// pruneBackups removes the oldest timestamped copies of stem+ext in dir,
// keeping at most keep of them. The timestamp sorts lexically, so name
// order is age order.
func pruneBackups(dir, stem, ext string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var backups []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, stem+"-") && strings.HasSuffix(name, ext) {
			backups = append(backups, name)
		}
	}
	sort.Strings(backups)
	for len(backups) > keep {
		if err := os.Remove(filepath.Join(dir, backups[0])); err != nil {
			return err
		}
		backups = backups[1:]
	}
	return nil
}
