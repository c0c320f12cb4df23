package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
)

// CleanDuplicates removes the renamed copies "{stem} (N){ext}" of name that
// appeared in dir after since. Browsers and upload widgets rename a file
// instead of replacing it, which would otherwise split a scan group.
// Only copies byte-identical to name are removed; a different scan stored
// under a numbered name, e.g. by a concurrent upload, is left alone.
func CleanDuplicates(dir, name string, since time.Time) ([]string, error) {
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(stem) + ` \(\d+\)` + regexp.QuoteMeta(ext) + "$")

	kept, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || !pattern.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return removed, err
		}
		if !info.ModTime().After(since) || info.Size() != int64(len(kept)) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return removed, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if !bytes.Equal(data, kept) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		log.Info().Str("file", path).Msg("Removed duplicate upload")
		removed = append(removed, entry.Name())
	}
	return removed, nil
}
