package pdf

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// stemPattern matches "{stem}(suffix){ext}" against a bare file name.
func stemPattern(stem, ext string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(stem) + "(.*)" + regexp.QuoteMeta(ext) + "$")
}

func keyOf(re *regexp.Regexp, name string) (int, error) {
	// path.Base, so s3:// references split the same way on every OS.
	m := re.FindStringSubmatch(path.Base(name))
	if m == nil {
		return 0, fmt.Errorf("%w: %q does not match %s", ErrParse, name, re)
	}

	suffix := strings.Trim(m[1], " ()")
	if suffix == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("%w: %q has non-numeric suffix %q", ErrParse, name, suffix)
	}
	return n, nil
}

// PageKey derives the ordering key of a file in a scan group: 0 for the bare
// stem ("Scan.pdf") and N for a numbered copy ("Scan (N).pdf").
func PageKey(name, stem, ext string) (int, error) {
	return keyOf(stemPattern(stem, ext), name)
}

// SortByKey returns names ordered by their PageKey. Two names with the same
// key make the order ambiguous and are reported as ErrDuplicateKey.
func SortByKey(names []string, stem, ext string) ([]string, error) {
	type keyed struct {
		name string
		key  int
	}

	re := stemPattern(stem, ext)
	group := make([]keyed, 0, len(names))
	for _, name := range names {
		key, err := keyOf(re, name)
		if err != nil {
			return nil, err
		}
		group = append(group, keyed{name: name, key: key})
	}

	sort.Slice(group, func(i, j int) bool { return group[i].key < group[j].key })

	sorted := make([]string, len(group))
	for i, g := range group {
		if i > 0 && g.key == group[i-1].key {
			return nil, fmt.Errorf("%w: %q and %q both sort as %d", ErrDuplicateKey, group[i-1].name, g.name, g.key)
		}
		sorted[i] = g.name
	}
	return sorted, nil
}
