package reader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover walks dir recursively and returns the files whose base name
// matches pattern, in sorted path order. Compressed variants of a
// matching name (.gz, .zst, .zstd) are included; the archive suffix is
// stripped before matching so app.log.gz matches *.log.
func Discover(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, "probe"); err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("discover %s: %w", dir, ErrNotFound)
		}
		return nil, fmt.Errorf("discover %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discover %s: not a directory", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matched, err := filepath.Match(pattern, trimArchiveExt(d.Name()))
		if err != nil {
			return err
		}
		if matched {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", dir, err)
	}

	sort.Strings(paths)

	return paths, nil
}

// OpenDirectory discovers matching files under dir and returns a
// reader over them in sorted order
func OpenDirectory(dir, pattern string) (*MultiReader, error) {
	paths, err := Discover(dir, pattern)
	if err != nil {
		return nil, err
	}

	return OpenFiles(paths), nil
}

func trimArchiveExt(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".zst", ".zstd":
		return strings.TrimSuffix(name, filepath.Ext(name))
	}

	return name
}
