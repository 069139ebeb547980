// Package sources finds the schema files to hand to the compiler.
package sources

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Extension of protobuf schema files
const Extension = ".proto"

// Discover walks each directory and returns every schema file found, sorted
// and without duplicates. Directories that do not exist are skipped.
func Discover(fsys afero.Fs, dirs []string) ([]string, error) {
	seen := make(map[string]struct{})

	for _, dir := range dirs {
		exists, err := afero.DirExists(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source directory %s: %w", dir, err)
		}

		if !exists {
			continue
		}

		err = afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() || !strings.EqualFold(filepath.Ext(path), Extension) {
				return nil
			}

			seen[filepath.Clean(path)] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan source directory %s: %w", dir, err)
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}

	sort.Strings(files)

	return files, nil
}
