package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/UnendingLoop/Watermarker/internal/imageproc"
)

// Collect lists the supported images at path. A supported file is returned as is, an
// unsupported one gives an empty list; a directory is read one level deep unless recursive
// is set. The result is sorted.
func Collect(path string, recursive bool) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", path, err)
	}

	if !fi.IsDir() {
		if !imageproc.IsSupported(path) {
			return nil, nil
		}
		return []string{path}, nil
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() && imageproc.IsSupported(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %q: %w", path, err)
		}
	} else {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read dir %q: %w", path, err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() && imageproc.IsSupported(e.Name()) {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}
