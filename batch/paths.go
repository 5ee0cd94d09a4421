package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// maxProbe bounds the suffix search of createUnique.
const maxProbe = 10000

// createUnique creates dir/name.yaml, or the first free of
// dir/name_1.yaml, dir/name_2.yaml, and so on. The file is created with
// O_EXCL so an existing file is never reused.
func createUnique(dir, name string) (*os.File, error) {
	for i := 0; i < maxProbe; i++ {
		candidate := name
		if i > 0 {
			candidate = name + "_" + strconv.Itoa(i)
		}
		path := filepath.Join(dir, candidate+".yaml")

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create %s: %w", path, err)
		}
	}
	return nil, fmt.Errorf("no free file name for %q in %s", name, dir)
}

// writeDocument stores text under dir/category and returns the path.
func writeDocument(dir, category, name, text string) (string, error) {
	categoryDir := filepath.Join(dir, category)
	if err := os.MkdirAll(categoryDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create category directory: %w", err)
	}

	f, err := createUnique(categoryDir, name)
	if err != nil {
		return "", err
	}
	path := f.Name()

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
