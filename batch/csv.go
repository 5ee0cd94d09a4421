package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// DefaultPromptColumn is the CSV header read when none is given.
const DefaultPromptColumn = "prompt"

var (
	ErrSourceNotFound = fmt.Errorf("prompt source not found: %w", fs.ErrNotExist)
	ErrColumnNotFound = errors.New("prompt column not found")
)

// ReadPrompts returns the non-blank cells of column from the CSV file at
// path, in file order. The first record is the header.
func ReadPrompts(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return readPrompts(f, column)
}

func readPrompts(r io.Reader, column string) ([]string, error) {
	if column == "" {
		column = DefaultPromptColumn
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %q (empty file)", ErrColumnNotFound, column)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idx := -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrColumnNotFound, column, strings.Join(header, ", "))
	}

	var prompts []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if idx >= len(record) {
			continue
		}
		if p := strings.TrimSpace(record[idx]); p != "" {
			prompts = append(prompts, p)
		}
	}
	return prompts, nil
}
