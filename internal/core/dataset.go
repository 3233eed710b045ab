package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"forest-backend/internal/core/types"
)

// LoadDataset reads a csv file with a header row into a Dataset.
func LoadDataset(path string) (*types.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to open %s: %v", ErrInvalidDataset, path, err)
	}
	defer file.Close()

	dataset, err := ReadDataset(file)
	if err != nil {
		return nil, err
	}

	slog.Info("dataset loaded", "path", path, "columns", len(dataset.Columns), "rows", len(dataset.Rows))

	return dataset, nil
}

func ReadDataset(r io.Reader) (*types.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: dataset is empty", ErrInvalidDataset)
		}
		return nil, fmt.Errorf("%w: unable to read header: %v", ErrInvalidDataset, err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = normalizeColumnName(name)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read rows: %v", ErrInvalidDataset, err)
	}

	return &types.Dataset{Columns: columns, Rows: rows}, nil
}

// normalizeColumnName strips the whitespace, quotes and byte order mark that
// some exporters leave around header names.
func normalizeColumnName(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	for {
		trimmed := strings.Trim(strings.TrimSpace(name), `"'`)
		if trimmed == name {
			return name
		}
		name = trimmed
	}
}
