package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type TaskType string

const (
	Classification TaskType = "classification"
	Regression     TaskType = "regression"
)

type TrainParams struct {
	TargetColumn string
	TaskType     TaskType
	NEstimators  int
}

// Dataset is a header plus string cells, one slice per row.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (d *Dataset) Cell(row, col int) string {
	if col >= len(d.Rows[row]) {
		return ""
	}
	return d.Rows[row][col]
}

var missingTokens = map[string]struct{}{
	"": {}, "na": {}, "nan": {}, "null": {}, "none": {},
}

func IsMissing(cell string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}

// ParseNumeric parses a cell as a finite float, treating missing cells as
// zero.
func ParseNumeric(cell string) (float64, error) {
	if IsMissing(cell) {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("value '%s' is not a finite number", strings.TrimSpace(cell))
	}
	return v, nil
}

// IsNumericColumn reports whether every non-missing cell of col parses as a
// finite float.
func (d *Dataset) IsNumericColumn(col int) bool {
	for row := range d.Rows {
		cell := d.Cell(row, col)
		if IsMissing(cell) {
			continue
		}
		if _, err := ParseNumeric(cell); err != nil {
			return false
		}
	}
	return true
}

// Prediction is a single scalar result: a class label for classification
// models, a number for regression models.
type Prediction struct {
	Categorical bool
	Label       string
	Value       float64
}

func (p Prediction) String() string {
	if p.Categorical {
		return p.Label
	}
	return strconv.FormatFloat(p.Value, 'f', -1, 64)
}
