package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// ReadCSV reads a CSV stream with a header row and infers each column's kind:
// a column whose non-empty cells all parse as floats becomes Numeric,
// anything else becomes Categorical. Empty cells are missing values.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	cells := make([][]string, len(header))
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row: %w", err)
		}
		for i := range header {
			cells[i] = append(cells[i], rec[i])
		}
	}

	cols := make([]*Column, len(header))
	for i, name := range header {
		cols[i] = inferColumn(name, cells[i])
	}
	return New(cols...)
}

// ReadCSVFile reads a CSV file from disk.
func ReadCSVFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

// inferColumn decides the column kind from raw string cells.
func inferColumn(name string, raw []string) *Column {
	numeric := true
	for _, s := range raw {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			numeric = false
			break
		}
	}
	if !numeric {
		return NewCategorical(name, raw)
	}
	vals := make([]float64, len(raw))
	for i, s := range raw {
		if s == "" {
			vals[i] = math.NaN()
			continue
		}
		vals[i], _ = strconv.ParseFloat(s, 64)
	}
	return NewNumeric(name, vals)
}
