package dataset

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"
)

// FromRows drains a *sql.Rows result set into a dataset. Integer and float
// cells become Numeric columns; everything else is stringified and run
// through the same kind inference as CSV input. NULL cells are missing.
func FromRows(rows *sql.Rows) (*Dataset, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	cells := make([][]any, len(names))
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			cells[i] = append(cells[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	cols := make([]*Column, len(names))
	for i, name := range names {
		cols[i] = columnFromValues(name, cells[i])
	}
	return New(cols...)
}

func columnFromValues(name string, values []any) *Column {
	numeric := true
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, ok := asFloat(v); !ok {
			numeric = false
			break
		}
	}
	if numeric {
		floats := make([]float64, len(values))
		for i, v := range values {
			if v == nil {
				floats[i] = math.NaN()
				continue
			}
			floats[i], _ = asFloat(v)
		}
		return NewNumeric(name, floats)
	}
	strs := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		strs[i] = asString(v)
	}
	return NewCategorical(name, strs)
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case []byte:
		f, err := strconv.ParseFloat(string(x), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}
