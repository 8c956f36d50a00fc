// Package dataset provides a column-addressable tabular data container.
// Columns are either numeric or categorical; datasets are immutable once
// built and filtering produces a new dataset over copied cells.
package dataset

import (
	"fmt"
	"math"
	"sort"
)

// Kind is the measurement level of a column.
type Kind int

const (
	// Numeric columns hold float64 values; NaN marks a missing cell.
	Numeric Kind = iota
	// Categorical columns hold string levels; "" marks a missing cell.
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Column is a single named series of values.
type Column struct {
	Name string
	Kind Kind

	// Floats is populated for Numeric columns.
	Floats []float64
	// Strings is populated for Categorical columns.
	Strings []string
}

// NewNumeric builds a numeric column.
func NewNumeric(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Floats: values}
}

// NewCategorical builds a categorical column.
func NewCategorical(name string, values []string) *Column {
	return &Column{Name: name, Kind: Categorical, Strings: values}
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Missing reports whether the cell at row i holds no value.
func (c *Column) Missing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Floats[i])
	}
	return c.Strings[i] == ""
}

// Levels returns the distinct non-missing values of a categorical column in
// sorted order. Numeric columns have no levels.
func (c *Column) Levels() []string {
	if c.Kind != Categorical {
		return nil
	}
	seen := make(map[string]struct{}, 8)
	var levels []string
	for _, s := range c.Strings {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			levels = append(levels, s)
		}
	}
	sort.Strings(levels)
	return levels
}

// Dataset is an ordered collection of equal-length columns.
type Dataset struct {
	cols  []*Column
	index map[string]int
	nrows int
}

// New builds a dataset from columns. All columns must have the same length
// and unique names.
func New(cols ...*Column) (*Dataset, error) {
	d := &Dataset{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		if i == 0 {
			d.nrows = c.Len()
		} else if c.Len() != d.nrows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), d.nrows)
		}
		d.index[c.Name] = i
		d.cols = append(d.cols, c)
	}
	return d, nil
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int { return d.nrows }

// NumCols returns the number of columns.
func (d *Dataset) NumCols() int { return len(d.cols) }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. The returned slice is a copy; the
// columns themselves are shared and must not be mutated.
func (d *Dataset) Columns() []*Column {
	cols := make([]*Column, len(d.cols))
	copy(cols, d.cols)
	return cols
}

// Column returns the named column.
func (d *Dataset) Column(name string) (*Column, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	return d.cols[i], nil
}

// Has reports whether the named column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// FilterEq returns a new dataset containing the rows where the named
// categorical column equals level. The receiver is left untouched.
func (d *Dataset) FilterEq(name, level string) (*Dataset, error) {
	c, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Categorical {
		return nil, fmt.Errorf("column %q is %s, want categorical", name, c.Kind)
	}
	keep := make([]bool, d.nrows)
	n := 0
	for i, s := range c.Strings {
		if s == level {
			keep[i] = true
			n++
		}
	}
	return d.subset(keep, n), nil
}

func (d *Dataset) subset(keep []bool, n int) *Dataset {
	cols := make([]*Column, len(d.cols))
	for ci, c := range d.cols {
		nc := &Column{Name: c.Name, Kind: c.Kind}
		if c.Kind == Numeric {
			nc.Floats = make([]float64, 0, n)
			for i, v := range c.Floats {
				if keep[i] {
					nc.Floats = append(nc.Floats, v)
				}
			}
		} else {
			nc.Strings = make([]string, 0, n)
			for i, v := range c.Strings {
				if keep[i] {
					nc.Strings = append(nc.Strings, v)
				}
			}
		}
		cols[ci] = nc
	}
	out, _ := New(cols...)
	return out
}
