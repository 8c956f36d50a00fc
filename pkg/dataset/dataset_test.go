package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cols    []*Column
		wantErr string
	}{
		{
			name: "mismatched lengths",
			cols: []*Column{
				NewNumeric("a", []float64{1, 2}),
				NewNumeric("b", []float64{1}),
			},
			wantErr: "rows",
		},
		{
			name: "duplicate names",
			cols: []*Column{
				NewNumeric("a", []float64{1}),
				NewCategorical("a", []string{"x"}),
			},
			wantErr: "duplicate",
		},
		{
			name: "unnamed column",
			cols: []*Column{
				NewNumeric("", []float64{1}),
			},
			wantErr: "no name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cols...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDataset_Column(t *testing.T) {
	ds, err := New(
		NewNumeric("x", []float64{1, 2, 3}),
		NewCategorical("g", []string{"a", "b", "a"}),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, 2, ds.NumCols())
	assert.Equal(t, []string{"x", "g"}, ds.Names())
	assert.True(t, ds.Has("g"))
	assert.False(t, ds.Has("nope"))

	c, err := ds.Column("g")
	require.NoError(t, err)
	assert.Equal(t, Categorical, c.Kind)

	_, err = ds.Column("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestColumn_Levels_SortedDistinct(t *testing.T) {
	c := NewCategorical("g", []string{"b", "a", "b", "", "c", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, c.Levels())

	// Numeric columns have no levels.
	assert.Nil(t, NewNumeric("x", []float64{1, 2}).Levels())
}

func TestColumn_Missing(t *testing.T) {
	num := NewNumeric("x", []float64{1, math.NaN()})
	assert.False(t, num.Missing(0))
	assert.True(t, num.Missing(1))

	cat := NewCategorical("g", []string{"a", ""})
	assert.False(t, cat.Missing(0))
	assert.True(t, cat.Missing(1))
}

func TestDataset_FilterEq(t *testing.T) {
	ds, err := New(
		NewNumeric("x", []float64{1, 2, 3, 4}),
		NewCategorical("g", []string{"a", "b", "a", "b"}),
	)
	require.NoError(t, err)

	sub, err := ds.FilterEq("g", "a")
	require.NoError(t, err)
	assert.Equal(t, 2, sub.NumRows())

	x, err := sub.Column("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, x.Floats)

	// Source is untouched.
	assert.Equal(t, 4, ds.NumRows())

	// No matching rows yields an empty dataset, not an error.
	empty, err := ds.FilterEq("g", "zzz")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumRows())

	_, err = ds.FilterEq("x", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "categorical")
}

func TestReadCSV_KindInference(t *testing.T) {
	in := strings.Join([]string{
		"y,x1,g",
		"1.5,2,a",
		"2.5,,b",
		"3.5,4,a",
	}, "\n")

	ds, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 3, ds.NumRows())

	y, err := ds.Column("y")
	require.NoError(t, err)
	assert.Equal(t, Numeric, y.Kind)
	assert.Equal(t, 1.5, y.Floats[0])

	x1, err := ds.Column("x1")
	require.NoError(t, err)
	assert.Equal(t, Numeric, x1.Kind)
	assert.True(t, math.IsNaN(x1.Floats[1]), "empty cell should be missing")

	g, err := ds.Column("g")
	require.NoError(t, err)
	assert.Equal(t, Categorical, g.Kind)
	assert.Equal(t, []string{"a", "b"}, g.Levels())
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
}
