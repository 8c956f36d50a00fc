package dataset

import (
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"y", "n", "g"}).
			AddRow(1.5, int64(10), "a").
			AddRow(nil, int64(20), "b").
			AddRow(3.25, nil, nil),
	)

	rows, err := db.Query("SELECT * FROM obs")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	ds, err := FromRows(rows)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, []string{"y", "n", "g"}, ds.Names())

	y, err := ds.Column("y")
	require.NoError(t, err)
	assert.Equal(t, Numeric, y.Kind)
	assert.Equal(t, 1.5, y.Floats[0])
	assert.True(t, math.IsNaN(y.Floats[1]), "NULL should be missing")

	n, err := ds.Column("n")
	require.NoError(t, err)
	assert.Equal(t, Numeric, n.Kind)
	assert.Equal(t, 20.0, n.Floats[1])

	g, err := ds.Column("g")
	require.NoError(t, err)
	assert.Equal(t, Categorical, g.Kind)
	assert.True(t, g.Missing(2))
}

func TestFromRows_ByteCellsInferred(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	// Drivers without type information hand back []byte cells.
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"v", "s"}).
			AddRow([]byte("1.5"), []byte("north")).
			AddRow([]byte("2.5"), []byte("south")),
	)

	rows, err := db.Query("SELECT * FROM obs")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	ds, err := FromRows(rows)
	require.NoError(t, err)

	v, err := ds.Column("v")
	require.NoError(t, err)
	assert.Equal(t, Numeric, v.Kind)
	assert.Equal(t, []float64{1.5, 2.5}, v.Floats)

	s, err := ds.Column("s")
	require.NoError(t, err)
	assert.Equal(t, Categorical, s.Kind)
	assert.Equal(t, []string{"north", "south"}, s.Strings)
}
