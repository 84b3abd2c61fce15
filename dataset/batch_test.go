package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalml/transit/pkg/errors"
)

func TestFromRecords(t *testing.T) {
	b, err := FromRecords([]map[string]any{
		{"pl_orbper": 3.5, "st_tmag": 10, "koi_pdisposition": "CANDIDATE"},
		{"pl_orbper": "7.25", "st_tmag": nil},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, b.Len())
	// Alphabetical column order keeps construction deterministic.
	assert.Equal(t, []string{"koi_pdisposition", "pl_orbper", "st_tmag"}, b.Columns())

	orbper, ok := b.Numeric("pl_orbper")
	require.True(t, ok)
	assert.Equal(t, 3.5, orbper[0])
	assert.Equal(t, 7.25, orbper[1], "numeric strings should be coerced")

	tmag, _ := b.Numeric("st_tmag")
	assert.Equal(t, 10.0, tmag[0])
	assert.True(t, math.IsNaN(tmag[1]), "nil cell should be NaN")

	text, ok := b.Text("koi_pdisposition")
	require.True(t, ok)
	assert.Equal(t, "CANDIDATE", text[0])
	assert.Equal(t, "", text[1], "absent categorical cell stays empty")
}

func TestFromRecordsEmpty(t *testing.T) {
	_, err := FromRecords(nil)
	assert.ErrorIs(t, err, errors.ErrEmptyBatch)
}

func TestFromRowsArityCheck(t *testing.T) {
	cols := []string{"a", "b", "c"}
	_, err := FromRows(cols, [][]float64{
		{1, 2, 3},
		{1, 2},
		{1, 2, 3, 4},
	})
	require.Error(t, err)

	var ie *errors.InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, []int{1, 2}, ie.Rows, "both malformed rows should be reported")
	assert.True(t, strings.Contains(err.Error(), "3"), "expected arity should appear in the message")
}

func TestFromRowsColumnOrder(t *testing.T) {
	b, err := FromRows([]string{"x", "y"}, [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	y, ok := b.Numeric("y")
	require.True(t, ok)
	assert.Equal(t, []float64{2, 4}, y)
}

func TestSelectPreservesOrderAndCopies(t *testing.T) {
	b, err := FromRows([]string{"a", "b", "c"}, [][]float64{{1, 2, 3}})
	require.NoError(t, err)

	sub, err := b.Select([]string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sub.Columns())

	// Mutating the selection must not touch the source.
	require.NoError(t, sub.SetNumeric("a", []float64{99}))
	orig, _ := b.Numeric("a")
	assert.Equal(t, 1.0, orig[0])
}

func TestSelectMissingColumn(t *testing.T) {
	b, _ := FromRows([]string{"a"}, [][]float64{{1}})
	_, err := b.Select([]string{"a", "zz"})
	require.Error(t, err)

	var ie *errors.InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, []string{"zz"}, ie.Columns)
}

func TestFillConstant(t *testing.T) {
	b, _ := FromRows([]string{"a"}, [][]float64{{1}, {2}})
	b.FillConstant("pl_pnum", 1)
	vals, ok := b.Numeric("pl_pnum")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 1}, vals)

	// Existing columns are never overwritten.
	b.FillConstant("a", 42)
	a, _ := b.Numeric("a")
	assert.Equal(t, []float64{1, 2}, a)
}

func TestMatrix(t *testing.T) {
	b, _ := FromRows([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})
	m, err := b.Matrix([]string{"b", "a"})
	require.NoError(t, err)

	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 2.0, m.At(0, 0))
	assert.Equal(t, 1.0, m.At(0, 1))
	assert.Equal(t, 4.0, m.At(1, 0))
}

func TestReadCSV(t *testing.T) {
	in := strings.Join([]string{
		"# This file was produced by the NASA Exoplanet Archive",
		"# on 2024-02-10",
		"pl_orbper,st_tmag,koi_pdisposition",
		"3.5,10.2,CANDIDATE",
		",9.8,FALSE POSITIVE",
	}, "\n")

	b, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []string{"pl_orbper", "st_tmag", "koi_pdisposition"}, b.Columns())

	orbper, _ := b.Numeric("pl_orbper")
	assert.Equal(t, 3.5, orbper[0])
	assert.True(t, math.IsNaN(orbper[1]), "empty cell should be NaN")

	disp, ok := b.Text("koi_pdisposition")
	require.True(t, ok)
	assert.Equal(t, []string{"CANDIDATE", "FALSE POSITIVE"}, disp)
}

func TestReadCSVEmptyBody(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n"))
	assert.ErrorIs(t, err, errors.ErrEmptyBatch)
}
