// Package dataset provides the tabular batch container the inference
// pipeline operates on. A Batch is an ordered set of named columns over a
// fixed number of rows; numeric cells are float64 with NaN marking missing
// values, and raw string cells are kept alongside for the fitted
// categorical encoders.
//
// A Batch is read-only once validated by the normalizer; the mutating
// methods exist for pipeline-internal use (injecting optional-column
// defaults, replacing a categorical column with its encoded values).
package dataset

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/transit/pkg/errors"
)

type column struct {
	name string
	nums []float64
	text []string // nil for purely numeric columns
}

// Batch is a named-column table with one float64 value per cell.
type Batch struct {
	cols  []column
	index map[string]int
	n     int
}

// New creates an empty batch with the given number of rows.
func New(rows int) *Batch {
	return &Batch{index: make(map[string]int), n: rows}
}

// FromRecords builds a batch from an array of named-column objects, one map
// per row. The column set is the union over all rows, ordered
// alphabetically so that construction is deterministic regardless of map
// iteration order. Missing cells and unparseable numerics become NaN;
// non-numeric strings are kept for categorical encoding.
func FromRecords(records []map[string]any) (*Batch, error) {
	if len(records) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyBatch)
	}

	nameSet := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			nameSet[k] = true
		}
	}
	names := make([]string, 0, len(nameSet))
	for k := range nameSet {
		names = append(names, k)
	}
	sort.Strings(names)

	b := New(len(records))
	for _, name := range names {
		nums := make([]float64, len(records))
		var text []string
		for i, rec := range records {
			v, ok := rec[name]
			if !ok {
				nums[i] = math.NaN()
				continue
			}
			f, s, isText := coerce(v)
			nums[i] = f
			if isText {
				if text == nil {
					text = make([]string, len(records))
				}
				text[i] = s
			}
		}
		b.cols = append(b.cols, column{name: name, nums: nums, text: text})
		b.index[name] = len(b.cols) - 1
	}
	return b, nil
}

// FromRows builds a batch from plain numeric rows in the given canonical
// column order. Every row must have exactly len(columns) values; offending
// row indexes are reported together.
func FromRows(columns []string, rows [][]float64) (*Batch, error) {
	if len(rows) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyBatch)
	}
	var bad []int
	for i, row := range rows {
		if len(row) != len(columns) {
			bad = append(bad, i)
		}
	}
	if len(bad) > 0 {
		return nil, errors.NewInputError(
			"rows with wrong number of values (expected " + strconv.Itoa(len(columns)) + ")").
			WithRows(bad...).Err()
	}

	b := New(len(rows))
	for j, name := range columns {
		if _, dup := b.index[name]; dup {
			return nil, errors.NewInputError("duplicate column name").WithColumns(name).Err()
		}
		nums := make([]float64, len(rows))
		for i, row := range rows {
			nums[i] = row[j]
		}
		b.cols = append(b.cols, column{name: name, nums: nums})
		b.index[name] = j
	}
	return b, nil
}

func coerce(v any) (num float64, text string, isText bool) {
	switch x := v.(type) {
	case nil:
		return math.NaN(), "", false
	case float64:
		return x, "", false
	case float32:
		return float64(x), "", false
	case int:
		return float64(x), "", false
	case int64:
		return float64(x), "", false
	case bool:
		if x {
			return 1, "", false
		}
		return 0, "", false
	case string:
		if x == "" {
			return math.NaN(), "", false
		}
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f, "", false
		}
		return math.NaN(), x, true
	default:
		return math.NaN(), "", false
	}
}

// Len returns the number of rows.
func (b *Batch) Len() int { return b.n }

// Columns returns the column names in order.
func (b *Batch) Columns() []string {
	out := make([]string, len(b.cols))
	for i, c := range b.cols {
		out[i] = c.name
	}
	return out
}

// Has reports whether a column exists.
func (b *Batch) Has(name string) bool {
	_, ok := b.index[name]
	return ok
}

// Numeric returns a copy of a column's numeric values. Cells holding
// non-numeric text are NaN.
func (b *Batch) Numeric(name string) ([]float64, bool) {
	i, ok := b.index[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, b.n)
	copy(out, b.cols[i].nums)
	return out, true
}

// Text returns the raw string values of a column, if any cell held
// non-numeric text. The second result is false for purely numeric columns.
func (b *Batch) Text(name string) ([]string, bool) {
	i, ok := b.index[name]
	if !ok || b.cols[i].text == nil {
		return nil, false
	}
	out := make([]string, b.n)
	copy(out, b.cols[i].text)
	return out, true
}

// SetNumeric replaces a column's values with plain numerics, discarding any
// stored text. Adds the column if it does not exist.
func (b *Batch) SetNumeric(name string, vals []float64) error {
	if len(vals) != b.n {
		return errors.NewDimensionError("Batch.SetNumeric", b.n, len(vals), 0)
	}
	nums := make([]float64, b.n)
	copy(nums, vals)
	if i, ok := b.index[name]; ok {
		b.cols[i].nums = nums
		b.cols[i].text = nil
		return nil
	}
	b.cols = append(b.cols, column{name: name, nums: nums})
	b.index[name] = len(b.cols) - 1
	return nil
}

// SetColumn replaces or adds a column with both numeric values and the
// optional raw text cells (text may be nil for purely numeric columns).
func (b *Batch) SetColumn(name string, nums []float64, text []string) error {
	if len(nums) != b.n {
		return errors.NewDimensionError("Batch.SetColumn", b.n, len(nums), 0)
	}
	if text != nil && len(text) != b.n {
		return errors.NewDimensionError("Batch.SetColumn", b.n, len(text), 0)
	}
	c := column{name: name, nums: make([]float64, b.n)}
	copy(c.nums, nums)
	if text != nil {
		c.text = make([]string, b.n)
		copy(c.text, text)
	}
	if i, ok := b.index[name]; ok {
		b.cols[i] = c
		return nil
	}
	b.cols = append(b.cols, c)
	b.index[name] = len(b.cols) - 1
	return nil
}

// FillConstant adds a column holding a single repeated value. No-op if the
// column already exists.
func (b *Batch) FillConstant(name string, value float64) {
	if b.Has(name) {
		return
	}
	nums := make([]float64, b.n)
	for i := range nums {
		nums[i] = value
	}
	b.cols = append(b.cols, column{name: name, nums: nums})
	b.index[name] = len(b.cols) - 1
}

// Select returns a new batch restricted to the given columns, in the given
// order. Every requested column must exist.
func (b *Batch) Select(names []string) (*Batch, error) {
	out := New(b.n)
	for _, name := range names {
		i, ok := b.index[name]
		if !ok {
			return nil, errors.NewInputError("column not present").WithColumns(name).Err()
		}
		src := b.cols[i]
		c := column{name: name, nums: make([]float64, b.n)}
		copy(c.nums, src.nums)
		if src.text != nil {
			c.text = make([]string, b.n)
			copy(c.text, src.text)
		}
		if _, dup := out.index[name]; dup {
			return nil, errors.NewInputError("duplicate column name").WithColumns(name).Err()
		}
		out.cols = append(out.cols, c)
		out.index[name] = len(out.cols) - 1
	}
	return out, nil
}

// Matrix assembles the named columns, in order, into a dense row-major
// matrix. Text-only cells come out as NaN.
func (b *Batch) Matrix(names []string) (*mat.Dense, error) {
	if b.n == 0 || len(names) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyBatch)
	}
	m := mat.NewDense(b.n, len(names), nil)
	for j, name := range names {
		i, ok := b.index[name]
		if !ok {
			return nil, errors.NewInputError("column not present").WithColumns(name).Err()
		}
		for r := 0; r < b.n; r++ {
			m.Set(r, j, b.cols[i].nums[r])
		}
	}
	return m, nil
}
