// Package features turns a normalized raw batch into the engineered
// feature set a variant's models were trained on.
//
// The TESS pipelines winsorize the raw columns against the current batch
// (1st/99th percentile) before deriving features, and two flags are
// batch-relative by construction: high_snr_detection compares each row's
// detection quality against the batch's own 75th percentile. Identical rows
// can therefore score differently in different batches; that is how the
// models were trained and it is preserved here.
//
// Kepler is a passthrough: its raw columns are the model features.
package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/orbitalml/transit/contract"
	"github.com/orbitalml/transit/dataset"
	"github.com/orbitalml/transit/pkg/errors"
)

// rSunToEarth converts solar radii to Earth radii.
const rSunToEarth = 109.2

// Engineer produces the engineered batch for a variant, columns in
// contract order. The input must already be normalized (contract raw
// columns present, categoricals encoded).
func Engineer(b *dataset.Batch, v contract.Variant) (*dataset.Batch, error) {
	if b == nil || b.Len() == 0 {
		return nil, errors.WithStack(errors.ErrEmptyBatch)
	}

	var (
		out *dataset.Batch
		err error
	)
	switch v {
	case contract.Kepler:
		cols, cerr := contract.EngineeredColumns(contract.Kepler)
		if cerr != nil {
			return nil, cerr
		}
		out, err = b.Select(cols)
	case contract.TESS:
		out, err = engineerTESS(b)
	case contract.TESSFull:
		out, err = engineerTESSFull(b)
	default:
		return nil, errors.Newf("transit: no feature pipeline for variant %q", v)
	}
	if err != nil {
		return nil, err
	}

	want, err := contract.EngineeredColumns(v)
	if err != nil {
		return nil, err
	}
	got := out.Columns()
	if len(got) != len(want) {
		return nil, errors.NewContractError("features.Engineer", len(want), len(got),
			"engineered column count diverged from the training contract")
	}
	for i := range want {
		if got[i] != want[i] {
			return nil, errors.NewContractError("features.Engineer", len(want), len(got),
				"engineered column order diverged at "+want[i])
		}
	}
	return out, nil
}

// winsorize clips a column to its batch 1st/99th percentiles, computed over
// observed values only. NaN cells stay NaN. Columns with no observed value
// are returned untouched.
func winsorize(vals []float64) []float64 {
	obs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			obs = append(obs, v)
		}
	}
	if len(obs) == 0 {
		return vals
	}
	sort.Float64s(obs)
	lo := stat.Quantile(0.01, stat.LinInterp, obs, nil)
	hi := stat.Quantile(0.99, stat.LinInterp, obs, nil)

	out := make([]float64, len(vals))
	for i, v := range vals {
		switch {
		case math.IsNaN(v):
			out[i] = v
		case v < lo:
			out[i] = lo
		case v > hi:
			out[i] = hi
		default:
			out[i] = v
		}
	}
	return out
}

// quantile75 returns the 75th percentile of the observed values, NaN when
// nothing is observed.
func quantile75(vals []float64) float64 {
	obs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			obs = append(obs, v)
		}
	}
	if len(obs) == 0 {
		return math.NaN()
	}
	sort.Float64s(obs)
	return stat.Quantile(0.75, stat.LinInterp, obs, nil)
}

// columns is a working set of named columns during derivation.
type columns struct {
	n    int
	vals map[string][]float64
}

func newColumns(n int) *columns {
	return &columns{n: n, vals: make(map[string][]float64)}
}

func (c *columns) get(name string) []float64 { return c.vals[name] }

func (c *columns) set(name string, v []float64) { c.vals[name] = v }

// derive computes a new column element-wise from existing ones.
func (c *columns) derive(name string, f func(i int) float64) {
	out := make([]float64, c.n)
	for i := 0; i < c.n; i++ {
		out[i] = f(i)
	}
	c.vals[name] = out
}

// flag computes a 0/1 column. NaN inputs make the predicate false, so a
// missing measurement never sets a flag.
func (c *columns) flag(name string, pred func(i int) bool) {
	out := make([]float64, c.n)
	for i := 0; i < c.n; i++ {
		if pred(i) {
			out[i] = 1
		}
	}
	c.vals[name] = out
}

// assemble builds the output batch in the given column order.
func (c *columns) assemble(order []string) (*dataset.Batch, error) {
	out := dataset.New(c.n)
	for _, name := range order {
		v, ok := c.vals[name]
		if !ok {
			return nil, errors.NewContractError("features.assemble", len(order), len(c.vals),
				"derived column missing: "+name)
		}
		if err := out.SetNumeric(name, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// loadBase copies the winsorized raw columns into a working set.
func loadBase(b *dataset.Batch) (*columns, error) {
	raw, err := contract.RawColumns(contract.TESS)
	if err != nil {
		return nil, err
	}
	c := newColumns(b.Len())
	for _, name := range raw {
		vals, ok := b.Numeric(name)
		if !ok {
			return nil, errors.NewInputError("raw column not present").WithColumns(name).Err()
		}
		c.set(name, winsorize(vals))
	}
	return c, nil
}

func log10p1(x float64) float64 { return math.Log10(x + 1) }
