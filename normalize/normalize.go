// Package normalize validates a raw input batch against a variant's column
// contract and reduces it to exactly the columns the downstream pipeline
// consumes, in contract order.
//
// Normalization is where auto-detection happens and where the hard input
// errors live: a batch missing required columns is rejected here, before any
// feature math runs. Extra columns are dropped silently and reported back so
// the caller can surface them; rows with missing critical measurements are
// flagged as a diagnostic but never rejected.
package normalize

import (
	"math"
	"sort"

	"github.com/orbitalml/transit/contract"
	"github.com/orbitalml/transit/dataset"
	"github.com/orbitalml/transit/pkg/errors"
)

// Result is a contract-ordered batch ready for feature engineering.
type Result struct {
	// Batch holds the variant's raw columns in contract order, plus any
	// optional measurement-error columns the input carried.
	Batch *dataset.Batch

	// Variant is the resolved dataset variant (never Auto).
	Variant contract.Variant

	// Dropped lists input columns outside the contract, sorted. They carry
	// no signal for the fitted models and are discarded.
	Dropped []string

	// Defaulted lists optional raw columns that were absent and filled with
	// their neutral value, sorted.
	Defaulted []string

	// MissingCritical maps row index to the critical columns that row is
	// missing. Predictions for these rows are served but unreliable.
	MissingCritical map[int][]string
}

// Normalize resolves the variant, checks the batch against its raw column
// contract and returns the reduced, ordered batch.
//
// The input batch is not modified.
func Normalize(b *dataset.Batch, v contract.Variant) (*Result, error) {
	if b == nil || b.Len() == 0 {
		return nil, errors.WithStack(errors.ErrEmptyBatch)
	}

	if v == contract.Auto {
		detected, err := contract.Detect(b.Columns())
		if err != nil {
			return nil, err
		}
		v = detected
	}

	raw, err := contract.RawColumns(v)
	if err != nil {
		return nil, err
	}
	defaults := contract.RawDefaults(v)

	var missing []string
	for _, name := range raw {
		if b.Has(name) {
			continue
		}
		if _, ok := defaults[name]; ok {
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return nil, errors.NewInputError("missing required raw columns for variant " + v.String()).
			WithColumns(missing...).Err()
	}

	optional := contract.OptionalErrorColumns(v)
	keep := make(map[string]bool, len(raw)+len(optional))
	for _, name := range raw {
		keep[name] = true
	}
	for _, name := range optional {
		keep[name] = true
	}

	var dropped []string
	for _, name := range b.Columns() {
		if !keep[name] {
			dropped = append(dropped, name)
		}
	}
	sort.Strings(dropped)

	out := dataset.New(b.Len())
	var defaulted []string
	for _, name := range raw {
		if b.Has(name) {
			if err := copyColumn(out, b, name); err != nil {
				return nil, err
			}
			continue
		}
		out.FillConstant(name, defaults[name])
		defaulted = append(defaulted, name)
	}
	sort.Strings(defaulted)

	for _, name := range optional {
		if b.Has(name) {
			if err := copyColumn(out, b, name); err != nil {
				return nil, err
			}
		}
	}

	return &Result{
		Batch:           out,
		Variant:         v,
		Dropped:         dropped,
		Defaulted:       defaulted,
		MissingCritical: missingCritical(out, v),
	}, nil
}

func copyColumn(dst, src *dataset.Batch, name string) error {
	nums, ok := src.Numeric(name)
	if !ok {
		return errors.NewInputError("column not present").WithColumns(name).Err()
	}
	text, _ := src.Text(name)
	return dst.SetColumn(name, nums, text)
}

// missingCritical scans the critical measurement columns of a variant and
// records, per row, which of them are NaN. Nil when every row is complete.
func missingCritical(b *dataset.Batch, v contract.Variant) map[int][]string {
	critical := contract.CriticalColumns(v)
	if len(critical) == 0 {
		return nil
	}

	var gaps map[int][]string
	for _, name := range critical {
		nums, ok := b.Numeric(name)
		if !ok {
			continue
		}
		for i, x := range nums {
			if !math.IsNaN(x) {
				continue
			}
			if gaps == nil {
				gaps = make(map[int][]string)
			}
			gaps[i] = append(gaps[i], name)
		}
	}
	return gaps
}
