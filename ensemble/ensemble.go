// Package ensemble blends the probability outputs of the three boosted
// models into a final disposition per row.
//
// Blending is a plain weighted sum. Models disagreeing on class count
// (a binary member next to multiclass members) are reconciled by
// zero-padding the narrower matrices: a model that never saw a class
// contributes zero probability to it.
package ensemble

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/transit/pkg/errors"
)

// DefaultWeights is the training-time blend: CatBoost, XGBoost, LightGBM.
var DefaultWeights = []float64{0.40, 0.35, 0.25}

// ResolveWeights returns the blend weights to use. Anything malformed in
// the artifact metadata (wrong count, non-finite entries, negative
// entries) falls back to DefaultWeights; a bad metadata file must degrade,
// not fail the batch.
func ResolveWeights(w []float64) []float64 {
	if len(w) != len(DefaultWeights) {
		return append([]float64(nil), DefaultWeights...)
	}
	for _, x := range w {
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			return append([]float64(nil), DefaultWeights...)
		}
	}
	return append([]float64(nil), w...)
}

// Combined holds the blended batch output.
type Combined struct {
	// Proba is the blended rows x classes probability matrix.
	Proba *mat.Dense

	// ClassIndex is the argmax per row; ties go to the lowest index.
	ClassIndex []int

	// Confidence is the blended probability of the winning class, in [0, 1].
	Confidence []float64

	// PerModel is each member's own top probability per row, in model
	// order, for the per-model confidence breakdown.
	PerModel [][]float64
}

// Combine blends per-model probability matrices with the given weights.
// All matrices must agree on row count; len(probas) must equal
// len(weights).
func Combine(probas []*mat.Dense, weights []float64) (*Combined, error) {
	if len(probas) == 0 {
		return nil, errors.New("transit: ensemble needs at least one model output")
	}
	if len(weights) != len(probas) {
		return nil, errors.Newf("transit: %d blend weights for %d model outputs",
			len(weights), len(probas))
	}

	rows, classes := probas[0].Dims()
	for _, p := range probas[1:] {
		r, c := p.Dims()
		if r != rows {
			return nil, errors.NewDimensionError("ensemble.Combine", rows, r, 0)
		}
		if c > classes {
			classes = c
		}
	}

	blended := mat.NewDense(rows, classes, nil)
	for mi, p := range probas {
		_, c := p.Dims()
		w := weights[mi]
		for i := 0; i < rows; i++ {
			for j := 0; j < c; j++ {
				blended.Set(i, j, blended.At(i, j)+w*p.At(i, j))
			}
		}
	}

	out := &Combined{
		Proba:      blended,
		ClassIndex: make([]int, rows),
		Confidence: make([]float64, rows),
		PerModel:   make([][]float64, rows),
	}
	row := make([]float64, classes)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, blended)
		idx := floats.MaxIdx(row)
		out.ClassIndex[i] = idx
		out.Confidence[i] = row[idx]

		per := make([]float64, len(probas))
		for mi, p := range probas {
			_, c := p.Dims()
			mrow := mat.Row(nil, i, p)
			per[mi] = mrow[floats.MaxIdx(mrow[:c])]
		}
		out.PerModel[i] = per
	}
	return out, nil
}
