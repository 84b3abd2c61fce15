// Package impute fills missing feature values with a fitted k-nearest
// neighbours imputer, matching the scikit-learn KNNImputer semantics the
// models were trained behind.
//
// The imputer ships fitted inside the artifact bundle: Fit exists for
// offline preparation and tests, but the serving path only calls Transform.
// Transform guarantees a NaN-free output; any cell no donor can fill falls
// back to the fitted column mean.
package impute

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/transit/pkg/errors"
)

// DefaultNeighbors matches the training configuration.
const DefaultNeighbors = 5

// KNNImputer fills NaN cells from the k nearest fitted rows under
// nan-euclidean distance. Exported fields are the persisted state.
type KNNImputer struct {
	// K is the number of donor neighbours per missing cell.
	K int

	// Train holds the fitted reference rows, possibly with NaNs of their
	// own; a row only donates for columns it has observed.
	Train [][]float64

	// Means are the per-column means over observed fit values, the fallback
	// when no donor can serve a cell.
	Means []float64

	// NumFeatures is the fitted column count.
	NumFeatures int
}

// NewKNNImputer creates an unfitted imputer. k <= 0 selects the default.
func NewKNNImputer(k int) *KNNImputer {
	if k <= 0 {
		k = DefaultNeighbors
	}
	return &KNNImputer{K: k}
}

// Fit stores the reference rows and per-column means.
func (im *KNNImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.WithStack(errors.ErrEmptyBatch)
	}
	if im.K <= 0 {
		im.K = DefaultNeighbors
	}

	im.Train = make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		im.Train[i] = row
	}

	im.Means = make([]float64, c)
	for j := 0; j < c; j++ {
		sum, n := 0.0, 0
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n > 0 {
			im.Means[j] = sum / float64(n)
		}
	}
	im.NumFeatures = c
	return nil
}

// Transform returns a copy of X with every NaN filled. The column count
// must match the fitted schema.
func (im *KNNImputer) Transform(X mat.Matrix) (*mat.Dense, error) {
	if im.NumFeatures == 0 {
		return nil, errors.NewNotFittedError("KNNImputer", "Transform")
	}
	r, c := X.Dims()
	if c != im.NumFeatures {
		return nil, errors.NewContractError("KNNImputer.Transform", im.NumFeatures, c,
			"feature count differs from the fitted schema")
	}
	if r == 0 {
		return nil, errors.WithStack(errors.ErrEmptyBatch)
	}

	out := mat.NewDense(r, c, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		hasNaN := false
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
			if math.IsNaN(row[j]) {
				hasNaN = true
			}
		}
		if hasNaN {
			im.fillRow(row)
		}
		out.SetRow(i, row)
	}
	return out, nil
}

type donor struct {
	index int
	dist  float64
}

func (im *KNNImputer) fillRow(row []float64) {
	donors := make([]donor, 0, len(im.Train))
	for t, train := range im.Train {
		d := nanEuclidean(row, train)
		if !math.IsNaN(d) {
			donors = append(donors, donor{index: t, dist: d})
		}
	}
	// Ties resolve to the lower fitted-row index so results are stable.
	sort.Slice(donors, func(a, b int) bool {
		if donors[a].dist != donors[b].dist {
			return donors[a].dist < donors[b].dist
		}
		return donors[a].index < donors[b].index
	})

	for j, v := range row {
		if !math.IsNaN(v) {
			continue
		}
		sum, n := 0.0, 0
		for _, d := range donors {
			dv := im.Train[d.index][j]
			if math.IsNaN(dv) {
				continue // this neighbour never observed column j
			}
			sum += dv
			n++
			if n == im.K {
				break
			}
		}
		if n > 0 {
			row[j] = sum / float64(n)
		} else {
			row[j] = im.Means[j]
		}
		if math.IsNaN(row[j]) {
			row[j] = 0
		}
	}
}

// nanEuclidean computes the distance over mutually observed coordinates,
// scaled up by the fraction of coordinates that were usable. NaN when the
// two rows share no observed coordinate.
func nanEuclidean(a, b []float64) float64 {
	sum, n := 0.0, 0
	for j := range a {
		if math.IsNaN(a[j]) || math.IsNaN(b[j]) {
			continue
		}
		d := a[j] - b[j]
		sum += d * d
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return math.Sqrt(sum * float64(len(a)) / float64(n))
}
