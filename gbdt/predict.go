package gbdt

import (
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/transit/pkg/errors"
)

// PredictProba returns a rows x NumClass probability matrix. Binary models
// also come out two-column, [P(class 0), P(class 1)], so ensemble blending
// never special-cases the objective.
//
// Rows are scored independently across workers; each worker writes only
// its own rows and tree summation order is fixed, so the output is
// byte-for-byte deterministic for a given input.
func (m *Model) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.WithStack(errors.ErrEmptyBatch)
	}
	if cols != m.NumFeatures {
		return nil, errors.NewContractError("gbdt.PredictProba", m.NumFeatures, cols,
			"feature count differs from model "+m.Name)
	}

	out := mat.NewDense(rows, m.NumClass, nil)

	workers := runtime.GOMAXPROCS(0)
	if workers > rows {
		workers = rows
	}
	chunk := (rows + workers - 1) / workers

	// A panic inside a worker goroutine would escape any recover in the
	// caller, so each chunk runs under SafeExecute and surfaces the first
	// failure instead.
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > rows {
			hi = rows
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			errs[w] = errors.SafeExecute("gbdt.PredictProba", func() error {
				features := make([]float64, cols)
				for i := lo; i < hi; i++ {
					for j := 0; j < cols; j++ {
						features[j] = X.At(i, j)
					}
					out.SetRow(i, m.predictRow(features))
				}
				return nil
			})
		}(w, lo, hi)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// predictRow scores one feature row into class probabilities.
func (m *Model) predictRow(features []float64) []float64 {
	scores := make([]float64, m.scoreWidth())
	copy(scores, m.InitScores)

	if m.Objective == ObjectiveBinary {
		for i := range m.Trees {
			scores[0] += m.Trees[i].predict(features)
		}
		p := sigmoid(scores[0])
		return []float64{1 - p, p}
	}

	// Trees are laid out round-robin over classes.
	for i := range m.Trees {
		scores[i%m.NumClass] += m.Trees[i].predict(features)
	}
	softmax(scores)
	return scores
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// softmax normalizes raw scores in place, shifted by the max for
// numerical stability.
func softmax(scores []float64) {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	sum := 0.0
	for i, s := range scores {
		scores[i] = math.Exp(s - max)
		sum += scores[i]
	}
	for i := range scores {
		scores[i] /= sum
	}
}
