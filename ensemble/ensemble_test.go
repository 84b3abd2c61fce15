package ensemble

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestResolveWeights(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"valid", []float64{0.5, 0.3, 0.2}, []float64{0.5, 0.3, 0.2}},
		{"nil falls back", nil, DefaultWeights},
		{"wrong count falls back", []float64{0.5, 0.5}, DefaultWeights},
		{"NaN falls back", []float64{0.5, math.NaN(), 0.2}, DefaultWeights},
		{"negative falls back", []float64{0.5, -0.1, 0.6}, DefaultWeights},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveWeights(tt.in))
		})
	}
}

func TestResolveWeightsReturnsCopy(t *testing.T) {
	w := ResolveWeights(nil)
	w[0] = 99
	assert.Equal(t, 0.40, DefaultWeights[0])
}

func TestCombineWeightedSum(t *testing.T) {
	// Two models disagree; the blend is decided by the weights.
	a := mat.NewDense(1, 2, []float64{0.9, 0.1})
	b := mat.NewDense(1, 2, []float64{0.05, 0.95})
	c := mat.NewDense(1, 2, []float64{0.5, 0.5})

	out, err := Combine([]*mat.Dense{a, b, c}, []float64{0.40, 0.35, 0.25})
	require.NoError(t, err)

	// class 0: 0.4*0.9 + 0.35*0.05 + 0.25*0.5 = 0.5025
	// class 1: 0.4*0.1 + 0.35*0.95 + 0.25*0.5 = 0.4975
	assert.InDelta(t, 0.5025, out.Proba.At(0, 0), 1e-12)
	assert.InDelta(t, 0.4975, out.Proba.At(0, 1), 1e-12)
	assert.Equal(t, 0, out.ClassIndex[0])
	assert.InDelta(t, 0.5025, out.Confidence[0], 1e-12)
	assert.Equal(t, []float64{0.9, 0.95, 0.5}, out.PerModel[0])
}

func TestCombinePadsNarrowerModels(t *testing.T) {
	// A binary member alongside a 3-class member: its missing class
	// contributes zero probability.
	tri := mat.NewDense(1, 3, []float64{0.2, 0.3, 0.5})
	bin := mat.NewDense(1, 2, []float64{0.9, 0.1})

	out, err := Combine([]*mat.Dense{tri, bin}, []float64{0.5, 0.5})
	require.NoError(t, err)

	_, c := out.Proba.Dims()
	assert.Equal(t, 3, c)
	assert.InDelta(t, 0.55, out.Proba.At(0, 0), 1e-12)
	assert.InDelta(t, 0.20, out.Proba.At(0, 1), 1e-12)
	assert.InDelta(t, 0.25, out.Proba.At(0, 2), 1e-12)
	assert.Equal(t, 0, out.ClassIndex[0])
}

func TestCombineTieBreaksToLowestIndex(t *testing.T) {
	a := mat.NewDense(1, 3, []float64{0.4, 0.4, 0.2})
	out, err := Combine([]*mat.Dense{a}, []float64{1})
	require.NoError(t, err)
	assert.Equal(t, 0, out.ClassIndex[0])
}

func TestCombineRowMismatch(t *testing.T) {
	a := mat.NewDense(2, 2, nil)
	b := mat.NewDense(3, 2, nil)
	_, err := Combine([]*mat.Dense{a, b}, []float64{0.5, 0.5})
	assert.Error(t, err)
}

func TestCombineWeightCountMismatch(t *testing.T) {
	a := mat.NewDense(1, 2, nil)
	_, err := Combine([]*mat.Dense{a}, []float64{0.5, 0.5})
	assert.Error(t, err)
}
