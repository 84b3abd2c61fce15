package impute

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/transit/pkg/errors"
)

func nan() float64 { return math.NaN() }

func TestTransformFillsFromNearestNeighbours(t *testing.T) {
	im := NewKNNImputer(2)
	require.NoError(t, im.Fit(mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		100, 1000,
	})))

	// Row (1.5, NaN) is closest to fit rows 0 and 1; the gap fills with
	// the mean of their second column: (10+20)/2.
	out, err := im.Transform(mat.NewDense(1, 2, []float64{1.5, nan()}))
	require.NoError(t, err)
	assert.InDelta(t, 15.0, out.At(0, 1), 1e-12)
	assert.Equal(t, 1.5, out.At(0, 0), "observed cells pass through untouched")
}

func TestTransformDeterministicTieBreak(t *testing.T) {
	// Two fit rows at identical distance: the lower index wins the last
	// donor slot, so repeated runs agree.
	im := NewKNNImputer(1)
	require.NoError(t, im.Fit(mat.NewDense(2, 2, []float64{
		1, 100,
		1, 200,
	})))

	for i := 0; i < 10; i++ {
		out, err := im.Transform(mat.NewDense(1, 2, []float64{1, nan()}))
		require.NoError(t, err)
		assert.Equal(t, 100.0, out.At(0, 1))
	}
}

func TestTransformColumnMeanFallback(t *testing.T) {
	// The query row is all-NaN: no distance is computable, so every cell
	// falls back to the fitted column mean.
	im := NewKNNImputer(3)
	require.NoError(t, im.Fit(mat.NewDense(2, 2, []float64{
		2, 8,
		4, 12,
	})))

	out, err := im.Transform(mat.NewDense(1, 2, []float64{nan(), nan()}))
	require.NoError(t, err)
	assert.Equal(t, 3.0, out.At(0, 0))
	assert.Equal(t, 10.0, out.At(0, 1))
}

func TestTransformNeverReturnsNaN(t *testing.T) {
	// Column 1 was never observed at fit time; its mean is unusable and
	// the final fallback is zero.
	im := NewKNNImputer(2)
	require.NoError(t, im.Fit(mat.NewDense(2, 2, []float64{
		1, nan(),
		2, nan(),
	})))

	out, err := im.Transform(mat.NewDense(1, 2, []float64{1.5, nan()}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.At(0, 1))

	r, c := out.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.False(t, math.IsNaN(out.At(i, j)))
		}
	}
}

func TestTransformSchemaMismatch(t *testing.T) {
	im := NewKNNImputer(2)
	require.NoError(t, im.Fit(mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})))

	_, err := im.Transform(mat.NewDense(1, 2, []float64{1, 2}))
	require.Error(t, err)

	var ce *errors.ContractError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.Expected)
	assert.Equal(t, 2, ce.Got)
}

func TestTransformNotFitted(t *testing.T) {
	var im KNNImputer
	_, err := im.Transform(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestImputerSurvivesGob(t *testing.T) {
	im := NewKNNImputer(2)
	require.NoError(t, im.Fit(mat.NewDense(3, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
	})))

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(im))

	var decoded KNNImputer
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))

	out, err := decoded.Transform(mat.NewDense(1, 2, []float64{1.5, nan()}))
	require.NoError(t, err)
	assert.InDelta(t, 15.0, out.At(0, 1), 1e-12)
	assert.Equal(t, 2, decoded.NumFeatures)
}
