package encoding

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalml/transit/dataset"
	"github.com/orbitalml/transit/pkg/errors"
)

func TestLabelEncoderRoundTrip(t *testing.T) {
	le := NewLabelEncoder([]string{"CANDIDATE", "CONFIRMED", "FALSE POSITIVE"})

	idx, err := le.Transform([]string{"FALSE POSITIVE", "CANDIDATE"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, idx)

	labels, err := le.InverseTransform(idx)
	require.NoError(t, err)
	assert.Equal(t, []string{"FALSE POSITIVE", "CANDIDATE"}, labels)
}

func TestLabelEncoderUnknownLabel(t *testing.T) {
	le := NewLabelEncoder([]string{"CANDIDATE", "CONFIRMED"})
	_, err := le.Transform([]string{"PLANET?"})
	require.Error(t, err)

	var ie *errors.InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, []string{"PLANET?"}, ie.Values)
	assert.Equal(t, []string{"CANDIDATE", "CONFIRMED"}, ie.Known)
}

func TestLabelEncoderIndexOutOfRange(t *testing.T) {
	le := NewLabelEncoder([]string{"A", "B"})
	_, err := le.InverseTransform([]int{2})
	assert.Error(t, err)
	_, err = le.InverseTransform([]int{-1})
	assert.Error(t, err)
}

func TestLabelEncoderNotFitted(t *testing.T) {
	var le LabelEncoder
	_, err := le.InverseTransform([]int{0})
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestLabelEncoderSurvivesGob(t *testing.T) {
	le := NewLabelEncoder([]string{"CANDIDATE", "CONFIRMED"})

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(le))

	var decoded LabelEncoder
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))

	// The lookup index is not persisted and must be rebuilt lazily.
	idx, err := decoded.Transform([]string{"CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, idx)
}

func TestCategoryEncoderApply(t *testing.T) {
	b, err := dataset.FromRecords([]map[string]any{
		{"koi_pdisposition": "CANDIDATE", "koi_score": 0.9},
		{"koi_pdisposition": "FALSE POSITIVE", "koi_score": 0.1},
	})
	require.NoError(t, err)

	ce := &CategoryEncoder{
		Column:  "koi_pdisposition",
		Mapping: map[string]float64{"CANDIDATE": 0, "FALSE POSITIVE": 1},
	}
	require.NoError(t, ce.Apply(b))

	vals, ok := b.Numeric("koi_pdisposition")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1}, vals)

	_, stillText := b.Text("koi_pdisposition")
	assert.False(t, stillText, "encoded column should be purely numeric")
}

func TestCategoryEncoderUnknownValue(t *testing.T) {
	b, err := dataset.FromRecords([]map[string]any{
		{"koi_pdisposition": "MAYBE"},
		{"koi_pdisposition": "MAYBE"},
	})
	require.NoError(t, err)

	ce := &CategoryEncoder{
		Column:  "koi_pdisposition",
		Mapping: map[string]float64{"CANDIDATE": 0, "FALSE POSITIVE": 1},
	}
	err = ce.Apply(b)
	require.Error(t, err)

	var ie *errors.InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, []string{"MAYBE"}, ie.Values, "duplicates should be reported once")
	assert.Equal(t, []string{"CANDIDATE", "FALSE POSITIVE"}, ie.Known)
}

func TestCategoryEncoderNumericPassthrough(t *testing.T) {
	// A caller may submit the column already encoded; values pass through.
	b, err := dataset.FromRows([]string{"koi_pdisposition"}, [][]float64{{1}, {0}})
	require.NoError(t, err)

	ce := &CategoryEncoder{
		Column:  "koi_pdisposition",
		Mapping: map[string]float64{"CANDIDATE": 0, "FALSE POSITIVE": 1},
	}
	require.NoError(t, ce.Apply(b))

	vals, _ := b.Numeric("koi_pdisposition")
	assert.Equal(t, []float64{1, 0}, vals)
}

func TestApplyAllSkipsAbsentColumns(t *testing.T) {
	b, err := dataset.FromRows([]string{"x"}, [][]float64{{1}})
	require.NoError(t, err)

	encoders := map[string]*CategoryEncoder{
		"koi_pdisposition": {Column: "koi_pdisposition", Mapping: map[string]float64{"CANDIDATE": 0}},
	}
	assert.NoError(t, ApplyAll(encoders, b))
}
