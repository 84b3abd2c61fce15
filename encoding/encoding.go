// Package encoding holds the fitted categorical mappings the pipeline
// depends on: the label encoder that names predicted classes and the
// per-column category encoders that turn raw catalog strings into the
// numeric codes the models were trained on.
//
// Both types are inference-only. They are fitted offline, shipped inside
// the artifact bundle as gob, and never refitted here. Exported fields are
// the persisted state; internal lookup tables are rebuilt lazily after
// decoding.
package encoding

import (
	"sort"

	"github.com/orbitalml/transit/dataset"
	"github.com/orbitalml/transit/pkg/errors"
)

// LabelEncoder maps integer class indices back to disposition labels
// (e.g. 0 -> "CANDIDATE"). Classes are stored in training order.
type LabelEncoder struct {
	Classes []string

	index map[string]int
}

// NewLabelEncoder builds an encoder over a fixed, ordered class list.
func NewLabelEncoder(classes []string) *LabelEncoder {
	le := &LabelEncoder{Classes: append([]string(nil), classes...)}
	le.rebuild()
	return le
}

func (le *LabelEncoder) rebuild() {
	le.index = make(map[string]int, len(le.Classes))
	for i, c := range le.Classes {
		le.index[c] = i
	}
}

// NumClasses returns the number of known classes.
func (le *LabelEncoder) NumClasses() int { return len(le.Classes) }

// InverseTransform maps class indices to their labels.
func (le *LabelEncoder) InverseTransform(indices []int) ([]string, error) {
	if len(le.Classes) == 0 {
		return nil, errors.NewNotFittedError("LabelEncoder", "InverseTransform")
	}
	out := make([]string, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(le.Classes) {
			return nil, errors.Newf("transit: class index %d out of range [0, %d)", idx, len(le.Classes))
		}
		out[i] = le.Classes[idx]
	}
	return out, nil
}

// Transform maps labels to their class indices.
func (le *LabelEncoder) Transform(labels []string) ([]int, error) {
	if len(le.Classes) == 0 {
		return nil, errors.NewNotFittedError("LabelEncoder", "Transform")
	}
	if le.index == nil {
		le.rebuild()
	}
	out := make([]int, len(labels))
	var unknown []string
	for i, l := range labels {
		idx, ok := le.index[l]
		if !ok {
			unknown = append(unknown, l)
			continue
		}
		out[i] = idx
	}
	if len(unknown) > 0 {
		return nil, errors.NewInputError("unknown class labels").
			WithValues(dedup(unknown), append([]string(nil), le.Classes...)).Err()
	}
	return out, nil
}

// CategoryEncoder replaces one raw string column with the numeric codes it
// was trained with. Missing cells stay NaN for the imputer.
type CategoryEncoder struct {
	Column  string
	Mapping map[string]float64
}

// Known returns the accepted category values, sorted.
func (ce *CategoryEncoder) Known() []string {
	known := make([]string, 0, len(ce.Mapping))
	for k := range ce.Mapping {
		known = append(known, k)
	}
	sort.Strings(known)
	return known
}

// Apply encodes the column in place. Cells that already hold a numeric
// value pass through unchanged: a pre-encoded input is legitimate. Unknown
// category strings are a hard input error listing the offending values and
// the accepted set.
func (ce *CategoryEncoder) Apply(b *dataset.Batch) error {
	if len(ce.Mapping) == 0 {
		return errors.NewNotFittedError("CategoryEncoder("+ce.Column+")", "Apply")
	}
	if !b.Has(ce.Column) {
		return errors.NewInputError("categorical column not present").WithColumns(ce.Column).Err()
	}

	nums, _ := b.Numeric(ce.Column)
	text, hasText := b.Text(ce.Column)
	if !hasText {
		// Purely numeric column, nothing to encode.
		return nil
	}

	var unknown []string
	for i := range nums {
		if text[i] == "" {
			continue // numeric or missing cell
		}
		code, ok := ce.Mapping[text[i]]
		if !ok {
			unknown = append(unknown, text[i])
			continue
		}
		nums[i] = code
	}
	if len(unknown) > 0 {
		return errors.NewInputError("unknown categories in column " + ce.Column).
			WithColumns(ce.Column).
			WithValues(dedup(unknown), ce.Known()).Err()
	}
	return b.SetNumeric(ce.Column, nums)
}

// ApplyAll runs every encoder whose column exists in the batch. Encoders
// for absent columns are skipped: the normalizer has already decided which
// columns the variant requires.
func ApplyAll(encoders map[string]*CategoryEncoder, b *dataset.Batch) error {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !b.Has(name) {
			continue
		}
		if err := encoders[name].Apply(b); err != nil {
			return err
		}
	}
	return nil
}

func dedup(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	out := vals[:0]
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
