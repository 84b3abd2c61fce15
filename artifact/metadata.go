// Package artifact loads and serves the trained model bundles: the three
// boosted forests, the fitted imputer and encoders, the label encoder and
// the training metadata, one directory per dataset variant.
//
// Everything is validated at load time against the feature contract, so a
// bundle that would misbehave mid-batch never becomes servable. Loads are
// collapsed per variant and failures are sticky: a broken bundle stays
// broken until the process restarts with fixed files.
package artifact

import (
	"encoding/json"

	"github.com/orbitalml/transit/pkg/errors"
)

// Metadata is the training-time meta.json. Its feature_order is the
// authoritative record of what the models were fitted on.
type Metadata struct {
	ModelVersion string   `json:"model_version"`
	FeatureOrder []string `json:"feature_order"`
	ClassNames   []string `json:"class_names"`
	Weights      Weights  `json:"weights"`
}

// Weights tolerates malformed weight lists in metadata: anything that
// fails to parse as numbers decodes to nil, and the ensemble falls back to
// its defaults. Bad weights degrade the blend, they do not brick the
// bundle.
type Weights []float64

func (w *Weights) UnmarshalJSON(data []byte) error {
	var vals []float64
	if err := json.Unmarshal(data, &vals); err != nil {
		*w = nil
		return nil
	}
	*w = vals
	return nil
}

func (m *Metadata) validate() error {
	if len(m.FeatureOrder) == 0 {
		return errors.New("transit: metadata has no feature_order")
	}
	if len(m.ClassNames) == 0 {
		return errors.New("transit: metadata has no class_names")
	}
	return nil
}
