package artifact

import (
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/orbitalml/transit/contract"
	"github.com/orbitalml/transit/encoding"
	"github.com/orbitalml/transit/gbdt"
	"github.com/orbitalml/transit/impute"
	"github.com/orbitalml/transit/pkg/errors"
)

// Fixed artifact file names inside a variant directory.
const (
	FileCatModel = "cat_model.json"
	FileXGBModel = "xgb_model.json"
	FileLGBModel = "lgbm_model.json"
	FileImputer  = "imputer.gob"
	FileEncoders = "encoders.gob"
	FileTarget   = "target_le.gob"
	FileMeta     = "meta.json"
)

// Bundle is one variant's complete serving state.
type Bundle struct {
	Variant contract.Variant
	Meta    Metadata

	// Models in blend order: CatBoost, XGBoost, LightGBM.
	Models [3]*gbdt.Model

	Imputer  *impute.KNNImputer
	Encoders map[string]*encoding.CategoryEncoder

	// Target decodes class indices to disposition labels. Nil when
	// target_le.gob is absent; predictions then degrade to stringified
	// class indices.
	Target *encoding.LabelEncoder
}

// Degraded reports whether label decoding is unavailable.
func (b *Bundle) Degraded() bool { return b.Target == nil }

// LoadBundle reads and validates every artifact of a variant from dir.
func LoadBundle(dir string, v contract.Variant) (*Bundle, error) {
	b := &Bundle{Variant: v}

	if err := readJSON(dir, FileMeta, v, &b.Meta); err != nil {
		return nil, err
	}
	if err := b.Meta.validate(); err != nil {
		return nil, errors.NewArtifactError(v.String(), FileMeta, err)
	}

	for i, name := range []string{FileCatModel, FileXGBModel, FileLGBModel} {
		m, err := loadModel(dir, name, v)
		if err != nil {
			return nil, err
		}
		b.Models[i] = m
	}

	b.Imputer = &impute.KNNImputer{}
	if err := readGob(dir, FileImputer, v, b.Imputer); err != nil {
		return nil, required(v, FileImputer, err)
	}

	b.Encoders = make(map[string]*encoding.CategoryEncoder)
	if err := readGob(dir, FileEncoders, v, &b.Encoders); err != nil {
		return nil, required(v, FileEncoders, err)
	}

	// The label encoder is the one optional artifact.
	target := &encoding.LabelEncoder{}
	err := readGob(dir, FileTarget, v, target)
	switch {
	case err == nil:
		b.Target = target
	case errors.Is(err, os.ErrNotExist):
		b.Target = nil
	default:
		return nil, err
	}

	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// validate cross-checks every fitted component against the feature
// contract. A bundle that fails here could only ever produce wrong
// answers.
func (b *Bundle) validate() error {
	want, err := contract.EngineeredColumns(b.Variant)
	if err != nil {
		return err
	}

	if len(b.Meta.FeatureOrder) != len(want) {
		return errors.NewArtifactError(b.Variant.String(), FileMeta,
			errors.NewContractError("artifact.validate", len(want), len(b.Meta.FeatureOrder),
				"metadata feature_order length"))
	}
	for i, name := range want {
		if b.Meta.FeatureOrder[i] != name {
			return errors.NewArtifactError(b.Variant.String(), FileMeta,
				errors.Newf("feature_order[%d] = %q, contract says %q", i, b.Meta.FeatureOrder[i], name))
		}
	}

	if b.Imputer.NumFeatures != len(want) {
		return errors.NewArtifactError(b.Variant.String(), FileImputer,
			errors.NewContractError("artifact.validate", len(want), b.Imputer.NumFeatures,
				"imputer fitted feature count"))
	}

	files := []string{FileCatModel, FileXGBModel, FileLGBModel}
	for i, m := range b.Models {
		if m.NumFeatures != len(want) {
			return errors.NewArtifactError(b.Variant.String(), files[i],
				errors.NewContractError("artifact.validate", len(want), m.NumFeatures,
					"model fitted feature count"))
		}
		if m.NumClass > len(b.Meta.ClassNames) {
			return errors.NewArtifactError(b.Variant.String(), files[i],
				errors.Newf("model predicts %d classes, metadata names %d",
					m.NumClass, len(b.Meta.ClassNames)))
		}
	}

	if b.Target != nil && b.Target.NumClasses() != len(b.Meta.ClassNames) {
		return errors.NewArtifactError(b.Variant.String(), FileTarget,
			errors.Newf("label encoder has %d classes, metadata names %d",
				b.Target.NumClasses(), len(b.Meta.ClassNames)))
	}
	return nil
}

func loadModel(dir, name string, v contract.Variant) (*gbdt.Model, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, errors.NewArtifactError(v.String(), name, err)
	}
	defer func() { _ = f.Close() }()

	m, err := gbdt.LoadModel(f)
	if err != nil {
		return nil, errors.NewArtifactError(v.String(), name, err)
	}
	return m, nil
}

func readJSON(dir, name string, v contract.Variant, dst any) error {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return errors.NewArtifactError(v.String(), name, err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(dst); err != nil {
		return errors.NewArtifactError(v.String(), name, err)
	}
	return nil
}

// required wraps a missing-file error for artifacts that must exist.
func required(v contract.Variant, name string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return errors.NewArtifactError(v.String(), name, err)
	}
	return err
}

func readGob(dir, name string, v contract.Variant, dst any) error {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return err // callers distinguish absent from broken
		}
		return errors.NewArtifactError(v.String(), name, err)
	}
	defer func() { _ = f.Close() }()

	if err := gob.NewDecoder(f).Decode(dst); err != nil {
		return errors.NewArtifactError(v.String(), name, err)
	}
	return nil
}
