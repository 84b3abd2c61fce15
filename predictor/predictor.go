// Package predictor orchestrates the full inference pipeline: normalize,
// encode, engineer, impute, infer, decode. It is the one entry point both
// the CLI and any embedding service call.
//
// Batches are atomic: any stage failure rejects the whole batch and no
// partial predictions escape. For a fixed input batch and artifact bundle
// the output is deterministic.
package predictor

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/transit/artifact"
	"github.com/orbitalml/transit/contract"
	"github.com/orbitalml/transit/dataset"
	"github.com/orbitalml/transit/encoding"
	"github.com/orbitalml/transit/ensemble"
	"github.com/orbitalml/transit/features"
	"github.com/orbitalml/transit/normalize"
	"github.com/orbitalml/transit/pkg/errors"
	translog "github.com/orbitalml/transit/pkg/log"
	"github.com/orbitalml/transit/telemetry"
)

// Pipeline stage names used in errors, logs and metrics.
const (
	StageNormalize = "normalize"
	StageEngineer  = "engineer"
	StageImpute    = "impute"
	StageInfer     = "infer"
	StageDecode    = "decode"
)

// Input mode markers reported back in Result.UsedInput.
const (
	InputRecords = "records"
	InputRows    = "rows"
	InputCSV     = "csv"
)

// BundleSource yields the serving state for a variant. *artifact.Store
// satisfies it; tests substitute their own.
type BundleSource interface {
	Get(v contract.Variant) (*artifact.Bundle, error)
}

// Service runs prediction batches.
type Service struct {
	store   BundleSource
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger injects the structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics injects the telemetry collectors.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a prediction service over a bundle source.
func New(store BundleSource, opts ...Option) *Service {
	s := &Service{store: store, logger: translog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request is one prediction batch. Exactly one of Records and Rows must be
// set. Rows carry no column names, so they additionally require an
// explicit Variant.
type Request struct {
	// Variant selects the dataset pipeline; empty or "auto" asks for
	// column-based detection.
	Variant string

	// Records is the named-column input, one map per row.
	Records []map[string]any

	// Rows is the positional input, each row in the variant's raw
	// contract order.
	Rows [][]float64
}

// ModelConfidence is one ensemble member's own top probability for a row.
type ModelConfidence struct {
	Model      string  `json:"model"`
	Percentage float64 `json:"percentage"`
}

// Prediction is the disposition for one input row.
type Prediction struct {
	Row        int               `json:"row"`
	ClassIndex int               `json:"class_index"`
	Label      string            `json:"label"`
	Confidence float64           `json:"confidence"`
	Percentage float64           `json:"percentage"`
	PerModel   []ModelConfidence `json:"per_model"`
}

// Result is the outcome of a whole batch.
type Result struct {
	Variant      contract.Variant `json:"variant"`
	Count        int              `json:"count"`
	ModelVersion string           `json:"model_version"`
	ClassNames   []string         `json:"class_names"`
	Weights      []float64        `json:"weights"`
	FeatureOrder []string         `json:"feature_order"`
	UsedInput    string           `json:"used_input"`
	Predictions  []Prediction     `json:"predictions"`
	Dropped      []string         `json:"dropped_columns,omitempty"`
	Defaulted    []string         `json:"defaulted_columns,omitempty"`
	Unreliable   map[int][]string `json:"unreliable_rows,omitempty"`
	Degraded     bool             `json:"degraded_labels,omitempty"`
}

// Predict runs the pipeline on one request.
func (s *Service) Predict(ctx context.Context, req Request) (*Result, error) {
	v, batch, input, err := s.buildBatch(req)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, batch, v, input)
}

// PredictBatch runs the pipeline on an already-assembled batch read from a
// catalog CSV export.
func (s *Service) PredictBatch(ctx context.Context, batch *dataset.Batch, v contract.Variant) (*Result, error) {
	return s.run(ctx, batch, v, InputCSV)
}

func (s *Service) run(ctx context.Context, batch *dataset.Batch, v contract.Variant, input string) (res *Result, err error) {
	defer errors.Recover(&err, "predictor.run")
	start := time.Now()

	if batch == nil || batch.Len() == 0 {
		return nil, errors.WithStack(errors.ErrEmptyBatch)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "transit: predict cancelled")
	}

	norm, err := normalize.Normalize(batch, v)
	if err != nil {
		return nil, s.fail(StageNormalize, v, batch.Len(), err)
	}
	v = norm.Variant

	bundle, err := s.store.Get(v)
	if err != nil {
		return nil, err
	}

	if err := encoding.ApplyAll(bundle.Encoders, norm.Batch); err != nil {
		return nil, s.fail(StageNormalize, v, batch.Len(), err)
	}

	engineered, err := features.Engineer(norm.Batch, v)
	if err != nil {
		return nil, s.fail(StageEngineer, v, batch.Len(), err)
	}

	order, err := contract.EngineeredColumns(v)
	if err != nil {
		return nil, s.fail(StageEngineer, v, batch.Len(), err)
	}
	raw, err := engineered.Matrix(order)
	if err != nil {
		return nil, s.fail(StageImpute, v, batch.Len(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "transit: predict cancelled")
	}

	imputed, err := bundle.Imputer.Transform(raw)
	if err != nil {
		return nil, s.fail(StageImpute, v, batch.Len(), err)
	}

	combined, weights, err := s.infer(bundle, imputed)
	if err != nil {
		return nil, s.fail(StageInfer, v, batch.Len(), err)
	}

	preds, degraded := s.decode(bundle, combined)

	classNames := append([]string(nil), bundle.Meta.ClassNames...)
	if degraded {
		// Without trustworthy labels the class names are the indices too.
		_, width := combined.Proba.Dims()
		classNames = indexNames(width)
	}

	res = &Result{
		Variant:      v,
		Count:        len(preds),
		ModelVersion: bundle.Meta.ModelVersion,
		ClassNames:   classNames,
		Weights:      weights,
		FeatureOrder: append([]string(nil), bundle.Meta.FeatureOrder...),
		UsedInput:    input,
		Predictions:  preds,
		Dropped:      norm.Dropped,
		Defaulted:    norm.Defaulted,
		Unreliable:   norm.MissingCritical,
		Degraded:     degraded,
	}
	s.observe(res, combined, time.Since(start))
	return res, nil
}

// buildBatch validates the input mode and assembles the dataset batch.
func (s *Service) buildBatch(req Request) (contract.Variant, *dataset.Batch, string, error) {
	v, err := contract.ParseVariant(req.Variant)
	if err != nil {
		return contract.Auto, nil, "", err
	}

	switch {
	case len(req.Records) > 0 && len(req.Rows) > 0:
		return v, nil, "", errors.NewInputError("records and rows are mutually exclusive").Err()
	case len(req.Records) > 0:
		b, err := dataset.FromRecords(req.Records)
		return v, b, InputRecords, err
	case len(req.Rows) > 0:
		if v == contract.Auto {
			return v, nil, "", errors.NewInputError(
				"positional rows carry no column names; an explicit variant is required").Err()
		}
		cols, err := contract.RawColumns(v)
		if err != nil {
			return v, nil, "", err
		}
		b, err := dataset.FromRows(cols, req.Rows)
		return v, b, InputRows, err
	default:
		return v, nil, "", errors.WithStack(errors.ErrEmptyBatch)
	}
}

// infer runs the three forests and blends them.
func (s *Service) infer(bundle *artifact.Bundle, X *mat.Dense) (*ensemble.Combined, []float64, error) {
	probas := make([]*mat.Dense, len(bundle.Models))
	for i, m := range bundle.Models {
		p, err := m.PredictProba(X)
		if err != nil {
			return nil, nil, err
		}
		probas[i] = p
	}
	weights := ensemble.ResolveWeights(bundle.Meta.Weights)
	combined, err := ensemble.Combine(probas, weights)
	if err != nil {
		return nil, nil, err
	}
	return combined, weights, nil
}

// decode turns blended probabilities into labelled predictions. The
// returned flag reports whether label decoding degraded to class indices.
func (s *Service) decode(bundle *artifact.Bundle, c *ensemble.Combined) ([]Prediction, bool) {
	labels, degraded := s.labels(bundle, c.ClassIndex)

	preds := make([]Prediction, len(c.ClassIndex))
	for i := range c.ClassIndex {
		per := make([]ModelConfidence, len(bundle.Models))
		for mi, m := range bundle.Models {
			per[mi] = ModelConfidence{Model: m.Name, Percentage: toPercent(c.PerModel[i][mi])}
		}
		preds[i] = Prediction{
			Row:        i,
			ClassIndex: c.ClassIndex[i],
			Label:      labels[i],
			Confidence: c.Confidence[i],
			Percentage: toPercent(c.Confidence[i]),
			PerModel:   per,
		}
	}
	return preds, degraded
}

// labels decodes class indices, degrading to stringified indices when the
// bundle has no label encoder or the encoder cannot decode them. Label
// decoding never fails a batch that already has valid probabilities.
func (s *Service) labels(bundle *artifact.Bundle, indices []int) ([]string, bool) {
	if bundle.Target != nil {
		out, err := bundle.Target.InverseTransform(indices)
		if err == nil {
			return out, false
		}
		s.logger.Warn().Err(err).Msg("label decoding failed, serving class indices")
	}
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = strconv.Itoa(idx)
	}
	return out, true
}

// indexNames synthesizes class names for degraded responses.
func indexNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

// fail wraps a stage error, records it and keeps the batch atomic.
func (s *Service) fail(stage string, v contract.Variant, rows int, err error) error {
	if s.metrics != nil {
		s.metrics.BatchFailures.WithLabelValues(v.String(), stage).Inc()
	}
	s.logger.Error().
		Str(translog.StageKey, stage).
		Str(translog.VariantKey, v.String()).
		Int(translog.RowsKey, rows).
		Err(err).
		Msg("prediction batch failed")
	return errors.NewStageError(stage, v.String(), rows, err)
}

// observe records success telemetry for a finished batch.
func (s *Service) observe(res *Result, c *ensemble.Combined, elapsed time.Duration) {
	if s.metrics != nil {
		variant := res.Variant.String()
		s.metrics.BatchesTotal.WithLabelValues(variant).Inc()
		s.metrics.RowsPredicted.WithLabelValues(variant).Add(float64(res.Count))
		s.metrics.BatchDuration.WithLabelValues(variant).Observe(elapsed.Seconds())
		for _, conf := range c.Confidence {
			s.metrics.Confidence.WithLabelValues(variant).Observe(conf)
		}
		if res.Degraded {
			s.metrics.DegradedUsage.Inc()
		}
		s.metrics.DroppedColumns.Add(float64(len(res.Dropped)))
		s.metrics.DefaultedValues.Add(float64(len(res.Defaulted)))
	}
	s.logger.Info().
		Str(translog.VariantKey, res.Variant.String()).
		Int(translog.RowsKey, res.Count).
		Str("model_version", res.ModelVersion).
		Int64(translog.DurationMsKey, elapsed.Milliseconds()).
		Msg("prediction batch served")
}

// toPercent converts a probability to a percentage rounded to two
// decimals, the presentation format of all confidence values.
func toPercent(p float64) float64 {
	return math.Round(p*10000) / 100
}
