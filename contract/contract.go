// Package contract holds the feature contract for every supported dataset
// variant: the ordered raw catalog columns a batch must provide and the
// ordered engineered columns the models were trained against.
//
// The orders below were frozen at training time. They are never inferred at
// runtime; any component producing a different count or order is a contract
// violation and must fail loudly. The artifact metadata (meta.json) remains
// authoritative: bundle loading cross-checks its feature_order length against
// these lists and refuses to serve on mismatch.
package contract

import (
	"github.com/orbitalml/transit/pkg/errors"
)

// Variant identifies a survey dataset with its own column contract and
// trained model artifacts.
type Variant string

const (
	// Kepler is the Kepler Objects of Interest catalog. Its pipeline is a
	// passthrough: the raw columns are the model features, with the single
	// categorical column mapped by a fitted encoder.
	Kepler Variant = "kepler"

	// TESS is the current TESS pipeline: 17 raw columns expanded to 34
	// engineered features.
	TESS Variant = "tess"

	// TESSFull is the historical TESS pipeline: 17 raw columns expanded to
	// 67 engineered features including binned one-hot categories.
	TESSFull Variant = "tess-full"

	// Auto requests column-based variant detection.
	Auto Variant = ""
)

// MinDetectionMatches is the minimum number of known columns a batch must
// share with a variant's raw set before auto-detection will pick it.
const MinDetectionMatches = 10

func (v Variant) String() string {
	if v == Auto {
		return "auto"
	}
	return string(v)
}

// ParseVariant maps a user-supplied string to a Variant. The empty string
// and "auto" request auto-detection.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "kepler":
		return Kepler, nil
	case "tess":
		return TESS, nil
	case "tess-full", "tess_full":
		return TESSFull, nil
	case "", "auto":
		return Auto, nil
	default:
		return Auto, errors.NewInputError("unknown dataset variant: " + s).Err()
	}
}

// Variants lists every concrete variant, in a fixed order.
func Variants() []Variant {
	return []Variant{Kepler, TESS, TESSFull}
}

var keplerRaw = []string{
	"koi_pdisposition", "koi_score", "koi_fpflag_nt", "koi_fpflag_ss",
	"koi_fpflag_co", "koi_fpflag_ec", "koi_period", "koi_impact",
	"koi_duration", "koi_depth", "koi_prad", "koi_teq", "koi_insol",
	"koi_model_snr", "koi_tce_plnt_num", "koi_steff", "koi_slogg",
	"koi_srad", "ra", "dec", "koi_kepmag",
}

var tessRaw = []string{
	"ra", "dec", "st_teff", "st_logg", "st_rad", "st_dist",
	"st_pmra", "st_pmdec", "st_tmag",
	"pl_orbper", "pl_rade", "pl_trandep", "pl_trandurh", "pl_eqt", "pl_insol",
	"pl_tranmid", "pl_pnum",
}

// tessEngineered is the 34-feature order of the current TESS pipeline:
// the 17 raw columns followed by 17 derived features, exactly as fitted.
var tessEngineered = []string{
	"ra", "dec", "st_teff", "st_logg", "st_rad", "st_dist",
	"st_pmra", "st_pmdec", "st_tmag",
	"pl_orbper", "pl_rade", "pl_trandep", "pl_trandurh", "pl_eqt", "pl_insol",
	"pl_tranmid", "pl_pnum",
	"planet_star_ratio", "transit_depth_normalized", "transit_depth_anomaly",
	"detection_quality", "transit_duration_fraction",
	"pl_orbper_log", "st_teff_log", "st_dist_log",
	"is_m_dwarf", "deep_long_transit", "is_earth_sized", "is_neptune_sized",
	"is_sun_like", "pl_insol_log", "is_short_transit", "high_snr_detection",
	"is_nearby",
}

// tessFullEngineered is the 67-feature order of the historical TESS
// pipeline: 16 base columns (pl_pnum is metadata and was dropped at
// training), 35 derived numerics, and 16 one-hot bins (first bin of each
// category dropped at training).
var tessFullEngineered = []string{
	// base (16)
	"ra", "dec", "st_teff", "st_logg", "st_rad", "st_dist",
	"st_pmra", "st_pmdec", "st_tmag",
	"pl_orbper", "pl_rade", "pl_trandep", "pl_trandurh", "pl_eqt", "pl_insol",
	"pl_tranmid",
	// transit (6)
	"transit_depth_normalized", "transit_depth_anomaly",
	"transit_duration_fraction", "is_short_transit", "is_long_transit",
	"transit_phase",
	// planetary (8)
	"is_earth_sized", "is_super_earth", "is_neptune_sized", "is_jupiter_sized",
	"pl_orbper_log", "is_hot_jupiter", "pl_insol_log", "earth_like_insolation",
	// stellar (5)
	"st_teff_log", "is_sun_like", "is_m_dwarf", "st_dist_log", "is_nearby",
	// combined (3)
	"planet_star_radius_ratio", "detection_quality", "high_snr_detection",
	// positional (6)
	"pos_x", "pos_y", "pos_z", "abs_dec",
	"proper_motion_total", "high_proper_motion",
	// false-positive indicators (3)
	"deep_long_transit", "transit_depth_uncertainty_ratio", "uncertain_detection",
	// measurement quality (4)
	"period_uncertainty_ratio", "radius_uncertainty_ratio",
	"stellar_radius_uncertainty_ratio", "average_measurement_quality",
	// one-hot bins, first category of each dropped (16)
	"planet_size_category_Super-Earth", "planet_size_category_Mini-Neptune",
	"planet_size_category_Neptune", "planet_size_category_Jupiter",
	"temp_category_Temperate", "temp_category_Warm",
	"temp_category_Hot", "temp_category_Very_Hot",
	"stellar_type_K-type", "stellar_type_G-type",
	"stellar_type_F-type", "stellar_type_A-type+",
	"distance_category_Close", "distance_category_Medium",
	"distance_category_Far", "distance_category_Very_Far",
}

// tessDetection is the set of TESS columns used for auto-detection: the raw
// columns that every TESS export carries (pl_tranmid and pl_pnum are often
// absent and are defaulted, so they do not count toward detection).
var tessDetection = []string{
	"ra", "dec", "st_teff", "st_logg", "st_rad", "st_dist",
	"st_pmra", "st_pmdec", "st_tmag",
	"pl_orbper", "pl_rade", "pl_trandep", "pl_trandurh", "pl_eqt", "pl_insol",
}

// RawColumns returns the ordered raw column list for a variant.
func RawColumns(v Variant) ([]string, error) {
	switch v {
	case Kepler:
		return clone(keplerRaw), nil
	case TESS, TESSFull:
		return clone(tessRaw), nil
	default:
		return nil, errors.Newf("transit: no raw column contract for variant %q", v)
	}
}

// EngineeredColumns returns the ordered engineered column list for a variant.
func EngineeredColumns(v Variant) ([]string, error) {
	switch v {
	case Kepler:
		// Passthrough pipeline: model features are the raw columns.
		return clone(keplerRaw), nil
	case TESS:
		return clone(tessEngineered), nil
	case TESSFull:
		return clone(tessFullEngineered), nil
	default:
		return nil, errors.Newf("transit: no engineered column contract for variant %q", v)
	}
}

// RawDefaults returns the optional raw columns of a variant and the neutral
// value injected when the caller omits them.
func RawDefaults(v Variant) map[string]float64 {
	switch v {
	case TESS, TESSFull:
		return map[string]float64{
			"pl_pnum":    1, // single-planet system
			"pl_tranmid": 0,
		}
	default:
		return nil
	}
}

// OptionalErrorColumns returns measurement-error columns that are kept when
// present. Only the historical full TESS pipeline consumes them; its
// uncertainty-ratio features default to 0 when they are absent.
func OptionalErrorColumns(v Variant) []string {
	if v == TESSFull {
		return []string{"pl_orbpererr1", "pl_radeerr1", "pl_trandeperr1", "st_raderr1"}
	}
	return nil
}

// CriticalColumns returns the raw columns whose absence in a row makes the
// prediction for that row unreliable. Reported as a diagnostic, never an
// error.
func CriticalColumns(v Variant) []string {
	switch v {
	case TESS, TESSFull:
		return []string{"pl_orbper", "pl_trandep", "pl_trandurh", "st_tmag"}
	default:
		return nil
	}
}

// Detect picks the variant whose known raw columns best match the given
// column set. The winning variant must match at least MinDetectionMatches
// columns and strictly more than the other; otherwise detection fails with
// an IndeterminateDatasetError carrying both counts.
//
// Detection distinguishes Kepler from TESS. The two TESS pipelines share a
// raw contract, so Detect returns TESS; callers wanting the historical full
// pipeline must ask for it explicitly.
func Detect(columns []string) (Variant, error) {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	keplerMatch := 0
	for _, c := range keplerRaw {
		if present[c] {
			keplerMatch++
		}
	}
	tessMatch := 0
	for _, c := range tessDetection {
		if present[c] {
			tessMatch++
		}
	}

	switch {
	case keplerMatch > tessMatch && keplerMatch >= MinDetectionMatches:
		return Kepler, nil
	case tessMatch > keplerMatch && tessMatch >= MinDetectionMatches:
		return TESS, nil
	default:
		return Auto, errors.NewIndeterminateDatasetError(
			map[string]int{"kepler": keplerMatch, "tess": tessMatch},
			MinDetectionMatches,
		)
	}
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
