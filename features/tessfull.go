package features

import (
	"math"

	"github.com/orbitalml/transit/contract"
	"github.com/orbitalml/transit/dataset"
)

// binning for the historical pipeline's one-hot categories. Bins are
// left-open, right-closed; a value outside every bin (or NaN) sets no
// dummy. The first label of each category was dropped at training.
type binSpec struct {
	column string
	edges  []float64 // len(labels)+1, last edge +Inf
	labels []string  // dummy column names, first training label already dropped
}

var fullBins = []binSpec{
	{
		column: "pl_rade",
		edges:  []float64{0, 1.5, 2.0, 4.0, 10.0, math.Inf(1)},
		labels: []string{
			"", // Earth-like, dropped
			"planet_size_category_Super-Earth",
			"planet_size_category_Mini-Neptune",
			"planet_size_category_Neptune",
			"planet_size_category_Jupiter",
		},
	},
	{
		column: "pl_eqt",
		edges:  []float64{0, 273, 373, 500, 1000, math.Inf(1)},
		labels: []string{
			"", // Frozen, dropped
			"temp_category_Temperate",
			"temp_category_Warm",
			"temp_category_Hot",
			"temp_category_Very_Hot",
		},
	},
	{
		column: "st_teff",
		edges:  []float64{0, 3700, 5200, 6000, 7500, math.Inf(1)},
		labels: []string{
			"", // M-dwarf, dropped
			"stellar_type_K-type",
			"stellar_type_G-type",
			"stellar_type_F-type",
			"stellar_type_A-type+",
		},
	},
	{
		column: "st_dist",
		edges:  []float64{0, 50, 100, 200, 500, math.Inf(1)},
		labels: []string{
			"", // Very Close, dropped
			"distance_category_Close",
			"distance_category_Medium",
			"distance_category_Far",
			"distance_category_Very_Far",
		},
	},
}

// engineerTESSFull derives the 67-feature set of the historical TESS
// pipeline. Measurement-error columns are consumed when the input carries
// them; their uncertainty features are zero otherwise.
func engineerTESSFull(b *dataset.Batch) (*dataset.Batch, error) {
	c, err := loadBase(b)
	if err != nil {
		return nil, err
	}

	var (
		ra         = c.get("ra")
		dec        = c.get("dec")
		stTeff     = c.get("st_teff")
		stRad      = c.get("st_rad")
		stDist     = c.get("st_dist")
		stPmra     = c.get("st_pmra")
		stPmdec    = c.get("st_pmdec")
		stTmag     = c.get("st_tmag")
		plOrbper   = c.get("pl_orbper")
		plRade     = c.get("pl_rade")
		plTrandep  = c.get("pl_trandep")
		plTrandurh = c.get("pl_trandurh")
		plEqt      = c.get("pl_eqt")
		plInsol    = c.get("pl_insol")
		plTranmid  = c.get("pl_tranmid")
	)
	_ = plEqt

	// transit
	c.derive("transit_depth_normalized", func(i int) float64 {
		return plTrandep[i] / 1e6
	})
	depthNorm := c.get("transit_depth_normalized")
	c.derive("transit_depth_anomaly", func(i int) float64 {
		r := plRade[i] / (stRad[i] * rSunToEarth)
		return depthNorm[i] / (r*r + 1e-10)
	})
	c.derive("transit_duration_fraction", func(i int) float64 {
		return plTrandurh[i] / (plOrbper[i] * 24)
	})
	c.flag("is_short_transit", func(i int) bool { return plTrandurh[i] < 2 })
	c.flag("is_long_transit", func(i int) bool { return plTrandurh[i] > 10 })
	c.derive("transit_phase", func(i int) float64 {
		return math.Mod(plTranmid[i], plOrbper[i]) / plOrbper[i]
	})

	// planetary
	c.flag("is_earth_sized", func(i int) bool {
		return plRade[i] >= 0.5 && plRade[i] <= 1.5
	})
	c.flag("is_super_earth", func(i int) bool {
		return plRade[i] > 1.5 && plRade[i] <= 2.0
	})
	c.flag("is_neptune_sized", func(i int) bool {
		return plRade[i] > 4.0 && plRade[i] <= 10.0
	})
	c.flag("is_jupiter_sized", func(i int) bool { return plRade[i] > 10.0 })
	c.derive("pl_orbper_log", func(i int) float64 { return log10p1(plOrbper[i]) })
	c.flag("is_hot_jupiter", func(i int) bool {
		return plOrbper[i] < 10 && plRade[i] > 8
	})
	c.derive("pl_insol_log", func(i int) float64 { return log10p1(plInsol[i]) })
	c.flag("earth_like_insolation", func(i int) bool {
		return plInsol[i] >= 0.5 && plInsol[i] <= 2.0
	})

	// stellar
	c.derive("st_teff_log", func(i int) float64 { return log10p1(stTeff[i]) })
	c.flag("is_sun_like", func(i int) bool {
		return stTeff[i] >= 5200 && stTeff[i] <= 6000
	})
	c.flag("is_m_dwarf", func(i int) bool { return stTeff[i] < 3700 })
	c.derive("st_dist_log", func(i int) float64 { return log10p1(stDist[i]) })
	c.flag("is_nearby", func(i int) bool { return stDist[i] < 50 })

	// combined
	c.derive("planet_star_radius_ratio", func(i int) float64 {
		return plRade[i] / (stRad[i] * rSunToEarth)
	})
	c.derive("detection_quality", func(i int) float64 {
		return plTrandep[i] / math.Pow(10, stTmag[i]/5)
	})
	q75 := quantile75(c.get("detection_quality"))
	quality := c.get("detection_quality")
	c.flag("high_snr_detection", func(i int) bool { return quality[i] > q75 })

	// positional
	c.derive("pos_x", func(i int) float64 {
		return math.Cos(rad(dec[i])) * math.Cos(rad(ra[i]))
	})
	c.derive("pos_y", func(i int) float64 {
		return math.Cos(rad(dec[i])) * math.Sin(rad(ra[i]))
	})
	c.derive("pos_z", func(i int) float64 { return math.Sin(rad(dec[i])) })
	c.derive("abs_dec", func(i int) float64 { return math.Abs(dec[i]) })
	c.derive("proper_motion_total", func(i int) float64 {
		return math.Hypot(stPmra[i], stPmdec[i])
	})
	pm := c.get("proper_motion_total")
	c.flag("high_proper_motion", func(i int) bool { return pm[i] > 50 })

	// false-positive indicators
	c.flag("deep_long_transit", func(i int) bool {
		return plTrandep[i] > 10000 && plTrandurh[i] > 8
	})

	trandepErr := optionalColumn(b, "pl_trandeperr1")
	if trandepErr != nil {
		c.derive("transit_depth_uncertainty_ratio", func(i int) float64 {
			return trandepErr[i] / (plTrandep[i] + 1)
		})
		ratio := c.get("transit_depth_uncertainty_ratio")
		c.flag("uncertain_detection", func(i int) bool { return ratio[i] > 0.3 })
	} else {
		c.derive("transit_depth_uncertainty_ratio", zero)
		c.derive("uncertain_detection", zero)
	}

	// measurement quality
	uncertaintyRatio(c, b, "period_uncertainty_ratio", "pl_orbpererr1", plOrbper)
	uncertaintyRatio(c, b, "radius_uncertainty_ratio", "pl_radeerr1", plRade)
	uncertaintyRatio(c, b, "stellar_radius_uncertainty_ratio", "st_raderr1", stRad)

	perU := c.get("period_uncertainty_ratio")
	radU := c.get("radius_uncertainty_ratio")
	stU := c.get("stellar_radius_uncertainty_ratio")
	c.derive("average_measurement_quality", func(i int) float64 {
		return (perU[i] + radU[i] + stU[i]) / 3
	})

	// one-hot bins
	for _, spec := range fullBins {
		vals := c.get(spec.column)
		for li, label := range spec.labels {
			if label == "" {
				continue
			}
			lo, hi := spec.edges[li], spec.edges[li+1]
			c.flag(label, func(i int) bool {
				return vals[i] > lo && vals[i] <= hi
			})
		}
	}

	order, err := contract.EngineeredColumns(contract.TESSFull)
	if err != nil {
		return nil, err
	}
	return c.assemble(order)
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

func zero(int) float64 { return 0 }

// optionalColumn returns a raw measurement-error column when the input
// carried it, nil otherwise.
func optionalColumn(b *dataset.Batch, name string) []float64 {
	if !b.Has(name) {
		return nil
	}
	vals, _ := b.Numeric(name)
	return vals
}

// uncertaintyRatio derives err/(value+1e-10), or a zero column when the
// error measurements are absent.
func uncertaintyRatio(c *columns, b *dataset.Batch, name, errColumn string, denom []float64) {
	errVals := optionalColumn(b, errColumn)
	if errVals == nil {
		c.derive(name, zero)
		return
	}
	c.derive(name, func(i int) float64 {
		return errVals[i] / (denom[i] + 1e-10)
	})
}
