package features

import (
	"math"

	"github.com/orbitalml/transit/contract"
	"github.com/orbitalml/transit/dataset"
)

// engineerTESS derives the 34-feature set of the current TESS pipeline:
// the 17 winsorized raw columns plus 17 derived features.
func engineerTESS(b *dataset.Batch) (*dataset.Batch, error) {
	c, err := loadBase(b)
	if err != nil {
		return nil, err
	}

	var (
		stTeff     = c.get("st_teff")
		stRad      = c.get("st_rad")
		stDist     = c.get("st_dist")
		stTmag     = c.get("st_tmag")
		plOrbper   = c.get("pl_orbper")
		plRade     = c.get("pl_rade")
		plTrandep  = c.get("pl_trandep")
		plTrandurh = c.get("pl_trandurh")
		plInsol    = c.get("pl_insol")
	)

	c.derive("planet_star_ratio", func(i int) float64 {
		return plRade[i] / (stRad[i] * rSunToEarth)
	})
	c.derive("transit_depth_normalized", func(i int) float64 {
		return plTrandep[i] / 1e6
	})
	depthNorm := c.get("transit_depth_normalized")
	ratio := c.get("planet_star_ratio")
	c.derive("transit_depth_anomaly", func(i int) float64 {
		return depthNorm[i] / (ratio[i]*ratio[i] + 1e-12)
	})
	c.derive("detection_quality", func(i int) float64 {
		return plTrandep[i] / math.Pow(10, stTmag[i]/5)
	})
	c.derive("transit_duration_fraction", func(i int) float64 {
		return plTrandurh[i] / (plOrbper[i] * 24)
	})
	c.derive("pl_orbper_log", func(i int) float64 { return log10p1(plOrbper[i]) })
	c.derive("st_teff_log", func(i int) float64 { return log10p1(stTeff[i]) })
	c.derive("st_dist_log", func(i int) float64 { return log10p1(stDist[i]) })
	c.flag("is_m_dwarf", func(i int) bool { return stTeff[i] < 3700 })
	c.flag("deep_long_transit", func(i int) bool {
		return plTrandep[i] > 10000 && plTrandurh[i] > 8
	})
	c.flag("is_earth_sized", func(i int) bool {
		return plRade[i] >= 0.5 && plRade[i] <= 2.0
	})
	c.flag("is_neptune_sized", func(i int) bool {
		return plRade[i] > 4.0 && plRade[i] <= 10.0
	})
	c.flag("is_sun_like", func(i int) bool {
		return stTeff[i] >= 5200 && stTeff[i] <= 6000
	})
	c.derive("pl_insol_log", func(i int) float64 { return log10p1(plInsol[i]) })
	c.flag("is_short_transit", func(i int) bool { return plTrandurh[i] < 2 })

	// Batch-relative flag: strictly above the batch's own 75th percentile.
	// A single-row batch can never flag itself.
	q75 := quantile75(c.get("detection_quality"))
	quality := c.get("detection_quality")
	c.flag("high_snr_detection", func(i int) bool { return quality[i] > q75 })

	c.flag("is_nearby", func(i int) bool { return stDist[i] < 50 })

	order, err := contract.EngineeredColumns(contract.TESS)
	if err != nil {
		return nil, err
	}
	return c.assemble(order)
}
