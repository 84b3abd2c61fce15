package contract

import (
	"testing"

	"github.com/orbitalml/transit/pkg/errors"
)

func TestColumnCounts(t *testing.T) {
	tests := []struct {
		variant        Variant
		wantRaw        int
		wantEngineered int
	}{
		{Kepler, 21, 21},
		{TESS, 17, 34},
		{TESSFull, 17, 67},
	}

	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			raw, err := RawColumns(tt.variant)
			if err != nil {
				t.Fatalf("RawColumns: %v", err)
			}
			if len(raw) != tt.wantRaw {
				t.Errorf("len(raw) = %d, want %d", len(raw), tt.wantRaw)
			}
			eng, err := EngineeredColumns(tt.variant)
			if err != nil {
				t.Fatalf("EngineeredColumns: %v", err)
			}
			if len(eng) != tt.wantEngineered {
				t.Errorf("len(engineered) = %d, want %d", len(eng), tt.wantEngineered)
			}
		})
	}
}

func TestEngineeredOrderIsStable(t *testing.T) {
	// The raw columns lead the engineered order for the current TESS
	// pipeline; the derived block starts right after them.
	eng, _ := EngineeredColumns(TESS)
	raw, _ := RawColumns(TESS)
	for i, c := range raw {
		if eng[i] != c {
			t.Fatalf("engineered[%d] = %q, want raw column %q", i, eng[i], c)
		}
	}
	if eng[17] != "planet_star_ratio" {
		t.Errorf("engineered[17] = %q, want planet_star_ratio", eng[17])
	}
	if eng[21] != "transit_duration_fraction" {
		t.Errorf("engineered[21] = %q, want transit_duration_fraction", eng[21])
	}
	if eng[33] != "is_nearby" {
		t.Errorf("engineered[33] = %q, want is_nearby", eng[33])
	}
}

func TestEngineeredColumnsAreUnique(t *testing.T) {
	for _, v := range Variants() {
		eng, err := EngineeredColumns(v)
		if err != nil {
			t.Fatalf("EngineeredColumns(%s): %v", v, err)
		}
		seen := make(map[string]bool, len(eng))
		for _, c := range eng {
			if seen[c] {
				t.Errorf("%s: duplicate engineered column %q", v, c)
			}
			seen[c] = true
		}
	}
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	a, _ := RawColumns(TESS)
	a[0] = "mutated"
	b, _ := RawColumns(TESS)
	if b[0] != "ra" {
		t.Error("RawColumns should return a defensive copy")
	}
}

func TestDetectKepler(t *testing.T) {
	cols, _ := RawColumns(Kepler)
	v, err := Detect(cols)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if v != Kepler {
		t.Errorf("Detect = %s, want kepler", v)
	}
}

func TestDetectTESS(t *testing.T) {
	cols, _ := RawColumns(TESS)
	v, err := Detect(cols)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if v != TESS {
		t.Errorf("Detect = %s, want tess", v)
	}
}

func TestDetectBoundary(t *testing.T) {
	// Exactly 10 Kepler-only columns against 9 TESS-only columns must
	// resolve to Kepler: 10 meets the minimum and strictly wins.
	cols := []string{
		"koi_pdisposition", "koi_score", "koi_fpflag_nt", "koi_fpflag_ss",
		"koi_fpflag_co", "koi_fpflag_ec", "koi_period", "koi_impact",
		"koi_duration", "koi_depth",
		"st_teff", "st_logg", "st_rad", "st_dist", "st_pmra", "st_pmdec",
		"st_tmag", "pl_orbper", "pl_rade",
	}
	v, err := Detect(cols)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if v != Kepler {
		t.Errorf("Detect = %s, want kepler", v)
	}
}

func TestDetectIndeterminate(t *testing.T) {
	// Nine matches on each side: no strict winner, both below the minimum.
	cols := []string{
		"koi_score", "koi_fpflag_nt", "koi_fpflag_ss", "koi_fpflag_co",
		"koi_fpflag_ec", "koi_period", "koi_impact", "koi_duration", "koi_depth",
		"st_teff", "st_logg", "st_rad", "st_dist", "st_pmra", "st_pmdec",
		"st_tmag", "pl_orbper", "pl_rade",
	}
	_, err := Detect(cols)
	if err == nil {
		t.Fatal("expected indeterminate dataset error")
	}
	var de *errors.IndeterminateDatasetError
	if !errors.As(err, &de) {
		t.Fatalf("expected IndeterminateDatasetError, got %T", err)
	}
	if de.Matches["kepler"] != 9 || de.Matches["tess"] != 9 {
		t.Errorf("match counts = %v, want 9/9", de.Matches)
	}
}

func TestDetectSharedColumnsCountForBoth(t *testing.T) {
	// ra/dec belong to both raw sets; on their own they cannot tip
	// detection either way.
	_, err := Detect([]string{"ra", "dec"})
	if err == nil {
		t.Fatal("expected indeterminate dataset error")
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"kepler", Kepler, false},
		{"tess", TESS, false},
		{"tess-full", TESSFull, false},
		{"tess_full", TESSFull, false},
		{"auto", Auto, false},
		{"", Auto, false},
		{"k2", Auto, true},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVariant(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVariant(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
