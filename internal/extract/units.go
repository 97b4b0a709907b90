package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// unitVocabulary is the closed set of units recognised on report lines.
// Matching is case-insensitive after NFKC folding, so the micro sign and
// Greek mu compare equal.
var unitVocabulary = []string{
	"g/dL", "g/L", "mg/dL", "mg/L", "mcg/dL", "µg/dL", "µg/L",
	"mmol/L", "µmol/L", "umol/L", "mEq/L",
	"U/L", "IU/L", "mIU/L", "mIU/mL", "µIU/mL", "uIU/mL", "IU/mL",
	"ng/mL", "ng/dL", "pg/mL",
	"fL", "pg", "%", "mm/hr", "mm/1hr", "sec", "seconds", "ratio",
	"/µL", "/uL", "cells/µL", "cells/uL", "millions/µL", "million/µL", "millions/uL",
	"/cumm", "cells/cumm", "lakhs/cumm", "lakh/cumm", "mill/cumm", "million/cumm",
	"x10^3/µL", "x10^6/µL", "10^3/µL", "10^6/µL", "10³/µL", "10⁶/µL",
	"/hpf", "/lpf",
}

// defaultUnits supplies a unit when a line prints none.
// Keys are lower-case test names.
var defaultUnits = map[string]string{
	"haemoglobin":    "g/dL",
	"hemoglobin":     "g/dL",
	"rbc count":      "millions/µL",
	"pcv":            "%",
	"mcv":            "fL",
	"mch":            "pg",
	"mchc":           "g/dL",
	"rdw-cv":         "%",
	"platelet count": "cells/µL",
	"wbc count":      "cells/µL",
	"neutrophils":    "%",
	"lymphocytes":    "%",
	"monocytes":      "%",
	"eosinophils":    "%",
	"basophils":      "%",
}

// unitIndex maps folded unit text to its canonical vocabulary entry
var unitIndex = buildUnitIndex()

func buildUnitIndex() map[string]string {
	index := make(map[string]string, len(unitVocabulary))
	for _, u := range unitVocabulary {
		index[foldUnit(u)] = u
	}
	return index
}

// foldUnit normalises unit text for comparison
func foldUnit(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// trimUnitToken strips punctuation that commonly wraps a unit in table text
func trimUnitToken(tok string) string {
	return strings.Trim(tok, "()[],;:")
}

// LookupUnit reports whether tok is a known unit. The printed form is returned
// unchanged so the record keeps exactly what the report shows.
func LookupUnit(tok string) (string, bool) {
	printed := trimUnitToken(tok)
	if printed == "" {
		return "", false
	}
	if _, ok := unitIndex[foldUnit(printed)]; ok {
		return printed, true
	}
	return "", false
}

// DefaultUnit returns the fallback unit for a test name, if any
func DefaultUnit(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if unit, ok := defaultUnits[key]; ok {
		return unit, true
	}

	// "Hemoglobin (Hb)" -> "hemoglobin"
	if i := strings.Index(key, "("); i > 0 {
		if unit, ok := defaultUnits[strings.TrimSpace(key[:i])]; ok {
			return unit, true
		}
	}

	return "", false
}
