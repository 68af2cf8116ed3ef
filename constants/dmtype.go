package constants

import (
	"strings"
)

// DMType is the S1000D data module type.
type DMType string

const (
	Procedural       DMType = "PROC" // procedures
	Descriptive      DMType = "DESC" // descriptions
	IllustratedParts DMType = "IPD"  // illustrated parts data
	Circuit          DMType = "CIR"  // circuits
	Fault            DMType = "SNS"  // service/fault notices
	Wiring           DMType = "WIR"  // wiring
	General          DMType = "GEN"  // general
)

var allDMTypes = []DMType{
	Procedural,
	Descriptive,
	IllustratedParts,
	Circuit,
	Fault,
	Wiring,
	General,
}

func AsStringSlice() []string {
	result := make([]string, len(allDMTypes))
	for i, dt := range allDMTypes {
		result[i] = string(dt)
	}
	return result
}

// InfoCode maps a DM type to its S1000D information code segment.
func InfoCode(dt DMType) string {
	switch dt {
	case Procedural:
		return "030"
	case Descriptive:
		return "020"
	case IllustratedParts:
		return "200"
	case Circuit:
		return "120"
	case Fault:
		return "120"
	case Wiring:
		return "190"
	default:
		return "000"
	}
}

// Canonicalize maps a free-form classifier label onto a DMType.
// Returns (General, false) for anything it cannot place.
func Canonicalize(input string) (DMType, bool) {
	if input == "" {
		return General, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]DMType{
		"procedure":      Procedural,
		"procedural":     Procedural,
		"description":    Descriptive,
		"descriptive":    Descriptive,
		"parts data":     IllustratedParts,
		"parts":          IllustratedParts,
		"ipd":            IllustratedParts,
		"circuit":        Circuit,
		"fault":          Fault,
		"service notice": Fault,
		"wiring":         Wiring,
		"general":        General,
	}

	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	// check if it matches any type string
	for _, dt := range allDMTypes {
		if strings.ToUpper(normalized) == string(dt) {
			return dt, true
		}
	}

	return General, false
}
