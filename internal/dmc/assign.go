// Package dmc assigns S1000D Data Module Codes. Assignment is pure: the same
// defaults, classification, and variant always produce the same code, so the
// verbatim and simplified variants of one source differ only in the trailing
// variant segment.
package dmc

import (
	"fmt"
	"strings"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/provider"
)

// Defaults supplies the operational-structure segments a classification
// cannot derive from text alone. The user picks a preset before processing.
type Defaults struct {
	Name             string
	ModelIdent       string
	SystemDiff       string
	SystemCode       string
	ItemLocationCode string
}

// Operational-structure presets.
var (
	Air   = Defaults{Name: "air", ModelIdent: "AQLA", SystemDiff: "00", SystemCode: "000", ItemLocationCode: "A"}
	Water = Defaults{Name: "water", ModelIdent: "AQLW", SystemDiff: "00", SystemCode: "000", ItemLocationCode: "A"}
	Land  = Defaults{Name: "land", ModelIdent: "AQLL", SystemDiff: "00", SystemCode: "000", ItemLocationCode: "A"}
	Other = Defaults{Name: "other", ModelIdent: "AQLX", SystemDiff: "00", SystemCode: "000", ItemLocationCode: "A"}
)

// PresetByName resolves a preset name, falling back to Other.
func PresetByName(name string) Defaults {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "air":
		return Air
	case "water":
		return Water
	case "land":
		return Land
	default:
		return Other
	}
}

// Assign builds the DMC for a classified module:
//
//	DMC-<modelIdent>-<systemDiff>-<system>-<subSystem>-<subSubSystem>-<assy>-
//	<disassy>-<disassyVariant>-<infoCode>-<infoCodeVariant>-<itemLocation>-
//	<learn>-<learnEvent>-<variant>
//
// Classification hints override the preset defaults segment by segment; the
// info code derives from the canonical dm_type. A classification with no
// recognizable dm_type yields ErrIncompleteClassification.
func Assign(defaults Defaults, classification provider.Classification, variant string) (string, error) {
	dmType, ok := constants.Canonicalize(classification.DMType)
	if !ok {
		return "", fmt.Errorf("dm_type %q: %w", classification.DMType, common.ErrIncompleteClassification)
	}
	return build(defaults, dmType, classification.Hints, variant), nil
}

// Fallback produces the generic GEN code the pipeline uses when
// classification cannot supply a dm_type.
func Fallback(defaults Defaults, variant string) string {
	return build(defaults, constants.General, provider.CodeHints{}, variant)
}

func build(defaults Defaults, dmType constants.DMType, hints provider.CodeHints, variant string) string {
	modelIdent := pick(hints.ModelIdent, defaults.ModelIdent, "AQLA")
	modelIdent = strings.ToUpper(modelIdent)
	if len(modelIdent) > 4 {
		modelIdent = modelIdent[:4]
	}

	segments := []string{
		modelIdent,
		pick(hints.SystemDiff, defaults.SystemDiff, "00"),
		pick(hints.SystemCode, defaults.SystemCode, "000"),
		pick(hints.SubSystemCode, "", "00"),
		pick(hints.SubSubSystemCode, "", "00"),
		pick(hints.AssyCode, "", "00"),
		pick(hints.DisassyCode, "", "00"),
		pick(hints.DisassyCodeVariant, "", "00"),
		constants.InfoCode(dmType),
		pick(hints.InfoCodeVariant, "", "A"),
		pick(hints.ItemLocationCode, defaults.ItemLocationCode, "A"),
		"00", // learn code
		"00", // learn event code
		variant,
	}
	return "DMC-" + strings.Join(segments, "-")
}

// pick returns the first non-empty of hint, preset, fallback.
func pick(hint, preset, fallback string) string {
	if hint != "" {
		return hint
	}
	if preset != "" {
		return preset
	}
	return fallback
}
