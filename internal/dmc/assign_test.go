package dmc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/provider"
)

func TestAssignDeterministic(t *testing.T) {
	classification := provider.Classification{DMType: "PROC", Title: "Hydraulic pump removal"}

	first, err := Assign(Air, classification, constants.VariantVerbatim)
	require.NoError(t, err)
	second, err := Assign(Air, classification, constants.VariantVerbatim)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssignVariantsDifferOnlyInTrailingSegment(t *testing.T) {
	classification := provider.Classification{DMType: "GEN", Title: "Test"}

	verbatim, err := Assign(Water, classification, constants.VariantVerbatim)
	require.NoError(t, err)
	simplified, err := Assign(Water, classification, constants.VariantSimplified)
	require.NoError(t, err)

	vSegs := strings.Split(verbatim, "-")
	sSegs := strings.Split(simplified, "-")
	require.Len(t, vSegs, 15)
	require.Len(t, sSegs, 15)

	assert.Equal(t, vSegs[:len(vSegs)-1], sSegs[:len(sSegs)-1])
	assert.Equal(t, "00", vSegs[len(vSegs)-1])
	assert.Equal(t, "01", sSegs[len(sSegs)-1])
}

func TestAssignInfoCodePerType(t *testing.T) {
	cases := map[string]string{
		"PROC": "030",
		"DESC": "020",
		"IPD":  "200",
		"CIR":  "120",
		"SNS":  "120",
		"WIR":  "190",
		"GEN":  "000",
	}
	for dmType, infoCode := range cases {
		code, err := Assign(Other, provider.Classification{DMType: dmType}, constants.VariantVerbatim)
		require.NoError(t, err, dmType)
		segs := strings.Split(code, "-")
		assert.Equal(t, infoCode, segs[9], "info code for %s", dmType)
	}
}

func TestAssignAcceptsClassifierSynonyms(t *testing.T) {
	code, err := Assign(Air, provider.Classification{DMType: "procedural", Title: "Engine Start Procedure"}, constants.VariantVerbatim)
	require.NoError(t, err)
	assert.Contains(t, code, "-030-")
}

func TestAssignMissingTypeFails(t *testing.T) {
	_, err := Assign(Air, provider.Classification{Title: "No type"}, constants.VariantVerbatim)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrIncompleteClassification)
}

func TestFallbackProducesGenericCode(t *testing.T) {
	code := Fallback(Land, constants.VariantVerbatim)

	segs := strings.Split(code, "-")
	require.Len(t, segs, 15)
	assert.Equal(t, "DMC", segs[0])
	assert.Equal(t, "AQLL", segs[1])
	assert.Equal(t, "000", segs[9]) // GEN info code
	assert.Equal(t, "00", segs[14])
}

func TestAssignHintsOverrideDefaults(t *testing.T) {
	classification := provider.Classification{
		DMType: "DESC",
		Hints: provider.CodeHints{
			SystemCode:    "245",
			SubSystemCode: "10",
		},
	}
	code, err := Assign(Air, classification, constants.VariantVerbatim)
	require.NoError(t, err)

	segs := strings.Split(code, "-")
	assert.Equal(t, "245", segs[3])
	assert.Equal(t, "10", segs[4])
}

func TestAssignModelIdentClippedAndUppercased(t *testing.T) {
	classification := provider.Classification{
		DMType: "GEN",
		Hints:  provider.CodeHints{ModelIdent: "longmodel"},
	}
	code, err := Assign(Other, classification, constants.VariantVerbatim)
	require.NoError(t, err)

	segs := strings.Split(code, "-")
	assert.Equal(t, "LONG", segs[1])
}

func TestPresetByName(t *testing.T) {
	assert.Equal(t, "air", PresetByName("Air").Name)
	assert.Equal(t, "water", PresetByName(" water ").Name)
	assert.Equal(t, "other", PresetByName("spaceship").Name)
}
