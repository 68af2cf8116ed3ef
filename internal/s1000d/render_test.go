package s1000d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/entity"
)

func testModule() *entity.DataModule {
	return &entity.DataModule{
		DMC:         "DMC-AQLA-00-000-00-00-00-00-00-030-A-A-00-00-00",
		Title:       "Engine Start Procedure",
		InfoVariant: constants.VariantVerbatim,
		Content:     "Connect the power unit.\n\nOpen the fuel valve.\n[ICN_REF:ICN-AAAA1111]",
		ICNRefs:     []string{"ICN-AAAA1111"},
		DMRefs:      []string{"DMC-AQLA-00-000-00-00-00-00-00-020-A-A-00-00-00"},
	}
}

func TestRenderXML(t *testing.T) {
	out, err := RenderXML(testModule())
	require.NoError(t, err)

	assert.Contains(t, out, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, out, "<dmodule>")
	assert.Contains(t, out, "<dmc>DMC-AQLA-00-000-00-00-00-00-00-030-A-A-00-00-00</dmc>")
	assert.Contains(t, out, "<title>Engine Start Procedure</title>")
	assert.Contains(t, out, "<infoVariant>00</infoVariant>")
	assert.Contains(t, out, "<para>Connect the power unit.</para>")
	assert.Contains(t, out, `<icnRef icnID="ICN-AAAA1111"/>`)
	assert.Contains(t, out, `<dmRef dmc="DMC-AQLA-00-000-00-00-00-00-00-020-A-A-00-00-00"/>`)
}

func TestRenderXMLEscapesContent(t *testing.T) {
	dm := testModule()
	dm.Title = "Fuel <valve> & pump"
	dm.Content = "Torque to 5 <Nm>."

	out, err := RenderXML(dm)
	require.NoError(t, err)
	assert.Contains(t, out, "Fuel &lt;valve&gt; &amp; pump")
	assert.NotContains(t, out, "<valve>")
}

func TestRenderHTML(t *testing.T) {
	out := RenderHTML(testModule())

	assert.Contains(t, out, `data-dmc="DMC-AQLA-00-000-00-00-00-00-00-030-A-A-00-00-00"`)
	assert.Contains(t, out, "<h1>Engine Start Procedure</h1>")
	assert.Contains(t, out, "<p>Connect the power unit.</p>")
	assert.Contains(t, out, `<span class="icn-ref" data-icn="ICN-AAAA1111"></span>`)
	assert.Contains(t, out, `<figure data-icn="ICN-AAAA1111"></figure>`)
}

func TestRenderHTMLSanitizesContent(t *testing.T) {
	dm := testModule()
	dm.Content = `Click here <script>alert("x")</script> now.`

	out := RenderHTML(dm)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderHTMLNoIllustrations(t *testing.T) {
	dm := testModule()
	dm.ICNRefs = nil
	dm.Content = "Plain paragraph."

	out := RenderHTML(dm)
	assert.NotContains(t, out, "<section")
	assert.NotContains(t, out, "<figure")
}
