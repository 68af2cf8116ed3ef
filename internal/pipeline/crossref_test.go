package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aquila-docs/aquila/internal/entity"
)

func TestFindReferencedDMCs(t *testing.T) {
	text := "See DMC-AQLA-00-000-00-00-00-00-00-020-A-A-00-00-00 and " +
		"DMC-AQLA-00-000-00-00-00-00-00-020-A-A-00-00-00 again, plus " +
		"DMC-AQLA-00-245-00-00-00-00-00-030-A-A-00-00-01."

	refs := FindReferencedDMCs(text, "")
	assert.Equal(t, []string{
		"DMC-AQLA-00-000-00-00-00-00-00-020-A-A-00-00-00",
		"DMC-AQLA-00-245-00-00-00-00-00-030-A-A-00-00-01",
	}, refs)
}

func TestFindReferencedDMCsExcludesSelf(t *testing.T) {
	self := "DMC-AQLA-00-000-00-00-00-00-00-020-A-A-00-00-00"
	refs := FindReferencedDMCs("the code "+self+" names this module", self)
	assert.Empty(t, refs)
}

func TestFindReferencedDMCsNoMatches(t *testing.T) {
	assert.Empty(t, FindReferencedDMCs("no codes here", ""))
}

func TestAppendICNRefs(t *testing.T) {
	icns := []*entity.ICN{
		{ICNID: "ICN-BBBB", SourcePage: 2},
		{ICNID: "ICN-AAAA", SourcePage: 1},
	}
	out := AppendICNRefs("Remove the pump.", icns)

	assert.Contains(t, out, "Remove the pump.")
	idxA := strings.Index(out, "[ICN_REF:ICN-AAAA]")
	idxB := strings.Index(out, "[ICN_REF:ICN-BBBB]")
	assert.GreaterOrEqual(t, idxA, 0)
	assert.Greater(t, idxB, idxA, "markers follow source-page order")
}

func TestAppendICNRefsSkipsExistingMarker(t *testing.T) {
	content := "Step one.\n[ICN_REF:ICN-AAAA]"
	out := AppendICNRefs(content, []*entity.ICN{{ICNID: "ICN-AAAA", SourcePage: 1}})
	assert.Equal(t, content, out)
}

func TestAppendICNRefsNoImages(t *testing.T) {
	assert.Equal(t, "text", AppendICNRefs("text", nil))
}
