package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aquila-docs/aquila/internal/entity"
)

// dmcRefRe is the best-effort scan for data module codes mentioned in text.
// False negatives are acceptable; dangling matches are caught by the
// reference-integrity validation rule.
var dmcRefRe = regexp.MustCompile(`DMC-[A-Z0-9-]+`)

// FindReferencedDMCs returns the sorted, de-duplicated module codes mentioned
// in text, excluding self.
func FindReferencedDMCs(text, self string) []string {
	seen := make(map[string]struct{})
	for _, m := range dmcRefRe.FindAllString(text, -1) {
		m = strings.TrimRight(m, "-")
		if m == self || m == "DMC" {
			continue
		}
		seen[m] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// AppendICNRefs appends one explicit illustration marker per linked ICN to
// content, grouped in source-page order, so the module side of the
// relationship is queryable without asking the ICN store.
func AppendICNRefs(content string, icns []*entity.ICN) string {
	if len(icns) == 0 {
		return content
	}

	ordered := make([]*entity.ICN, len(icns))
	copy(ordered, icns)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].SourcePage != ordered[j].SourcePage {
			return ordered[i].SourcePage < ordered[j].SourcePage
		}
		return ordered[i].ICNID < ordered[j].ICNID
	})

	var sb strings.Builder
	sb.WriteString(content)
	for _, icn := range ordered {
		if strings.Contains(content, "[ICN_REF:"+icn.ICNID+"]") {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("[ICN_REF:%s]", icn.ICNID))
	}
	return sb.String()
}
