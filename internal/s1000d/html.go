package s1000d

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/aquila-docs/aquila/internal/entity"
)

var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("article", "section", "figure", "span")
	p.AllowAttrs("class", "data-dmc", "data-icn").Globally()
	return p
}()

// RenderHTML produces a sanitized HTML fragment of dm for downstream
// transformation and preview. Content paragraphs are escaped, ICN markers
// become figure placeholders.
func RenderHTML(dm *entity.DataModule) string {
	var sb strings.Builder

	sb.WriteString("<article class=\"data-module\" data-dmc=\"")
	sb.WriteString(html.EscapeString(dm.DMC))
	sb.WriteString("\">\n")
	sb.WriteString("<h1>")
	sb.WriteString(html.EscapeString(dm.Title))
	sb.WriteString("</h1>\n")

	for _, para := range strings.Split(dm.Content, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(renderInlineMarkers(para))
		sb.WriteString("</p>\n")
	}

	if len(dm.ICNRefs) > 0 {
		sb.WriteString("<section class=\"illustrations\">\n")
		for _, ref := range dm.ICNRefs {
			sb.WriteString("<figure data-icn=\"")
			sb.WriteString(html.EscapeString(ref))
			sb.WriteString("\"></figure>\n")
		}
		sb.WriteString("</section>\n")
	}

	sb.WriteString("</article>")
	return htmlPolicy.Sanitize(sb.String())
}

// renderInlineMarkers escapes a paragraph and turns [ICN_REF:x] markers into
// span placeholders a transformer can resolve to images.
func renderInlineMarkers(para string) string {
	escaped := html.EscapeString(para)
	return icnMarkerRe.ReplaceAllString(escaped, `<span class="icn-ref" data-icn="$1"></span>`)
}

// icnMarkerRe matches explicit illustration markers embedded in content.
var icnMarkerRe = regexp.MustCompile(`\[ICN_REF:([A-Za-z0-9_.-]+)\]`)
