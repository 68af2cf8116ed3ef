// Package s1000d renders data modules into transformation-ready forms:
// a minimal dmodule XML tree and a sanitized HTML fragment.
package s1000d

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/aquila-docs/aquila/internal/entity"
)

// RenderXML builds the minimal S1000D dmodule representation of dm.
func RenderXML(dm *entity.DataModule) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("dmodule")

	ident := root.CreateElement("identAndStatusSection")
	ident.CreateElement("dmc").SetText(dm.DMC)
	ident.CreateElement("title").SetText(dm.Title)
	ident.CreateElement("infoVariant").SetText(dm.InfoVariant)

	content := root.CreateElement("content")
	for _, para := range strings.Split(dm.Content, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		content.CreateElement("para").SetText(para)
	}

	if len(dm.ICNRefs) > 0 {
		illus := root.CreateElement("illustrations")
		for _, ref := range dm.ICNRefs {
			icnRef := illus.CreateElement("icnRef")
			icnRef.CreateAttr("icnID", ref)
		}
	}

	if len(dm.DMRefs) > 0 {
		refs := root.CreateElement("dmRefs")
		for _, ref := range dm.DMRefs {
			dmRef := refs.CreateElement("dmRef")
			dmRef.CreateAttr("dmc", ref)
		}
	}

	doc.Indent(2)
	return doc.WriteToString()
}
