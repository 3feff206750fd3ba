package render

import (
	"fmt"
	"strings"
)

//go:generate templ generate

// pageCSS returns the stylesheet of a document: the page geometry from p and
// the fixed print layout.
func pageCSS(p PageSetup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@page { size: %gmm %gmm; margin: %gmm; }\n", p.WidthMM, p.HeightMM, p.MarginMM)
	fmt.Fprintf(&b, "body { margin: 0; font-family: %s; font-size: 12pt; line-height: %g; color: #000; }\n", p.FontStack, p.LineHeight)
	fmt.Fprintf(&b, ".page { width: %gmm; min-height: %gmm; padding: %gmm; box-sizing: border-box; margin: 0 auto; }\n", p.WidthMM, p.HeightMM, p.MarginMM)
	b.WriteString(printCSS)
	return b.String()
}

const printCSS = `@media print { .page { width: auto; min-height: 0; padding: 0; } }
.no-split { break-inside: avoid; page-break-inside: avoid; }
.header { display: grid; grid-template-columns: 80px 1fr 80px; align-items: center; gap: 16px; border-bottom: 2px solid #000; padding-bottom: 12px; margin-bottom: 16px; }
.header .logo { width: 80px; height: 80px; object-fit: contain; }
.header .lines { text-align: center; min-width: 0; overflow: hidden; }
.fit-line { white-space: nowrap; font-weight: bold; }
h1 { text-align: center; font-size: 1.25em; margin: 0 0 16px; }
.identity { display: flex; gap: 16px; margin: 16px 0; }
.identity table { flex: 1; border-collapse: collapse; }
.identity td { padding: 0 8px 4px 0; vertical-align: baseline; }
.identity .label { font-weight: 600; white-space: nowrap; }
.score { width: 112px; border: 2px solid #000; padding: 8px; font-size: 8pt; font-weight: bold; }
.section { margin-bottom: 24px; }
.section-head { display: flex; font-weight: bold; margin-bottom: 8px; }
.section-head .title { margin-right: 8px; }
.question { display: flex; align-items: flex-start; margin: 8px 0 16px; }
.question .number { font-weight: bold; margin-right: 8px; }
.question .body { flex: 1; min-width: 0; }
.question img { display: block; max-width: 28rem; max-height: 16rem; margin: 8px auto; object-fit: contain; }
.subs { margin: 0 0 8px 16px; }
.item { display: flex; align-items: baseline; }
.item .label { margin-right: 8px; }
.options { display: grid; grid-template-columns: 1fr 1fr; column-gap: 32px; }
.matching { display: flex; gap: 32px; margin-top: 8px; }
.matching > div { flex: 1; }
.answer-space { display: grid; grid-template-columns: auto 1fr; column-gap: 8px; margin-top: 16px; }
.answer-space .line { border-bottom: 1px dotted #000; height: 1.5em; margin-bottom: 16px; }
.key-head { text-align: center; border-bottom: 2px solid #000; padding-bottom: 12px; margin-bottom: 24px; }
.key-head h2 { font-size: 1.1em; margin: 8px 0 0; }
.key-rows { display: grid; grid-template-columns: auto 1fr; column-gap: 16px; row-gap: 8px; }
.key-rows .number { font-weight: bold; text-align: right; }
.not-set { color: #dc2626; font-style: italic; }
`

// docTitle is the browser title of doc.
func docTitle(doc Document) string {
	if doc.Kind == KindKey {
		return doc.Labels.KeyDocTitle + " - " + doc.Title
	}
	return doc.Labels.SheetTitle + " - " + doc.Title
}

// fieldValue is what an identity row prints: its value, or a dotted line to
// write on.
func fieldValue(f Field) string {
	if f.Blank {
		return strings.Repeat(".", 50)
	}
	return f.Value
}
