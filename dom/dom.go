// Package dom locates repeated structures in loosely formed HTML: tables,
// rows, card lists and the text that belongs to a single cell.
package dom

import (
	"bytes"
	"strings"

	"bistscrapper/utils"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Diagnostics receives a note for every item that was skipped while
// parsing. A nil Diagnostics discards them.
type Diagnostics func(msg string, kv ...any)

func (d Diagnostics) Report(msg string, kv ...any) {
	if d != nil {
		d(msg, kv...)
	}
}

// Parse builds a document from raw markup. The HTML parser accepts any
// input, so an empty or broken body produces an empty document.
func Parse(body []byte) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	return doc
}

// cell boundaries: text after one of these belongs to another cell.
var cellBoundary = map[string]bool{
	"tr": true, "table": true, "tbody": true, "thead": true, "td": true, "th": true,
}

// DirectText returns the text of n up to its first row, table or cell
// child. `<td>OutMedya<td>NextItem</td></td>` yields "OutMedya".
func DirectText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && cellBoundary[c.Data] {
			break
		}
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			b.WriteString(" ")
			b.WriteString(nodeText(c))
			b.WriteString(" ")
		}
	}
	return utils.Normalize(b.String())
}

// CellText is DirectText for the first node of a selection.
func CellText(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	return DirectText(s.Get(0))
}

// Text returns the normalized text of a selection.
func Text(s *goquery.Selection) string {
	if s == nil {
		return ""
	}
	return utils.Normalize(s.Text())
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Lines returns every non-empty text node under the selection, normalized,
// in document order. Script and style content is skipped.
func Lines(s *goquery.Selection) []string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if line := utils.Normalize(n.Data); line != "" {
				lines = append(lines, line)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return lines
}

// PageText joins Lines with newlines.
func PageText(s *goquery.Selection) string {
	return strings.Join(Lines(s), "\n")
}

// Clean strips elements that never carry data.
func Clean(doc *goquery.Document) {
	doc.Find("script, style, noscript, iframe, meta, link").Remove()
	doc.Find("*").Contents().Each(func(i int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#comment" {
			s.Remove()
		}
	})
}
