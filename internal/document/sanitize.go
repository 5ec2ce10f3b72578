package document

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// shortcodeRe matches opening and closing bracket shortcodes such as
// [gallery ids="1,2"], [map /] and [/caption]: a lowercase tag name followed
// only by name=value attributes. Bracketed prose is left alone.
var shortcodeRe = regexp.MustCompile(`\[/?[a-z][a-z0-9_-]*(?:\s+[a-z0-9_-]+=(?:"[^"]*"|'[^']*'|[^\s\[\]"']+))*\s*/?\]`)

// blockElements get a separating space so adjacent blocks do not run together.
var blockElements = map[atom.Atom]bool{
	atom.Br: true, atom.P: true, atom.Div: true, atom.Li: true,
	atom.Tr: true, atom.Td: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// Sanitize reduces free text to plain text: shortcodes and markup are removed,
// entities decoded, and whitespace collapsed.
func Sanitize(s string) string {
	s = shortcodeRe.ReplaceAllString(s, " ")
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// html.Parse only fails on reader errors.
		return strings.Join(strings.Fields(s), " ")
	}
	var sb strings.Builder
	collectText(doc, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, sb)
	}
	if n.Type == html.ElementNode && blockElements[n.DataAtom] {
		sb.WriteByte(' ')
	}
}
