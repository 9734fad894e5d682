package render

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Formatting the platform itself emits in comment bodies.
var allowedTags = map[atom.Atom]bool{
	atom.A:      true,
	atom.B:      true,
	atom.Br:     true,
	atom.Em:     true,
	atom.I:      true,
	atom.S:      true,
	atom.Span:   true,
	atom.Strong: true,
}

// Elements dropped together with their content.
var droppedTags = map[atom.Atom]bool{
	atom.Iframe:   true,
	atom.Noscript: true,
	atom.Object:   true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
}

// Sanitize keeps the inline formatting tags found in comment bodies and
// escapes or drops everything else. Links keep only http and https hrefs.
func Sanitize(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))

	var b strings.Builder
	var open []atom.Atom
	var dropping atom.Atom

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			for i := len(open) - 1; i >= 0; i-- {
				b.WriteString("</" + open[i].String() + ">")
			}
			return b.String()

		case html.TextToken:
			if dropping != 0 {
				continue
			}
			b.WriteString(html.EscapeString(string(z.Text())))

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if dropping != 0 {
				continue
			}
			if droppedTags[tok.DataAtom] {
				dropping = tok.DataAtom
				continue
			}
			if !allowedTags[tok.DataAtom] {
				continue
			}

			writeStartTag(&b, tok)
			if tok.DataAtom != atom.Br && tt == html.StartTagToken {
				open = append(open, tok.DataAtom)
			}

		case html.EndTagToken:
			tok := z.Token()
			if dropping != 0 {
				if tok.DataAtom == dropping {
					dropping = 0
				}
				continue
			}

			// Close back to the matching open tag, ignoring stray end tags.
			for i := len(open) - 1; i >= 0; i-- {
				if open[i] != tok.DataAtom {
					continue
				}
				for j := len(open) - 1; j >= i; j-- {
					b.WriteString("</" + open[j].String() + ">")
				}
				open = open[:i]
				break
			}
		}
	}
}

func writeStartTag(b *strings.Builder, tok html.Token) {
	b.WriteString("<" + tok.DataAtom.String())
	if tok.DataAtom == atom.A {
		for _, attr := range tok.Attr {
			if attr.Key == "href" && safeHref(attr.Val) {
				b.WriteString(` href="` + html.EscapeString(attr.Val) + `"`)
			}
		}
	}
	b.WriteString(">")
}

func safeHref(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}

	return u.Scheme == "http" || u.Scheme == "https"
}
