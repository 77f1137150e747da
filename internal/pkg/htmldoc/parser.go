// Package htmldoc turns raw page bytes into a queryable document.
package htmldoc

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// Parser builds goquery documents with the HTML5 parsing algorithm.
// Malformed markup never fails, the tree is repaired best effort.
type Parser struct{}

// NewParser creates a new HTML parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes body to UTF-8 and parses it into a document tree. The
// charset comes from a byte order mark, the contentType header value or a
// <meta> declaration, in that order, and is guessed when none is present.
func (p *Parser) Parse(body []byte, contentType string) (*goquery.Document, error) {
	body = decode(body, contentType)

	// Scripting disabled so <noscript> children are parsed as elements
	root, err := html.ParseWithOptions(bytes.NewReader(body), html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// decode converts body to UTF-8, undecodable input is returned as is
func decode(body []byte, contentType string) []byte {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" {
		return body
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return decoded
}

// BodyText concatenates the text of every text node under <body>, in
// document order and without separators. Nodes directly inside <script> or
// <style> are skipped, comments are never text nodes. ok is false when the
// document has no body element.
func BodyText(doc *goquery.Document) (text string, ok bool) {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return "", false
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && !skipParent(n.Parent) {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body.Get(0))

	return sb.String(), true
}

func skipParent(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return n.DataAtom == atom.Script || n.DataAtom == atom.Style
}
