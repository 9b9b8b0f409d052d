// Package listing renders the immediate children of a directory as an HTML
// link list.
//
// Each link's text and href are the entry's full filesystem path. Clients
// that follow those links send filesystem paths back as request targets, so
// the links only resolve when the root is the filesystem root.
package listing

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ContentType is sent with every listing.
const ContentType = "text/html"

// Render lists dir one level deep and returns a complete HTML document.
//
// Enumeration errors never prevent rendering: entries read before the error
// are listed (an unreadable directory lists nothing) and the error is
// returned alongside the document for the caller to log.
func Render(dir string) ([]byte, error) {
	entries, readErr := os.ReadDir(dir)

	var buf bytes.Buffer
	if err := html.Render(&buf, Build(dir, entries)); err != nil {
		return nil, err
	}
	return buf.Bytes(), readErr
}

// Build returns the document tree for entries of dir.
func Build(dir string, entries []fs.DirEntry) *html.Node {
	body := element(atom.Body)
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())

		a := element(atom.A, html.Attribute{Key: "href", Val: p})
		a.AppendChild(&html.Node{Type: html.TextNode, Data: p})
		body.AppendChild(a)
		body.AppendChild(element(atom.Br))
	}

	root := element(atom.Html)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(root)
	return doc
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}
