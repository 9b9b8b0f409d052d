// Package classify determines a MIME type from a file's leading bytes.
package classify

import (
	"bytes"

	"github.com/h2non/filetype"
)

// DefaultType is returned when no known signature matches.
const DefaultType = "application/octet-stream"

// HeaderSize is the number of leading bytes inspected. Longer buffers are truncated.
const HeaderSize = 8192

// Text signatures filetype does not ship with. None of them can open a binary
// format, since every binary signature starts with its own magic bytes.
var (
	TypeHTML  = filetype.NewType("html", "text/html")
	TypeXML   = filetype.NewType("xml", "text/xml")
	TypeShell = filetype.NewType("sh", "text/x-shellscript")
)

func init() {
	filetype.AddMatcher(TypeHTML, isHTML)
	filetype.AddMatcher(TypeXML, isXML)
	filetype.AddMatcher(TypeShell, isShellScript)
}

// Detect returns the MIME type of buf based on its magic bytes, never its name.
func Detect(buf []byte) string {
	if len(buf) > HeaderSize {
		buf = buf[:HeaderSize]
	}
	kind, err := filetype.Match(buf)
	if err != nil || kind == filetype.Unknown || kind.MIME.Value == "" {
		return DefaultType
	}
	return kind.MIME.Value
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// htmlTags open an HTML document. Each must be followed by a space or '>'.
var htmlTags = [][]byte{
	[]byte("<!DOCTYPE HTML"),
	[]byte("<HTML"),
	[]byte("<HEAD"),
	[]byte("<SCRIPT"),
	[]byte("<IFRAME"),
	[]byte("<H1"),
	[]byte("<DIV"),
	[]byte("<FONT"),
	[]byte("<TABLE"),
	[]byte("<A"),
	[]byte("<STYLE"),
	[]byte("<TITLE"),
	[]byte("<B"),
	[]byte("<BODY"),
	[]byte("<BR"),
	[]byte("<P"),
	[]byte("<!--"),
}

func trimLeading(buf []byte) []byte {
	buf = bytes.TrimPrefix(buf, utf8BOM)
	return bytes.TrimLeft(buf, " \t\r\n\f")
}

func isHTML(buf []byte) bool {
	buf = trimLeading(buf)
	for _, tag := range htmlTags {
		if len(buf) <= len(tag) || !bytes.EqualFold(buf[:len(tag)], tag) {
			continue
		}
		if next := buf[len(tag)]; next == ' ' || next == '>' {
			return true
		}
	}
	return false
}

func isXML(buf []byte) bool {
	return bytes.HasPrefix(trimLeading(buf), []byte("<?xml "))
}

func isShellScript(buf []byte) bool {
	return bytes.HasPrefix(buf, []byte("#!"))
}
