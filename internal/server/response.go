package server

import (
	"io"
	"net"
)

// Status lines. The reason phrases are upper case on the wire.
const (
	StatusOK          = 200
	StatusNotFound    = 404
	StatusServerError = 500
)

var statusLines = map[int]string{
	StatusOK:          "HTTP/1.1 200 OK\r\n",
	StatusNotFound:    "HTTP/1.1 404 NOT FOUND\r\n",
	StatusServerError: "HTTP/1.1 500 INTERNAL SERVER ERROR\r\n",
}

// writeResponse writes the status line, an optional Content-Type header, the
// blank line and body. No Content-Length is sent; closing the connection ends
// the body.
func writeResponse(w io.Writer, status int, contentType string, body []byte) (int64, error) {
	head := statusLines[status]
	if contentType != "" {
		head += "Content-Type: " + contentType + "\r\n"
	}
	head += "\r\n"

	bufs := net.Buffers{[]byte(head)}
	if len(body) > 0 {
		bufs = append(bufs, body)
	}
	return bufs.WriteTo(w)
}
