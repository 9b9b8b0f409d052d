// Package request turns the first bytes received on a connection into a Request.
//
// Only a single read of a fixed-size buffer is inspected. A request line that
// does not fit in that buffer is rejected rather than read in a loop.
package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	srverrors "github.com/f4ah6o/dirserve-go/internal/errors"
)

// DefaultBufferSize is the number of bytes read from a connection by default.
const DefaultBufferSize = 512

var (
	ErrEmpty     = errors.New("no request bytes received")
	ErrNoLineEnd = errors.New("request line is not terminated")
	ErrNoTarget  = errors.New("request line has no target")
	ErrBadEscape = errors.New("invalid percent-encoding in target")
)

// Request is the parsed request line. It is never mutated after Parse returns.
type Request struct {
	// Method is the first token of the request line (e.g., "GET").
	Method string
	// Target is the raw, still percent-encoded second token.
	Target string
	// Path is Target after percent-decoding.
	Path string
}

// Read performs one read of up to size bytes from r and parses the result.
func Read(r io.Reader, size int) (Request, error) {
	if size <= 0 {
		size = DefaultBufferSize
	}
	buf := make([]byte, size)

	n, err := r.Read(buf)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			err = ErrEmpty
		}
		return Request{}, srverrors.New(srverrors.KindParse, "read request", err)
	}

	return Parse(buf[:n])
}

// Parse extracts the method and decoded target path from the first line of buf.
func Parse(buf []byte) (Request, error) {
	if len(buf) == 0 {
		return Request{}, srverrors.New(srverrors.KindParse, "parse request", ErrEmpty)
	}

	end := bytes.IndexByte(buf, '\n')
	if end < 0 {
		return Request{}, srverrors.New(srverrors.KindParse, "parse request", ErrNoLineEnd)
	}
	line := strings.TrimSuffix(string(buf[:end]), "\r")

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Request{}, srverrors.New(srverrors.KindParse, "parse request", ErrNoTarget)
	}

	path, err := url.PathUnescape(fields[1])
	if err != nil {
		return Request{}, srverrors.New(srverrors.KindParse, "parse request", fmt.Errorf("%w: %v", ErrBadEscape, err))
	}

	return Request{
		Method: fields[0],
		Target: fields[1],
		Path:   path,
	}, nil
}

// Escape percent-encodes a logical path one segment at a time, keeping the
// separators. Parse decodes the result back to path.
func Escape(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
