package request

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	srverrors "github.com/f4ah6o/dirserve-go/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantMethod string
		wantPath   string
	}{
		{
			name:       "Simple GET",
			raw:        "GET /a.txt HTTP/1.1\r\nHost: localhost\r\n\r\n",
			wantMethod: "GET",
			wantPath:   "/a.txt",
		},
		{
			name:       "Root",
			raw:        "GET / HTTP/1.1\r\n",
			wantMethod: "GET",
			wantPath:   "/",
		},
		{
			name:       "Bare LF",
			raw:        "GET /docs HTTP/1.0\n",
			wantMethod: "GET",
			wantPath:   "/docs",
		},
		{
			name:       "Extra whitespace",
			raw:        "GET   /x\tHTTP/1.1\r\n",
			wantMethod: "GET",
			wantPath:   "/x",
		},
		{
			name:       "Space escape",
			raw:        "GET /my%20file.txt HTTP/1.1\r\n",
			wantMethod: "GET",
			wantPath:   "/my file.txt",
		},
		{
			name:       "Plus stays literal",
			raw:        "GET /a+b HTTP/1.1\r\n",
			wantMethod: "GET",
			wantPath:   "/a+b",
		},
		{
			name:       "CJK",
			raw:        "GET /%E6%97%A5%E6%9C%AC%E8%AA%9E.txt HTTP/1.1\r\n",
			wantMethod: "GET",
			wantPath:   "/日本語.txt",
		},
		{
			name:       "Encoded traversal decodes verbatim",
			raw:        "GET /%2E%2E/secret HTTP/1.1\r\n",
			wantMethod: "GET",
			wantPath:   "/../secret",
		},
		{
			name:       "Missing version still has a target",
			raw:        "GET /a\r\n",
			wantMethod: "GET",
			wantPath:   "/a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Parse([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method = %q, want %q", req.Method, tt.wantMethod)
			}
			if req.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", req.Path, tt.wantPath)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "Empty", raw: "", wantErr: ErrEmpty},
		{name: "No line end", raw: "GET /a.txt HTTP/1.1", wantErr: ErrNoLineEnd},
		{name: "No target", raw: "GET\r\n", wantErr: ErrNoTarget},
		{name: "Blank line", raw: "\r\n", wantErr: ErrNoTarget},
		{name: "Bad escape", raw: "GET /%zz HTTP/1.1\r\n", wantErr: ErrBadEscape},
		{name: "Truncated escape", raw: "GET /%E6%9 HTTP/1.1\r\n", wantErr: ErrBadEscape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
			}
			if kind := srverrors.KindOf(err); kind != srverrors.KindParse {
				t.Errorf("KindOf() = %v, want %v", kind, srverrors.KindParse)
			}
		})
	}
}

func TestRead(t *testing.T) {
	req, err := Read(strings.NewReader("GET /b HTTP/1.1\r\n\r\n"), DefaultBufferSize)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if req.Path != "/b" {
		t.Errorf("Path = %q, want %q", req.Path, "/b")
	}
}

func TestReadLineLongerThanBuffer(t *testing.T) {
	raw := "GET /" + strings.Repeat("a", 600) + " HTTP/1.1\r\n"

	_, err := Read(strings.NewReader(raw), DefaultBufferSize)
	if !errors.Is(err, ErrNoLineEnd) {
		t.Errorf("Read() error = %v, want %v", err, ErrNoLineEnd)
	}
}

func TestReadSingleRead(t *testing.T) {
	// The line end arrives in a second read that is never issued.
	r := iotest.OneByteReader(strings.NewReader("GET / HTTP/1.1\r\n"))

	_, err := Read(r, DefaultBufferSize)
	if !errors.Is(err, ErrNoLineEnd) {
		t.Errorf("Read() error = %v, want %v", err, ErrNoLineEnd)
	}
}

func TestReadEmpty(t *testing.T) {
	tests := []struct {
		name string
		r    io.Reader
	}{
		{name: "EOF", r: strings.NewReader("")},
		{name: "Read error", r: iotest.ErrReader(io.ErrUnexpectedEOF)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.r, DefaultBufferSize)
			if kind := srverrors.KindOf(err); kind != srverrors.KindParse {
				t.Errorf("KindOf(%v) = %v, want %v", err, kind, srverrors.KindParse)
			}
		})
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	paths := []string{
		"/",
		"/a.txt",
		"/日本語/ファイル.txt",
		"/한국어 문서/파일.md",
		"/emoji 🎉/100%.txt",
		"/a+b/c?d#e;f,g",
		"/Ünïcödé/naïve café",
	}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			escaped := Escape(p)
			req, err := Parse([]byte("GET " + escaped + " HTTP/1.1\r\n"))
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", escaped, err)
			}
			if req.Path != p {
				t.Errorf("round trip = %q, want %q (escaped %q)", req.Path, p, escaped)
			}
			if req.Target != escaped {
				t.Errorf("Target = %q, want %q", req.Target, escaped)
			}
		})
	}
}
