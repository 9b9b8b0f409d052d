package server

import (
	"io"
	"os"

	srverrors "github.com/f4ah6o/dirserve-go/internal/errors"
	"github.com/f4ah6o/dirserve-go/internal/listing"
	"github.com/f4ah6o/dirserve-go/internal/request"
	"github.com/f4ah6o/dirserve-go/internal/sandbox"
)

// Handler runs the request pipeline for a single connection:
// parse, resolve, then list a directory or serve a file.
// It holds no per-connection state and is safe for concurrent use.
type Handler struct {
	resolver    *sandbox.Resolver
	bufferSize  int
	maxFileSize int64
}

// NewHandler creates a Handler serving files below resolver's root.
// bufferSize is the number of request bytes inspected; maxFileSize <= 0
// removes the file size limit.
func NewHandler(resolver *sandbox.Resolver, bufferSize int, maxFileSize int64) *Handler {
	if bufferSize <= 0 {
		bufferSize = request.DefaultBufferSize
	}
	return &Handler{
		resolver:    resolver,
		bufferSize:  bufferSize,
		maxFileSize: maxFileSize,
	}
}

// Result describes what happened on one connection, for logging.
type Result struct {
	Method      string
	Path        string
	Status      int
	ContentType string
	Bytes       int64
	// Err is the failure that decided the response, if any.
	Err error
	// WriteErr is set when the response could not be delivered.
	WriteErr error
	// ListErr is an enumeration error that did not prevent a listing.
	ListErr error
}

// Handle reads one request from rw and writes one response to it.
func (h *Handler) Handle(rw io.ReadWriter) Result {
	var res Result

	req, err := request.Read(rw, h.bufferSize)
	if err != nil {
		res.Err = err
		h.respond(rw, StatusNotFound, "", nil, &res)
		return res
	}
	res.Method, res.Path = req.Method, req.Path

	resolved, err := h.resolver.Resolve(req.Path)
	if err != nil {
		res.Err = err
		h.respond(rw, StatusNotFound, "", nil, &res)
		return res
	}

	info, err := os.Stat(resolved)
	if err != nil {
		res.Err = srverrors.New(srverrors.KindResolution, "stat", err)
		h.respond(rw, StatusNotFound, "", nil, &res)
		return res
	}

	switch {
	case info.IsDir():
		h.serveDirectory(rw, resolved, &res)
	case info.Mode().IsRegular():
		h.serveFile(rw, resolved, info, &res)
	default:
		res.Err = srverrors.New(srverrors.KindResolution, "stat", sandbox.ErrNotFound)
		h.respond(rw, StatusNotFound, "", nil, &res)
	}
	return res
}

func (h *Handler) serveDirectory(w io.Writer, dir string, res *Result) {
	body, err := listing.Render(dir)
	if body == nil {
		res.Err = srverrors.New(srverrors.KindRead, "render listing", err)
		h.respond(w, StatusServerError, "", nil, res)
		return
	}
	res.ListErr = err
	res.ContentType = listing.ContentType
	h.respond(w, StatusOK, listing.ContentType, body, res)
}

func (h *Handler) respond(w io.Writer, status int, contentType string, body []byte, res *Result) {
	res.Status = status
	n, err := writeResponse(w, status, contentType, body)
	res.Bytes = n
	if err != nil {
		res.WriteErr = srverrors.New(srverrors.KindWrite, "write response", err)
	}
}
