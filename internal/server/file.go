package server

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/f4ah6o/dirserve-go/internal/classify"
	srverrors "github.com/f4ah6o/dirserve-go/internal/errors"
)

// serveFile reads the whole file at path into memory, classifies it and
// writes it. Files larger than maxFileSize are refused with a server error
// instead of being read.
func (h *Handler) serveFile(w io.Writer, path string, info fs.FileInfo, res *Result) {
	if h.maxFileSize > 0 && info.Size() > h.maxFileSize {
		res.Err = srverrors.New(srverrors.KindRead, "read file",
			fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), h.maxFileSize))
		h.respond(w, StatusServerError, "", nil, res)
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		res.Err = srverrors.New(srverrors.KindRead, "read file", err)
		h.respond(w, StatusServerError, "", nil, res)
		return
	}

	res.ContentType = classify.Detect(content)
	h.respond(w, StatusOK, res.ContentType, content, res)
}
