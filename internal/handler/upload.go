package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/blessingcarter623/amatymasocialapp/internal/media"
)

const sniffLen = 512

// Upload stores the image in the multipart "file" field and returns its
// public URL.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(ctx, w, badRequest("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(ctx, w, badRequest("malformed multipart form: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(ctx, w, badRequest("form field %q is required", "file"))
		return
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(ctx, w, badRequest("read upload: %v", err))
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)

	url, err := h.uploader.Upload(ctx, hdr.Filename, contentType, io.MultiReader(bytes.NewReader(head), f))
	if err != nil {
		if !errors.Is(err, media.ErrUnsupportedType) {
			err = upstream(err)
		}
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("url", func(e *jx.Encoder) { e.Str(url) })
		})
	})
}
