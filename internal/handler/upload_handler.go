package handler

import (
	"errors"
	"net/http"
	"time"

	"storefront/internal/media"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

const uploadField = "file"

// UploadResponse carries the public URL of a stored upload.
type UploadResponse struct {
	URL string `json:"url"`
}

// UploadHandler handles product image uploads.
type UploadHandler struct {
	store       media.Store
	maxFileSize int64
	now         func() time.Time
	logger      zerolog.Logger
}

// NewUploadHandler creates a new upload handler accepting files up to
// maxFileSize bytes.
func NewUploadHandler(store media.Store, maxFileSize int64, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		store:       store,
		maxFileSize: maxFileSize,
		now:         time.Now,
		logger:      logger.With().Str("handler", "upload").Logger(),
	}
}

// UploadImage handles POST /api/admin/uploads/image requests.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Multipart framing adds a little on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+(1<<20))
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, model.InvalidArgument(model.ErrCodeFileTooLarge, "File exceeds %d bytes", h.maxFileSize), h.logger)
			return
		}
		writeError(w, r, model.InvalidArgument(model.ErrCodeNoFile, "No file uploaded"), h.logger)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, r, model.InvalidArgument(model.ErrCodeNoFile, "No file uploaded"), h.logger)
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		writeError(w, r, model.InvalidArgument(model.ErrCodeFileTooLarge, "File exceeds %d bytes", h.maxFileSize), h.logger)
		return
	}

	contentType := header.Header.Get("Content-Type")
	ext, err := media.ExtensionFor(contentType)
	if err != nil {
		writeError(w, r, model.InvalidArgument(model.ErrCodeUnsupportedMedia, "Only JPEG, PNG, GIF and WebP images are accepted"), h.logger)
		return
	}

	name := media.ObjectName(header.Filename, ext, h.now())
	url, err := h.store.Put(r.Context(), name, contentType, file)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	h.logger.Info().
		Str("name", name).
		Int64("bytes", header.Size).
		Msg("image uploaded")

	writeJSON(w, http.StatusOK, UploadResponse{URL: url})
}
