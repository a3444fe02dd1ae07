package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/sagarc03/mediagate"
)

const (
	filenameField = "filename"
	fileField     = "file"

	maxFieldSize = 4 << 10
	spoolPattern = "mediagate-upload-*"
)

// handleUpload stores the file part of a multipart form. The body is read as a
// stream: when the filename field comes before the file part, the file goes
// straight to the store; otherwise it is spooled to a temporary file until the
// rest of the form has been seen.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		WriteError(w, http.StatusBadRequest, "invalid_content_type", "Request body must be multipart/form-data")
		return
	}

	mr, err := r.MultipartReader()
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_content_type", "Request body must be multipart/form-data")
		return
	}

	obj, err := h.receiveUpload(r.Context(), mr)
	if err != nil {
		HandleError(w, err)
		return
	}

	h.config.Logger.InfoContext(r.Context(), "object stored",
		slog.String("key", obj.Key),
		slog.Int64("size", obj.FileSizeBytes),
		slog.String("token", TokenName(r.Context())),
	)

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		_ = WriteJSON(w, http.StatusOK, obj)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "Uploaded %q", obj.Key)
}

type uploadForm struct {
	name        string
	nameSeen    bool
	hasFile     bool
	fileName    string
	contentType string
	spool       *os.File
}

// key is the filename field when set, else the name the file part carries.
func (f *uploadForm) key() string {
	if f.name != "" {
		return f.name
	}
	return f.fileName
}

func (f *uploadForm) close() {
	if f.spool == nil {
		return
	}
	_ = f.spool.Close()
	_ = os.Remove(f.spool.Name())
}

func (h *Handler) receiveUpload(ctx context.Context, mr *multipart.Reader) (mediagate.MetaData, error) {
	var form uploadForm
	defer form.close()

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return mediagate.MetaData{}, bodyError("read multipart body", err)
		}

		switch part.FormName() {
		case filenameField:
			name, err := readField(part)
			if err != nil {
				return mediagate.MetaData{}, err
			}
			form.name = name
			form.nameSeen = true

		case fileField:
			if form.hasFile {
				break
			}
			form.hasFile = true
			form.fileName = part.FileName()
			form.contentType = part.Header.Get("Content-Type")

			if form.nameSeen {
				return h.store(ctx, &form, part)
			}
			if err := h.spoolPart(&form, part); err != nil {
				return mediagate.MetaData{}, err
			}
		}

		_ = part.Close()
	}

	if !form.hasFile {
		return mediagate.MetaData{}, fmt.Errorf("upload: %w: missing %q part", mediagate.ErrInvalidInput, fileField)
	}

	return h.store(ctx, &form, form.spool)
}

func (h *Handler) spoolPart(form *uploadForm, part io.Reader) error {
	spool, err := os.CreateTemp(h.config.SpoolDir, spoolPattern)
	if err != nil {
		return fmt.Errorf("upload: %w", &mediagate.UpstreamError{Op: "spool upload", Err: err})
	}
	form.spool = spool

	body := &trackingReader{r: part}
	if _, err := io.Copy(spool, body); err != nil {
		if body.err != nil {
			return bodyError("read file part", body.err)
		}
		return fmt.Errorf("upload: %w", &mediagate.UpstreamError{Op: "spool upload", Err: err})
	}

	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("upload: %w", &mediagate.UpstreamError{Op: "spool upload", Err: err})
	}

	return nil
}

func (h *Handler) store(ctx context.Context, form *uploadForm, content io.Reader) (mediagate.MetaData, error) {
	key := form.key()
	if key == "" {
		return mediagate.MetaData{}, fmt.Errorf("upload: %w: missing object key", mediagate.ErrInvalidInput)
	}
	if !mediagate.IsValidKey(key) {
		return mediagate.MetaData{}, fmt.Errorf("upload %s: %w: invalid object key", key, mediagate.ErrInvalidInput)
	}

	body := &trackingReader{r: content}
	obj, err := h.service.Create(ctx, mediagate.CreateObject{Key: key, ContentType: form.contentType}, body)
	if err != nil {
		if body.err != nil {
			return mediagate.MetaData{}, bodyError("read file part", body.err)
		}
		return mediagate.MetaData{}, fmt.Errorf("upload %s: %w", key, err)
	}

	return obj, nil
}

func readField(part io.Reader) (string, error) {
	body := &trackingReader{r: io.LimitReader(part, maxFieldSize+1)}
	value, err := io.ReadAll(body)
	if err != nil {
		return "", bodyError("read filename field", err)
	}
	if len(value) > maxFieldSize {
		return "", fmt.Errorf("upload: %w: %q field too long", mediagate.ErrInvalidInput, filenameField)
	}
	return strings.TrimSpace(string(value)), nil
}

// bodyError classifies a failure to read the request body. An exceeded size
// cap keeps its *http.MaxBytesError; anything else is malformed input.
func bodyError(op string, err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return fmt.Errorf("upload: %s: %w", op, err)
	}
	return fmt.Errorf("upload: %s: %w: %v", op, mediagate.ErrInvalidInput, err)
}

// trackingReader remembers the first non-EOF read error so request body
// failures can be told apart from store failures.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && t.err == nil {
		t.err = err
	}
	return n, err
}
