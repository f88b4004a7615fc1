package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/engine"
)

// multipartMemory is how much of a form is buffered in memory before
// spilling to disk.
const multipartMemory = 32 << 20

var (
	errNotPDF   = errors.New("file must be a PDF")
	errTooLarge = errors.New("file too large")
)

// sanitizeFilename removes path traversal attempts and dangerous characters
func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = filepath.Base(filename)
	filename = strings.TrimSpace(filename)

	if filename == "" || filename == "." {
		filename = "document.pdf"
	}
	return filename
}

// validatePDFFile checks the extension, the size and the %PDF header.
func validatePDFFile(file multipart.File, header *multipart.FileHeader, maxSize int64) error {
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		return errNotPDF
	}
	if header.Size > maxSize {
		return fmt.Errorf("%w: %d bytes exceeds maximum allowed %d bytes", errTooLarge, header.Size, maxSize)
	}

	buffer := make([]byte, 4)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("failed to read file header: %v", err)
	}
	if n < 4 || string(buffer) != "%PDF" {
		return fmt.Errorf("invalid PDF file: header does not match")
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to reset file position: %v", err)
	}
	return nil
}

// rejectUpload writes the response for a validatePDFFile error.
func (s *Server) rejectUpload(w http.ResponseWriter, err error) {
	if errors.Is(err, errTooLarge) {
		s.writeError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	s.writeKindError(w, err.Error(), compressor.KindNotAPdf, http.StatusBadRequest)
}

// saveUpload copies an uploaded part to path.
func saveUpload(file multipart.File, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}

// parseUploadForm limits the whole body to the upload size plus form
// overhead and parses it. The returned status is meaningful only when err is
// non-nil.
func (s *Server) parseUploadForm(w http.ResponseWriter, r *http.Request) (int, error) {
	limit := s.cfg.HTTP.MaxUploadSize + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request exceeds %d bytes", limit)
		}
		return http.StatusBadRequest, fmt.Errorf("invalid multipart form: %v", err)
	}
	return 0, nil
}

// requestQuality reads the "quality" form or query value, falling back to
// the configured default.
func (s *Server) requestQuality(r *http.Request) (engine.Quality, error) {
	return s.qualityOrDefault(r.FormValue("quality"))
}

// qualityOrDefault parses raw, returning the configured default when empty.
func (s *Server) qualityOrDefault(raw string) (engine.Quality, error) {
	if raw == "" {
		return s.cfg.Quality(), nil
	}
	return engine.ParseQuality(raw)
}
