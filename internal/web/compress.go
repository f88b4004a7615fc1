package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"pdf-compressor-go/internal/batch"
	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/sizes"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FileResult is one entry of a compress-batch response. CompressedFile is
// base64 in JSON.
type FileResult struct {
	FileName           string  `json:"filename"`
	Success            bool    `json:"success"`
	Message            string  `json:"message,omitempty"`
	Kind               string  `json:"kind,omitempty"`
	OriginalSize       int64   `json:"original_size"`
	CompressedSize     int64   `json:"compressed_size"`
	Ratio              float64 `json:"ratio"`
	CompressionApplied bool    `json:"compression_applied"`
	CompressedFile     []byte  `json:"compressed_file,omitempty"`
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	if status, err := s.parseUploadForm(w, r); err != nil {
		s.writeError(w, err.Error(), status)
		return
	}
	quality, err := s.requestQuality(r)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := validatePDFFile(file, header, s.cfg.HTTP.MaxUploadSize); err != nil {
		s.rejectUpload(w, err)
		return
	}

	dir, err := s.workspace(uuid.NewString())
	if err != nil {
		s.writeError(w, "Failed to create temp directory", http.StatusInternalServerError)
		return
	}
	defer s.removeWorkspace(dir)

	name := sanitizeFilename(header.Filename)
	input := filepath.Join(dir, "input_"+name)
	if err := saveUpload(file, input); err != nil {
		s.writeError(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	outcome := s.runner.Compress(r.Context(), compressor.Job{
		Input:     input,
		Output:    filepath.Join(dir, "output_"+name),
		Quality:   quality,
		Overwrite: true,
	})
	outcome.FileName = name
	s.metrics.ObserveOutcome(outcome)

	if !outcome.Success {
		s.log.WithFields(logrus.Fields{"file": name, "kind": outcome.Kind()}).
			Errorf("Upload compression failed: %s", outcome.Reason())
		s.writeKindError(w, outcome.Reason(), outcome.Kind(), statusFor(outcome.Kind()))
		return
	}

	body, applied, err := s.chooseBody(input, outcome)
	if err != nil {
		s.writeError(w, "Failed to read compressed file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "compressed_"+name))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("X-Original-Size", strconv.FormatInt(outcome.OriginalSize, 10))
	w.Header().Set("X-Compressed-Size", strconv.FormatInt(outcome.CompressedSize, 10))
	w.Header().Set("X-Compression-Ratio", strconv.FormatFloat(outcome.Ratio, 'f', 1, 64))
	w.Header().Set("X-Compression-Applied", strconv.FormatBool(applied))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.log.Warnf("Failed to write response for %s: %v", name, err)
	}
}

// chooseBody returns the compressed bytes when the reduction policy accepts
// them, otherwise the original upload.
func (s *Server) chooseBody(input string, outcome compressor.Outcome) ([]byte, bool, error) {
	if s.policy.Accept(outcome.OriginalSize, outcome.CompressedSize) {
		data, err := os.ReadFile(outcome.Output)
		return data, true, err
	}
	s.log.WithField("file", outcome.FileName).Infof(
		"Reduction %.1f%% below %.1f%%, returning original", outcome.Ratio, s.policy.MinPercent)
	data, err := os.ReadFile(input)
	return data, false, err
}

// handleCompressBatch saves every upload into one workspace and compresses
// them through the batch orchestrator.
func (s *Server) handleCompressBatch(w http.ResponseWriter, r *http.Request) {
	if status, err := s.parseUploadForm(w, r); err != nil {
		s.writeError(w, err.Error(), status)
		return
	}
	quality, err := s.requestQuality(r)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.writeError(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	dir, err := s.workspace(uuid.NewString())
	if err != nil {
		s.writeError(w, "Failed to create temp directory", http.StatusInternalServerError)
		return
	}
	defer s.removeWorkspace(dir)
	inDir, outDir := filepath.Join(dir, "in"), filepath.Join(dir, "out")
	if err := os.MkdirAll(inDir, 0700); err != nil {
		s.writeError(w, "Failed to create temp directory", http.StatusInternalServerError)
		return
	}

	results := make([]FileResult, len(headers))
	// saved maps a workspace input path back to its slot in results
	saved := make(map[string]int, len(headers))
	for i, header := range headers {
		results[i] = FileResult{FileName: header.Filename}
		path, err := s.saveBatchUpload(header, inDir, i)
		if err != nil {
			results[i].Message = err.Error()
			if !errors.Is(err, errTooLarge) {
				results[i].Kind = string(compressor.KindNotAPdf)
			}
			continue
		}
		saved[path] = i
	}

	if len(saved) > 0 {
		orch := batch.New(s.runner, batch.Options{
			MaxAutoWorkers: s.cfg.Performance.MaxAutoWorkers,
			Metrics:        s.metrics,
		}, s.log)
		result, err := orch.Run(r.Context(), batch.Request{
			InputRoot: inDir,
			OutputDir: outDir,
			Quality:   quality,
			Overwrite: true,
		})
		if err != nil {
			s.writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		for _, outcome := range result.Outcomes {
			i, ok := saved[outcome.Input]
			if !ok {
				continue
			}
			results[i] = s.fileResult(results[i].FileName, outcome)
		}
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"quality": quality,
			"results": results,
		},
	})
}

func (s *Server) saveBatchUpload(header *multipart.FileHeader, dir string, index int) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %v", err)
	}
	defer file.Close()

	if err := validatePDFFile(file, header, s.cfg.HTTP.MaxUploadSize); err != nil {
		return "", err
	}
	// the index keeps identical client names apart
	name := fmt.Sprintf("%03d_%s", index, sanitizeFilename(header.Filename))
	path := filepath.Join(dir, name)
	if err := saveUpload(file, path); err != nil {
		return "", fmt.Errorf("failed to save file: %v", err)
	}
	return path, nil
}

func (s *Server) fileResult(name string, outcome compressor.Outcome) FileResult {
	res := FileResult{
		FileName:       name,
		Success:        outcome.Success,
		OriginalSize:   outcome.OriginalSize,
		CompressedSize: outcome.CompressedSize,
		Ratio:          outcome.Ratio,
	}
	if !outcome.Success {
		res.Message = outcome.Reason()
		res.Kind = string(outcome.Kind())
		return res
	}

	body, applied, err := s.chooseBody(outcome.Input, outcome)
	if err != nil {
		res.Success = false
		res.Message = fmt.Sprintf("failed to read result: %v", err)
		res.Kind = string(compressor.KindUnexpectedError)
		return res
	}
	res.CompressedFile = body
	res.CompressionApplied = applied
	if applied {
		res.Message = fmt.Sprintf("Compressed: %s -> %s (%.1f%% reduction)",
			sizes.Format(outcome.OriginalSize), sizes.Format(outcome.CompressedSize), outcome.Ratio)
	} else {
		res.Message = fmt.Sprintf("Reduction %.1f%% below threshold, original kept", outcome.Ratio)
	}
	return res
}
