package server

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/verte-zerg/healthdash/internal/ecg"
	"github.com/verte-zerg/healthdash/internal/health"
	"github.com/verte-zerg/healthdash/internal/insights"
	"github.com/verte-zerg/healthdash/internal/model"
)

// DetectKind maps an uploaded file to the parser that handles it and returns
// the media type to forward for medical reports. Apple Health names win over
// the declared content type. It returns "" for unsupported files.
func DetectKind(name, contentType string) (kind, mediaType string) {
	lower := strings.ToLower(name)
	if isHealthExport(lower) {
		return model.KindAppleHealth, ""
	}
	if mediaType = reportMediaType(lower, contentType); mediaType != "" {
		return model.KindMedicalReport, mediaType
	}
	if strings.HasSuffix(lower, ".csv") {
		return model.KindECG, ""
	}
	return "", ""
}

func isHealthExport(lower string) bool {
	if strings.Contains(lower, "apple_health") {
		return true
	}
	for _, ext := range []string{".xml", ".zip", ".gz", ".zst"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// reportMediaType returns the image or PDF type of an upload, trusting the
// declared content type and falling back to the file extension.
func reportMediaType(lower, contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if mt == insights.MediaPDF || strings.HasPrefix(mt, "image/") {
			return mt
		}
	}
	switch filepath.Ext(lower) {
	case ".pdf":
		return insights.MediaPDF
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return ""
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	kind, mediaType := DetectKind(header.Filename, header.Header.Get("Content-Type"))
	if kind == "" {
		s.metrics.Upload("unknown", "rejected")
		writeError(w, http.StatusBadRequest, "Unsupported file type")
		return
	}
	if kind == model.KindMedicalReport && s.cfg.Commentator == nil {
		s.metrics.Upload(kind, "rejected")
		writeError(w, http.StatusServiceUnavailable, "Report analysis is not configured; set ANTHROPIC_API_KEY")
		return
	}

	path, err := s.saveUpload(file, header.Filename)
	if err != nil {
		s.log.Error("store upload failed", "file", header.Filename, "error", err)
		s.metrics.Upload(kind, "error")
		writeError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	log := s.log.With("file", header.Filename, "kind", kind, "path", path)
	log.Info("processing upload")

	var result any
	switch kind {
	case model.KindAppleHealth:
		var st health.ParseStats
		res, perr := health.ParseFile(r.Context(), path,
			health.WithHistoryLimit(s.cfg.HistoryDays),
			health.WithLogger(log),
			health.WithStats(&st),
		)
		if perr == nil {
			s.metrics.Export(st.Lines, st.Days)
			result = res
		}
		err = perr
	case model.KindECG:
		rec, perr := ecg.ParseFile(path)
		result, err = rec, perr
	case model.KindMedicalReport:
		report, perr := s.cfg.Commentator.AnalyzeReport(r.Context(), path, mediaType)
		result, err = report, perr
	}
	if err != nil {
		log.Error("processing failed", "error", err)
		s.metrics.Upload(kind, "error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to process file",
			"details": err.Error(),
		})
		return
	}

	id, err := s.store.SaveResult(r.Context(), kind, result)
	if err != nil {
		log.Error("save failed", "error", err)
		s.metrics.Upload(kind, "error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to process file",
			"details": err.Error(),
		})
		return
	}
	s.metrics.Upload(kind, "ok")
	log.Info("upload stored", "id", id)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "File processed successfully",
		"id":      id,
		"type":    kind,
		"result":  result,
	})
}

// saveUpload copies src into the upload dir under a collision-free name.
func (s *Server) saveUpload(src io.Reader, name string) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	base := filepath.Base(filepath.Clean("/" + name))
	path := filepath.Join(s.cfg.UploadDir, uuid.NewString()+"-"+base)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close upload: %w", err)
	}
	return path, nil
}
