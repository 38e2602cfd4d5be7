package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/digital-native-cli/internal/batch"
	"github.com/sells-group/digital-native-cli/internal/export"
	"github.com/sells-group/digital-native-cli/internal/ingest"
	"github.com/sells-group/digital-native-cli/internal/model"
	"github.com/sells-group/digital-native-cli/internal/store"
)

// maxUploadBytes caps multipart uploads at 10 MiB.
const maxUploadBytes = 10 << 20

type apiServer struct {
	coord *batch.Coordinator
	store store.Store
}

// newRouter builds the HTTP API. corsOrigins of nil allows any origin.
func newRouter(coord *batch.Coordinator, st store.Store, corsOrigins []string) http.Handler {
	s := &apiServer{coord: coord, store: st}

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleBanner)
		r.Post("/analyze-csv", s.handleAnalyzeUpload)
		r.Get("/progress/{batchID}", s.handleProgress)
		r.Get("/results/{batchID}", s.handleResults)
		r.Get("/export/{batchID}", s.handleExport)
		r.Get("/companies", s.handleCompanies)
		r.Delete("/batch/{batchID}", s.handleDeleteBatch)
	})

	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleBanner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Digital Native Company Analyzer API"})
}

func (s *apiServer) handleAnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	// Read one byte past the cap so truncation is detectable.
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read upload")
		return
	}
	if len(data) > maxUploadBytes {
		writeError(w, http.StatusBadRequest, "file exceeds the 10 MiB upload limit")
		return
	}

	var records []model.CompanyRecord
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
		records, err = ingest.ParseCompaniesCSV(data)
	case ".xlsx":
		records, err = ingest.ParseCompaniesXLSX(data)
	default:
		writeError(w, http.StatusBadRequest, "file must be a CSV or XLSX")
		return
	}
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Reason)
			return
		}
		s.internalError(w, r, err)
		return
	}

	batchID, total, err := s.coord.CreateBatch(r.Context(), records)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id":        batchID,
		"total_companies": total,
		"message":         fmt.Sprintf("Started analysis of %d companies", total),
	})
}

func (s *apiServer) handleProgress(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	progress, err := s.coord.Progress(r.Context(), batchID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Batch not found")
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

func (s *apiServer) handleResults(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	items, err := s.coord.Results(r.Context(), batchID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Batch not found")
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	items, err := s.coord.Results(r.Context(), batchID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Batch not found")
			return
		}
		s.internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=digital_native_analysis_%s.xlsx", batchID))
	if err := export.Write(w, items); err != nil {
		zap.L().Error("export write failed",
			zap.String("batch_id", batchID),
			zap.Error(err),
		)
	}
}

func (s *apiServer) handleCompanies(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListRecent(r.Context(), 100)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if items == nil {
		items = []model.AnalysisItem{}
	}

	writeJSON(w, http.StatusOK, items)
}

func (s *apiServer) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	if err := s.coord.DeleteBatch(r.Context(), batchID); err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Batch not found")
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Deleted batch %s", batchID),
	})
}

func (s *apiServer) internalError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
