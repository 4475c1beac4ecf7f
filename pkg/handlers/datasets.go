package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veronikad26/chemical-equip-analyser/pkg/auth"
	"github.com/veronikad26/chemical-equip-analyser/pkg/models"
	"github.com/veronikad26/chemical-equip-analyser/pkg/services"
)

// DatasetHandler handles dataset upload, history, detail, deletion and
// report download.
type DatasetHandler struct {
	ingestion services.IngestionService
	datasets  services.DatasetService
	reports   services.ReportService
	maxBytes  int64
	history   int
	logger    *zap.Logger
}

// NewDatasetHandler creates a new dataset handler. maxBytes caps the
// request body; history is how many entries the history endpoint returns
// (the retention budget).
func NewDatasetHandler(
	ingestion services.IngestionService,
	datasets services.DatasetService,
	reports services.ReportService,
	maxBytes int64,
	history int,
	logger *zap.Logger,
) *DatasetHandler {
	return &DatasetHandler{
		ingestion: ingestion,
		datasets:  datasets,
		reports:   reports,
		maxBytes:  maxBytes,
		history:   history,
		logger:    logger,
	}
}

// RegisterRoutes registers the dataset handler's routes on the given mux.
// Every route requires authentication.
func (h *DatasetHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/datasets", authMiddleware.RequireAuth(h.Upload))
	mux.HandleFunc("GET /api/datasets", authMiddleware.RequireAuth(h.History))
	mux.HandleFunc("GET /api/datasets/{id}", authMiddleware.RequireAuth(h.Detail))
	mux.HandleFunc("DELETE /api/datasets/{id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("GET /api/datasets/{id}/report", authMiddleware.RequireAuth(h.Report))
}

// datasetEntry is one history item: everything except the row data.
type datasetEntry struct {
	ID         uuid.UUID      `json:"id"`
	Filename   string         `json:"filename"`
	UploadedAt time.Time      `json:"uploaded_at"`
	Summary    models.Summary `json:"summary"`
}

// datasetDetail is a history entry plus the full rows.
type datasetDetail struct {
	datasetEntry
	Rows []models.EquipmentRow `json:"rows"`
}

func toEntry(ds *models.Dataset) datasetEntry {
	return datasetEntry{
		ID:         ds.ID,
		Filename:   ds.Filename,
		UploadedAt: ds.UploadedAt,
		Summary:    ds.Summary,
	}
}

// Upload handles POST /api/datasets with a multipart "file" field.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.GetUserID(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	// Cap the body before the multipart parser buffers anything. The
	// slack covers multipart framing around the capped file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+4096)

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "no_file", "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "unreadable_file", "Could not read uploaded file")
		return
	}

	result, err := h.ingestion.Upload(r.Context(), owner, header.Filename, data)
	if err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, result); err != nil {
		h.logger.Error("Failed to encode upload response", zap.Error(err))
	}
}

// History handles GET /api/datasets
func (h *DatasetHandler) History(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.GetUserID(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	datasets, err := h.datasets.ListRecent(r.Context(), owner, h.history)
	if err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}

	entries := make([]datasetEntry, 0, len(datasets))
	for _, ds := range datasets {
		entries = append(entries, toEntry(ds))
	}

	if err := WriteJSON(w, http.StatusOK, entries); err != nil {
		h.logger.Error("Failed to encode history response", zap.Error(err))
	}
}

// Detail handles GET /api/datasets/{id}
func (h *DatasetHandler) Detail(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	ds, err := h.datasets.Get(r.Context(), id, owner)
	if err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, datasetDetail{
		datasetEntry: toEntry(ds),
		Rows:         ds.Rows,
	}); err != nil {
		h.logger.Error("Failed to encode detail response", zap.Error(err))
	}
}

// Delete handles DELETE /api/datasets/{id}
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	if err := h.datasets.Delete(r.Context(), id, owner); err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Report handles GET /api/datasets/{id}/report
func (h *DatasetHandler) Report(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	ds, err := h.datasets.Get(r.Context(), id, owner)
	if err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}

	data, filename, err := h.reports.Render(r.Context(), ds)
	if err != nil {
		WriteDomainError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write report response", zap.Error(err))
	}
}

// ownerAndID extracts the authenticated owner and the {id} path value.
// A malformed id cannot name any dataset, so it reads as not found
// rather than leaking whether ids are well-formed.
func (h *DatasetHandler) ownerAndID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	owner, ok := auth.GetUserID(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", "Dataset not found")
		return uuid.Nil, uuid.Nil, false
	}

	return owner, id, true
}
