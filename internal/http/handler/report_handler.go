package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

func NewReportHandler(reportService *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// Revenue godoc
// @Summary Revenue report
// @Description Won revenue of the current year by quarter, monthly trend, revenue by client and deals by status
// @Tags Reports
// @Produce json
// @Success 200 {object} domain.RevenueReport
// @Security BearerAuth
// @Router /reports/revenue [get]
func (h *ReportHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.reportService.GetRevenueReport(r.Context()))
}

// Export godoc
// @Summary Export a dataset
// @Description Downloads clienti, trattative, attivita or fatturato. PDF is only available for fatturato.
// @Tags Reports
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce application/pdf
// @Param dataset path string true "Dataset" Enums(clienti, trattative, attivita, fatturato)
// @Param format query string false "File format" Enums(csv, xlsx, pdf) default(csv)
// @Success 200 {file} file
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /reports/export/{dataset} [get]
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	file, err := h.reportService.Export(r.Context(), chi.URLParam(r, "dataset"), r.URL.Query().Get("format"))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to export data")
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// Archive godoc
// @Summary Archive an export
// @Description Renders an export and keeps it in the configured storage
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body domain.ArchiveRequest true "Dataset and format"
// @Success 201 {object} domain.ArchiveDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /reports/archive [post]
func (h *ReportHandler) Archive(w http.ResponseWriter, r *http.Request) {
	var req domain.ArchiveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	archive, err := h.reportService.Archive(r.Context(), req.Dataset, req.Format)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to archive export")
		return
	}

	w.Header().Set("Location", "/api/v1/reports/archive/"+archive.Path)
	respondJSON(w, http.StatusCreated, archive)
}

// DownloadArchive godoc
// @Summary Download an archived export
// @Tags Reports
// @Produce octet-stream
// @Param path path string true "Archive path returned by the archive call"
// @Success 200 {file} file
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /reports/archive/{path} [get]
func (h *ReportHandler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	rc, err := h.reportService.OpenArchive(r.Context(), key)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to open archive")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream archive", zap.String("path", key), zap.Error(err))
	}
}
