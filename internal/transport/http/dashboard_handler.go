package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "vendtune/internal/errors"
	"vendtune/internal/session"
)

// DashboardHandler handles the dashboard summary and its workbook export.
type DashboardHandler struct {
	service      DashboardServiceInterface
	exporter     DashboardExporterInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(service DashboardServiceInterface, exporter DashboardExporterInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		exporter:     exporter,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/", h.Summary)
	r.Get("/export", h.Export)

	return r
}

// Summary handles GET /api/dashboard.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
		return
	}

	snap, err := h.service.Snapshot(r.Context(), sess.BusinessID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, snap)
}

// Export handles GET /api/dashboard/export: the current snapshot rendered as
// an Excel workbook download.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
		return
	}

	snap, err := h.service.Snapshot(r.Context(), sess.BusinessID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.WriteWorkbook(&buf, snap); err != nil {
		h.logger.ErrorContext(r.Context(), "workbook export failed",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusInternalServerError, "EXPORT_FAILED", "Failed to build dashboard workbook"))
		return
	}

	filename := "dashboard_" + time.Now().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())

	h.logger.InfoContext(r.Context(), "dashboard exported",
		slog.String("business_id", sess.BusinessID),
		slog.Int("bytes", buf.Len()))
}
