package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "vendtune/internal/errors"
	"vendtune/internal/services"
	"vendtune/internal/session"
	"vendtune/internal/store"
	"vendtune/internal/validation"
	"vendtune/internal/vending"
)

// OrchestratorFactory builds a fresh edit/delete orchestrator for one
// business session.
type OrchestratorFactory func(businessID string) *services.Orchestrator

// ServicesHandler handles the service collection endpoints. Mutations run
// through an orchestrator so that a confirmed change always ends in a full
// collections reload, never a local patch.
type ServicesHandler struct {
	source       store.DataSource
	collections  CollectionsServiceInterface
	orchestrate  OrchestratorFactory
	validator    *validation.RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewServicesHandler creates a services handler.
func NewServicesHandler(source store.DataSource, collections CollectionsServiceInterface, orchestrate OrchestratorFactory, validator *validation.RequestValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ServicesHandler {
	return &ServicesHandler{
		source:       source,
		collections:  collections,
		orchestrate:  orchestrate,
		validator:    validator,
		logger:       logger.With(slog.String("component", "services_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the service routes.
func (h *ServicesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/locations", h.Locations)
	r.Get("/collections", h.Collections)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// List handles GET /api/services. The optional days parameter windows the
// listing: negative selects the elapsed window newest first, positive the
// upcoming window oldest first.
func (h *ServicesHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("days", "Invalid value for days"))
			return
		}
		days = parsed
	}

	records, err := h.source.ListServicesWindow(r.Context(), sess.BusinessID, days)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing services failed",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.FetchError(err))
		return
	}
	if records == nil {
		records = []vending.ServiceRecord{}
	}

	render.JSON(w, r, records)
}

// Locations handles GET /api/services/locations.
func (h *ServicesHandler) Locations(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
		return
	}

	locations, err := h.source.ListServiceLocations(r.Context(), sess.BusinessID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing locations failed",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.FetchError(err))
		return
	}
	if locations == nil {
		locations = []vending.ServiceLocation{}
	}

	render.JSON(w, r, locations)
}

// Collections handles GET /api/services/collections: the partitioned
// past/present rows plus plottable locations.
func (h *ServicesHandler) Collections(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
		return
	}

	snap, err := h.collections.Snapshot(r.Context(), sess.BusinessID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, snap)
}

// CreateServiceRequest is the payload for scheduling a new service.
type CreateServiceRequest struct {
	Unit             string              `json:"unit" validate:"required"`
	ServiceVendors   []vending.VendorRef `json:"service_vendors"`
	ServiceDate      string              `json:"service_date" validate:"required,datetime=2006-01-02"`
	ServiceStartTime string              `json:"service_start_time" validate:"omitempty,datetime=15:04:05"`
	ServiceEndTime   string              `json:"service_end_time" validate:"omitempty,datetime=15:04:05"`
	LocationAddress  string              `json:"location_address"`
	LocationCoords   string              `json:"location_coords"`
	Revenue          float64             `json:"revenue"`
}

// Create handles POST /api/services.
func (h *ServicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
		return
	}

	var req CreateServiceRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if fieldErrs := h.validator.Struct(req); fieldErrs != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(fieldErrs))
		return
	}

	draft, err := draftFromRequest(req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	created, err := h.source.CreateService(r.Context(), sess.BusinessID, draft)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "creating service failed",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.MutationError("create", err))
		return
	}

	h.logger.InfoContext(r.Context(), "service created",
		slog.String("service_id", created.ServiceID))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}

// UpdateServiceRequest is the edit payload. Absent fields stay untouched.
// Revenue is honored only for past services.
type UpdateServiceRequest struct {
	Unit             *string  `json:"unit"`
	ServiceDate      *string  `json:"service_date" validate:"omitempty,datetime=2006-01-02"`
	ServiceStartTime *string  `json:"service_start_time" validate:"omitempty,datetime=15:04:05"`
	ServiceEndTime   *string  `json:"service_end_time" validate:"omitempty,datetime=15:04:05"`
	LocationAddress  *string  `json:"location_address"`
	LocationCoords   *string  `json:"location_coords"`
	Revenue          *float64 `json:"revenue"`
}

// Update handles PUT /api/services/{id}. The row is located in the current
// collections to decide whether it is past (revenue editable) or present
// (revenue dropped), then the edit runs through the orchestrator.
func (h *ServicesHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
		return
	}
	serviceID := chi.URLParam(r, "id")

	var req UpdateServiceRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if fieldErrs := h.validator.Struct(req); fieldErrs != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(fieldErrs))
		return
	}

	snap, err := h.collections.Snapshot(r.Context(), sess.BusinessID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	row, isPast, found := findRow(snap, serviceID)
	if !found {
		h.errorHandler.HandleError(w, r, apierrors.ErrServiceNotFound)
		return
	}

	orch := h.orchestrate(sess.BusinessID)
	if err := orch.OpenEdit(row, isPast); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := applyFields(orch, req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := orch.ConfirmEdit(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "service updated",
		slog.String("service_id", serviceID))

	render.JSON(w, r, orch.Current())
}

// Delete handles DELETE /api/services/{id} through the orchestrator's
// confirm-delete flow.
func (h *ServicesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
		return
	}
	serviceID := chi.URLParam(r, "id")

	orch := h.orchestrate(sess.BusinessID)
	if err := orch.RequestDelete(serviceID); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := orch.ConfirmDelete(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "service deleted",
		slog.String("service_id", serviceID))

	render.JSON(w, r, orch.Current())
}

func draftFromRequest(req CreateServiceRequest) (store.ServiceDraft, error) {
	date, err := vending.ParseDate(req.ServiceDate)
	if err != nil {
		return store.ServiceDraft{}, apierrors.ErrValidation("service_date", "must be YYYY-MM-DD")
	}

	draft := store.ServiceDraft{
		Unit:    req.Unit,
		Vendors: req.ServiceVendors,
		Date:    date,
		Address: req.LocationAddress,
		Coords:  req.LocationCoords,
		Revenue: req.Revenue,
	}

	if req.ServiceStartTime != "" {
		if draft.StartTime, err = vending.ParseTimeOfDay(req.ServiceStartTime); err != nil {
			return store.ServiceDraft{}, apierrors.ErrValidation("service_start_time", "must be HH:MM:SS")
		}
	}
	if req.ServiceEndTime != "" {
		if draft.EndTime, err = vending.ParseTimeOfDay(req.ServiceEndTime); err != nil {
			return store.ServiceDraft{}, apierrors.ErrValidation("service_end_time", "must be HH:MM:SS")
		}
	}
	return draft, nil
}

func findRow(snap services.CollectionsSnapshot, serviceID string) (vending.NormalizedRow, bool, bool) {
	for _, row := range snap.Past {
		if row.ServiceID == serviceID {
			return row, true, true
		}
	}
	for _, row := range snap.Present {
		if row.ServiceID == serviceID {
			return row, false, true
		}
	}
	return vending.NormalizedRow{}, false, false
}

func applyFields(orch *services.Orchestrator, req UpdateServiceRequest) error {
	fields := map[string]*string{
		"unit":               req.Unit,
		"service_date":       req.ServiceDate,
		"service_start_time": req.ServiceStartTime,
		"service_end_time":   req.ServiceEndTime,
		"location_address":   req.LocationAddress,
		"location_coords":    req.LocationCoords,
	}
	for field, value := range fields {
		if value == nil {
			continue
		}
		if err := orch.ApplyEditField(field, *value); err != nil {
			return err
		}
	}
	if req.Revenue != nil {
		if err := orch.ApplyEditField("revenue", strconv.FormatFloat(*req.Revenue, 'f', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}
