package services

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "vendtune/internal/errors"
	"vendtune/internal/infrastructure"
	"vendtune/internal/store"
	"vendtune/internal/vending"
)

// State is the orchestrator's lifecycle position. Confirmed mutations pass
// through a reload and settle back on Idle; there is no terminal state.
type State string

const (
	StateIdle          State = "idle"
	StatePendingDelete State = "pending_delete"
	StateEditing       State = "editing"
)

// EditDraft is the mutable working copy of a row under edit. All fields are
// strings in wire form; nothing is validated until the edit is confirmed.
type EditDraft struct {
	ServiceID string
	IsPast    bool
	Unit      string
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM:SS
	EndTime   string // HH:MM:SS
	Address   string
	Location  string // raw POINT string
	Revenue   string
}

// Orchestrator drives the edit/delete lifecycle for one editing session.
// Exactly one action can be in flight: a pending delete and an open edit are
// mutually exclusive. Mutations are never applied locally; after a confirmed
// mutation the collections are re-fetched in full.
type Orchestrator struct {
	source      store.DataSource
	collections *CollectionsService
	businessID  string
	logger      *slog.Logger
	metrics     *infrastructure.BusinessMetrics

	mu       sync.Mutex
	state    State
	deleteID string
	draft    EditDraft
	current  CollectionsSnapshot
}

// NewOrchestrator creates an idle orchestrator for one business session.
func NewOrchestrator(source store.DataSource, collections *CollectionsService, businessID string, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		source:      source,
		collections: collections,
		businessID:  businessID,
		logger:      logger.With(slog.String("service", "orchestrator")),
		metrics:     metrics,
		state:       StateIdle,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Current returns the last loaded collections snapshot.
func (o *Orchestrator) Current() CollectionsSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Draft returns the working edit copy and whether an edit is open.
func (o *Orchestrator) Draft() (EditDraft, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft, o.state == StateEditing
}

// Reload re-fetches the full collections snapshot. It is idempotent and is
// the only way local data changes; confirmed mutations call it themselves.
func (o *Orchestrator) Reload(ctx context.Context) error {
	snap, err := o.collections.Snapshot(ctx, o.businessID)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.current = snap
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.ReloadsTotal.Add(ctx, 1)
	}
	return nil
}

// RequestDelete marks a service for deletion. No mutation happens until the
// delete is confirmed.
func (o *Orchestrator) RequestDelete(serviceID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateIdle {
		return apperrors.NewValidationError("another action is in progress", nil)
	}
	o.state = StatePendingDelete
	o.deleteID = serviceID
	return nil
}

// CancelDelete abandons a pending delete without touching any data.
func (o *Orchestrator) CancelDelete() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StatePendingDelete {
		o.state = StateIdle
		o.deleteID = ""
	}
}

// ConfirmDelete performs the pending delete. On success the collections are
// reloaded in full. On failure local data is untouched and the orchestrator
// returns to Idle; the caller surfaces the failure.
func (o *Orchestrator) ConfirmDelete(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StatePendingDelete {
		o.mu.Unlock()
		return apperrors.NewValidationError("no delete is pending", nil)
	}
	serviceID := o.deleteID
	o.state = StateIdle
	o.deleteID = ""
	o.mu.Unlock()

	err := o.source.DeleteService(ctx, o.businessID, serviceID)
	o.recordMutation(ctx, "delete", err)
	if err != nil {
		o.logger.ErrorContext(ctx, "delete failed",
			slog.String("service_id", serviceID),
			slog.String("error", err.Error()))
		if stderrors.Is(err, store.ErrServiceNotFound) {
			return apperrors.NewNotFoundError("service not found", err)
		}
		return apperrors.NewMutationError("deleting service", err)
	}

	o.logger.InfoContext(ctx, "service deleted", slog.String("service_id", serviceID))
	return o.Reload(ctx)
}

// OpenEdit snapshots a row into a working draft. The row's combined time
// string is split back into its start and end components, and the display
// date is converted back to wire form.
func (o *Orchestrator) OpenEdit(row vending.NormalizedRow, isPast bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateIdle {
		return apperrors.NewValidationError("another action is in progress", nil)
	}

	start, end, _ := vending.SplitTimeRange(row.Time)

	date := ""
	if row.Date != "" {
		if t, err := time.Parse("Mon 02/01/2006", row.Date); err == nil {
			date = t.Format("2006-01-02")
		}
	}

	o.state = StateEditing
	o.draft = EditDraft{
		ServiceID: row.ServiceID,
		IsPast:    isPast,
		Unit:      row.Unit,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Address:   row.Address,
		Location:  row.Location,
		Revenue:   strconv.FormatFloat(row.Revenue, 'f', -1, 64),
	}
	return nil
}

// ApplyEditField overwrites one draft field. This is a pure local mutation;
// values are validated only when the edit is confirmed.
func (o *Orchestrator) ApplyEditField(field, value string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateEditing {
		return apperrors.NewValidationError("no edit is open", nil)
	}

	switch field {
	case "unit":
		o.draft.Unit = value
	case "service_date":
		o.draft.Date = value
	case "service_start_time":
		o.draft.StartTime = value
	case "service_end_time":
		o.draft.EndTime = value
	case "location_address":
		o.draft.Address = value
	case "location_coords":
		o.draft.Location = value
	case "revenue":
		o.draft.Revenue = value
	default:
		return apperrors.NewValidationError("unknown edit field: "+field, nil)
	}
	return nil
}

// CancelEdit abandons the open edit and its draft.
func (o *Orchestrator) CancelEdit() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateEditing {
		o.state = StateIdle
		o.draft = EditDraft{}
	}
}

// ConfirmEdit validates the draft, builds the update payload, and applies it.
// Revenue is part of the payload only for past services. On success the
// collections are reloaded in full and the orchestrator returns to Idle; on
// failure it stays Editing with the draft intact.
func (o *Orchestrator) ConfirmEdit(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateEditing {
		o.mu.Unlock()
		return apperrors.NewValidationError("no edit is open", nil)
	}
	draft := o.draft
	o.mu.Unlock()

	patch, err := draftPatch(draft)
	if err != nil {
		return err
	}

	_, err = o.source.UpdateService(ctx, o.businessID, draft.ServiceID, patch)
	o.recordMutation(ctx, "update", err)
	if err != nil {
		o.logger.ErrorContext(ctx, "update failed",
			slog.String("service_id", draft.ServiceID),
			slog.String("error", err.Error()))
		if stderrors.Is(err, store.ErrServiceNotFound) {
			return apperrors.NewNotFoundError("service not found", err)
		}
		return apperrors.NewMutationError("updating service", err)
	}

	o.mu.Lock()
	o.state = StateIdle
	o.draft = EditDraft{}
	o.mu.Unlock()

	o.logger.InfoContext(ctx, "service updated", slog.String("service_id", draft.ServiceID))
	return o.Reload(ctx)
}

// draftPatch converts a draft into the store payload, validating wire forms.
func draftPatch(draft EditDraft) (store.ServicePatch, error) {
	date, err := vending.ParseDate(draft.Date)
	if err != nil {
		return store.ServicePatch{}, apperrors.NewValidationError("invalid service date", err)
	}
	start, err := vending.ParseTimeOfDay(draft.StartTime)
	if err != nil {
		return store.ServicePatch{}, apperrors.NewValidationError("invalid start time", err)
	}
	end, err := vending.ParseTimeOfDay(draft.EndTime)
	if err != nil {
		return store.ServicePatch{}, apperrors.NewValidationError("invalid end time", err)
	}

	patch := store.ServicePatch{
		Unit:      &draft.Unit,
		Date:      &date,
		StartTime: &start,
		EndTime:   &end,
		Address:   &draft.Address,
		Coords:    &draft.Location,
	}

	if draft.IsPast {
		revenue, err := strconv.ParseFloat(draft.Revenue, 64)
		if err != nil {
			return store.ServicePatch{}, apperrors.NewValidationError("invalid revenue", err)
		}
		patch.Revenue = &revenue
	}
	return patch, nil
}

func (o *Orchestrator) recordMutation(ctx context.Context, kind string, err error) {
	if o.metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	o.metrics.MutationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result),
	))
}
