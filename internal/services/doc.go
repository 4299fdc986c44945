// Package services implements the business logic layer between the HTTP
// handlers and the record store.
//
// DashboardService and CollectionsService build read-only snapshots from the
// store: the aggregated dashboard and the past/present partition with
// plottable locations. Orchestrator runs the mutation flows as an explicit
// state machine (Idle, PendingDelete, Editing) so that a confirmed change
// always ends in a full collections reload and a failed one leaves the
// previous snapshot untouched.
//
// All services take a context.Context on their entry points and report
// failures through the error taxonomy in internal/errors.
package services
