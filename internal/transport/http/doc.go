// Package http implements the HTTP handlers for the vending service API.
// Handlers stay thin: they parse and validate requests, delegate to the
// service layer, and translate failures into RFC 7807 problem responses
// through the shared error handler.
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Store
//
// Every handler below /api (except health and auth) requires a resolved
// session; the business ID scoping every query comes from that session,
// never from the request body.
package http
