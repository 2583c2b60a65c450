// Package api serves the local control API a desktop shell uses to drive the
// stack orchestrator.
//
// Every JSON response is wrapped in an envelope carrying either "data" or
// "error". Long-running operations block until they finish; their progress
// is streamed to /api/events as server-sent events, one reporting.Event per
// message.
//
// Error mapping:
//
//	orchestrator.ErrBusy               409 Conflict
//	config.ErrInvalid, bad JSON        400 Bad Request
//	unknown service or artifact        404 Not Found
//	anything else                      500 with the error text
package api
