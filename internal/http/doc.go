// Package http exposes the ShareUp request and appointment services over a
// JSON API routed with gorilla/mux.
//
// Every route except GET /healthz expects an `Authorization: Bearer <jwt>`
// header; the websocket endpoint also accepts the token as `access_token`.
//
//   - POST /requests, GET /requests/pending, GET /requests/sent,
//     GET /requests/{id}, DELETE /requests/{id}: appointment request lifecycle.
//     Payloads use `requestDTO` from request_handler.go.
//   - POST /requests/{id}/response: body {"decision":"accepted"|"declined","message"}.
//     Accepting returns the created appointment next to the resolved request.
//   - GET /appointments (optionally ?date=YYYY-MM-DD), GET /appointments/upcoming
//     (optionally ?from=RFC3339), POST /appointments, GET|PATCH|DELETE
//     /appointments/{id}, POST /appointments/{id}/reschedule: appointment
//     management exchanging `appointmentDTO`. Create and reschedule responses
//     carry overlap warnings.
//   - GET /events: websocket stream of events that concern the caller.
//
// Failures are rendered as `errorResponse`. Conflicts carry an error_code so
// clients can tell an already answered request from a refused status change.
package http
