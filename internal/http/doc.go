// Package http provides the chi router, handlers and middleware for the lab
// reservation API.
//
// The router exposes the following endpoints under /api:
//   - POST /api/reservations: submits a reservation request carrying the
//     requester snapshot, resource, blocks and either explicit dates or a
//     weekly pattern. Responds 201 with the created instances and, for
//     multi-date requests, the shared group_id.
//   - GET /api/availability/{date}: the per-block availability grid of every
//     enabled resource for one weekday. Optional `category` query narrows the
//     grid to resources that requester category may use.
//   - GET /api/reservations: filtered listing (status, date, group_id,
//     user_id, resource_id). Non-administrators only see their own.
//   - GET /api/reservations/{id}, PATCH /api/reservations/{id} (status
//     transition), DELETE /api/reservations/{id} (admin hard delete).
//   - PATCH /api/reservation-groups/{groupID}/bulk: best-effort group
//     decision with per-instance outcomes.
//   - GET/POST /api/resources, GET/PUT/DELETE /api/resources/{id}: catalog
//     administration.
//   - POST /api/admin/complete-elapsed: sweeps elapsed approved instances.
//   - GET /api/healthz: liveness.
//
// Authentication happens upstream; the caller identity arrives in the
// X-Actor-ID and X-Actor-Role headers set by the lab portal. Decision
// endpoints fall back to the actor_id field of the request body when the
// headers are absent.
//
// Errors use the envelope {error_code, message, errors?}; slot conflicts
// additionally carry the conflicting {resource_id, date, block}.
package http
