// Package api implements the HTTP REST API and WebSocket server for Tom.Camp Core.
//
// All routes live under /api:
//   - POST /api/token issues a 30-minute bearer token from form credentials
//   - users, journals and pages are guarded by the role hierarchy
//     (ADMIN > EDITOR > AUTHENTICATED)
//   - devices push readings to POST /api/devices/data with an X-API-Key header
//
// Every document carries a revision. Updates that send a stale revision are
// rejected with 409 so concurrent writers never silently overwrite each other.
//
// # Security
//
// Responses are built from view structs; password hashes and device API keys
// never leave the server except through the admin-only key endpoint.
// WebSocket connections use single-use tickets to keep tokens out of URLs.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
