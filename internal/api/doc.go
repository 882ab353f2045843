// Package api exposes the subject list, question browsing sessions and the
// remote import over a JSON HTTP API. Handlers translate requests into calls
// on the service controllers and map their errors to status codes without
// leaking internal detail.
package api
