// Package service holds the study-session controllers and the import merge
// step. Each controller owns in-memory state that mirrors the storage port:
// every mutation is written through first and mirrored locally only after the
// store reports success.
//
// Controllers are not safe for concurrent use; callers serialise access to a
// single instance.
package service
