// Package handler implements the HTTP API of sewernet.
//
// NetworkHandler exposes the loaded network: its summary and document, the
// outlet analysis, validation results and export in every codec format.
// Stored snapshots can be listed, saved, restored and deleted.
//
// Errors are returned as JSON with an {error, details} structure and a status
// code derived from the service error.
//
// Middleware provides panic recovery, CORS and request logging.
package handler
