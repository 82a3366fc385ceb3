// Package service implements the application logic of sewernet.
//
// NetworkService owns the network that is currently loaded. It coordinates the
// loader, the codecs and the repository, and it is the only place that
// touches the domain model on behalf of the CLI, the file watcher and the HTTP
// handlers. The domain model is not safe for concurrent use, so every access
// goes through the service lock.
//
// # Event System
//
// The service publishes events via EventBus. Property changes raised by the
// domain model are forwarded as property_changed events, which the hub streams
// to connected clients via Server-Sent Events (SSE).
package service
