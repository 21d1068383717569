// Package server serves one component to browsers over WebSocket.
//
// Every connection gets its own session: a Controller mounted on a
// remote.Surface whose buffered host operations are flushed to the client
// after each cycle. The browser client (served at /client.js) applies the
// operations and sends listened events back. One goroutine per session owns
// the controller, so dispatches of a session are serialized; the read loop
// only decodes frames and queues events. Config.EventRate caps how fast a
// session accepts events.
//
// Routes:
//
//	GET  /                  page that loads the client
//	GET  /client.js         browser client
//	GET  <socket path>      WebSocket endpoint
//	GET  /render            HTML of a fresh mount
//	GET  /healthz           liveness and session count
//	GET  <metrics path>     Prometheus metrics, when a registry is set
//	POST /snapshots         publish a snapshot, when a store is set
//	GET  /snapshots/{name}  fetch a published snapshot
package server
