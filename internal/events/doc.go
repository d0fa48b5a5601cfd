// Package events carries keygate's security events from the code that
// produces them to the sinks that record them.
//
// Producers call Bus.Publish, which never blocks: when the buffer is full
// the event is dropped and a warning is logged. A single goroutine started
// with Bus.Run delivers events serially to every registered Sink, which
// suits SQLite's single-writer model. On shutdown Run drains what is left
// in the buffer before returning.
//
// Sinks shipped with keygate:
//   - AuditSink writes the audit_logs table
//   - MQTTSink publishes to <prefix>/events/<type>
//   - the API WebSocket hub streams events to connected admins
package events
