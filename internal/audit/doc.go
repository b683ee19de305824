// Package audit delivers account events to pluggable sinks.
//
// [Dispatcher] is a buffered async relay; with DropIfFull it never blocks the
// caller and counts what it drops instead. Sinks include a channel, a JSON
// line writer and a structured logger. The package does not decide which
// events are emitted; the engine and flow functions do.
package audit
