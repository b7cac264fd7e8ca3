// Package telemetry streams tracker events to HTTP clients as server-sent
// events.
//
// Every event gets a hub-wide monotonic ID. A bounded, time-limited buffer
// lets reconnecting clients resume with Last-Event-ID, and a jittered
// heartbeat keeps idle connections open.
package telemetry
