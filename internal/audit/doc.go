// Package audit writes the append-only audit trail: one JSON line per
// control request made through the API and per service or clock transition
// published on the event bus. Files rotate by size.
package audit
