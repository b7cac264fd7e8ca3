// Package api serves the tracker over HTTP/JSON: committed service state and
// tracker status for readers, radio and network time injection for
// operators, the SSE event stream and Prometheus metrics.
//
// Every JSON reply uses one envelope:
//
//	{"result":"ok","data":...,"correlationId":"..."}
//	{"result":"error","code":"...","message":"...","correlationId":"..."}
//
// Control endpoints are scoped and rate limited.
package api
