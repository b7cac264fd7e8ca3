// Package config loads the daemon configuration.
//
// Values come from the built-in baseline, then an optional YAML file, then
// CELLSTATE_* environment variables, and the result is validated as a whole.
// Sections map onto the clock engine, the roaming policy and ERI table, the
// telemetry hub, the HTTP server, logging, the property store and the
// simulated modem.
package config
