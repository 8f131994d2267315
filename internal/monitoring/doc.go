// Package monitoring provides Prometheus metrics for the HTTP facade and
// the file-operations engine, plus the gin middleware that records them.
package monitoring
