/*
Package observability turns orchestrator lifecycle hooks into Prometheus metrics
and structured log lines.
*/
package observability
