/*
Package observability provides tools for monitoring migration runs.

It turns runner lifecycle hooks into Prometheus metrics and structured audit
logs, and exposes the metrics over HTTP.
*/
package observability
