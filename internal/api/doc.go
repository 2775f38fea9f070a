// Package api implements the JSON HTTP surface of the service: the
// question-processing endpoint, thread management, schema introspection
// and health probes, wrapped in recovery, logging and per-IP rate
// limiting middleware.
package api
