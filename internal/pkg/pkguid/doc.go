// Package pkguid generates the identifiers used across the service:
// UUID v7 strings for correlation and event ids, snowflake numbers for jobs.
package pkguid
