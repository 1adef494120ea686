// Package pkgrouter is the HTTP layer of the dashboard API: httprouter behind a
// middleware chain (panic recovery, correlation ids, request logging), with
// handlers that return a payload or a pkgerror which is mapped to a JSON
// envelope and status code.
package pkgrouter
