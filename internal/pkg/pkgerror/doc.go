// Package pkgerror is the error vocabulary shared by the dashboard layers.
//
// An *Error carries a message safe to show a user plus a Type and Code. The
// HTTP edge maps the code to a status; the job controller uses it to pick the
// failure message. Invalid input, an unreachable compression service, a
// rejection from that service, and stale cached data each have their own
// constructor or sentinel.
package pkgerror
