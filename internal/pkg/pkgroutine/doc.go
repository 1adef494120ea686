// Package pkgroutine runs background tasks with a concurrency cap.
//
// HTTP handlers hand compression submissions to a Manager so the request can
// return right away; shutdown calls Wait to let them finish.
package pkgroutine
