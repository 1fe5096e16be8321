// Package api implements the authenticated request client for the attendance
// service. Every call is classified as ok, failed (non-2xx) or a transport
// error, and the typed endpoint helpers translate failures into
// *application.RemoteError values.
package api
