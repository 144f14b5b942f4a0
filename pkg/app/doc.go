// Package app is the registration surface of the framework: an App collects
// handlers into a router during startup and dispatches parsed requests to
// them while serving. Dispatch always produces a response — unroutable
// requests become 404 or 405, and a handler error or panic becomes a generic
// 500 with the detail kept server-side.
package app
