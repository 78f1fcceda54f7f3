// Package application provides application initialization and dependency wiring.
// It builds the configuration store, toast session store, metrics, page
// renderer, API router and HTTP server, making the main package cleaner and
// more focused on CLI parsing and orchestration.
package application
