package server

import "context"

// Server defines the lifecycle contract of the development server.
type Server interface {
	// RunServer serves until SIGINT, SIGTERM or SIGQUIT and then drains
	// in-flight requests.
	RunServer()

	// Run serves until ctx is done.
	Run(ctx context.Context) error

	// Shutdown gracefully stops the server.
	Shutdown()
}
