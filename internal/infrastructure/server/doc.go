// Package server wires the playground service together.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (request IDs, tracing, metrics, CORS, rate limiting)
//   - Challenge catalog loading (local directory and remote index)
//   - Headless probe pool and session manager
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger, metrics and tracer
//  3. Load the challenge catalog
//  4. Start the probe pool and session manager
//  5. Setup HTTP routes and middleware
//  6. Serve until the context is cancelled, reaping idle sessions
//  7. Close live sessions and shut down gracefully
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(ctx, cfg)
//	defer srv.Close()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
