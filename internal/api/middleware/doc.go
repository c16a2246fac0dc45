// Package middleware provides the gin middleware of the playground API.
//
// Middleware stack includes:
//   - RequestID: assigns or propagates X-Request-ID
//   - CORS: cross-origin access for editor pages served elsewhere
//   - RateLimit: per-IP token bucket rate limiting
//
// Rate Limiting:
//   - One token bucket per client IP
//   - Clients unseen for IdleEviction are forgotten
//   - Configurable RPS and burst capacity
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
