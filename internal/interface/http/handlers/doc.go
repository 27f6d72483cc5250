// Package handlers contains HTTP handler interfaces, implementations, and middleware.
//
// This package provides:
//   - Health check interfaces and implementations
//   - Reusable middleware components
//   - Authentication middleware
//
// # Health Checks
//
// The HealthChecker interface allows registering multiple named health checks
// that are executed in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewDatabaseCheck(db))
//	checker.AddCheck("cache", handlers.NewCacheCheck(cache))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//	    log.Printf("Health check failed: %s", status.Message)
//	}
//
// # Middleware
//
// The middleware here is what the server wires: API key authentication
// for the administrative routes, a per-route timeout for the synchronous
// re-score batch, security headers, and a request body size cap.
//
//	// API Key authentication
//	auth := handlers.NewAPIKeyAuth("X-API-Key", []string{"secret-key"})
//	protected := auth.Middleware(myHandler)
//
//	// Per-route timeout (the re-score batch route)
//	withTimeout := handlers.TimeoutMiddleware(5 * time.Minute)(myHandler)
//
//	// Security headers and body size cap
//	secure := handlers.SecurityHeadersMiddleware(myHandler)
//	capped := handlers.RequestSizeLimitMiddleware(1 << 20)(myHandler)
//
// # Best Practices
//
// When implementing health checks:
//   - Use timeouts to prevent slow checks from blocking the response
//   - Include critical dependencies like database and cache
//   - Keep checks fast (< 1 second ideally)
//   - Return detailed information for debugging
package handlers
