// Package middleware provides HTTP middleware for the pose browser API.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics keyed by route template
package middleware
