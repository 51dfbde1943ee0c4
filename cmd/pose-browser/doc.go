// Package main provides the entry point for the pose browser service.
//
// The pose browser indexes pose documents (Anamnesis .pose and Concept Matrix
// .cmp files) under a set of library roots, finds a preview image for each,
// and lets a front end preview or apply poses through an external applier.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads environment variables and validates directories
//  2. Settings: Opens the SQLite settings store and applies the optional YAML seed
//  3. Applier Probe: Checks whether the pose applier is reachable
//  4. Component Initialization:
//     - Library: In-memory document index with full and image syncs
//     - Resolver and Thumbnail Generator: Preview image lookup and rendering
//     - Preview Controller: Focus, hold-to-preview and explicit apply
//     - Image Viewer: Enlarged image display with next/prev and zoom
//     - Metrics Collector: Gathers Prometheus metrics
//  5. HTTP Server Setup: Configures routes, middleware, and starts server
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, reverts any active preview
//
// # Background Services
//
//   - Full Sync: Runs once at startup and whenever a library root is added
//   - Image Refresh: Offers an unforced image sync every IMAGE_REFRESH_INTERVAL
//   - Metrics Collector: Updates library gauges every minute
//
// # HTTP Server
//
//  1. Main Server (default port 8080): JSON API under /api, /health and /version
//  2. Metrics Server (default port 9090, optional): Prometheus metrics (/metrics)
//
// See [pose-browser/internal/startup] for the environment variables.
//
// # Related Packages
//
//   - [pose-browser/internal/library]: Document index and sync guards
//   - [pose-browser/internal/media]: Image resolution and thumbnails
//   - [pose-browser/internal/preview]: Preview state machine
//   - [pose-browser/internal/settings]: SQLite settings store
//   - [pose-browser/internal/handlers]: HTTP request handlers
package main
