// Package handlers provides HTTP request handlers for the pose browser API.
//
// It includes handlers for:
//   - Listing and filtering indexed pose documents
//   - Library roots and sync triggers
//   - Focus, hold-to-preview and explicit apply
//   - Thumbnails and the enlarged image viewer
//   - Settings, host mode and health checks
package handlers
