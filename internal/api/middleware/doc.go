// Package middleware provides gin middleware for the HTTP surface:
// CORS policy and per-IP rate limiting.
package middleware
