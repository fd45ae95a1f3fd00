// Package http provides the REST mirror of the coordinator's read and
// settings operations, plus liveness probing.
package http
