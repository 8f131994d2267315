// Package http contains the REST facade: gin handlers that translate
// HTTP verbs into engine operations and engine errors into status codes.
package http
