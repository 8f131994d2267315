// Package middleware provides gin middleware not tied to monitoring.
package middleware
