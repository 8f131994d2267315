// Package server assembles the engine, registry, and HTTP router into a
// runnable service.
package server
