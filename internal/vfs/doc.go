// Package vfs implements the sandboxed file-operations engine.
//
// Every operation takes a client-supplied path relative to a single volume
// root and refuses to touch anything outside it. The Resolver is the only
// way a relative path becomes an absolute one: it normalizes the input,
// follows symlinks, and verifies the real location sits under the root
// before any I/O happens. Operations built on top (list, read, write,
// delete, mkdir, stat) return typed errors so facades can map them to
// protocol-level responses without string matching.
//
// The engine is stateless between calls; the filesystem is the only shared
// resource. Writes go through a temp-file-plus-rename so concurrent readers
// never observe partial content, and a per-path advisory lock keeps two
// writers from interleaving the temp/rename sequence.
package vfs
