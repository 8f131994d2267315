// Package files exposes the sandboxed file-operations engine as a tool
// provider. Each tool takes a volume-relative path (plus content, for
// writes) and returns a structured result; binary content crosses the
// tool boundary base64-encoded.
package files
