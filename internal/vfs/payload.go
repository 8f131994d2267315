package vfs

import "time"

// Entry kinds.
const (
	KindFile      = "file"
	KindDirectory = "directory"
)

// FileEntry is a point-in-time metadata snapshot of a file or directory.
// It is produced by listing and stat, and discarded after the response.
type FileEntry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"` // relative to the volume root
	Kind     string    `json:"kind"`
	Size     int64     `json:"size"`
	Mode     string    `json:"mode"`
	Modified time.Time `json:"modified"`
	MIMEType string    `json:"mime_type,omitempty"`
	IsBinary bool      `json:"is_binary"`
}

// Payload is file content tagged explicitly as text or binary so callers
// never have to guess the encoding from the content itself.
type Payload struct {
	text   string
	raw    []byte
	binary bool
}

// Text builds a text payload.
func Text(s string) Payload { return Payload{text: s} }

// Binary builds a binary payload.
func Binary(b []byte) Payload { return Payload{raw: b, binary: true} }

// IsBinary reports which variant the payload carries.
func (p Payload) IsBinary() bool { return p.binary }

// String returns the text variant. Only meaningful when !IsBinary.
func (p Payload) String() string { return p.text }

// Bytes returns the content as raw bytes for either variant.
func (p Payload) Bytes() []byte {
	if p.binary {
		return p.raw
	}
	return []byte(p.text)
}

// Size is the content length in bytes.
func (p Payload) Size() int {
	if p.binary {
		return len(p.raw)
	}
	return len(p.text)
}
