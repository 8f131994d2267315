package vfs

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
)

// sniffLen bounds how much of a file the classifier reads when the
// extension alone is not enough.
const sniffLen = 8 * 1024

// Classification describes the content type of a resolved location.
// Binary is derived independently of the MIME string so callers can always
// pick the correct payload encoding.
type Classification struct {
	MIME   string `json:"mime_type"`
	Binary bool   `json:"is_binary"`
}

// mimeByExt covers the formats a volume server sees daily. Anything else
// falls through to content sniffing.
var mimeByExt = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".mjs":  "text/javascript",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".svg":  "image/svg+xml",

	".pdf":  "application/pdf",
	".epub": "application/epub+zip",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
	".zst":  "application/zstd",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".ico":  "image/vnd.microsoft.icon",
	".wasm": "application/wasm",
}

// textApplicationMIMEs are non-"text/" types that still carry text.
var textApplicationMIMEs = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"application/yaml":       true,
	"application/javascript": true,
	"image/svg+xml":          true,
}

// Classifier determines MIME type and the binary/text split for resolved
// paths. Zero value is not usable; construct with NewClassifier.
type Classifier struct {
	detector *chardet.Detector
}

// NewClassifier builds a classifier with charset detection enabled.
func NewClassifier() *Classifier {
	return &Classifier{detector: chardet.NewTextDetector()}
}

// Classify determines the content type of the file at path, which must be
// a resolved location. The extension table wins when it knows the answer;
// otherwise a bounded prefix of the file decides.
func (c *Classifier) Classify(path string) (Classification, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if mime, ok := mimeByExt[ext]; ok {
		return Classification{MIME: mime, Binary: !isTextMIME(mime)}, nil
	}
	return c.sniff(path)
}

// sniff reads up to sniffLen bytes and classifies from content alone.
func (c *Classifier) sniff(path string) (Classification, error) {
	prefix, err := readPrefix(path, sniffLen)
	if err != nil {
		return Classification{}, err
	}

	// Empty files read fine as text.
	if len(prefix) == 0 {
		return Classification{MIME: "text/plain", Binary: false}, nil
	}

	// A NUL byte is a hard binary signal.
	if bytes.IndexByte(prefix, 0x00) >= 0 {
		return Classification{MIME: baseMIME(mimetype.Detect(prefix).String()), Binary: true}, nil
	}

	detected := baseMIME(mimetype.Detect(prefix).String())
	if isTextMIME(detected) {
		return Classification{MIME: detected, Binary: false}, nil
	}
	if detected == "application/octet-stream" && c.looksLikeText(prefix) {
		return Classification{MIME: "text/plain", Binary: false}, nil
	}
	return Classification{MIME: detected, Binary: true}, nil
}

// looksLikeText gives charset detection the final word on prefixes the
// magic-number detector could not place, so plain text in legacy encodings
// still reads as text.
func (c *Classifier) looksLikeText(prefix []byte) bool {
	if printableRatio(prefix) < 0.85 {
		return false
	}
	_, err := c.detector.DetectBest(prefix)
	return err == nil
}

func isTextMIME(mime string) bool {
	mime = baseMIME(mime)
	return strings.HasPrefix(mime, "text/") || textApplicationMIMEs[mime]
}

// baseMIME strips parameters such as "; charset=utf-8".
func baseMIME(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(mime)
}

func printableRatio(b []byte) float64 {
	if len(b) == 0 {
		return 1
	}
	printable := 0
	for _, c := range b {
		if c == '\n' || c == '\r' || c == '\t' || c >= 0x20 {
			printable++
		}
	}
	return float64(printable) / float64(len(b))
}

func readPrefix(path string, limit int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapOS("classify", path, err)
	}
	defer f.Close()

	buf := make([]byte, limit)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, wrapOS("classify", path, err)
	}
	return buf[:n], nil
}
