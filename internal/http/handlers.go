package http

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/volumekit/volumed/internal/logging"
	"github.com/volumekit/volumed/internal/monitoring"
	"github.com/volumekit/volumed/internal/service"
	"github.com/volumekit/volumed/internal/types"
	"github.com/volumekit/volumed/internal/vfs"
)

// Version is the service version reported by the root endpoint.
const Version = "1.0.0"

// Handlers holds the dependencies shared by all route handlers.
type Handlers struct {
	ops      *vfs.Ops
	stats    *vfs.Aggregator
	registry *service.Registry
	metrics  *monitoring.Metrics
	log      *logging.Logger
}

// NewHandlers creates the handler set. metrics may be nil.
func NewHandlers(ops *vfs.Ops, stats *vfs.Aggregator, registry *service.Registry, metrics *monitoring.Metrics, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.NewDefault()
	}
	return &Handlers{
		ops:      ops,
		stats:    stats,
		registry: registry,
		metrics:  metrics,
		log:      log.Named("http"),
	}
}

// Root reports service identity.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "volumed",
		"version": Version,
		"status":  "online",
	})
}

// Health reports liveness plus a small operational snapshot.
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":      "healthy",
		"volume_root": h.ops.Root(),
		"services":    h.registry.Stats(),
		"timestamp":   timestamp(),
	}
	if h.metrics != nil {
		resp["uptime_seconds"] = h.metrics.UptimeSeconds()
	}
	c.JSON(http.StatusOK, resp)
}

// ListFiles handles GET /files?path=. The empty path lists the volume
// root.
func (h *Handlers) ListFiles(c *gin.Context) {
	rel := c.Query("path")
	entries, err := h.ops.List(rel)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"path":    rel,
		"entries": entries,
		"count":   len(entries),
	})
}

// GetFile handles GET /files/*path. The trailing segment selects a view:
// "/info" returns metadata only, "/binary" streams raw bytes, anything
// else returns a JSON envelope with the content (base64 when binary).
func (h *Handlers) GetFile(c *gin.Context) {
	rel, view := splitView(c.Param("path"))

	switch view {
	case "info":
		entry, err := h.ops.Stat(rel)
		if err != nil {
			h.abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)

	case "binary":
		payload, class, err := h.ops.Read(rel)
		if err != nil {
			h.abortWithError(c, err)
			return
		}
		mime := class.MIME
		if mime == "" {
			mime = "application/octet-stream"
		}
		c.Data(http.StatusOK, mime, payload.Bytes())

	default:
		payload, class, err := h.ops.Read(rel)
		if err != nil {
			h.abortWithError(c, err)
			return
		}
		resp := gin.H{
			"path":      rel,
			"size":      payload.Size(),
			"mime_type": class.MIME,
			"is_binary": class.Binary,
		}
		if payload.IsBinary() {
			resp["content"] = base64.StdEncoding.EncodeToString(payload.Bytes())
			resp["encoding"] = "base64"
		} else {
			resp["content"] = payload.String()
			resp["encoding"] = "utf-8"
		}
		c.JSON(http.StatusOK, resp)
	}
}

type writeFileRequest struct {
	Content       string `json:"content"`
	Encoding      string `json:"encoding"`
	CreateParents bool   `json:"create_parents"`
}

// PutFile handles POST /files/*path. The "/binary" view takes the raw
// request body; the default view takes a JSON envelope whose content may
// be base64-encoded.
func (h *Handlers) PutFile(c *gin.Context) {
	rel, view := splitView(c.Param("path"))

	var payload vfs.Payload
	makeParents := true
	switch view {
	case "binary":
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		payload = vfs.Binary(data)

	case "info":
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot write to the info view"})
		return

	default:
		var req writeFileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if req.Encoding == "base64" {
			data, err := base64.StdEncoding.DecodeString(req.Content)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "content is not valid base64"})
				return
			}
			payload = vfs.Binary(data)
		} else {
			payload = vfs.Text(req.Content)
		}
		makeParents = req.CreateParents
	}

	entry, err := h.ops.Write(rel, payload, makeParents)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "file written",
		"path":      entry.Path,
		"size":      entry.Size,
		"timestamp": timestamp(),
	})
}

// DeleteFile handles DELETE /files/*path.
func (h *Handlers) DeleteFile(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("path"), "/")
	if err := h.ops.Delete(rel); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "deleted",
		"path":      rel,
		"timestamp": timestamp(),
	})
}

// CreateDirectory handles POST /directories/*path.
func (h *Handlers) CreateDirectory(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("path"), "/")
	if err := h.ops.Mkdir(rel); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   "directory created",
		"path":      rel,
		"timestamp": timestamp(),
	})
}

// Stats handles GET /stats.
func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.stats.Aggregate(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.SetVolumeStats(stats.Files, stats.Directories, stats.TotalBytes)
	}
	c.JSON(http.StatusOK, stats)
}

// ListServices handles GET /services?category=.
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if raw := c.Query("category"); raw != "" {
		cat := types.Category(raw)
		category = &cat
	}
	services := h.registry.List(category)
	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"count":    len(services),
	})
}

type discoverRequest struct {
	Intent string `json:"intent" binding:"required"`
	Limit  int    `json:"limit"`
}

// DiscoverServices handles POST /services/discover.
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}
	services := h.registry.Discover(req.Intent, req.Limit)
	c.JSON(http.StatusOK, gin.H{
		"intent":   req.Intent,
		"services": services,
		"count":    len(services),
	})
}

type executeRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params"`
}

// ExecuteTool handles POST /services/execute.
func (h *Handlers) ExecuteTool(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	callCtx := &types.Context{}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		callCtx.RequestID = &id
	}

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, callCtx)
	if err != nil && result == nil {
		h.log.Error("tool execution failed",
			zap.String("tool_id", req.ToolID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// splitView strips gin's wildcard slash and peels a trailing "/info" or
// "/binary" segment off the path. A file literally named "info" at the
// top level is still reachable through the query-style list endpoint.
func splitView(wildcard string) (rel, view string) {
	rel = strings.TrimPrefix(wildcard, "/")
	for _, v := range []string{"info", "binary"} {
		if suffix := "/" + v; strings.HasSuffix(rel, suffix) {
			return strings.TrimSuffix(rel, suffix), v
		}
	}
	return rel, ""
}
