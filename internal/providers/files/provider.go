package files

import (
	"context"
	"errors"
	"fmt"

	"github.com/volumekit/volumed/internal/logging"
	"github.com/volumekit/volumed/internal/monitoring"
	"github.com/volumekit/volumed/internal/types"
	"github.com/volumekit/volumed/internal/vfs"
)

// Provider exposes file operations over a single volume root as tools.
type Provider struct {
	ops     *vfs.Ops
	stats   *vfs.Aggregator
	metrics *monitoring.Metrics
	log     *logging.Logger
}

// New creates the filesystem provider. metrics may be nil.
func New(ops *vfs.Ops, stats *vfs.Aggregator, metrics *monitoring.Metrics, log *logging.Logger) *Provider {
	if log == nil {
		log = logging.NewDefault()
	}
	return &Provider{ops: ops, stats: stats, metrics: metrics, log: log.Named("files")}
}

// Definition returns service metadata.
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "filesystem",
		Name:        "Volume Filesystem",
		Description: "Sandboxed file and directory operations over the volume root",
		Category:    types.CategoryFilesystem,
		Capabilities: []string{
			"list", "read", "write", "delete", "mkdir", "stat", "stats", "glob", "compress",
		},
		Tools: []types.Tool{
			{
				ID:          "filesystem.list_files",
				Name:        "List Files",
				Description: "List files and directories in a volume path",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Directory path (empty for root)", Required: false},
				},
				Returns: "array",
			},
			{
				ID:          "filesystem.read_file",
				Name:        "Read File",
				Description: "Read file contents; binary files come back base64-encoded",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File path", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "filesystem.write_file",
				Name:        "Write File",
				Description: "Write content to a file atomically",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File path", Required: true},
					{Name: "content", Type: "string", Description: "Content to write", Required: true},
					{Name: "encoding", Type: "string", Description: "\"text\" (default) or \"base64\"", Required: false},
					{Name: "create_parents", Type: "boolean", Description: "Create missing parent directories", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "filesystem.delete_file",
				Name:        "Delete",
				Description: "Delete a file or directory tree",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File or directory path", Required: true},
				},
				Returns: "boolean",
			},
			{
				ID:          "filesystem.create_directory",
				Name:        "Create Directory",
				Description: "Create a directory (recursive, idempotent)",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Directory path", Required: true},
				},
				Returns: "boolean",
			},
			{
				ID:          "filesystem.get_file_info",
				Name:        "File Info",
				Description: "Get metadata for a file or directory",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File or directory path", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "filesystem.file_exists",
				Name:        "Check Existence",
				Description: "Check whether a file or directory exists",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File or directory path", Required: true},
				},
				Returns: "boolean",
			},
			{
				ID:          "filesystem.volume_stats",
				Name:        "Volume Stats",
				Description: "Aggregate file counts and sizes for the whole volume",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "filesystem.glob_files",
				Name:        "Glob Files",
				Description: "Find entries matching a glob pattern (** supported)",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Root directory (empty for volume root)", Required: false},
					{Name: "pattern", Type: "string", Description: "Glob pattern, e.g. '**/*.json'", Required: true},
				},
				Returns: "array",
			},
			{
				ID:          "filesystem.read_json",
				Name:        "Read JSON",
				Description: "Read and parse a JSON file",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File path", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "filesystem.write_json",
				Name:        "Write JSON",
				Description: "Write data as an indented JSON file",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File path", Required: true},
					{Name: "data", Type: "object", Description: "Data to serialize", Required: true},
					{Name: "create_parents", Type: "boolean", Description: "Create missing parent directories", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "filesystem.gzip_file",
				Name:        "Gzip File",
				Description: "Compress a file with gzip",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Source file path", Required: true},
					{Name: "destination", Type: "string", Description: "Output path (default source + .gz)", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "filesystem.gunzip_file",
				Name:        "Gunzip File",
				Description: "Decompress a gzip file",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Source .gz path", Required: true},
					{Name: "destination", Type: "string", Description: "Output path (default source without .gz)", Required: false},
				},
				Returns: "object",
			},
		},
	}
}

// Execute runs a filesystem tool.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, _ *types.Context) (*types.Result, error) {
	timer := monitoring.NewTimer(p.metrics, toolID)

	var result *types.Result
	var err error
	switch toolID {
	case "filesystem.list_files":
		result, err = p.listFiles(params)
	case "filesystem.read_file":
		result, err = p.readFile(params)
	case "filesystem.write_file":
		result, err = p.writeFile(params)
	case "filesystem.delete_file":
		result, err = p.deleteFile(params)
	case "filesystem.create_directory":
		result, err = p.createDirectory(params)
	case "filesystem.get_file_info":
		result, err = p.getFileInfo(params)
	case "filesystem.file_exists":
		result, err = p.fileExists(params)
	case "filesystem.volume_stats":
		result, err = p.volumeStats(ctx)
	case "filesystem.glob_files":
		result, err = p.globFiles(params)
	case "filesystem.read_json":
		result, err = p.readJSON(params)
	case "filesystem.write_json":
		result, err = p.writeJSON(params)
	case "filesystem.gzip_file":
		result, err = p.gzipFile(params)
	case "filesystem.gunzip_file":
		result, err = p.gunzipFile(params)
	default:
		timer.Stop("unknown")
		return types.Failure(fmt.Sprintf("unknown tool: %s", toolID)), nil
	}

	if err != nil || (result != nil && !result.Success) {
		timer.Stop("error")
	} else {
		timer.Stop("ok")
	}
	return result, err
}

// fail converts an engine error into a tool failure, counting traversal
// rejections along the way.
func (p *Provider) fail(err error) (*types.Result, error) {
	if errors.Is(err, vfs.ErrTraversal) && p.metrics != nil {
		p.metrics.RecordTraversal()
	}
	return types.Failure(err.Error()), nil
}

func stringParam(params map[string]interface{}, name string) (string, bool) {
	v, ok := params[name].(string)
	return v, ok
}

func boolParam(params map[string]interface{}, name string) bool {
	v, _ := params[name].(bool)
	return v
}
