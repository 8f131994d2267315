package files

import (
	"github.com/bytedance/sonic"

	"github.com/volumekit/volumed/internal/types"
	"github.com/volumekit/volumed/internal/vfs"
)

func (p *Provider) readJSON(params map[string]interface{}) (*types.Result, error) {
	path, ok := stringParam(params, "path")
	if !ok || path == "" {
		return types.Failure("path parameter required"), nil
	}

	payload, _, err := p.ops.Read(path)
	if err != nil {
		return p.fail(err)
	}
	if payload.IsBinary() {
		return types.Failure("file is not text"), nil
	}

	var parsed interface{}
	if err := sonic.Unmarshal(payload.Bytes(), &parsed); err != nil {
		return types.Failure("invalid JSON: " + err.Error()), nil
	}
	return types.Success(map[string]interface{}{"path": path, "data": parsed}), nil
}

func (p *Provider) writeJSON(params map[string]interface{}) (*types.Result, error) {
	path, ok := stringParam(params, "path")
	if !ok || path == "" {
		return types.Failure("path parameter required"), nil
	}
	data, ok := params["data"]
	if !ok {
		return types.Failure("data parameter required"), nil
	}

	encoded, err := sonic.MarshalIndent(data, "", "  ")
	if err != nil {
		return types.Failure("JSON serialization failed: " + err.Error()), nil
	}

	entry, writeErr := p.ops.Write(path, vfs.Text(string(encoded)), boolParam(params, "create_parents"))
	if writeErr != nil {
		return p.fail(writeErr)
	}
	return types.Success(map[string]interface{}{
		"written": true,
		"path":    path,
		"size":    entry.Size,
	}), nil
}
