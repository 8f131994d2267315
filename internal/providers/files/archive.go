package files

import "github.com/volumekit/volumed/internal/types"

func (p *Provider) gzipFile(params map[string]interface{}) (*types.Result, error) {
	path, ok := stringParam(params, "path")
	if !ok || path == "" {
		return types.Failure("path parameter required"), nil
	}
	dest, _ := stringParam(params, "destination")

	entry, err := p.ops.Gzip(path, dest)
	if err != nil {
		return p.fail(err)
	}
	return types.Success(map[string]interface{}{
		"compressed": true,
		"source":     path,
		"output":     entry.Path,
		"size":       entry.Size,
	}), nil
}

func (p *Provider) gunzipFile(params map[string]interface{}) (*types.Result, error) {
	path, ok := stringParam(params, "path")
	if !ok || path == "" {
		return types.Failure("path parameter required"), nil
	}
	dest, _ := stringParam(params, "destination")

	entry, err := p.ops.Gunzip(path, dest)
	if err != nil {
		return p.fail(err)
	}
	return types.Success(map[string]interface{}{
		"decompressed": true,
		"source":       path,
		"output":       entry.Path,
		"size":         entry.Size,
	}), nil
}
