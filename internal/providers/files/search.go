package files

import "github.com/volumekit/volumed/internal/types"

func (p *Provider) globFiles(params map[string]interface{}) (*types.Result, error) {
	pattern, ok := stringParam(params, "pattern")
	if !ok || pattern == "" {
		return types.Failure("pattern parameter required"), nil
	}
	path, _ := stringParam(params, "path")

	entries, err := p.ops.Glob(path, pattern)
	if err != nil {
		return p.fail(err)
	}
	return types.Success(map[string]interface{}{
		"path":    path,
		"pattern": pattern,
		"matches": entries,
		"count":   len(entries),
	}), nil
}
