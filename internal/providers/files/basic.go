package files

import (
	"encoding/base64"

	"github.com/volumekit/volumed/internal/types"
	"github.com/volumekit/volumed/internal/vfs"
)

func (p *Provider) listFiles(params map[string]interface{}) (*types.Result, error) {
	path, _ := stringParam(params, "path")

	entries, err := p.ops.List(path)
	if err != nil {
		return p.fail(err)
	}
	return types.Success(map[string]interface{}{
		"path":  path,
		"files": entries,
		"count": len(entries),
	}), nil
}

func (p *Provider) readFile(params map[string]interface{}) (*types.Result, error) {
	path, ok := stringParam(params, "path")
	if !ok || path == "" {
		return types.Failure("path parameter required"), nil
	}

	payload, class, err := p.ops.Read(path)
	if err != nil {
		return p.fail(err)
	}

	content := payload.String()
	encoding := "utf-8"
	if payload.IsBinary() {
		content = base64.StdEncoding.EncodeToString(payload.Bytes())
		encoding = "base64"
	}
	return types.Success(map[string]interface{}{
		"path":      path,
		"content":   content,
		"size":      payload.Size(),
		"mime_type": class.MIME,
		"is_binary": class.Binary,
		"encoding":  encoding,
	}), nil
}

func (p *Provider) writeFile(params map[string]interface{}) (*types.Result, error) {
	path, ok := stringParam(params, "path")
	if !ok || path == "" {
		return types.Failure("path parameter required"), nil
	}
	content, ok := stringParam(params, "content")
	if !ok {
		return types.Failure("content parameter required"), nil
	}

	payload := vfs.Text(content)
	if enc, _ := stringParam(params, "encoding"); enc == "base64" {
		raw, decErr := base64.StdEncoding.DecodeString(content)
		if decErr != nil {
			return types.Failure("content is not valid base64"), nil
		}
		payload = vfs.Binary(raw)
	}

	entry, err := p.ops.Write(path, payload, boolParam(params, "create_parents"))
	if err != nil {
		return p.fail(err)
	}
	return types.Success(map[string]interface{}{
		"written": true,
		"path":    path,
		"size":    entry.Size,
	}), nil
}

func (p *Provider) deleteFile(params map[string]interface{}) (*types.Result, error) {
	path, ok := stringParam(params, "path")
	if !ok || path == "" {
		return types.Failure("path parameter required"), nil
	}

	if err := p.ops.Delete(path); err != nil {
		return p.fail(err)
	}
	return types.Success(map[string]interface{}{"deleted": true, "path": path}), nil
}

func (p *Provider) createDirectory(params map[string]interface{}) (*types.Result, error) {
	path, ok := stringParam(params, "path")
	if !ok || path == "" {
		return types.Failure("path parameter required"), nil
	}

	if err := p.ops.Mkdir(path); err != nil {
		return p.fail(err)
	}
	return types.Success(map[string]interface{}{"created": true, "path": path}), nil
}

func (p *Provider) getFileInfo(params map[string]interface{}) (*types.Result, error) {
	path, ok := stringParam(params, "path")
	if !ok {
		return types.Failure("path parameter required"), nil
	}

	entry, err := p.ops.Stat(path)
	if err != nil {
		return p.fail(err)
	}
	return types.Success(map[string]interface{}{
		"name":      entry.Name,
		"path":      entry.Path,
		"kind":      entry.Kind,
		"size":      entry.Size,
		"mode":      entry.Mode,
		"modified":  entry.Modified.Unix(),
		"mime_type": entry.MIMEType,
		"is_binary": entry.IsBinary,
	}), nil
}

func (p *Provider) fileExists(params map[string]interface{}) (*types.Result, error) {
	path, ok := stringParam(params, "path")
	if !ok || path == "" {
		return types.Failure("path parameter required"), nil
	}

	exists, err := p.ops.Exists(path)
	if err != nil {
		return p.fail(err)
	}
	return types.Success(map[string]interface{}{"exists": exists, "path": path}), nil
}
