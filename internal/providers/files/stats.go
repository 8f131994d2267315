package files

import (
	"context"

	"github.com/volumekit/volumed/internal/types"
)

func (p *Provider) volumeStats(ctx context.Context) (*types.Result, error) {
	stats, err := p.stats.Aggregate(ctx)
	if err != nil {
		return p.fail(err)
	}
	if p.metrics != nil {
		p.metrics.SetVolumeStats(stats.Files, stats.Directories, stats.TotalBytes)
	}
	return types.Success(map[string]interface{}{
		"total_files":       stats.Files,
		"total_directories": stats.Directories,
		"total_size_bytes":  stats.TotalBytes,
		"by_extension":      stats.ByExtension,
		"computed_at":       stats.ComputedAt,
	}), nil
}
