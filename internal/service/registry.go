package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/volumekit/volumed/internal/types"
)

// Provider is implemented by tool-style facades.
type Provider interface {
	Definition() types.Service
	Execute(ctx context.Context, toolID string, params map[string]interface{}, callCtx *types.Context) (*types.Result, error)
}

// Registry manages service discovery and execution. Safe for concurrent
// use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its definition ID.
func (r *Registry) Register(p Provider) error {
	def := p.Definition()
	if def.ID == "" {
		return fmt.Errorf("service ID cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.providers[def.ID]; dup {
		return fmt.Errorf("service %q already registered", def.ID)
	}
	r.providers[def.ID] = p
	return nil
}

// Get retrieves a provider by service ID.
func (r *Registry) Get(serviceID string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[serviceID]
	return p, ok
}

// List returns definitions of all registered services, optionally filtered
// by category, sorted by ID.
func (r *Registry) List(category *types.Category) []types.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	services := make([]types.Service, 0, len(r.providers))
	for _, p := range r.providers {
		def := p.Definition()
		if category == nil || def.Category == *category {
			services = append(services, def)
		}
	}
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services
}

// Discover scores services against a free-text intent and returns the top
// matches.
func (r *Registry) Discover(intent string, limit int) []types.Service {
	type scored struct {
		service types.Service
		score   float64
	}

	intent = strings.ToLower(intent)
	var results []scored
	r.mu.RLock()
	for _, p := range r.providers {
		def := p.Definition()
		if s := relevance(intent, def); s > 0 {
			results = append(results, scored{def, s})
		}
	}
	r.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	out := make([]types.Service, 0, limit)
	for i := 0; i < len(results) && i < limit; i++ {
		out = append(out, results[i].service)
	}
	return out
}

// Execute dispatches a tool call. Tool IDs are "service.tool", so the
// service prefix selects the provider.
func (r *Registry) Execute(ctx context.Context, toolID string, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	serviceID, _, ok := strings.Cut(toolID, ".")
	if !ok {
		return types.Failure("invalid tool ID format"), fmt.Errorf("invalid tool ID format: %s", toolID)
	}
	p, found := r.Get(serviceID)
	if !found {
		return types.Failure(fmt.Sprintf("service not found: %s", serviceID)),
			fmt.Errorf("service not found: %s", serviceID)
	}
	return p.Execute(ctx, toolID, params, callCtx)
}

// Stats returns registry statistics.
func (r *Registry) Stats() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totalTools := 0
	categories := make(map[string]int)
	for _, p := range r.providers {
		def := p.Definition()
		totalTools += len(def.Tools)
		categories[string(def.Category)]++
	}
	return map[string]interface{}{
		"total_services": len(r.providers),
		"total_tools":    totalTools,
		"categories":     categories,
	}
}

func relevance(intent string, def types.Service) float64 {
	score := 0.0
	if strings.Contains(intent, def.ID) || strings.Contains(intent, strings.ToLower(def.Name)) {
		score += 10
	}
	for _, word := range strings.Fields(strings.ToLower(def.Description)) {
		if strings.Contains(intent, word) {
			score += 5
		}
	}
	for _, capability := range def.Capabilities {
		if strings.Contains(intent, strings.ReplaceAll(strings.ToLower(capability), "_", " ")) {
			score += 3
		}
	}
	if strings.Contains(intent, string(def.Category)) {
		score += 2
	}
	return score
}
