// Package tools declares the fixed set of research tools and dispatches
// model-requested tool calls against them, with caching for the tools that
// hit billed network services.
package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// Registry is the in-process implementation of domain.ToolRegistry. Tools
// are registered once at startup and read-only afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]domain.Tool
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]domain.Tool),
	}
}

// Register registers a new tool
func (r *Registry) Register(tool domain.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}

	r.tools[name] = tool
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (domain.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("tool %s not found", name)
	}

	return tool, nil
}

// Definitions returns the definitions of all registered tools sorted by
// name, for handing to the completion capability
func (r *Registry) Definitions() []domain.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]domain.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, domain.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Schema:      tool.Schema(),
		})
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
