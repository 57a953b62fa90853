package tool

import (
	"io"
	"slices"
	"strings"

	"github.com/go-logr/logr"
)

// Registry holds the clients the task can run, in a fixed order.
type Registry struct {
	tools []*Tool
}

// NewRegistry creates a registry with helm and kubectl.
func NewRegistry(progress io.Writer, log logr.Logger) *Registry {
	return &Registry{
		tools: []*Tool{
			NewHelm(progress, log),
			NewKubectl(progress, log),
		},
	}
}

// Get returns the tool registered under name, ignoring case, or nil.
func (r *Registry) Get(name string) *Tool {
	i := slices.IndexFunc(r.tools, func(t *Tool) bool {
		return strings.EqualFold(t.Name, name)
	})
	if i < 0 {
		return nil
	}

	return r.tools[i]
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name
	}

	return names
}

// AllTools returns every registered tool.
func (r *Registry) AllTools() []*Tool {
	return slices.Clone(r.tools)
}

// Select returns the named tools, or all tools when names is empty.
// Unknown names are skipped and duplicates collapse.
func (r *Registry) Select(names []string) []*Tool {
	if len(names) == 0 {
		return r.AllTools()
	}

	selected := make([]*Tool, 0, len(names))

	for _, name := range names {
		if t := r.Get(name); t != nil && !slices.Contains(selected, t) {
			selected = append(selected, t)
		}
	}

	return selected
}
