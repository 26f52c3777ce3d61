package task

import (
	"sort"
)

// Registry holds the tasks available to the CLI, by name.
type Registry struct {
	tasks map[string]Task
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

// Register adds a task to the registry, replacing any prior task of the
// same name.
func (r *Registry) Register(t Task) {
	r.tasks[t.Name] = t
}

// Get retrieves a task by name.
func (r *Registry) Get(name string) (Task, bool) {
	t, exists := r.tasks[name]
	return t, exists
}

// Names returns all registered task names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
