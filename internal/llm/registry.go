package llm

// Registry holds the providers the orchestrator cycles through. Callers
// construct one at startup and pass it down explicitly.
type Registry struct {
	primary  Provider
	fallback Provider
}

func NewRegistry(primary, fallback Provider) *Registry {
	return &Registry{primary: primary, fallback: fallback}
}

func (r *Registry) Primary() Provider { return r.primary }

// Fallback returns nil when no secondary provider is configured.
func (r *Registry) Fallback() Provider { return r.fallback }
