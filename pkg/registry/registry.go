package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/GYFX35/AI-services/pkg/envelope"
)

const logPrefix = "registry:registry"

// defaultVersion is assumed when a spec declares no version.
const defaultVersion = "1.0.0"

// Registry holds the capability table. Registration happens once at process
// start; the table is read-only thereafter, so concurrent resolves need no
// synchronization.
type Registry struct {
	specs map[string]*HandlerSpec
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{specs: make(map[string]*HandlerSpec)}
}

// Register adds a capability. It fails when the identifier is already
// registered or the spec is incomplete.
func (r *Registry) Register(spec HandlerSpec) error {
	if spec.ID == "" {
		return NewError(CodeInvalidSpec, "capability identifier is required")
	}
	if spec.Handler == nil {
		return NewError(CodeInvalidSpec, fmt.Sprintf("capability %s has no handler", spec.ID))
	}
	switch spec.Kind {
	case envelope.KindText, envelope.KindCode, envelope.KindCodeSet, envelope.KindLinkReport:
	default:
		return NewError(CodeInvalidSpec, fmt.Sprintf("capability %s declares unknown result kind %q", spec.ID, spec.Kind))
	}
	if spec.Payload == "" {
		spec.Payload = PayloadNone
	}
	if spec.Version == "" {
		spec.Version = defaultVersion
	}
	if _, err := semver.NewVersion(spec.Version); err != nil {
		return NewError(CodeInvalidSpec, fmt.Sprintf("capability %s has invalid version %q: %v", spec.ID, spec.Version, err))
	}
	if _, exists := r.specs[spec.ID]; exists {
		return NewError(CodeDuplicateCapability, fmt.Sprintf("capability %s is already registered", spec.ID))
	}

	r.specs[spec.ID] = &spec
	slog.Debug(fmt.Sprintf("%s - registered capability %s v%s kind=%s", logPrefix, spec.ID, spec.Version, spec.Kind))
	return nil
}

// MustRegister registers a capability and panics on error. For compiled-in
// capability tables built at process start.
func (r *Registry) MustRegister(spec HandlerSpec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

// Resolve looks up a capability by identifier.
func (r *Registry) Resolve(id string) (*HandlerSpec, error) {
	spec, ok := r.specs[id]
	if !ok {
		return nil, NewError(CodeUnknownCapability, fmt.Sprintf("unknown capability %q", id))
	}
	return spec, nil
}

// List returns discovery summaries for all capabilities, sorted by id.
func (r *Registry) List() []Summary {
	summaries := make([]Summary, 0, len(r.specs))
	for _, spec := range r.specs {
		summaries = append(summaries, Summary{
			ID:          spec.ID,
			Description: spec.Description,
			Version:     spec.Version,
			Payload:     spec.Payload,
			Kind:        spec.Kind,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	return len(r.specs)
}
