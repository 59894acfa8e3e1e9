package evaluation

import (
	"fmt"

	"github.com/spigell/eb1-screener/internal/ai"
)

// Registry holds flows by name in registration order.
type Registry struct {
	flows map[string]Flow
	order []string
}

func NewRegistry(flows ...Flow) (*Registry, error) {
	r := &Registry{flows: make(map[string]Flow, len(flows))}
	for _, f := range flows {
		if _, ok := r.flows[f.Name()]; ok {
			return nil, fmt.Errorf("duplicate evaluation variant %q", f.Name())
		}
		r.flows[f.Name()] = f
		r.order = append(r.order, f.Name())
	}
	return r, nil
}

// NewDefaultRegistry registers every built-in variant. overrides are merged
// into the variant's generation parameters by name.
func NewDefaultRegistry(deps Deps, overrides map[string]ai.ParameterOverride) (*Registry, error) {
	eligibility, err := EligibilityVariant()
	if err != nil {
		return nil, err
	}
	detailed, err := DetailedVariant()
	if err != nil {
		return nil, err
	}
	resume, err := ResumeVariant()
	if err != nil {
		return nil, err
	}

	eligibility.Params = eligibility.Params.Merge(overrides[eligibility.Name])
	detailed.Params = detailed.Params.Merge(overrides[detailed.Name])
	resume.Params = resume.Params.Merge(overrides[resume.Name])

	for name := range overrides {
		switch name {
		case VariantEligibility, VariantDetailed, VariantResume:
		default:
			return nil, fmt.Errorf("overrides for unknown evaluation variant %q", name)
		}
	}

	return NewRegistry(
		NewPipeline(eligibility, deps),
		NewPipeline(detailed, deps),
		NewPipeline(resume, deps),
	)
}

func (r *Registry) Get(name string) (Flow, bool) {
	f, ok := r.flows[name]
	return f, ok
}

// Names returns the registered variant names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Flows() []Flow {
	out := make([]Flow, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.flows[name])
	}
	return out
}
