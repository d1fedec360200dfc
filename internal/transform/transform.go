// Package transform derives new time series from existing ones.
//
// A Strategy computes signal values and, for each one, the ids of the source
// values it was computed from. The Registry looks strategies up by name and
// assigns ids to the produced values.
package transform

import (
	"sort"

	"grisera/internal/domain"
)

// Output is the result of a strategy. Origins[i] lists the source signal
// value ids that contributed to Signals[i].
type Output struct {
	Type    domain.TimeSeriesType
	Signals []domain.Signal
	Origins [][]string
}

// Strategy is one named transformation
type Strategy interface {
	Name() string
	Transform(sources []domain.TimeSeries, props domain.Properties) (Output, error)
}

// Registry holds the available strategies
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry registers the given strategies
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[s.Name()] = s
	}
	return r
}

// Default returns a registry with every built-in strategy
func Default() *Registry {
	return NewRegistry(Multidimensional{}, ResampleNearest{}, Quadrants{})
}

// Lookup returns the strategy registered under name
func (r *Registry) Lookup(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// Names lists the registered strategies
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for n := range r.strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run applies the strategy called name. Every produced value gets an id from
// newID; the returned mapping goes from that id to the contributing source
// value ids.
func (r *Registry) Run(name string, sources []domain.TimeSeries, props domain.Properties, newID func() string) (domain.TimeSeries, map[string][]string, error) {
	s, ok := r.Lookup(name)
	if !ok {
		return domain.TimeSeries{}, nil, domain.Invalid("unknown transformation %q", name)
	}
	out, err := s.Transform(sources, props)
	if err != nil {
		return domain.TimeSeries{}, nil, err
	}

	mapping := make(map[string][]string, len(out.Signals))
	signals := make([]domain.Signal, len(out.Signals))
	for i, sig := range out.Signals {
		id := newID()
		sig.SignalValue.ID = id
		signals[i] = sig
		origins := []string{}
		if i < len(out.Origins) && out.Origins[i] != nil {
			origins = out.Origins[i]
		}
		mapping[id] = origins
	}
	return domain.TimeSeries{
		Type:                 out.Type,
		SignalValues:         signals,
		AdditionalProperties: props,
	}, mapping, nil
}

func requireType(sources []domain.TimeSeries, t domain.TimeSeriesType) error {
	for _, ts := range sources {
		if ts.Type != t {
			return domain.Invalid("time series %s is not of type %s", ts.ID, t)
		}
	}
	return nil
}
