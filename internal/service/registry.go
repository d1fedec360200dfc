package service

import (
	"log/slog"

	"grisera/internal/domain"
	"grisera/internal/repository"
	"grisera/internal/signalsink"
	"grisera/internal/transform"

	"github.com/google/uuid"
)

// Options carries the optional collaborators of the services
type Options struct {
	Bus        *EventBus
	Recorder   Recorder
	Sink       signalsink.Sink
	Transforms *transform.Registry
	Log        *slog.Logger
	// NewID generates signal value ids
	NewID func() string
}

// Registry wires one service per collection to a shared repository
type Registry struct {
	repo     repository.Repository
	bus      *EventBus
	entities map[domain.Collection]*Entity

	Appearances *AppearanceService
	Scenarios   *ScenarioService
	TimeSeries  *TimeSeriesService
}

// NewRegistry builds every service
func NewRegistry(repo repository.Repository, opts Options) *Registry {
	if opts.Bus == nil {
		opts.Bus = NewEventBus()
	}
	if opts.Sink == nil {
		opts.Sink = signalsink.Nop{}
	}
	if opts.Transforms == nil {
		opts.Transforms = transform.Default()
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	r := &Registry{
		repo:     repo,
		bus:      opts.Bus,
		entities: make(map[domain.Collection]*Entity),
	}
	for _, s := range domain.Schemas() {
		r.entities[s.Collection] = NewEntity(s.Collection, repo, opts.Bus, opts.Recorder, opts.Log)
	}

	r.Appearances = &AppearanceService{Entity: r.entities[domain.Appearances]}
	r.Scenarios = &ScenarioService{
		Entity:     r.entities[domain.Scenarios],
		executions: r.entities[domain.ActivityExecutions],
	}
	r.TimeSeries = &TimeSeriesService{
		Entity:     r.entities[domain.TimeSeriesCollection],
		transforms: opts.Transforms,
		sink:       opts.Sink,
		newID:      opts.NewID,
	}
	return r
}

// Entity returns the CRUD service of c, or nil for unknown collections
func (r *Registry) Entity(c domain.Collection) *Entity {
	return r.entities[c]
}

// Bus returns the event bus the services publish to
func (r *Registry) Bus() *EventBus {
	return r.bus
}

// Backend names the repository implementation
func (r *Registry) Backend() string {
	return r.repo.Backend()
}
