package loader

import (
	"context"
	"fmt"

	"grisera/internal/domain"
	"grisera/internal/service"
)

func newOf[T any]() any {
	return new(T)
}

// createInputs holds the creation body of every collection served by the
// generic entity service
var createInputs = map[domain.Collection]func() any{
	domain.Activities:             newOf[domain.ActivityIn],
	domain.ActivityExecutions:     newOf[domain.ActivityExecutionIn],
	domain.Arrangements:           newOf[domain.ArrangementIn],
	domain.Channels:               newOf[domain.ChannelIn],
	domain.Experiments:            newOf[domain.ExperimentIn],
	domain.LifeActivities:         newOf[domain.LifeActivityIn],
	domain.LiveActivities:         newOf[domain.LiveActivityIn],
	domain.Measures:               newOf[domain.MeasureIn],
	domain.MeasureNames:           newOf[domain.MeasureNameIn],
	domain.Modalities:             newOf[domain.ModalityIn],
	domain.ObservableInformations: newOf[domain.ObservableInformationIn],
	domain.Participants:           newOf[domain.ParticipantIn],
	domain.ParticipantStates:      newOf[domain.ParticipantStateIn],
	domain.Participations:         newOf[domain.ParticipationIn],
	domain.Recordings:             newOf[domain.RecordingIn],
	domain.RegisteredChannels:     newOf[domain.RegisteredChannelIn],
	domain.RegisteredData:         newOf[domain.RegisteredDataIn],
}

// Report lists what Apply created
type Report struct {
	// IDs maps each ref to the id of the entity created for it
	IDs map[string]string
	// Created counts entities per collection, inline scenario executions
	// excluded
	Created map[domain.Collection]int
}

// Total is the number of entries created
func (r *Report) Total() int {
	n := 0
	for _, c := range r.Created {
		n += c
	}
	return n
}

// Apply creates the dataset's entities in order through the services, so
// every entry is validated and its relations checked like an API request.
// It stops at the first failing entry; entries before it stay created.
func Apply(ctx context.Context, reg *service.Registry, ds *Dataset) (*Report, error) {
	if err := ds.Check(); err != nil {
		return nil, err
	}
	report := &Report{
		IDs:     map[string]string{},
		Created: map[domain.Collection]int{},
	}
	for i, e := range ds.Entities {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		data, _ := resolve(map[string]any(e.Data), report.IDs).(map[string]any)
		doc, err := create(ctx, reg, e, domain.Document(data))
		if err != nil {
			return report, fmt.Errorf("entity %d (%s): %w", i, e.Collection, err)
		}
		if e.Ref != "" {
			report.IDs[e.Ref] = doc.ID()
		}
		report.Created[e.Collection]++
	}
	return report, nil
}

func create(ctx context.Context, reg *service.Registry, e Entry, data domain.Document) (domain.Document, error) {
	switch e.Collection {
	case domain.Appearances:
		if e.Kind == domain.AppearanceOcclusion {
			var in domain.OcclusionIn
			if err := data.Decode(&in); err != nil {
				return nil, err
			}
			return reg.Appearances.SaveOcclusion(ctx, in)
		}
		var in domain.SomatotypeIn
		if err := data.Decode(&in); err != nil {
			return nil, err
		}
		return reg.Appearances.SaveSomatotype(ctx, in)

	case domain.Scenarios:
		var in domain.ScenarioIn
		if err := data.Decode(&in); err != nil {
			return nil, err
		}
		return reg.Scenarios.Save(ctx, in)

	case domain.TimeSeriesCollection:
		var in domain.TimeSeriesIn
		if err := data.Decode(&in); err != nil {
			return nil, err
		}
		return reg.TimeSeries.Save(ctx, in)
	}

	newInput, ok := createInputs[e.Collection]
	if !ok {
		return nil, fmt.Errorf("collection %q cannot be seeded", e.Collection)
	}
	in := newInput()
	if err := data.Decode(in); err != nil {
		return nil, err
	}
	return reg.Entity(e.Collection).Save(ctx, in)
}
