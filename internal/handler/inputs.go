package handler

import "grisera/internal/domain"

// inputs names the request body types of a collection. A nil constructor
// means the generic route is not served; collections with dedicated routes
// leave them nil.
type inputs struct {
	create func() any
	props  func() any
	rels   func() any
}

func newOf[T any]() any {
	return new(T)
}

var entityInputs = map[domain.Collection]inputs{
	domain.Activities: {
		create: newOf[domain.ActivityIn],
		props:  newOf[domain.ActivityPropertyIn],
	},
	domain.ActivityExecutions: {
		create: newOf[domain.ActivityExecutionIn],
		props:  newOf[domain.ActivityExecutionPropertyIn],
		rels:   newOf[domain.ActivityExecutionRelationIn],
	},
	domain.Arrangements: {
		create: newOf[domain.ArrangementIn],
		props:  newOf[domain.ArrangementPropertyIn],
	},
	domain.Appearances: {},
	domain.Channels: {
		create: newOf[domain.ChannelIn],
		props:  newOf[domain.ChannelPropertyIn],
	},
	domain.Experiments: {
		create: newOf[domain.ExperimentIn],
		props:  newOf[domain.ExperimentPropertyIn],
	},
	domain.LifeActivities: {
		create: newOf[domain.LifeActivityIn],
		props:  newOf[domain.LifeActivityPropertyIn],
	},
	domain.LiveActivities: {
		create: newOf[domain.LiveActivityIn],
		props:  newOf[domain.LiveActivityPropertyIn],
	},
	domain.Measures: {
		create: newOf[domain.MeasureIn],
		props:  newOf[domain.MeasurePropertyIn],
		rels:   newOf[domain.MeasureRelationIn],
	},
	domain.MeasureNames: {
		create: newOf[domain.MeasureNameIn],
		props:  newOf[domain.MeasureNamePropertyIn],
	},
	domain.Modalities: {
		create: newOf[domain.ModalityIn],
		props:  newOf[domain.ModalityPropertyIn],
	},
	domain.ObservableInformations: {
		create: newOf[domain.ObservableInformationIn],
		props:  newOf[domain.ObservableInformationPropertyIn],
		rels:   newOf[domain.ObservableInformationRelationIn],
	},
	domain.Participants: {
		create: newOf[domain.ParticipantIn],
		props:  newOf[domain.ParticipantPropertyIn],
	},
	domain.ParticipantStates: {
		create: newOf[domain.ParticipantStateIn],
		props:  newOf[domain.ParticipantStatePropertyIn],
		rels:   newOf[domain.ParticipantStateRelationIn],
	},
	domain.Participations: {
		create: newOf[domain.ParticipationIn],
		props:  newOf[domain.ParticipationPropertyIn],
		rels:   newOf[domain.ParticipationRelationIn],
	},
	domain.Recordings: {
		create: newOf[domain.RecordingIn],
		props:  newOf[domain.RecordingPropertyIn],
		rels:   newOf[domain.RecordingRelationIn],
	},
	domain.RegisteredChannels: {
		create: newOf[domain.RegisteredChannelIn],
		props:  newOf[domain.RegisteredChannelPropertyIn],
		rels:   newOf[domain.RegisteredChannelRelationIn],
	},
	domain.RegisteredData: {
		create: newOf[domain.RegisteredDataIn],
		props:  newOf[domain.RegisteredDataPropertyIn],
	},
	domain.Scenarios: {
		props: newOf[domain.ScenarioPropertyIn],
		rels:  newOf[domain.ScenarioRelationIn],
	},
	domain.TimeSeriesCollection: {},
}
