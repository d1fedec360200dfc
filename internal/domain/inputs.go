package domain

import (
	"strconv"
	"strings"
)

// Request bodies. Each entity has a property part (PUT /{collection}/{id}),
// a relation part (PUT /{collection}/{id}/relationships) and the union of both
// accepted on creation.

// Property is a free-form key/value pair
type Property struct {
	Key   string `json:"key" validate:"required"`
	Value any    `json:"value"`
}

// Properties is a list of free-form key/value pairs
type Properties []Property

// Get returns the value stored under key
func (p Properties) Get(key string) (any, bool) {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return nil, false
}

// Float returns the numeric value stored under key. Numeric strings are
// accepted.
func (p Properties) Float(key string) (float64, bool) {
	v, ok := p.Get(key)
	if !ok {
		return 0, false
	}
	if s, isString := v.(string); isString {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return Number(v)
}

// Extra carries the additional_properties every entity accepts
type Extra struct {
	AdditionalProperties Properties `json:"additional_properties,omitempty" validate:"omitempty,dive"`
}

// NoRelations is the relation part of entities that own no relations
type NoRelations struct{}

type ActivityPropertyIn struct {
	Activity string `json:"activity" validate:"required"`
	Extra
}

type ActivityIn = ActivityPropertyIn

type ActivityExecutionPropertyIn struct {
	Extra
}

type ActivityExecutionRelationIn struct {
	ActivityID    string `json:"activity_id" validate:"required"`
	ArrangementID string `json:"arrangement_id,omitempty"`
}

type ActivityExecutionIn struct {
	ActivityExecutionPropertyIn
	ActivityExecutionRelationIn
}

type ArrangementPropertyIn struct {
	ArrangementType     string `json:"arrangement_type" validate:"required"`
	ArrangementDistance string `json:"arrangement_distance,omitempty"`
	Extra
}

type ArrangementIn = ArrangementPropertyIn

type ChannelPropertyIn struct {
	Type string `json:"type" validate:"required"`
	Extra
}

type ChannelIn = ChannelPropertyIn

type ExperimentPropertyIn struct {
	ExperimentName string `json:"experiment_name" validate:"required"`
	Extra
}

type ExperimentIn = ExperimentPropertyIn

type LifeActivityPropertyIn struct {
	LifeActivity string `json:"life_activity" validate:"required"`
	Extra
}

type LifeActivityIn = LifeActivityPropertyIn

type LiveActivityPropertyIn struct {
	LiveActivity string `json:"live_activity" validate:"required"`
	Extra
}

type LiveActivityIn = LiveActivityPropertyIn

type MeasurePropertyIn struct {
	Datatype string `json:"datatype" validate:"required"`
	Range    string `json:"range,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Extra
}

type MeasureRelationIn struct {
	MeasureNameID string `json:"measure_name_id" validate:"required"`
}

type MeasureIn struct {
	MeasurePropertyIn
	MeasureRelationIn
}

type MeasureNamePropertyIn struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type,omitempty"`
	Extra
}

type MeasureNameIn = MeasureNamePropertyIn

type ModalityPropertyIn struct {
	Modality string `json:"modality" validate:"required"`
	Extra
}

type ModalityIn = ModalityPropertyIn

type ObservableInformationPropertyIn struct {
	Extra
}

type ObservableInformationRelationIn struct {
	ModalityID     string `json:"modality_id,omitempty"`
	LifeActivityID string `json:"life_activity_id,omitempty"`
	RecordingID    string `json:"recording_id,omitempty"`
}

type ObservableInformationIn struct {
	ObservableInformationPropertyIn
	ObservableInformationRelationIn
}

type ParticipantPropertyIn struct {
	Name        string `json:"name,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Sex         string `json:"sex,omitempty" validate:"omitempty,oneof=male female not_given"`
	Disorder    string `json:"disorder,omitempty"`
	Extra
}

type ParticipantIn = ParticipantPropertyIn

type ParticipantStatePropertyIn struct {
	Age *int `json:"age,omitempty" validate:"omitempty,min=0"`
	Extra
}

type ParticipantStateRelationIn struct {
	ParticipantID string   `json:"participant_id,omitempty"`
	AppearanceIDs []string `json:"appearance_ids,omitempty"`
}

type ParticipantStateIn struct {
	ParticipantStatePropertyIn
	ParticipantStateRelationIn
}

type ParticipationPropertyIn struct {
	Extra
}

type ParticipationRelationIn struct {
	ActivityExecutionID string `json:"activity_execution_id,omitempty"`
	ParticipantStateID  string `json:"participant_state_id,omitempty"`
}

type ParticipationIn struct {
	ParticipationPropertyIn
	ParticipationRelationIn
}

type RecordingPropertyIn struct {
	Extra
}

type RecordingRelationIn struct {
	ParticipationID     string `json:"participation_id,omitempty"`
	RegisteredChannelID string `json:"registered_channel_id,omitempty"`
}

type RecordingIn struct {
	RecordingPropertyIn
	RecordingRelationIn
}

type RegisteredChannelPropertyIn struct {
	Extra
}

type RegisteredChannelRelationIn struct {
	ChannelID        string `json:"channel_id,omitempty"`
	RegisteredDataID string `json:"registered_data_id,omitempty"`
}

type RegisteredChannelIn struct {
	RegisteredChannelPropertyIn
	RegisteredChannelRelationIn
}

type RegisteredDataPropertyIn struct {
	Source string `json:"source" validate:"required"`
	Extra
}

type RegisteredDataIn = RegisteredDataPropertyIn

type ScenarioPropertyIn struct {
	Extra
}

type ScenarioRelationIn struct {
	ExperimentID         string   `json:"experiment_id" validate:"required"`
	ActivityExecutionIDs []string `json:"activity_execution_ids,omitempty"`
}

// ScenarioIn may create its activity executions inline
type ScenarioIn struct {
	ScenarioPropertyIn
	ScenarioRelationIn
	ActivityExecutions []ActivityExecutionIn `json:"activity_executions,omitempty" validate:"omitempty,dive"`
}
