package domain

// Collection names an entity type. The same value is the document collection
// name, the REST resource path and the traversal source tag.
type Collection string

const (
	Activities             Collection = "activities"
	ActivityExecutions     Collection = "activity_executions"
	Arrangements           Collection = "arrangements"
	Appearances            Collection = "appearances"
	Channels               Collection = "channels"
	Experiments            Collection = "experiments"
	LifeActivities         Collection = "life_activities"
	LiveActivities         Collection = "live_activities"
	Measures               Collection = "measures"
	MeasureNames           Collection = "measure_names"
	Modalities             Collection = "modalities"
	ObservableInformations Collection = "observable_informations"
	Participants           Collection = "participants"
	ParticipantStates      Collection = "participant_states"
	Participations         Collection = "participations"
	Recordings             Collection = "recordings"
	RegisteredChannels     Collection = "registered_channels"
	RegisteredData         Collection = "registered_data"
	Scenarios              Collection = "scenarios"
	TimeSeriesCollection   Collection = "time_series"
)

// NoSource is used for top-level reads that did not arrive through a relation.
const NoSource Collection = ""

// String returns the collection name
func (c Collection) String() string {
	return string(c)
}

// Valid reports whether the collection is part of the catalogue
func (c Collection) Valid() bool {
	_, ok := catalogue[c]
	return ok
}
