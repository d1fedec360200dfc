package domain

import (
	"fmt"
	"sort"
)

// Relation describes one related-entity field of an entity type.
//
// Forward relations are owned by the entity: Field holds the related id (or ids
// when Many is set) and Edge is the outgoing graph edge. Reverse relations are
// the mirror image seen from the target: Field is the foreign-key field on the
// Target documents and Edge is the incoming graph edge.
type Relation struct {
	Name     string
	Field    string
	Target   Collection
	Edge     string
	Many     bool
	Reverse  bool
	Required bool
}

// Embedding places an entity inside the documents of a parent collection.
// It only affects the document backend.
type Embedding struct {
	Parent Collection
	Field  string // array field on the parent document
	Via    string // foreign-key field on the child pointing at the parent
}

// Schema describes one entity type
type Schema struct {
	Collection Collection
	Label      string
	Singular   string
	Properties []string
	Payload    []string
	Relations  []Relation
	Embedded   *Embedding
}

// AdditionalPropertiesKey holds the free-form key/value list every entity accepts
const AdditionalPropertiesKey = "additional_properties"

// IDKey is the identifier field of every document
const IDKey = "id"

// Forward returns the relations owned by this entity type
func (s *Schema) Forward() []Relation {
	var out []Relation
	for _, r := range s.Relations {
		if !r.Reverse {
			out = append(out, r)
		}
	}
	return out
}

// Reverse returns the relations owned by other entity types that point here
func (s *Schema) Reverse() []Relation {
	var out []Relation
	for _, r := range s.Relations {
		if r.Reverse {
			out = append(out, r)
		}
	}
	return out
}

// IsRelationField reports whether field stores forward relation ids
func (s *Schema) IsRelationField(field string) bool {
	for _, r := range s.Relations {
		if !r.Reverse && r.Field == field {
			return true
		}
	}
	return false
}

// PropertyKeys returns the intrinsic property keys replaced by property updates
func (s *Schema) PropertyKeys() []string {
	keys := make([]string, 0, len(s.Properties)+1)
	keys = append(keys, s.Properties...)
	return append(keys, AdditionalPropertiesKey)
}

// StoredProperties returns the fields of doc that are persisted as node
// properties: everything except the id and forward relation fields.
func (s *Schema) StoredProperties(doc Document) Document {
	props := Document{}
	for k, v := range doc {
		if k == IDKey || s.IsRelationField(k) {
			continue
		}
		props[k] = v
	}
	return props
}

// ApplyProperties returns a copy of current whose intrinsic properties are
// replaced by the ones in props. Relation and payload fields are preserved.
func (s *Schema) ApplyProperties(current, props Document) Document {
	out := current.Clone()
	for _, key := range s.PropertyKeys() {
		if v, ok := props[key]; ok && v != nil {
			out[key] = v
		} else {
			delete(out, key)
		}
	}
	return out
}

// ApplyRelations returns a copy of current whose forward relation fields are
// replaced by the ones in rels. An absent field removes the relation.
func (s *Schema) ApplyRelations(current, rels Document) Document {
	out := current.Clone()
	for _, r := range s.Forward() {
		ids := rels.IDs(r.Field)
		switch {
		case len(ids) == 0:
			delete(out, r.Field)
		case r.Many:
			out[r.Field] = ids
		default:
			out[r.Field] = ids[0]
		}
	}
	return out
}

// ShouldExpand reports whether rel is populated at the given remaining depth
// when the traversal arrived from source.
func ShouldExpand(depth int, rel Relation, source Collection) bool {
	return depth > 0 && rel.Target != source
}

var (
	catalogue = map[Collection]*Schema{}
	byLabel   = map[string]*Schema{}
)

// Lookup returns the schema of collection c
func Lookup(c Collection) (*Schema, bool) {
	s, ok := catalogue[c]
	return s, ok
}

// MustLookup returns the schema of c and panics for unknown collections
func MustLookup(c Collection) *Schema {
	s, ok := catalogue[c]
	if !ok {
		panic(fmt.Sprintf("domain: unknown collection %q", c))
	}
	return s
}

// LookupLabel returns the schema whose graph label is label
func LookupLabel(label string) (*Schema, bool) {
	s, ok := byLabel[label]
	return s, ok
}

// Schemas returns every schema ordered by collection name
func Schemas() []*Schema {
	out := make([]*Schema, 0, len(catalogue))
	for _, s := range catalogue {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Collection < out[j].Collection })
	return out
}

func to(field string, target Collection, name, edge string) Relation {
	return Relation{Name: name, Field: field, Target: target, Edge: edge}
}

func toMany(field string, target Collection, name, edge string) Relation {
	return Relation{Name: name, Field: field, Target: target, Edge: edge, Many: true}
}

func required(r Relation) Relation {
	r.Required = true
	return r
}

func init() {
	define := func(s *Schema) {
		catalogue[s.Collection] = s
		byLabel[s.Label] = s
	}

	define(&Schema{Collection: Activities, Label: "Activity", Singular: "activity",
		Properties: []string{"activity"}})
	define(&Schema{Collection: ActivityExecutions, Label: "Activity Execution", Singular: "activity execution",
		Relations: []Relation{
			required(to("activity_id", Activities, "activity", "hasActivity")),
			to("arrangement_id", Arrangements, "arrangement", "hasArrangement"),
		},
		Embedded: &Embedding{Parent: Activities, Field: "activity_executions", Via: "activity_id"},
	})
	define(&Schema{Collection: Arrangements, Label: "Arrangement", Singular: "arrangement",
		Properties: []string{"arrangement_type", "arrangement_distance"}})
	define(&Schema{Collection: Appearances, Label: "Appearance", Singular: "appearance",
		Properties: []string{AppearanceTypeKey, "glasses", "beard", "moustache", "ectomorph", "endomorph", "mesomorph"}})
	define(&Schema{Collection: Channels, Label: "Channel", Singular: "channel",
		Properties: []string{"type"}})
	define(&Schema{Collection: Experiments, Label: "Experiment", Singular: "experiment",
		Properties: []string{"experiment_name"}})
	define(&Schema{Collection: LifeActivities, Label: "Life Activity", Singular: "life activity",
		Properties: []string{"life_activity"}})
	define(&Schema{Collection: LiveActivities, Label: "Live Activity", Singular: "live activity",
		Properties: []string{"live_activity"}})
	define(&Schema{Collection: Measures, Label: "Measure", Singular: "measure",
		Properties: []string{"datatype", "range", "unit"},
		Relations: []Relation{
			required(to("measure_name_id", MeasureNames, "measure_name", "hasMeasureName")),
		},
	})
	define(&Schema{Collection: MeasureNames, Label: "Measure Name", Singular: "measure name",
		Properties: []string{"name", "type"}})
	define(&Schema{Collection: Modalities, Label: "Modality", Singular: "modality",
		Properties: []string{"modality"}})
	define(&Schema{Collection: ObservableInformations, Label: "Observable Information", Singular: "observable information",
		Relations: []Relation{
			to("modality_id", Modalities, "modality", "hasModality"),
			to("life_activity_id", LifeActivities, "life_activity", "hasLifeActivity"),
			to("recording_id", Recordings, "recording", "hasRecording"),
		},
	})
	define(&Schema{Collection: Participants, Label: "Participant", Singular: "participant",
		Properties: []string{"name", "date_of_birth", "sex", "disorder"}})
	define(&Schema{Collection: ParticipantStates, Label: "Participant State", Singular: "participant state",
		Properties: []string{"age"},
		Relations: []Relation{
			to("participant_id", Participants, "participant", "hasParticipant"),
			toMany("appearance_ids", Appearances, "appearances", "hasAppearance"),
		},
	})
	define(&Schema{Collection: Participations, Label: "Participation", Singular: "participation",
		Relations: []Relation{
			to("activity_execution_id", ActivityExecutions, "activity_execution", "hasActivityExecution"),
			to("participant_state_id", ParticipantStates, "participant_state", "hasParticipantState"),
		},
	})
	define(&Schema{Collection: Recordings, Label: "Recording", Singular: "recording",
		Relations: []Relation{
			to("participation_id", Participations, "participation", "hasParticipation"),
			to("registered_channel_id", RegisteredChannels, "registered_channel", "hasRegisteredChannel"),
		},
	})
	define(&Schema{Collection: RegisteredChannels, Label: "Registered Channel", Singular: "registered channel",
		Relations: []Relation{
			to("channel_id", Channels, "channel", "hasChannel"),
			to("registered_data_id", RegisteredData, "registered_data", "hasRegisteredData"),
		},
	})
	define(&Schema{Collection: RegisteredData, Label: "Registered Data", Singular: "registered data",
		Properties: []string{"source"}})
	define(&Schema{Collection: Scenarios, Label: "Scenario", Singular: "scenario",
		Relations: []Relation{
			required(to("experiment_id", Experiments, "experiment", "hasExperiment")),
			toMany("activity_execution_ids", ActivityExecutions, "activity_executions", "hasActivityExecution"),
		},
	})
	define(&Schema{Collection: TimeSeriesCollection, Label: "Time Series", Singular: "time series",
		Properties: []string{"type", "source"},
		Payload:    []string{SignalValuesKey},
		Relations: []Relation{
			to("measure_id", Measures, "measure", "hasMeasure"),
			toMany("observable_information_ids", ObservableInformations, "observable_informations", "hasObservableInformation"),
		},
	})

	// Every forward relation is visible from its target as a to-many list
	// named after the owning collection.
	for _, owner := range Schemas() {
		for _, r := range owner.Forward() {
			target := catalogue[r.Target]
			target.Relations = append(target.Relations, Relation{
				Name:    string(owner.Collection),
				Field:   r.Field,
				Target:  owner.Collection,
				Edge:    r.Edge,
				Many:    true,
				Reverse: true,
			})
		}
	}
}
