package domain

import "sort"

// TimeSeriesType distinguishes point samples from interval samples
type TimeSeriesType string

const (
	TimeSeriesTimestamp TimeSeriesType = "Timestamp"
	TimeSeriesEpoch     TimeSeriesType = "Epoch"
)

// SignalValuesKey is the payload field of a time series document
const SignalValuesKey = "signal_values"

// SignalValue is one sampled value. Value may be a number, a string or, for
// multidimensional series, a list.
type SignalValue struct {
	ID                   string     `json:"id,omitempty"`
	Value                any        `json:"value"`
	AdditionalProperties Properties `json:"additional_properties,omitempty" validate:"omitempty,dive"`
}

// Signal positions a SignalValue in time. Timestamp series set Timestamp,
// Epoch series set StartTimestamp and EndTimestamp.
type Signal struct {
	Timestamp      *int64      `json:"timestamp,omitempty"`
	StartTimestamp *int64      `json:"start_timestamp,omitempty"`
	EndTimestamp   *int64      `json:"end_timestamp,omitempty"`
	SignalValue    SignalValue `json:"signal_value"`
}

// At returns a Timestamp signal
func At(ts int64, value any) Signal {
	return Signal{Timestamp: &ts, SignalValue: SignalValue{Value: value}}
}

// Between returns an Epoch signal
func Between(start, end int64, value any) Signal {
	return Signal{StartTimestamp: &start, EndTimestamp: &end, SignalValue: SignalValue{Value: value}}
}

// Start returns the instant the signal begins at
func (s Signal) Start() int64 {
	if s.Timestamp != nil {
		return *s.Timestamp
	}
	if s.StartTimestamp != nil {
		return *s.StartTimestamp
	}
	return 0
}

// End returns the instant the signal ends at
func (s Signal) End() int64 {
	if s.EndTimestamp != nil {
		return *s.EndTimestamp
	}
	return s.Start()
}

// TimeSeries is the typed view of a time series document used by
// transformations and signal sinks.
type TimeSeries struct {
	ID                   string         `json:"id,omitempty"`
	Type                 TimeSeriesType `json:"type"`
	Source               string         `json:"source,omitempty"`
	SignalValues         []Signal       `json:"signal_values"`
	AdditionalProperties Properties     `json:"additional_properties,omitempty"`
}

// SortedSignals returns the signals ordered by start then end
func (ts TimeSeries) SortedSignals() []Signal {
	out := make([]Signal, len(ts.SignalValues))
	copy(out, ts.SignalValues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start() != out[j].Start() {
			return out[i].Start() < out[j].Start()
		}
		return out[i].End() < out[j].End()
	})
	return out
}

type TimeSeriesPropertyIn struct {
	Type         TimeSeriesType `json:"type" validate:"required,oneof=Timestamp Epoch"`
	Source       string         `json:"source,omitempty"`
	SignalValues []Signal       `json:"signal_values,omitempty" validate:"omitempty,dive"`
	Extra
}

// TimeSeriesRelationIn accepts a single observable_information_id for
// compatibility; it is folded into observable_information_ids.
type TimeSeriesRelationIn struct {
	MeasureID                string   `json:"measure_id,omitempty"`
	ObservableInformationID  string   `json:"observable_information_id,omitempty"`
	ObservableInformationIDs []string `json:"observable_information_ids,omitempty"`
}

// Normalize folds ObservableInformationID into ObservableInformationIDs
func (r *TimeSeriesRelationIn) Normalize() {
	if len(r.ObservableInformationIDs) == 0 && r.ObservableInformationID != "" {
		r.ObservableInformationIDs = []string{r.ObservableInformationID}
	}
	r.ObservableInformationID = ""
}

type TimeSeriesIn struct {
	TimeSeriesPropertyIn
	TimeSeriesRelationIn
}

// SignalBounds filters signal values by numeric value on reads
type SignalBounds struct {
	Min *float64
	Max *float64
}

// Active reports whether any bound is set
func (b SignalBounds) Active() bool {
	return b.Min != nil || b.Max != nil
}

// Contains reports whether value lies within the bounds. Non-numeric values
// never satisfy an active bound.
func (b SignalBounds) Contains(value any) bool {
	if !b.Active() {
		return true
	}
	f, ok := Number(value)
	if !ok {
		return false
	}
	if b.Min != nil && f < *b.Min {
		return false
	}
	if b.Max != nil && f > *b.Max {
		return false
	}
	return true
}

// TransformationIn requests a new time series derived from existing ones
type TransformationIn struct {
	Name                                string     `json:"name" validate:"required"`
	SourceTimeSeriesIDs                 []string   `json:"source_time_series_ids" validate:"required,min=1"`
	DestinationMeasureID                string     `json:"destination_measure_id,omitempty"`
	DestinationObservableInformationIDs []string   `json:"destination_observable_information_ids,omitempty"`
	AdditionalProperties                Properties `json:"additional_properties,omitempty" validate:"omitempty,dive"`
}

// TransformationOut is the persisted series with its provenance
type TransformationOut struct {
	TimeSeries         Document            `json:"time_series"`
	SignalValueMapping map[string][]string `json:"signal_value_mapping"`
}
