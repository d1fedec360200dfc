package transform

import (
	"sort"

	"grisera/internal/domain"
)

// Multidimensional merges several series of the same type into one whose
// values are lists holding, per source, the latest value at or before each
// point. Sources that have not started yet contribute null.
type Multidimensional struct{}

func (Multidimensional) Name() string {
	return "multidimensional"
}

type point struct {
	start, end int64
}

func (Multidimensional) Transform(sources []domain.TimeSeries, _ domain.Properties) (Output, error) {
	if len(sources) == 0 {
		return Output{}, domain.Invalid("at least one source time series is required")
	}
	kind := sources[0].Type
	if err := requireType(sources, kind); err != nil {
		return Output{}, err
	}

	sorted := make([][]domain.Signal, len(sources))
	seen := map[point]bool{}
	var points []point
	for i, ts := range sources {
		sorted[i] = ts.SortedSignals()
		for _, sig := range sorted[i] {
			p := point{sig.Start(), sig.End()}
			if !seen[p] {
				seen[p] = true
				points = append(points, p)
			}
		}
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].start != points[j].start {
			return points[i].start < points[j].start
		}
		return points[i].end < points[j].end
	})

	out := Output{Type: kind}
	cursor := make([]int, len(sources))
	for _, p := range points {
		values := make([]any, len(sources))
		origins := []string{}
		for i, signals := range sorted {
			for cursor[i] < len(signals) && signals[cursor[i]].Start() <= p.start {
				cursor[i]++
			}
			if cursor[i] == 0 {
				continue
			}
			latest := signals[cursor[i]-1].SignalValue
			values[i] = latest.Value
			if latest.ID != "" {
				origins = append(origins, latest.ID)
			}
		}
		var sig domain.Signal
		if kind == domain.TimeSeriesEpoch {
			sig = domain.Between(p.start, p.end, values)
		} else {
			sig = domain.At(p.start, values)
		}
		out.Signals = append(out.Signals, sig)
		out.Origins = append(out.Origins, origins)
	}
	return out, nil
}
