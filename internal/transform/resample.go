package transform

import (
	"math"

	"grisera/internal/domain"
)

// MaxResampleSteps bounds the number of values one resample may produce
const MaxResampleSteps = 100_000

// ResampleNearest resamples one Timestamp series at a fixed period. Each new
// value copies the nearest source value; ties go to the earlier one.
//
// Properties: period (required, > 0), start and end (default to the first and
// last source timestamps).
type ResampleNearest struct{}

func (ResampleNearest) Name() string {
	return "resample_nearest"
}

func (ResampleNearest) Transform(sources []domain.TimeSeries, props domain.Properties) (Output, error) {
	if len(sources) != 1 {
		return Output{}, domain.Invalid("resample_nearest takes exactly one source time series")
	}
	if err := requireType(sources, domain.TimeSeriesTimestamp); err != nil {
		return Output{}, err
	}
	period, ok := props.Float("period")
	if !ok || period <= 0 || math.IsInf(period, 0) || math.IsNaN(period) {
		return Output{}, domain.Invalid("period must be a positive number")
	}
	signals := sources[0].SortedSignals()
	if len(signals) == 0 {
		return Output{}, domain.Invalid("source time series has no signal values")
	}

	start := float64(signals[0].Start())
	if v, ok := props.Float("start"); ok {
		start = v
	}
	end := float64(signals[len(signals)-1].Start())
	if v, ok := props.Float("end"); ok {
		end = v
	}
	if !finite(start) || !finite(end) {
		return Output{}, domain.Invalid("start and end must be finite numbers")
	}
	if end < start {
		return Output{}, domain.Invalid("end is before start")
	}
	if start+period == start {
		return Output{}, domain.Invalid("period is too small for the time range")
	}
	steps := math.Floor((end-start)/period) + 1
	if steps > MaxResampleSteps {
		return Output{}, domain.Invalid("resampling would produce more than %d values", MaxResampleSteps)
	}
	n := int(steps)

	out := Output{
		Type:    domain.TimeSeriesTimestamp,
		Signals: make([]domain.Signal, 0, n),
		Origins: make([][]string, 0, n),
	}
	i := 0
	for k := 0; k < n; k++ {
		at := int64(math.Round(start + float64(k)*period))
		for i+1 < len(signals) && signals[i+1].Start() <= at {
			i++
		}
		nearest := signals[i]
		if i+1 < len(signals) && signals[i+1].Start()-at < abs(at-nearest.Start()) {
			nearest = signals[i+1]
		}
		out.Signals = append(out.Signals, domain.At(at, nearest.SignalValue.Value))
		out.Origins = append(out.Origins, idsOf(nearest))
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func idsOf(signals ...domain.Signal) []string {
	ids := []string{}
	for _, s := range signals {
		if s.SignalValue.ID != "" {
			ids = append(ids, s.SignalValue.ID)
		}
	}
	return ids
}
