package transform

import (
	"grisera/internal/domain"
)

// Quadrants pairs two Timestamp series as x and y coordinates and maps each
// merged point to the quadrant it falls in relative to (origin_x, origin_y).
// Points on an axis belong to the lower-numbered neighbouring quadrant.
// Points where either coordinate is missing or not numeric are dropped.
type Quadrants struct{}

func (Quadrants) Name() string {
	return "quadrants"
}

func (Quadrants) Transform(sources []domain.TimeSeries, props domain.Properties) (Output, error) {
	if len(sources) != 2 {
		return Output{}, domain.Invalid("quadrants takes exactly two source time series")
	}
	if err := requireType(sources, domain.TimeSeriesTimestamp); err != nil {
		return Output{}, err
	}
	ox, _ := props.Float("origin_x")
	oy, _ := props.Float("origin_y")

	merged, err := Multidimensional{}.Transform(sources, nil)
	if err != nil {
		return Output{}, err
	}
	out := Output{Type: domain.TimeSeriesTimestamp}
	for i, sig := range merged.Signals {
		values := sig.SignalValue.Value.([]any)
		x, okX := domain.Number(values[0])
		y, okY := domain.Number(values[1])
		if !okX || !okY {
			continue
		}
		out.Signals = append(out.Signals, domain.At(sig.Start(), Quadrant(x-ox, y-oy)))
		out.Origins = append(out.Origins, merged.Origins[i])
	}
	return out, nil
}

// Quadrant returns the quadrant 1..4 of (x, y) around the origin
func Quadrant(x, y float64) int {
	switch {
	case y >= 0 && x >= 0:
		return 1
	case y >= 0:
		return 2
	case x > 0:
		return 4
	default:
		return 3
	}
}
