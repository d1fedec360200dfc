package transform

import (
	"fmt"
	"testing"
	"time"

	"grisera/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signal(id string, ts int64, v any) domain.Signal {
	s := domain.At(ts, v)
	s.SignalValue.ID = id
	return s
}

func series(id string, signals ...domain.Signal) domain.TimeSeries {
	return domain.TimeSeries{ID: id, Type: domain.TimeSeriesTimestamp, SignalValues: signals}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}
}

func values(out Output) []any {
	vs := make([]any, len(out.Signals))
	for i, s := range out.Signals {
		vs[i] = s.SignalValue.Value
	}
	return vs
}

func starts(out Output) []int64 {
	ts := make([]int64, len(out.Signals))
	for i, s := range out.Signals {
		ts[i] = s.Start()
	}
	return ts
}

func TestRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"multidimensional", "quadrants", "resample_nearest"}, r.Names())
	_, ok := r.Lookup("fourier")
	assert.False(t, ok)

	_, _, err := r.Run("fourier", nil, nil, sequentialIDs())
	var invalid *domain.ValidationError
	assert.ErrorAs(t, err, &invalid)
}

func TestRunAssignsIDsAndMapping(t *testing.T) {
	src := series("a", signal("a1", 1, 10), signal("a2", 3, 30))
	props := domain.Properties{{Key: "period", Value: 1}}

	ts, mapping, err := Default().Run("resample_nearest", []domain.TimeSeries{src}, props, sequentialIDs())
	require.NoError(t, err)
	assert.Equal(t, domain.TimeSeriesTimestamp, ts.Type)
	assert.Equal(t, props, ts.AdditionalProperties)
	require.Len(t, ts.SignalValues, 3)
	assert.Equal(t, "n1", ts.SignalValues[0].SignalValue.ID)
	assert.Equal(t, map[string][]string{"n1": {"a1"}, "n2": {"a1"}, "n3": {"a2"}}, mapping)
}

func TestMultidimensionalTimestamp(t *testing.T) {
	a := series("a", signal("a1", 1, 10), signal("a2", 3, 30))
	b := series("b", signal("b1", 2, "x"))

	out, err := Multidimensional{}.Transform([]domain.TimeSeries{a, b}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, starts(out))
	assert.Equal(t, []any{
		[]any{10, nil},
		[]any{10, "x"},
		[]any{30, "x"},
	}, values(out))
	assert.Equal(t, [][]string{{"a1"}, {"a1", "b1"}, {"a2", "b1"}}, out.Origins)
}

func TestMultidimensionalEpoch(t *testing.T) {
	a := domain.TimeSeries{ID: "a", Type: domain.TimeSeriesEpoch, SignalValues: []domain.Signal{
		domain.Between(0, 10, 1),
		domain.Between(10, 20, 2),
	}}
	b := domain.TimeSeries{ID: "b", Type: domain.TimeSeriesEpoch, SignalValues: []domain.Signal{
		domain.Between(5, 15, 9),
	}}

	out, err := Multidimensional{}.Transform([]domain.TimeSeries{a, b}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TimeSeriesEpoch, out.Type)
	require.Len(t, out.Signals, 3)
	assert.Equal(t, int64(15), out.Signals[1].End())
	assert.Equal(t, []any{[]any{1, nil}, []any{1, 9}, []any{2, 9}}, values(out))
}

func TestMultidimensionalRejectsMixedTypes(t *testing.T) {
	a := series("a", signal("a1", 1, 1))
	b := domain.TimeSeries{ID: "b", Type: domain.TimeSeriesEpoch}
	_, err := Multidimensional{}.Transform([]domain.TimeSeries{a, b}, nil)
	assert.Error(t, err)

	_, err = Multidimensional{}.Transform(nil, nil)
	assert.Error(t, err)
}

func TestResampleNearest(t *testing.T) {
	src := series("a", signal("a1", 0, 1), signal("a2", 10, 2), signal("a3", 20, 3))

	tests := []struct {
		name   string
		props  domain.Properties
		starts []int64
		values []any
	}{
		{"period", domain.Properties{{Key: "period", Value: 5}}, []int64{0, 5, 10, 15, 20}, []any{1, 1, 2, 2, 3}},
		{"window", domain.Properties{{Key: "period", Value: "4"}, {Key: "start", Value: 6}, {Key: "end", Value: 14}}, []int64{6, 10, 14}, []any{2, 2, 2}},
		{"before first", domain.Properties{{Key: "period", Value: 100}, {Key: "start", Value: -3}, {Key: "end", Value: -3}}, []int64{-3}, []any{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ResampleNearest{}.Transform([]domain.TimeSeries{src}, tt.props)
			require.NoError(t, err)
			assert.Equal(t, tt.starts, starts(out))
			assert.Equal(t, tt.values, values(out))
		})
	}
}

func TestResampleNearestErrors(t *testing.T) {
	src := series("a", signal("a1", 0, 1))
	period := domain.Properties{{Key: "period", Value: 1}}

	_, err := ResampleNearest{}.Transform(nil, period)
	assert.Error(t, err)
	_, err = ResampleNearest{}.Transform([]domain.TimeSeries{src}, nil)
	assert.Error(t, err)
	_, err = ResampleNearest{}.Transform([]domain.TimeSeries{src}, domain.Properties{{Key: "period", Value: 0}})
	assert.Error(t, err)
	_, err = ResampleNearest{}.Transform([]domain.TimeSeries{series("e")}, period)
	assert.Error(t, err)
	_, err = ResampleNearest{}.Transform([]domain.TimeSeries{src}, domain.Properties{{Key: "period", Value: 1}, {Key: "end", Value: -1}})
	assert.Error(t, err)
}

func TestResampleNearestBoundsSteps(t *testing.T) {
	src := series("a", signal("a1", 1_700_000_000_000, 1), signal("a2", 1_700_000_000_010, 2))

	tests := []struct {
		name  string
		props domain.Properties
		want  string
	}{
		{
			name:  "period below timestamp resolution",
			props: domain.Properties{{Key: "period", Value: 1e-6}},
			want:  "period is too small",
		},
		{
			name:  "too many steps",
			props: domain.Properties{{Key: "period", Value: 1}, {Key: "start", Value: 0}},
			want:  "more than 100000 values",
		},
		{
			name:  "infinite end",
			props: domain.Properties{{Key: "period", Value: 1}, {Key: "end", Value: "+Inf"}},
			want:  "finite",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan error, 1)
			go func() {
				_, err := ResampleNearest{}.Transform([]domain.TimeSeries{src}, tt.props)
				done <- err
			}()
			select {
			case err := <-done:
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Message, tt.want)
			case <-time.After(2 * time.Second):
				t.Fatal("resample did not return")
			}
		})
	}

	out, err := ResampleNearest{}.Transform([]domain.TimeSeries{src}, domain.Properties{{Key: "period", Value: 5}})
	require.NoError(t, err)
	assert.Equal(t, []int64{1_700_000_000_000, 1_700_000_000_005, 1_700_000_000_010}, starts(out))
}

func TestQuadrant(t *testing.T) {
	tests := []struct {
		x, y float64
		want int
	}{
		{1, 1, 1}, {-1, 1, 2}, {-1, -1, 3}, {1, -1, 4},
		{0, 0, 1}, {0, 1, 1}, {1, 0, 1}, {-1, 0, 2}, {0, -1, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quadrant(tt.x, tt.y), "(%v, %v)", tt.x, tt.y)
	}
}

func TestQuadrants(t *testing.T) {
	x := series("x", signal("x1", 1, 5), signal("x2", 3, -5))
	y := series("y", signal("y1", 2, 5), signal("y2", 4, "n/a"))
	props := domain.Properties{{Key: "origin_x", Value: 0}, {Key: "origin_y", Value: 0}}

	out, err := Quadrants{}.Transform([]domain.TimeSeries{x, y}, props)
	require.NoError(t, err)
	// t=1 has no y yet and t=4 has a non-numeric y
	assert.Equal(t, []int64{2, 3}, starts(out))
	assert.Equal(t, []any{1, 2}, values(out))
	assert.Equal(t, [][]string{{"x1", "y1"}, {"x2", "y1"}}, out.Origins)

	shifted, err := Quadrants{}.Transform([]domain.TimeSeries{x, y}, domain.Properties{{Key: "origin_y", Value: 10}})
	require.NoError(t, err)
	assert.Equal(t, []any{4, 3}, values(shifted))

	_, err = Quadrants{}.Transform([]domain.TimeSeries{x}, props)
	assert.Error(t, err)
}
