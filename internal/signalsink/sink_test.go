package signalsink

import (
	"context"
	"testing"
	"time"

	"grisera/internal/config"
	"grisera/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisabled(t *testing.T) {
	s := New(config.InfluxConfig{})
	assert.IsType(t, Nop{}, s)
	assert.NoError(t, s.Write(context.Background(), domain.TimeSeries{}))
	s.Close()
}

func TestNewEnabled(t *testing.T) {
	s := New(config.InfluxConfig{URL: "http://localhost:8086", Org: "lab", Bucket: "grisera"})
	defer s.Close()
	assert.IsType(t, &Influx{}, s)
}

func TestPoints(t *testing.T) {
	a := domain.At(1500, 2.5)
	a.SignalValue.ID = "v1"
	text := domain.At(1600, "smile")
	epoch := domain.Between(2000, 3000, 7)
	epoch.SignalValue.ID = "v3"

	points := Points(domain.TimeSeries{ID: "ts1", Type: domain.TimeSeriesTimestamp, SignalValues: []domain.Signal{a, text, epoch}})
	require.Len(t, points, 2)

	first := points[0]
	assert.Equal(t, Measurement, first.Name())
	assert.Equal(t, time.UnixMilli(1500), first.Time())
	tags := map[string]string{}
	for _, tag := range first.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"time_series_id": "ts1", "type": "Timestamp", "signal_value_id": "v1"}, tags)
	require.Len(t, first.FieldList(), 1)
	assert.Equal(t, 2.5, first.FieldList()[0].Value)

	fields := map[string]any{}
	for _, f := range points[1].FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, map[string]any{"value": 7.0, "end_timestamp": int64(3000)}, fields)
}
