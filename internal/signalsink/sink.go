// Package signalsink mirrors time series signal values into a time-series
// database after they are persisted. Mirroring is best effort; the
// repository stays the source of truth.
package signalsink

import (
	"context"
	"fmt"
	"time"

	"grisera/internal/config"
	"grisera/internal/domain"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the InfluxDB measurement signal values are written to
const Measurement = "signal_values"

// Sink receives the signal values of a saved time series
type Sink interface {
	Write(ctx context.Context, ts domain.TimeSeries) error
	Close()
}

// Nop discards everything
type Nop struct{}

func (Nop) Write(context.Context, domain.TimeSeries) error {
	return nil
}

func (Nop) Close() {}

// Influx writes points through the blocking write API
type Influx struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

// New returns an Influx sink when cfg is enabled and Nop otherwise
func New(cfg config.InfluxConfig) Sink {
	if !cfg.Enabled() {
		return Nop{}
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{client: client, write: client.WriteAPIBlocking(cfg.Org, cfg.Bucket)}
}

// Write sends one point per numeric signal value
func (s *Influx) Write(ctx context.Context, ts domain.TimeSeries) error {
	points := Points(ts)
	if len(points) == 0 {
		return nil
	}
	if err := s.write.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write %d points for series %s: %w", len(points), ts.ID, err)
	}
	return nil
}

// Close releases the client
func (s *Influx) Close() {
	s.client.Close()
}

// Points converts the numeric signal values of ts into points tagged with the
// series id. Timestamps are taken as milliseconds; epoch signals carry their
// end as a field. Non-numeric values are skipped.
func Points(ts domain.TimeSeries) []*write.Point {
	var points []*write.Point
	for _, sig := range ts.SignalValues {
		v, ok := domain.Number(sig.SignalValue.Value)
		if !ok {
			continue
		}
		fields := map[string]interface{}{"value": v}
		if sig.EndTimestamp != nil {
			fields["end_timestamp"] = *sig.EndTimestamp
		}
		points = append(points, influxdb2.NewPoint(
			Measurement,
			map[string]string{
				"time_series_id":  ts.ID,
				"type":            string(ts.Type),
				"signal_value_id": sig.SignalValue.ID,
			},
			fields,
			time.UnixMilli(sig.Start()),
		))
	}
	return points
}
