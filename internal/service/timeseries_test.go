package service

import (
	"context"
	"testing"

	"grisera/internal/domain"
	"grisera/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesIn(values ...float64) domain.TimeSeriesIn {
	in := domain.TimeSeriesIn{
		TimeSeriesPropertyIn: domain.TimeSeriesPropertyIn{Type: domain.TimeSeriesTimestamp},
	}
	for i, v := range values {
		in.SignalValues = append(in.SignalValues, domain.At(int64(i+1)*10, v))
	}
	return in
}

func signalValues(t *testing.T, doc domain.Document) []float64 {
	t.Helper()
	var ts domain.TimeSeries
	require.NoError(t, doc.Decode(&ts))
	out := make([]float64, 0, len(ts.SignalValues))
	for _, sig := range ts.SignalValues {
		f, ok := domain.Number(sig.SignalValue.Value)
		require.True(t, ok)
		out = append(out, f)
	}
	return out
}

func TestTimeSeriesSave(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ backend, reg *Registry) {
		ctx := context.Background()

		info, err := reg.Entity(domain.ObservableInformations).Save(ctx, domain.ObservableInformationIn{})
		require.NoError(t, err)

		in := seriesIn(1, 2)
		in.ObservableInformationID = info.ID()
		saved, err := reg.TimeSeries.Save(ctx, in)
		require.NoError(t, err)

		assert.Equal(t, []string{info.ID()}, saved.IDs("observable_information_ids"))
		var ts domain.TimeSeries
		require.NoError(t, saved.Decode(&ts))
		require.Len(t, ts.SignalValues, 2)
		assert.Equal(t, "sv-1", ts.SignalValues[0].SignalValue.ID)
		assert.Equal(t, "sv-2", ts.SignalValues[1].SignalValue.ID)
		assert.Equal(t, int64(10), ts.SignalValues[0].Start())
	})
}

func TestTimeSeriesSaveRejectsUnknownType(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ backend, reg *Registry) {

		in := seriesIn(1)
		in.Type = "Sample"
		_, err := reg.TimeSeries.Save(context.Background(), in)
		verr := requireValidation(t, err)
		assert.Contains(t, verr.Fields, "type")
	})
}

func TestTimeSeriesBounds(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ backend, reg *Registry) {
		ctx := context.Background()

		saved, err := reg.TimeSeries.Save(ctx, seriesIn(1, 2, 3, 4))
		require.NoError(t, err)

		low, high := 2.0, 3.0
		res, err := reg.TimeSeries.GetFiltered(ctx, saved.ID(), 0, domain.NoSource, domain.SignalBounds{Min: &low, Max: &high})
		require.NoError(t, err)
		require.True(t, res.IsFound())
		assert.Equal(t, []float64{2, 3}, signalValues(t, res.Document()))

		res, err = reg.TimeSeries.GetFiltered(ctx, saved.ID(), 0, domain.NoSource, domain.SignalBounds{})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3, 4}, signalValues(t, res.Document()))
	})
}

func TestTimeSeriesListOmitsSignalValues(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ backend, reg *Registry) {
		ctx := context.Background()

		_, err := reg.TimeSeries.Save(ctx, seriesIn(1, 2))
		require.NoError(t, err)

		list, err := reg.TimeSeries.List(ctx, repository.Query{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.NotContains(t, list[0], domain.SignalValuesKey)
		assert.Equal(t, string(domain.TimeSeriesTimestamp), list[0].String("type"))
	})
}

func TestTimeSeriesUpdatePropertiesKeepsSignals(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ backend, reg *Registry) {
		ctx := context.Background()

		saved, err := reg.TimeSeries.Save(ctx, seriesIn(5, 6))
		require.NoError(t, err)

		res, err := reg.TimeSeries.UpdateProperties(ctx, saved.ID(), domain.TimeSeriesPropertyIn{
			Type:   domain.TimeSeriesEpoch,
			Source: "camera",
		})
		require.NoError(t, err)
		require.True(t, res.IsFound())
		assert.Equal(t, "camera", res.Document().String("source"))
		assert.Equal(t, []float64{5, 6}, signalValues(t, res.Document()))
	})
}

func TestMultidimensional(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ backend, reg *Registry) {
		ctx := context.Background()

		a, err := reg.TimeSeries.Save(ctx, seriesIn(1, 2))
		require.NoError(t, err)
		b, err := reg.TimeSeries.Save(ctx, seriesIn(7))
		require.NoError(t, err)

		res, err := reg.TimeSeries.Multidimensional(ctx, []string{a.ID(), b.ID()})
		require.NoError(t, err)
		require.True(t, res.IsFound())
		doc := res.Document()

		var merged domain.TimeSeries
		require.NoError(t, doc.Decode(&merged))
		require.Len(t, merged.SignalValues, 2)
		assert.Equal(t, []any{float64(1), float64(7)}, merged.SignalValues[0].SignalValue.Value)
		assert.Equal(t, []any{float64(2), float64(7)}, merged.SignalValues[1].SignalValue.Value)

		sources := doc.Documents(string(domain.TimeSeriesCollection))
		require.Len(t, sources, 2)
		assert.NotContains(t, sources[0], domain.SignalValuesKey)

		mapping, ok := doc["signal_value_mapping"].(map[string][]string)
		require.True(t, ok)
		assert.Len(t, mapping, 2)

		res, err = reg.TimeSeries.Multidimensional(ctx, []string{a.ID(), "999999"})
		require.NoError(t, err)
		assert.Equal(t, "999999", res.NotFound().ID)

		_, err = reg.TimeSeries.Multidimensional(ctx, nil)
		requireValidation(t, err)
	})
}

func TestTransformUnknownNameStoresNothing(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ backend, reg *Registry) {
		ctx := context.Background()

		a, err := reg.TimeSeries.Save(ctx, seriesIn(1))
		require.NoError(t, err)

		_, err = reg.TimeSeries.Transform(ctx, domain.TransformationIn{
			Name:                "fourier",
			SourceTimeSeriesIDs: []string{a.ID()},
		})
		verr := requireValidation(t, err)
		assert.Contains(t, verr.Message, "fourier")
		assert.Equal(t, 1, count(t, reg.TimeSeries.Entity))
	})
}

func TestTransformMissingSource(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ backend, reg *Registry) {

		_, err := reg.TimeSeries.Transform(context.Background(), domain.TransformationIn{
			Name:                "multidimensional",
			SourceTimeSeriesIDs: []string{"999999"},
		})
		verr := requireValidation(t, err)
		assert.Equal(t, "given time series does not exist", verr.Message)
		assert.Zero(t, count(t, reg.TimeSeries.Entity))
	})
}

func TestTransformMissingDestination(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ backend, reg *Registry) {
		ctx := context.Background()

		a, err := reg.TimeSeries.Save(ctx, seriesIn(1))
		require.NoError(t, err)

		_, err = reg.TimeSeries.Transform(ctx, domain.TransformationIn{
			Name:                 "multidimensional",
			SourceTimeSeriesIDs:  []string{a.ID()},
			DestinationMeasureID: "999999",
		})
		verr := requireValidation(t, err)
		assert.Equal(t, "given measure does not exist", verr.Message)
		assert.Equal(t, 1, count(t, reg.TimeSeries.Entity))
	})
}

func TestTransformStoresResult(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ backend, reg *Registry) {
		ctx := context.Background()

		info, err := reg.Entity(domain.ObservableInformations).Save(ctx, domain.ObservableInformationIn{})
		require.NoError(t, err)
		a, err := reg.TimeSeries.Save(ctx, seriesIn(1, 2))
		require.NoError(t, err)
		b, err := reg.TimeSeries.Save(ctx, seriesIn(3, 4))
		require.NoError(t, err)

		out, err := reg.TimeSeries.Transform(ctx, domain.TransformationIn{
			Name:                                "multidimensional",
			SourceTimeSeriesIDs:                 []string{a.ID(), b.ID()},
			DestinationObservableInformationIDs: []string{info.ID()},
		})
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, []string{info.ID()}, out.TimeSeries.IDs("observable_information_ids"))
		assert.Equal(t, 3, count(t, reg.TimeSeries.Entity))

		var ts domain.TimeSeries
		require.NoError(t, out.TimeSeries.Decode(&ts))
		require.Len(t, ts.SignalValues, 2)
		for _, sig := range ts.SignalValues {
			origins, ok := out.SignalValueMapping[sig.SignalValue.ID]
			require.True(t, ok, sig.SignalValue.ID)
			assert.Len(t, origins, 2)
		}

		stored, err := reg.TimeSeries.Get(ctx, out.TimeSeries.ID(), 0, domain.NoSource)
		require.NoError(t, err)
		assert.True(t, stored.IsFound())
	})
}
