package service

import (
	"context"

	"grisera/internal/domain"
	"grisera/internal/repository"
	"grisera/internal/signalsink"
	"grisera/internal/transform"
)

// TimeSeriesService adds signal value handling and transformations to the
// time series CRUD
type TimeSeriesService struct {
	*Entity
	transforms *transform.Registry
	sink       signalsink.Sink
	newID      func() string
}

// Save creates a time series. A single observable_information_id is folded
// into observable_information_ids and every signal value gets an id.
func (s *TimeSeriesService) Save(ctx context.Context, in domain.TimeSeriesIn) (domain.Document, error) {
	in.Normalize()
	if err := Validate(in); err != nil {
		return nil, err
	}
	for i := range in.SignalValues {
		if in.SignalValues[i].SignalValue.ID == "" {
			in.SignalValues[i].SignalValue.ID = s.newID()
		}
	}
	doc, err := domain.ToDocument(in)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, doc)
}

func (s *TimeSeriesService) save(ctx context.Context, doc domain.Document) (domain.Document, error) {
	saved, err := s.SaveDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.mirror(ctx, saved)
	return saved, nil
}

// mirror forwards the signal values to the sink. Failures are logged only.
func (s *TimeSeriesService) mirror(ctx context.Context, doc domain.Document) {
	var ts domain.TimeSeries
	if err := doc.Decode(&ts); err != nil {
		s.log.Warn("cannot decode time series for signal sink", "id", doc.ID(), "error", err)
		return
	}
	if err := s.sink.Write(ctx, ts); err != nil {
		s.log.Warn("signal sink write failed", "id", doc.ID(), "error", err)
	}
}

// GetFiltered reads a time series keeping only the signal values within
// bounds
func (s *TimeSeriesService) GetFiltered(ctx context.Context, id string, depth int, source domain.Collection, bounds domain.SignalBounds) (domain.Result, error) {
	res, err := s.Get(ctx, id, depth, source)
	if err != nil || !res.IsFound() || !bounds.Active() {
		return res, err
	}
	doc := res.Document()
	kept := []any{}
	for _, sig := range doc.Documents(domain.SignalValuesKey) {
		value, _ := sig["signal_value"].(map[string]any)
		if bounds.Contains(value["value"]) {
			kept = append(kept, sig)
		}
	}
	doc[domain.SignalValuesKey] = kept
	return res, nil
}

// List returns time series without their signal values
func (s *TimeSeriesService) List(ctx context.Context, q repository.Query) ([]domain.Document, error) {
	q.Omit = append(q.Omit, domain.SignalValuesKey)
	return s.Entity.List(ctx, q)
}

// UpdateProperties replaces type, source and additional properties. Signal
// values are left untouched.
func (s *TimeSeriesService) UpdateProperties(ctx context.Context, id string, in domain.TimeSeriesPropertyIn) (domain.Result, error) {
	if err := Validate(in); err != nil {
		return domain.Result{}, err
	}
	props, err := domain.ToDocument(in)
	if err != nil {
		return domain.Result{}, err
	}
	delete(props, domain.SignalValuesKey)
	return s.UpdatePropertiesDocument(ctx, id, props)
}

// UpdateRelationships replaces the measure and observable informations
func (s *TimeSeriesService) UpdateRelationships(ctx context.Context, id string, in domain.TimeSeriesRelationIn) (domain.Result, error) {
	in.Normalize()
	return s.Entity.UpdateRelationships(ctx, id, in)
}

// sources loads time series by id. The first missing id is returned as a
// not-found result.
func (s *TimeSeriesService) sources(ctx context.Context, ids []string) ([]domain.TimeSeries, []domain.Document, domain.Result, error) {
	series := make([]domain.TimeSeries, 0, len(ids))
	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		res, err := s.Get(ctx, id, 0, domain.NoSource)
		if err != nil || !res.IsFound() {
			return nil, nil, res, err
		}
		var ts domain.TimeSeries
		if err := res.Document().Decode(&ts); err != nil {
			return nil, nil, domain.Result{}, err
		}
		series = append(series, ts)
		docs = append(docs, res.Document())
	}
	return series, docs, domain.Result{}, nil
}

// Multidimensional merges the given series without storing the result. The
// returned document holds the merged signal values, their provenance and the
// sources without their own values.
func (s *TimeSeriesService) Multidimensional(ctx context.Context, ids []string) (domain.Result, error) {
	if len(ids) == 0 {
		return domain.Result{}, domain.Invalid("at least one time series id is required")
	}
	series, docs, missing, err := s.sources(ctx, ids)
	if err != nil {
		return domain.Result{}, err
	}
	if series == nil {
		return missing, nil
	}
	merged, mapping, err := s.transforms.Run(transform.Multidimensional{}.Name(), series, nil, s.newID)
	if err != nil {
		return domain.Result{}, err
	}
	doc, err := domain.ToDocument(merged)
	if err != nil {
		return domain.Result{}, err
	}
	sources := make([]domain.Document, len(docs))
	for i, d := range docs {
		sources[i] = d.Without(domain.SignalValuesKey)
	}
	doc[string(domain.TimeSeriesCollection)] = sources
	doc["signal_value_mapping"] = mapping
	return domain.Found(doc), nil
}

// Transform runs a registered transformation over existing series and stores
// the result. Unknown transformations, missing sources and missing
// destinations are rejected before anything is written.
func (s *TimeSeriesService) Transform(ctx context.Context, in domain.TransformationIn) (*domain.TransformationOut, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	if _, ok := s.transforms.Lookup(in.Name); !ok {
		return nil, domain.Invalid("unknown transformation %q", in.Name)
	}
	series, _, _, err := s.sources(ctx, in.SourceTimeSeriesIDs)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, domain.MissingRelation(s.schema)
	}

	rels := domain.Document{}
	if in.DestinationMeasureID != "" {
		rels["measure_id"] = in.DestinationMeasureID
	}
	if len(in.DestinationObservableInformationIDs) > 0 {
		rels["observable_information_ids"] = in.DestinationObservableInformationIDs
	}
	if err := s.CheckRelations(ctx, rels); err != nil {
		return nil, err
	}

	ts, mapping, err := s.transforms.Run(in.Name, series, in.AdditionalProperties, s.newID)
	if err != nil {
		return nil, err
	}
	doc, err := domain.ToDocument(ts)
	if err != nil {
		return nil, err
	}
	delete(doc, domain.IDKey)
	for k, v := range rels {
		doc[k] = v
	}
	saved, err := s.save(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &domain.TransformationOut{TimeSeries: saved, SignalValueMapping: mapping}, nil
}
