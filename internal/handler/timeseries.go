package handler

import (
	"net/http"

	"grisera/internal/domain"
)

// SaveTimeSeries creates a time series with its signal values
func (h *Handler) SaveTimeSeries(w http.ResponseWriter, r *http.Request) {
	var in domain.TimeSeriesIn
	body, err := decodeBody(r, &in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	doc, err := h.reg.TimeSeries.Save(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	h.writeJSON(w, withLinks(domain.TimeSeriesCollection, doc), http.StatusOK)
}

// ListTimeSeries returns the matching series without signal values
func (h *Handler) ListTimeSeries(w http.ResponseWriter, r *http.Request) {
	q, err := query(r)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	docs, err := h.reg.TimeSeries.List(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeList(w, domain.TimeSeriesCollection, docs)
}

// GetTimeSeries reads one series, optionally keeping only the signal values
// between signal_min_value and signal_max_value
func (h *Handler) GetTimeSeries(w http.ResponseWriter, r *http.Request) {
	q, err := query(r)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	var bounds domain.SignalBounds
	if bounds.Min, err = floatParam(r, "signal_min_value"); err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	if bounds.Max, err = floatParam(r, "signal_max_value"); err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	res, err := h.reg.TimeSeries.GetFiltered(r.Context(), r.PathValue("id"), q.Depth, q.Source, bounds)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeEntity(w, domain.TimeSeriesCollection, res)
}

// UpdateTimeSeries replaces the properties of a series, keeping its values
func (h *Handler) UpdateTimeSeries(w http.ResponseWriter, r *http.Request) {
	var in domain.TimeSeriesPropertyIn
	body, err := decodeBody(r, &in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	res, err := h.reg.TimeSeries.UpdateProperties(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	h.writeEntity(w, domain.TimeSeriesCollection, res)
}

// RelinkTimeSeries replaces the measure and observable informations
func (h *Handler) RelinkTimeSeries(w http.ResponseWriter, r *http.Request) {
	var in domain.TimeSeriesRelationIn
	body, err := decodeBody(r, &in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	res, err := h.reg.TimeSeries.UpdateRelationships(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	h.writeEntity(w, domain.TimeSeriesCollection, res)
}

// Multidimensional merges the series named by the id parameters
func (h *Handler) Multidimensional(w http.ResponseWriter, r *http.Request) {
	res, err := h.reg.TimeSeries.Multidimensional(r.Context(), idList(r, "id"))
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	if !res.IsFound() {
		h.writeJSON(w, res.NotFound(), http.StatusNotFound)
		return
	}
	h.writeJSON(w, res.Document(), http.StatusOK)
}

// Transform runs a registered transformation and stores its result
func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	var in domain.TransformationIn
	body, err := decodeBody(r, &in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	out, err := h.reg.TimeSeries.Transform(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	h.writeJSON(w, map[string]any{
		"time_series":          withLinks(domain.TimeSeriesCollection, out.TimeSeries),
		"signal_value_mapping": out.SignalValueMapping,
	}, http.StatusOK)
}
