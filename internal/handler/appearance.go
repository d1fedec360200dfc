package handler

import (
	"net/http"

	"grisera/internal/domain"
)

// SaveOcclusion creates an occlusion appearance
func (h *Handler) SaveOcclusion(w http.ResponseWriter, r *http.Request) {
	var in domain.OcclusionIn
	body, err := decodeBody(r, &in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	doc, err := h.reg.Appearances.SaveOcclusion(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	h.writeJSON(w, withLinks(domain.Appearances, doc), http.StatusOK)
}

// SaveSomatotype creates a somatotype appearance
func (h *Handler) SaveSomatotype(w http.ResponseWriter, r *http.Request) {
	var in domain.SomatotypeIn
	body, err := decodeBody(r, &in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	doc, err := h.reg.Appearances.SaveSomatotype(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	h.writeJSON(w, withLinks(domain.Appearances, doc), http.StatusOK)
}

// UpdateOcclusion replaces the properties of an occlusion appearance
func (h *Handler) UpdateOcclusion(w http.ResponseWriter, r *http.Request) {
	var in domain.OcclusionIn
	body, err := decodeBody(r, &in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	res, err := h.reg.Appearances.UpdateOcclusion(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	h.writeEntity(w, domain.Appearances, res)
}

// UpdateSomatotype replaces the properties of a somatotype appearance
func (h *Handler) UpdateSomatotype(w http.ResponseWriter, r *http.Request) {
	var in domain.SomatotypeIn
	body, err := decodeBody(r, &in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	res, err := h.reg.Appearances.UpdateSomatotype(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	h.writeEntity(w, domain.Appearances, res)
}
