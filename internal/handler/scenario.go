package handler

import (
	"net/http"

	"grisera/internal/domain"
)

// SaveScenario creates a scenario and its inline activity executions
func (h *Handler) SaveScenario(w http.ResponseWriter, r *http.Request) {
	var in domain.ScenarioIn
	body, err := decodeBody(r, &in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	doc, err := h.reg.Scenarios.Save(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	h.writeJSON(w, withLinks(domain.Scenarios, doc), http.StatusOK)
}

// AddActivityExecution creates an activity execution and appends it to the
// scenario
func (h *Handler) AddActivityExecution(w http.ResponseWriter, r *http.Request) {
	var in domain.ActivityExecutionIn
	body, err := decodeBody(r, &in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	res, err := h.reg.Scenarios.AddActivityExecution(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err, body)
		return
	}
	h.writeEntity(w, domain.Scenarios, res)
}
