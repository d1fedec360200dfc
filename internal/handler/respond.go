package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"grisera/internal/domain"
)

// Link points at a related route
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

func entityLinks(c domain.Collection, id string) []Link {
	base := "/" + string(c)
	self := base + "/" + id
	links := []Link{
		{Rel: "self", Href: self},
		{Rel: "collection", Href: base},
	}
	if len(domain.MustLookup(c).Forward()) > 0 {
		links = append(links, Link{Rel: "relationships", Href: self + "/relationships"})
	}
	return append(links, Link{Rel: "export", Href: self + "/export"})
}

// withLinks returns a copy of doc carrying its navigation links
func withLinks(c domain.Collection, doc domain.Document) domain.Document {
	out := doc.Clone()
	out["links"] = entityLinks(c, doc.ID())
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Warn("failed to encode response", "error", err)
	}
}

// writeEntity writes a found entity or the not-found sentinel
func (h *Handler) writeEntity(w http.ResponseWriter, c domain.Collection, res domain.Result) {
	if !res.IsFound() {
		h.writeJSON(w, res.NotFound(), http.StatusNotFound)
		return
	}
	h.writeJSON(w, withLinks(c, res.Document()), http.StatusOK)
}

// writeError maps err to a status code. Validation failures echo input with
// the error payload under "errors".
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, input domain.Document) {
	var (
		invalid *domain.ValidationError
		bad     *badRequest
	)
	switch {
	case errors.As(err, &invalid):
		body := domain.Document{}
		for k, v := range input {
			body[k] = v
		}
		body["errors"] = invalid.Payload()
		h.writeJSON(w, body, http.StatusUnprocessableEntity)
	case errors.As(err, &bad):
		h.writeJSON(w, map[string]string{"errors": bad.msg}, http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		h.writeJSON(w, map[string]string{"errors": err.Error()}, http.StatusNotFound)
	default:
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.writeJSON(w, map[string]string{"errors": "internal server error"}, http.StatusInternalServerError)
	}
}
