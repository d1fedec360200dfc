package handler

import (
	"log/slog"
	"net/http"

	"grisera/internal/codec"
	"grisera/internal/domain"
	"grisera/internal/metrics"
	"grisera/internal/repository"
	"grisera/internal/service"
)

// Options carries the optional parts of the router
type Options struct {
	Metrics    *metrics.Metrics
	Events     http.Handler
	CORSOrigin string
}

// Handler serves the entity API
type Handler struct {
	reg *service.Registry
	log *slog.Logger
}

// New creates a handler over the service registry
func New(reg *service.Registry, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{reg: reg, log: log}
}

// Router builds the complete HTTP surface with middleware applied
func Router(reg *service.Registry, log *slog.Logger, opts Options) http.Handler {
	h := New(reg, log)
	mux := http.NewServeMux()
	h.Register(mux)

	mux.HandleFunc("GET /health", h.Health)
	if opts.Events != nil {
		mux.Handle("GET /events", opts.Events)
	}
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	return Chain(mux,
		Recover(h.log),
		CORS(opts.CORSOrigin),
		Logger(h.log),
		Metrics(opts.Metrics),
	)
}

// Register adds the entity routes to mux
func (h *Handler) Register(mux *http.ServeMux) {
	custom := map[string]http.HandlerFunc{
		"POST /appearances/occlusion":              h.SaveOcclusion,
		"POST /appearances/somatotype":             h.SaveSomatotype,
		"PUT /appearances/occlusion/{id}":          h.UpdateOcclusion,
		"PUT /appearances/somatotype/{id}":         h.UpdateSomatotype,
		"POST /scenarios":                          h.SaveScenario,
		"POST /scenarios/{id}/activity_executions": h.AddActivityExecution,
		"POST /time_series":                        h.SaveTimeSeries,
		"GET /time_series":                         h.ListTimeSeries,
		"GET /time_series/{id}":                    h.GetTimeSeries,
		"PUT /time_series/{id}":                    h.UpdateTimeSeries,
		"PUT /time_series/{id}/relationships":      h.RelinkTimeSeries,
		"GET /time_series/multidimensional":        h.Multidimensional,
		"POST /time_series/transformation":         h.Transform,
	}
	handle := func(pattern string, fallback http.HandlerFunc) {
		if fn, ok := custom[pattern]; ok {
			delete(custom, pattern)
			mux.HandleFunc(pattern, fn)
			return
		}
		if fallback != nil {
			mux.HandleFunc(pattern, fallback)
		}
	}

	for _, s := range domain.Schemas() {
		c := s.Collection
		in := entityInputs[c]
		base := "/" + string(c)

		var create, update, relink http.HandlerFunc
		if in.create != nil {
			create = h.create(c, in.create)
		}
		if in.props != nil {
			update = h.updateProperties(c, in.props)
		}
		if in.rels != nil {
			relink = h.updateRelationships(c, in.rels)
		}

		handle("POST "+base, create)
		handle("GET "+base, h.list(c))
		handle("GET "+base+"/{id}", h.get(c))
		handle("PUT "+base+"/{id}", update)
		if len(s.Forward()) > 0 {
			handle("PUT "+base+"/{id}/relationships", relink)
		}
		handle("DELETE "+base+"/{id}", h.delete(c))
		handle("GET "+base+"/{id}/export", h.export(c))
	}
	for pattern, fn := range custom {
		mux.HandleFunc(pattern, fn)
	}
}

// Health reports liveness and the active backend
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok", "backend": h.reg.Backend()}, http.StatusOK)
}

func (h *Handler) create(c domain.Collection, newInput func() any) http.HandlerFunc {
	svc := h.reg.Entity(c)
	return func(w http.ResponseWriter, r *http.Request) {
		in := newInput()
		body, err := decodeBody(r, in)
		if err != nil {
			h.writeError(w, r, err, body)
			return
		}
		doc, err := svc.Save(r.Context(), in)
		if err != nil {
			h.writeError(w, r, err, body)
			return
		}
		h.writeJSON(w, withLinks(c, doc), http.StatusOK)
	}
}

func (h *Handler) list(c domain.Collection) http.HandlerFunc {
	svc := h.reg.Entity(c)
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := query(r)
		if err != nil {
			h.writeError(w, r, err, nil)
			return
		}
		docs, err := svc.List(r.Context(), q)
		if err != nil {
			h.writeError(w, r, err, nil)
			return
		}
		h.writeList(w, c, docs)
	}
}

func (h *Handler) writeList(w http.ResponseWriter, c domain.Collection, docs []domain.Document) {
	items := make([]domain.Document, len(docs))
	for i, d := range docs {
		items[i] = withLinks(c, d)
	}
	h.writeJSON(w, map[string]any{
		string(c): items,
		"links":   []Link{{Rel: "self", Href: "/" + string(c)}},
	}, http.StatusOK)
}

func query(r *http.Request) (repository.Query, error) {
	d, err := depth(r)
	if err != nil {
		return repository.Query{}, err
	}
	src, err := source(r)
	if err != nil {
		return repository.Query{}, err
	}
	return repository.Query{Filter: filters(r), Depth: d, Source: src}, nil
}

func (h *Handler) get(c domain.Collection) http.HandlerFunc {
	svc := h.reg.Entity(c)
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := query(r)
		if err != nil {
			h.writeError(w, r, err, nil)
			return
		}
		res, err := svc.Get(r.Context(), r.PathValue("id"), q.Depth, q.Source)
		if err != nil {
			h.writeError(w, r, err, nil)
			return
		}
		h.writeEntity(w, c, res)
	}
}

func (h *Handler) updateProperties(c domain.Collection, newInput func() any) http.HandlerFunc {
	svc := h.reg.Entity(c)
	return func(w http.ResponseWriter, r *http.Request) {
		in := newInput()
		body, err := decodeBody(r, in)
		if err != nil {
			h.writeError(w, r, err, body)
			return
		}
		res, err := svc.UpdateProperties(r.Context(), r.PathValue("id"), in)
		if err != nil {
			h.writeError(w, r, err, body)
			return
		}
		h.writeEntity(w, c, res)
	}
}

func (h *Handler) updateRelationships(c domain.Collection, newInput func() any) http.HandlerFunc {
	svc := h.reg.Entity(c)
	return func(w http.ResponseWriter, r *http.Request) {
		in := newInput()
		body, err := decodeBody(r, in)
		if err != nil {
			h.writeError(w, r, err, body)
			return
		}
		res, err := svc.UpdateRelationships(r.Context(), r.PathValue("id"), in)
		if err != nil {
			h.writeError(w, r, err, body)
			return
		}
		h.writeEntity(w, c, res)
	}
}

func (h *Handler) delete(c domain.Collection) http.HandlerFunc {
	svc := h.reg.Entity(c)
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Delete(r.Context(), r.PathValue("id"))
		if err != nil {
			h.writeError(w, r, err, nil)
			return
		}
		h.writeEntity(w, c, res)
	}
}

// export writes the expanded entity in the requested format as a download
func (h *Handler) export(c domain.Collection) http.HandlerFunc {
	svc := h.reg.Entity(c)
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "json"
		}
		enc, err := codec.For(format)
		if err != nil {
			h.writeError(w, r, malformed("%v", err), nil)
			return
		}
		q, err := query(r)
		if err != nil {
			h.writeError(w, r, err, nil)
			return
		}
		id := r.PathValue("id")
		res, err := svc.Get(r.Context(), id, q.Depth, q.Source)
		if err != nil {
			h.writeError(w, r, err, nil)
			return
		}
		if !res.IsFound() {
			h.writeJSON(w, res.NotFound(), http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", enc.ContentType())
		w.Header().Set("Content-Disposition", "attachment; filename="+string(c)+"-"+id+"."+enc.Format())
		if err := enc.Export(res.Document(), w); err != nil {
			// headers are already sent
			h.log.Warn("export failed", "collection", string(c), "id", id, "error", err)
		}
	}
}
