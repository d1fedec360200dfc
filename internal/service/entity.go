package service

import (
	"context"
	"fmt"
	"log/slog"

	"grisera/internal/domain"
	"grisera/internal/repository"
	"grisera/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Recorder counts service operations
type Recorder interface {
	RecordOperation(c domain.Collection, operation string, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(domain.Collection, string, error) {}

// Entity provides CRUD operations for one collection
type Entity struct {
	schema *domain.Schema
	repo   repository.Repository
	bus    *EventBus
	rec    Recorder
	log    *slog.Logger
}

// NewEntity creates the service of collection c
func NewEntity(c domain.Collection, repo repository.Repository, bus *EventBus, rec Recorder, log *slog.Logger) *Entity {
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Entity{
		schema: domain.MustLookup(c),
		repo:   repo,
		bus:    bus,
		rec:    rec,
		log:    log.With("collection", string(c)),
	}
}

// Collection returns the collection served
func (s *Entity) Collection() domain.Collection {
	return s.schema.Collection
}

// Schema returns the collection schema
func (s *Entity) Schema() *domain.Schema {
	return s.schema
}

// track opens a span for op and returns the function that closes it and
// records the outcome
func (s *Entity) track(ctx context.Context, op string) (context.Context, func(*error)) {
	ctx, span := telemetry.Tracer().Start(ctx, string(s.schema.Collection)+"."+op,
		trace.WithAttributes(
			attribute.String("grisera.collection", string(s.schema.Collection)),
			attribute.String("grisera.backend", s.repo.Backend()),
		))
	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.rec.RecordOperation(s.schema.Collection, op, err)
	}
}

// notFound builds the sentinel using the backend's reason text
func (s *Entity) notFound(id string) domain.Result {
	if s.repo.Backend() == "document" {
		return domain.Missing(id, domain.ReasonDocumentNotFound)
	}
	return domain.Missing(id, domain.ReasonNodeNotFound)
}

func (s *Entity) publish(t EventType, id string) {
	s.bus.Publish(Event{Type: t, Payload: EntityChange{Collection: s.schema.Collection, ID: id}})
}

// Save validates in, a tagged input struct, and persists it
func (s *Entity) Save(ctx context.Context, in any) (domain.Document, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	doc, err := domain.ToDocument(in)
	if err != nil {
		return nil, err
	}
	return s.SaveDocument(ctx, doc)
}

// SaveDocument persists an already validated document after checking that
// every related entity exists. It returns the stored entity at depth zero.
func (s *Entity) SaveDocument(ctx context.Context, doc domain.Document) (_ domain.Document, err error) {
	ctx, done := s.track(ctx, "save")
	defer done(&err)

	if err := s.CheckRelations(ctx, doc); err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, s.schema.Collection, doc)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.schema.Singular, err)
	}
	res, err := s.repo.Get(ctx, s.schema.Collection, id, 0, domain.NoSource)
	if err != nil {
		return nil, err
	}
	if !res.IsFound() {
		return nil, fmt.Errorf("created %s %s: %w", s.schema.Singular, id, domain.ErrNotFound)
	}
	s.log.Debug("entity created", "id", id)
	s.publish(EventEntityCreated, id)
	return res.Document(), nil
}

// CheckRelations verifies that every relation id in doc resolves to an
// entity of the relation's target collection
func (s *Entity) CheckRelations(ctx context.Context, doc domain.Document) error {
	for _, rel := range s.schema.Forward() {
		for _, id := range doc.IDs(rel.Field) {
			res, err := s.repo.Get(ctx, rel.Target, id, 0, domain.NoSource)
			if err != nil {
				return err
			}
			if !res.IsFound() {
				return domain.MissingRelation(domain.MustLookup(rel.Target))
			}
		}
	}
	return nil
}

// Get reads one entity with relations expanded up to depth
func (s *Entity) Get(ctx context.Context, id string, depth int, source domain.Collection) (_ domain.Result, err error) {
	ctx, done := s.track(ctx, "get")
	defer done(&err)
	return s.repo.Get(ctx, s.schema.Collection, id, depth, source)
}

// List returns the entities matching q
func (s *Entity) List(ctx context.Context, q repository.Query) (_ []domain.Document, err error) {
	ctx, done := s.track(ctx, "list")
	defer done(&err)
	return s.repo.List(ctx, s.schema.Collection, q)
}

// UpdateProperties validates in and replaces the entity's intrinsic properties
func (s *Entity) UpdateProperties(ctx context.Context, id string, in any) (domain.Result, error) {
	if err := Validate(in); err != nil {
		return domain.Result{}, err
	}
	props, err := domain.ToDocument(in)
	if err != nil {
		return domain.Result{}, err
	}
	return s.UpdatePropertiesDocument(ctx, id, props)
}

// UpdatePropertiesDocument replaces the intrinsic properties with props
func (s *Entity) UpdatePropertiesDocument(ctx context.Context, id string, props domain.Document) (_ domain.Result, err error) {
	ctx, done := s.track(ctx, "update_properties")
	defer done(&err)

	res, err := s.repo.Get(ctx, s.schema.Collection, id, 0, domain.NoSource)
	if err != nil || !res.IsFound() {
		return res, err
	}
	if err := s.repo.UpdateProperties(ctx, s.schema.Collection, id, props); err != nil {
		return domain.Result{}, err
	}
	s.publish(EventEntityUpdated, id)
	return s.repo.Get(ctx, s.schema.Collection, id, 0, domain.NoSource)
}

// UpdateRelationships validates in and replaces every forward relation
func (s *Entity) UpdateRelationships(ctx context.Context, id string, in any) (domain.Result, error) {
	if err := Validate(in); err != nil {
		return domain.Result{}, err
	}
	rels, err := domain.ToDocument(in)
	if err != nil {
		return domain.Result{}, err
	}
	return s.UpdateRelationshipsDocument(ctx, id, rels)
}

// UpdateRelationshipsDocument replaces every forward relation with the ids in
// rels after checking they exist
func (s *Entity) UpdateRelationshipsDocument(ctx context.Context, id string, rels domain.Document) (_ domain.Result, err error) {
	ctx, done := s.track(ctx, "update_relationships")
	defer done(&err)

	res, err := s.repo.Get(ctx, s.schema.Collection, id, 0, domain.NoSource)
	if err != nil || !res.IsFound() {
		return res, err
	}
	if err := s.CheckRelations(ctx, rels); err != nil {
		return domain.Result{}, err
	}
	if err := s.repo.UpdateRelationships(ctx, s.schema.Collection, id, rels); err != nil {
		return domain.Result{}, err
	}
	s.publish(EventEntityUpdated, id)
	return s.repo.Get(ctx, s.schema.Collection, id, 0, domain.NoSource)
}

// Delete removes the entity and returns it as it was before removal
func (s *Entity) Delete(ctx context.Context, id string) (_ domain.Result, err error) {
	ctx, done := s.track(ctx, "delete")
	defer done(&err)

	res, err := s.repo.Get(ctx, s.schema.Collection, id, 0, domain.NoSource)
	if err != nil || !res.IsFound() {
		return res, err
	}
	if err := s.repo.Delete(ctx, s.schema.Collection, id); err != nil {
		return domain.Result{}, err
	}
	s.log.Debug("entity deleted", "id", id)
	s.publish(EventEntityDeleted, id)
	return res, nil
}

// relations returns the forward relation fields currently set on doc
func (s *Entity) relations(doc domain.Document) domain.Document {
	rels := domain.Document{}
	for _, rel := range s.schema.Forward() {
		if v, ok := doc[rel.Field]; ok {
			rels[rel.Field] = v
		}
	}
	return rels
}
