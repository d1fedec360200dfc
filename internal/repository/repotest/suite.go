// Package repotest holds the behaviour every repository.Repository backend
// must share. Backend packages call Run from their own tests.
package repotest

import (
	"context"
	"testing"

	"grisera/internal/domain"
	"grisera/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener returns a fresh, empty repository
type Opener func(t *testing.T) repository.Repository

// MissingID is an id no backend will hand out during a test
const MissingID = "999999"

// Run executes the contract suite against repositories built by open
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, r repository.Repository)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"GetMissing", testGetMissing},
		{"ListFilter", testListFilter},
		{"ForwardExpansion", testForwardExpansion},
		{"ReverseExpansion", testReverseExpansion},
		{"ToManyExpansion", testToManyExpansion},
		{"UpdateProperties", testUpdateProperties},
		{"UpdateRelationships", testUpdateRelationships},
		{"Delete", testDelete},
		{"DeleteCascade", testDeleteCascade},
		{"EmbeddedExecutions", testEmbeddedExecutions},
		{"Scenario", testScenario},
		{"OmitPayload", testOmitPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

// Create stores doc and fails the test on error
func Create(t *testing.T, r repository.Repository, c domain.Collection, doc domain.Document) string {
	t.Helper()
	id, err := r.Create(context.Background(), c, doc)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

// Get reads id and requires it to exist
func Get(t *testing.T, r repository.Repository, c domain.Collection, id string, depth int) domain.Document {
	t.Helper()
	res, err := r.Get(context.Background(), c, id, depth, domain.NoSource)
	require.NoError(t, err)
	require.True(t, res.IsFound(), "%s %s not found", c, id)
	return res.Document()
}

func ids(docs []domain.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID())
	}
	return out
}

func nested(t *testing.T, doc domain.Document, key string) domain.Document {
	t.Helper()
	v, ok := doc[key].(domain.Document)
	require.True(t, ok, "%s is %T", key, doc[key])
	return v
}

func nestedList(t *testing.T, doc domain.Document, key string) []domain.Document {
	t.Helper()
	v, ok := doc[key].([]domain.Document)
	require.True(t, ok, "%s is %T", key, doc[key])
	return v
}

func testCreateAndGet(t *testing.T, r repository.Repository) {
	id := Create(t, r, domain.Modalities, domain.Document{
		"modality":                      "face",
		domain.AdditionalPropertiesKey: []any{map[string]any{"key": "camera", "value": "front"}},
	})
	doc := Get(t, r, domain.Modalities, id, 0)
	assert.Equal(t, id, doc.ID())
	assert.Equal(t, "face", doc["modality"])
	assert.Len(t, doc[domain.AdditionalPropertiesKey], 1)
	assert.NotContains(t, doc, "observable_informations")
}

func testGetMissing(t *testing.T, r repository.Repository) {
	res, err := r.Get(context.Background(), domain.Modalities, MissingID, 1, domain.NoSource)
	require.NoError(t, err)
	assert.False(t, res.IsFound())
	assert.Nil(t, res.Document())
	assert.Equal(t, MissingID, res.NotFound().ID)
	assert.NotEmpty(t, res.NotFound().Errors)

	// an id of another collection is not an entity of this one
	other := Create(t, r, domain.Channels, domain.Document{"type": "audio"})
	res, err = r.Get(context.Background(), domain.Modalities, other, 0, domain.NoSource)
	require.NoError(t, err)
	assert.False(t, res.IsFound())
}

func testListFilter(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	face := Create(t, r, domain.Modalities, domain.Document{"modality": "face"})
	Create(t, r, domain.Modalities, domain.Document{"modality": "voice"})

	all, err := r.List(ctx, domain.Modalities, repository.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := r.List(ctx, domain.Modalities, repository.Query{Filter: domain.Filter{"modality": "face"}})
	require.NoError(t, err)
	assert.Equal(t, []string{face}, ids(got))

	none, err := r.List(ctx, domain.Modalities, repository.Query{Filter: domain.Filter{"modality": "gait"}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testForwardExpansion(t *testing.T, r repository.Repository) {
	m := Create(t, r, domain.Modalities, domain.Document{"modality": "face"})
	oi := Create(t, r, domain.ObservableInformations, domain.Document{"modality_id": m})

	flat := Get(t, r, domain.ObservableInformations, oi, 0)
	assert.Equal(t, m, flat["modality_id"])
	assert.NotContains(t, flat, "modality")

	doc := Get(t, r, domain.ObservableInformations, oi, 1)
	modality := nested(t, doc, "modality")
	assert.Equal(t, m, modality.ID())
	assert.Equal(t, "face", modality["modality"])
	assert.NotContains(t, modality, "observable_informations")
	// unset to-one relations are omitted, reverse relations are always lists
	assert.NotContains(t, doc, "life_activity")
	assert.NotContains(t, doc, "recording")
	assert.Empty(t, nestedList(t, doc, "time_series"))
}

func testReverseExpansion(t *testing.T, r repository.Repository) {
	m := Create(t, r, domain.Modalities, domain.Document{"modality": "face"})
	oi := Create(t, r, domain.ObservableInformations, domain.Document{"modality_id": m})

	doc := Get(t, r, domain.Modalities, m, 1)
	list := nestedList(t, doc, "observable_informations")
	require.Len(t, list, 1)
	assert.Equal(t, oi, list[0].ID())
	assert.Equal(t, m, list[0]["modality_id"])

	// the relation leading back to the modality is not expanded again
	deep := Get(t, r, domain.Modalities, m, 2)
	list = nestedList(t, deep, "observable_informations")
	require.Len(t, list, 1)
	assert.NotContains(t, list[0], "modality")
	assert.Empty(t, nestedList(t, list[0], "time_series"))
}

func testToManyExpansion(t *testing.T, r repository.Repository) {
	a1 := Create(t, r, domain.Appearances, domain.Document{domain.AppearanceTypeKey: "occlusion", "glasses": true})
	a2 := Create(t, r, domain.Appearances, domain.Document{domain.AppearanceTypeKey: "occlusion", "beard": "heavy"})
	ps := Create(t, r, domain.ParticipantStates, domain.Document{"age": "30", "appearance_ids": []string{a1, a2}})

	flat := Get(t, r, domain.ParticipantStates, ps, 0)
	assert.Equal(t, []string{a1, a2}, flat.IDs("appearance_ids"))

	doc := Get(t, r, domain.ParticipantStates, ps, 1)
	assert.Equal(t, []string{a1, a2}, ids(nestedList(t, doc, "appearances")))

	app := Get(t, r, domain.Appearances, a2, 1)
	assert.Equal(t, []string{ps}, ids(nestedList(t, app, "participant_states")))

	lonely := Create(t, r, domain.ParticipantStates, domain.Document{"age": "40"})
	doc = Get(t, r, domain.ParticipantStates, lonely, 1)
	assert.Empty(t, nestedList(t, doc, "appearances"))
}

func testUpdateProperties(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	m := Create(t, r, domain.Modalities, domain.Document{"modality": "face"})
	oi := Create(t, r, domain.ObservableInformations, domain.Document{"modality_id": m})

	require.NoError(t, r.UpdateProperties(ctx, domain.Modalities, m, domain.Document{"modality": "voice"}))
	assert.Equal(t, "voice", Get(t, r, domain.Modalities, m, 0)["modality"])

	extra := []any{map[string]any{"key": "k", "value": "v"}}
	require.NoError(t, r.UpdateProperties(ctx, domain.ObservableInformations, oi, domain.Document{domain.AdditionalPropertiesKey: extra}))
	doc := Get(t, r, domain.ObservableInformations, oi, 0)
	assert.Equal(t, m, doc["modality_id"])
	assert.Len(t, doc[domain.AdditionalPropertiesKey], 1)

	// properties left out of an update are removed
	require.NoError(t, r.UpdateProperties(ctx, domain.ObservableInformations, oi, domain.Document{}))
	assert.NotContains(t, Get(t, r, domain.ObservableInformations, oi, 0), domain.AdditionalPropertiesKey)

	err := r.UpdateProperties(ctx, domain.Modalities, MissingID, domain.Document{"modality": "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testUpdateRelationships(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	m1 := Create(t, r, domain.Modalities, domain.Document{"modality": "face"})
	m2 := Create(t, r, domain.Modalities, domain.Document{"modality": "voice"})
	la := Create(t, r, domain.LifeActivities, domain.Document{"life_activity": "movement"})
	oi := Create(t, r, domain.ObservableInformations, domain.Document{"modality_id": m1, "additional_properties": []any{}})

	require.NoError(t, r.UpdateRelationships(ctx, domain.ObservableInformations, oi, domain.Document{
		"modality_id":      m2,
		"life_activity_id": la,
	}))
	doc := Get(t, r, domain.ObservableInformations, oi, 0)
	assert.Equal(t, m2, doc["modality_id"])
	assert.Equal(t, la, doc["life_activity_id"])
	assert.Contains(t, doc, domain.AdditionalPropertiesKey)

	assert.Empty(t, nestedList(t, Get(t, r, domain.Modalities, m1, 1), "observable_informations"))
	assert.Len(t, nestedList(t, Get(t, r, domain.Modalities, m2, 1), "observable_informations"), 1)

	// an omitted relation is removed
	require.NoError(t, r.UpdateRelationships(ctx, domain.ObservableInformations, oi, domain.Document{"modality_id": m2}))
	assert.NotContains(t, Get(t, r, domain.ObservableInformations, oi, 0), "life_activity_id")

	err := r.UpdateRelationships(ctx, domain.ObservableInformations, MissingID, domain.Document{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testDelete(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	m := Create(t, r, domain.Modalities, domain.Document{"modality": "face"})
	oi := Create(t, r, domain.ObservableInformations, domain.Document{"modality_id": m})

	require.NoError(t, r.Delete(ctx, domain.ObservableInformations, oi))
	res, err := r.Get(ctx, domain.ObservableInformations, oi, 0, domain.NoSource)
	require.NoError(t, err)
	assert.False(t, res.IsFound())
	assert.Empty(t, nestedList(t, Get(t, r, domain.Modalities, m, 1), "observable_informations"))

	assert.ErrorIs(t, r.Delete(ctx, domain.ObservableInformations, oi), domain.ErrNotFound)
}

// testDeleteCascade pins what a delete leaves behind: entities embedded in
// the deleted one go with it and no relation field keeps a removed id
func testDeleteCascade(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	a1 := Create(t, r, domain.Activities, domain.Document{"activity": "group"})
	a2 := Create(t, r, domain.Activities, domain.Document{"activity": "individual"})
	arr := Create(t, r, domain.Arrangements, domain.Document{"arrangement_type": "personal two persons"})
	e1 := Create(t, r, domain.ActivityExecutions, domain.Document{"activity_id": a1, "arrangement_id": arr})
	e2 := Create(t, r, domain.ActivityExecutions, domain.Document{"activity_id": a2})
	exp := Create(t, r, domain.Experiments, domain.Document{"experiment_name": "e"})
	sc := Create(t, r, domain.Scenarios, domain.Document{"experiment_id": exp, "activity_execution_ids": []string{e1, e2}})
	p := Create(t, r, domain.Participations, domain.Document{"activity_execution_id": e1})
	m := Create(t, r, domain.Modalities, domain.Document{"modality": "face"})
	oi := Create(t, r, domain.ObservableInformations, domain.Document{"modality_id": m})

	require.NoError(t, r.Delete(ctx, domain.Arrangements, arr))
	assert.NotContains(t, Get(t, r, domain.ActivityExecutions, e1, 0), "arrangement_id")

	require.NoError(t, r.Delete(ctx, domain.Modalities, m))
	assert.NotContains(t, Get(t, r, domain.ObservableInformations, oi, 0), "modality_id")

	require.NoError(t, r.Delete(ctx, domain.Activities, a1))
	res, err := r.Get(ctx, domain.ActivityExecutions, e1, 0, domain.NoSource)
	require.NoError(t, err)
	assert.False(t, res.IsFound())
	assert.Equal(t, a2, Get(t, r, domain.ActivityExecutions, e2, 0)["activity_id"])

	scenario := Get(t, r, domain.Scenarios, sc, 0)
	assert.Equal(t, []string{e2}, scenario.IDs("activity_execution_ids"))
	assert.Equal(t, exp, scenario["experiment_id"])
	assert.NotContains(t, Get(t, r, domain.Participations, p, 0), "activity_execution_id")

	require.NoError(t, r.Delete(ctx, domain.ActivityExecutions, e2))
	assert.NotContains(t, Get(t, r, domain.Scenarios, sc, 0), "activity_execution_ids")
}

func testEmbeddedExecutions(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	a1 := Create(t, r, domain.Activities, domain.Document{"activity": "group"})
	a2 := Create(t, r, domain.Activities, domain.Document{"activity": "individual"})
	arr := Create(t, r, domain.Arrangements, domain.Document{"arrangement_type": "personal two persons"})
	e := Create(t, r, domain.ActivityExecutions, domain.Document{"activity_id": a1, "arrangement_id": arr})

	doc := Get(t, r, domain.ActivityExecutions, e, 1)
	assert.Equal(t, a1, doc["activity_id"])
	assert.Equal(t, a1, nested(t, doc, "activity").ID())
	assert.Equal(t, arr, nested(t, doc, "arrangement").ID())

	assert.NotContains(t, Get(t, r, domain.Activities, a1, 0), "activity_executions")
	assert.Equal(t, []string{e}, ids(nestedList(t, Get(t, r, domain.Activities, a1, 1), "activity_executions")))

	require.NoError(t, r.UpdateProperties(ctx, domain.ActivityExecutions, e, domain.Document{
		domain.AdditionalPropertiesKey: []any{map[string]any{"key": "k", "value": "v"}},
	}))
	assert.Len(t, Get(t, r, domain.ActivityExecutions, e, 0)[domain.AdditionalPropertiesKey], 1)

	require.NoError(t, r.UpdateRelationships(ctx, domain.ActivityExecutions, e, domain.Document{"activity_id": a2}))
	assert.Empty(t, nestedList(t, Get(t, r, domain.Activities, a1, 1), "activity_executions"))
	moved, err := r.List(ctx, domain.ActivityExecutions, repository.Query{Filter: domain.Filter{"activity_id": a2}})
	require.NoError(t, err)
	assert.Equal(t, []string{e}, ids(moved))
	assert.NotContains(t, moved[0], "arrangement_id")
	assert.Len(t, moved[0][domain.AdditionalPropertiesKey], 1)

	require.NoError(t, r.Delete(ctx, domain.ActivityExecutions, e))
	res, err := r.Get(ctx, domain.ActivityExecutions, e, 0, domain.NoSource)
	require.NoError(t, err)
	assert.False(t, res.IsFound())
	assert.Equal(t, "individual", Get(t, r, domain.Activities, a2, 0)["activity"])
}

func testScenario(t *testing.T, r repository.Repository) {
	a := Create(t, r, domain.Activities, domain.Document{"activity": "group"})
	e1 := Create(t, r, domain.ActivityExecutions, domain.Document{"activity_id": a})
	e2 := Create(t, r, domain.ActivityExecutions, domain.Document{"activity_id": a})
	x := Create(t, r, domain.Experiments, domain.Document{"experiment_name": "Experiment 1"})
	s := Create(t, r, domain.Scenarios, domain.Document{"experiment_id": x, "activity_execution_ids": []string{e2, e1}})

	doc := Get(t, r, domain.Scenarios, s, 1)
	assert.Equal(t, x, nested(t, doc, "experiment").ID())
	assert.Equal(t, []string{e2, e1}, ids(nestedList(t, doc, "activity_executions")))

	exp := Get(t, r, domain.Experiments, x, 2)
	scenarios := nestedList(t, exp, "scenarios")
	require.Len(t, scenarios, 1)
	assert.NotContains(t, scenarios[0], "experiment")
	assert.Len(t, nestedList(t, scenarios[0], "activity_executions"), 2)
}

func testOmitPayload(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	id := Create(t, r, domain.TimeSeriesCollection, domain.Document{
		"type": "Timestamp",
		domain.SignalValuesKey: []any{
			map[string]any{"timestamp": 1, "signal_value": map[string]any{"id": "v1", "value": 2}},
		},
	})
	assert.Len(t, Get(t, r, domain.TimeSeriesCollection, id, 0)[domain.SignalValuesKey], 1)

	list, err := r.List(ctx, domain.TimeSeriesCollection, repository.Query{Omit: []string{domain.SignalValuesKey}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotContains(t, list[0], domain.SignalValuesKey)
	assert.Equal(t, "Timestamp", list[0]["type"])
}
