package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"grisera/internal/graph/sqlstore"
	"grisera/internal/logging"
	"grisera/internal/metrics"
	"grisera/internal/repository/graphrepo"
	"grisera/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlstore.New(sqlstore.DialectSQLite, ":memory:")
	require.NoError(t, err)
	repo := graphrepo.New(store, nil)
	t.Cleanup(func() { repo.Close() })

	m := metrics.New()
	log := logging.Discard()
	reg := service.NewRegistry(repo, service.Options{Recorder: m, Log: log})
	return &testServer{
		t:       t,
		handler: Router(reg, log, Options{Metrics: m, CORSOrigin: "*"}),
		metrics: m,
	}
}

func (s *testServer) request(method, path, contentType, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// do sends a JSON request and decodes the JSON response object
func (s *testServer) do(method, path, body string) (int, map[string]any) {
	s.t.Helper()
	rec := s.request(method, path, "", body)
	var out map[string]any
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

// create posts body and returns the new id
func (s *testServer) create(path, body string) string {
	s.t.Helper()
	code, out := s.do(http.MethodPost, path, body)
	require.Equal(s.t, http.StatusOK, code, out)
	id, ok := out["id"].(string)
	require.True(s.t, ok, out)
	return id
}

func TestCreateAndGet(t *testing.T) {
	s := newTestServer(t)

	id := s.create("/modalities", `{"modality": "eeg"}`)

	code, out := s.do(http.MethodGet, "/modalities/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "eeg", out["modality"])
	links, ok := out["links"].([]any)
	require.True(t, ok)
	assert.Contains(t, links, map[string]any{"rel": "self", "href": "/modalities/" + id})

	code, out = s.do(http.MethodGet, "/modalities/999999", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, map[string]any{"id": "999999", "errors": "Node not found."}, out)
}

func TestCreateValidation(t *testing.T) {
	s := newTestServer(t)

	code, out := s.do(http.MethodPost, "/activities", `{"additional_properties": [{"key": "room", "value": 1}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]any{"activity": "field required"}, out["errors"])
	assert.NotNil(t, out["additional_properties"])

	code, out = s.do(http.MethodPost, "/observable_informations", `{"modality_id": "999999"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]any{"modality_id": "999999", "errors": "given modality does not exist"}, out)

	code, out = s.do(http.MethodGet, "/observable_informations", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, out["observable_informations"])
}

func TestMalformedRequests(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodPost, "/modalities", `{"modality": `)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/modalities", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/modalities", `{"modality": 5}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/modalities?depth=deep", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/modalities?source=planets", "")
	assert.Equal(t, http.StatusBadRequest, code)

	rec := s.request(http.MethodPost, "/modalities", "text/csv", "modality\neeg\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpansionAndFilters(t *testing.T) {
	s := newTestServer(t)

	modality := s.create("/modalities", `{"modality": "eeg"}`)
	recording := s.create("/recordings", `{}`)
	info := s.create("/observable_informations", `{"modality_id": "`+modality+`", "recording_id": "`+recording+`"}`)
	s.create("/observable_informations", `{"recording_id": "`+recording+`"}`)

	code, out := s.do(http.MethodGet, "/modalities/"+modality+"?depth=1", "")
	require.Equal(t, http.StatusOK, code)
	related, ok := out["observable_informations"].([]any)
	require.True(t, ok)
	require.Len(t, related, 1)
	assert.Equal(t, info, related[0].(map[string]any)["id"])

	code, out = s.do(http.MethodGet, "/modalities/"+modality, "")
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, out, "observable_informations")

	// the modality is reached through observable_informations and not walked back
	code, out = s.do(http.MethodGet, "/observable_informations/"+info+"?depth=1&source=modalities", "")
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, out, "modality")
	assert.Contains(t, out, "recording")

	code, out = s.do(http.MethodGet, "/observable_informations?modality_id="+modality, "")
	require.Equal(t, http.StatusOK, code)
	list := out["observable_informations"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, info, list[0].(map[string]any)["id"])
}

func TestFilterOnReservedName(t *testing.T) {
	s := newTestServer(t)

	camera := s.create("/registered_data", `{"source": "camera"}`)
	s.create("/registered_data", `{"source": "microphone"}`)

	code, out := s.do(http.MethodGet, "/registered_data?filter.source=camera", "")
	require.Equal(t, http.StatusOK, code)
	list := out["registered_data"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, camera, list[0].(map[string]any)["id"])

	// unprefixed, source is the traversal tag and must name a collection
	code, _ = s.do(http.MethodGet, "/registered_data?source=camera", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUpdateAndDelete(t *testing.T) {
	s := newTestServer(t)

	name := s.create("/measure_names", `{"name": "pulse"}`)
	other := s.create("/measure_names", `{"name": "breath"}`)
	measure := s.create("/measures", `{"datatype": "float", "measure_name_id": "`+name+`"}`)

	code, out := s.do(http.MethodPut, "/measures/"+measure, `{"datatype": "int", "unit": "bpm"}`)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "int", out["datatype"])
	assert.Equal(t, name, out["measure_name_id"])

	code, out = s.do(http.MethodPut, "/measures/"+measure+"/relationships", `{"measure_name_id": "`+other+`"}`)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, other, out["measure_name_id"])

	code, out = s.do(http.MethodPut, "/measures/"+measure+"/relationships", `{"measure_name_id": "999999"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "given measure name does not exist", out["errors"])

	code, _ = s.do(http.MethodPut, "/measures/999999", `{"datatype": "int"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, out = s.do(http.MethodDelete, "/measures/"+measure, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "int", out["datatype"])

	code, out = s.do(http.MethodDelete, "/measures/"+measure, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, measure, out["id"])
}

func TestAppearanceRoutes(t *testing.T) {
	s := newTestServer(t)

	code, out := s.do(http.MethodPost, "/appearances/somatotype", `{"ectomorph": 9, "endomorph": 2, "mesomorph": 2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "Scale range not between 1 and 7", out["errors"])

	occlusion := s.create("/appearances/occlusion", `{"glasses": true, "beard": "Medium"}`)

	code, out = s.do(http.MethodPut, "/appearances/somatotype/"+occlusion, `{"ectomorph": 2, "endomorph": 2, "mesomorph": 2}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, occlusion, out["id"])

	code, out = s.do(http.MethodPut, "/appearances/occlusion/"+occlusion, `{"glasses": false, "beard": "None"}`)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, false, out["glasses"])

	code, out = s.do(http.MethodGet, "/appearances?glasses=false", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["appearances"], 1)

	rec := s.request(http.MethodPost, "/appearances", "", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestScenarioRoutes(t *testing.T) {
	s := newTestServer(t)

	experiment := s.create("/experiments", `{"experiment_name": "e1"}`)
	activity := s.create("/activities", `{"activity": "reading"}`)

	code, out := s.do(http.MethodPost, "/scenarios", `{
		"experiment_id": "`+experiment+`",
		"activity_executions": [{"activity_id": "`+activity+`"}, {"activity_id": "`+activity+`"}]
	}`)
	require.Equal(t, http.StatusOK, code, out)
	scenario := out["id"].(string)
	assert.Len(t, out["activity_execution_ids"], 2)

	code, out = s.do(http.MethodPost, "/scenarios/"+scenario+"/activity_executions", `{"activity_id": "`+activity+`"}`)
	require.Equal(t, http.StatusOK, code, out)
	assert.Len(t, out["activity_execution_ids"], 3)

	code, out = s.do(http.MethodGet, "/scenarios/"+scenario+"?depth=1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["activity_executions"], 3)
	assert.Contains(t, out, "experiment")
}

func TestTimeSeriesRoutes(t *testing.T) {
	s := newTestServer(t)

	a := s.create("/time_series", `{
		"type": "Timestamp",
		"signal_values": [
			{"timestamp": 1, "signal_value": {"value": 1}},
			{"timestamp": 2, "signal_value": {"value": 5}},
			{"timestamp": 3, "signal_value": {"value": 9}}
		]
	}`)
	b := s.create("/time_series", `{
		"type": "Timestamp",
		"signal_values": [{"timestamp": 2, "signal_value": {"value": 3}}]
	}`)

	code, out := s.do(http.MethodGet, "/time_series/"+a+"?signal_min_value=2&signal_max_value=8", "")
	require.Equal(t, http.StatusOK, code)
	values := out["signal_values"].([]any)
	require.Len(t, values, 1)
	assert.Equal(t, 5.0, values[0].(map[string]any)["signal_value"].(map[string]any)["value"])

	code, _ = s.do(http.MethodGet, "/time_series/"+a+"?signal_min_value=low", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, out = s.do(http.MethodGet, "/time_series", "")
	require.Equal(t, http.StatusOK, code)
	list := out["time_series"].([]any)
	require.Len(t, list, 2)
	assert.NotContains(t, list[0], "signal_values")

	code, out = s.do(http.MethodGet, "/time_series/multidimensional?id="+a+"&id="+b, "")
	require.Equal(t, http.StatusOK, code, out)
	assert.Len(t, out["signal_values"], 3)
	assert.Len(t, out["time_series"], 2)

	code, out = s.do(http.MethodPost, "/time_series/transformation", `{"name": "fourier", "source_time_series_ids": ["`+a+`"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, out["errors"], "fourier")

	code, out = s.do(http.MethodPost, "/time_series/transformation", `{"name": "multidimensional", "source_time_series_ids": ["`+a+`", "`+b+`"]}`)
	require.Equal(t, http.StatusOK, code, out)
	assert.Len(t, out["signal_value_mapping"], 3)

	code, out = s.do(http.MethodGet, "/time_series", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["time_series"], 3)

	code, out = s.do(http.MethodPut, "/time_series/"+a, `{"type": "Timestamp", "source": "camera"}`)
	require.Equal(t, http.StatusOK, code, out)
	assert.Len(t, out["signal_values"], 3)
}

func TestExport(t *testing.T) {
	s := newTestServer(t)
	id := s.create("/modalities", `{"modality": "eeg"}`)

	rec := s.request(http.MethodGet, "/modalities/"+id+"/export?format=yaml", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "modalities-"+id+".yaml")
	assert.Contains(t, rec.Body.String(), "modality: eeg")

	rec = s.request(http.MethodGet, "/modalities/"+id+"/export", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id": "`+id+`", "modality": "eeg"}`, rec.Body.String())

	rec = s.request(http.MethodGet, "/modalities/"+id+"/export?format=xml", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodGet, "/modalities/999999/export", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestYAMLBody(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodPost, "/channels", "application/yaml", "type: eeg\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "eeg", out["type"])
}

func TestHealthMetricsAndCORS(t *testing.T) {
	s := newTestServer(t)

	code, out := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"status": "ok", "backend": "graph"}, out)

	s.create("/channels", `{"type": "eeg"}`)

	rec := s.request(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `grisera_http_requests_total{method="POST",route="/channels",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `grisera_entity_operations_total{collection="channels",operation="save",outcome="ok"} 1`)

	rec = s.request(http.MethodOptions, "/channels", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recover(logging.Discard()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.NotFoundHandler(), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}
