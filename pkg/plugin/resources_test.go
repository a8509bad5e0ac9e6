package plugin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resourceResponse struct {
	status  int
	headers map[string][]string
	body    []byte
}

func (r *resourceResponse) Send(res *backend.CallResourceResponse) error {
	if res.Status != 0 {
		r.status = res.Status
	}
	if res.Headers != nil {
		r.headers = res.Headers
	}
	r.body = append(r.body, res.Body...)
	return nil
}

func callResource(t *testing.T, method, path, body string) *resourceResponse {
	t.Helper()

	ds := newDatasource(t, fakeInstanceSettings())
	res := &resourceResponse{}
	err := ds.CallResource(context.Background(), &backend.CallResourceRequest{
		PluginContext: fakePluginContext(),
		Path:          strings.TrimPrefix(path, "/"),
		Method:        method,
		URL:           path,
		Body:          []byte(body),
	}, res)
	require.NoError(t, err)

	return res
}

func TestQueryTypesResource(t *testing.T) {
	res := callResource(t, http.MethodGet, "/query-types", "")
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, []string{"application/json"}, res.headers["Content-Type"])

	var got []map[string]any
	require.NoError(t, json.Unmarshal(res.body, &got))
	require.Len(t, got, 6)
	assert.Equal(t, map[string]any{
		"label":  "Program Invocations",
		"value":  "invocations",
		"fields": []any{"programId", "instructionName"},
	}, got[0])
	assert.Equal(t, map[string]any{
		"label":  "Failed Program Deployments",
		"value":  "failedProgramDeployments",
		"fields": []any{"programId"},
	}, got[5])
}

func TestQueryTypeResource(t *testing.T) {
	res := callResource(t, http.MethodGet, "/query-types/failureRate", "")
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"label":"Program Failure Rate","value":"failureRate","fields":["programId","instructionName"]}`, string(res.body))

	res = callResource(t, http.MethodGet, "/query-types/topInstructions", "")
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Contains(t, string(res.body), "unknown query type")
}

func TestDefaultQueryResource(t *testing.T) {
	res := callResource(t, http.MethodGet, "/default-query", "")
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"payload":{"programId":"","queryType":"invocations"},"state":"empty"}`, string(res.body))
}

func TestBuildPayloadResource(t *testing.T) {
	res := callResource(t, http.MethodPost, "/payload",
		`{"queryType":"programDeployments","fields":{"programId":"abc","instructionName":"x"}}`)
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"payload":{"programId":"abc","queryType":"programDeployments"},"state":"valid"}`, string(res.body))

	res = callResource(t, http.MethodPost, "/payload", `{"queryType":"invocations","fields":{"instructionName":"y"}}`)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, string(res.body), "missing required field")

	res = callResource(t, http.MethodPost, "/payload", `not json`)
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = callResource(t, http.MethodGet, "/payload", "")
	assert.Equal(t, http.StatusMethodNotAllowed, res.status)
}

func TestSwitchQueryTypeResource(t *testing.T) {
	res := callResource(t, http.MethodPost, "/payload/switch",
		`{"payload":{"programId":"","instructionName":"transfer","queryType":"invocations"},"queryType":"programDeployments"}`)
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"payload":{"programId":"","queryType":"programDeployments"},"state":"empty"}`, string(res.body))

	res = callResource(t, http.MethodPost, "/payload/switch", `{"payload":{"programId":"abc"},"queryType":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestPrepareAnnotationResource(t *testing.T) {
	res := callResource(t, http.MethodPost, "/annotations/prepare", `{"name":"deploys","enable":true}`)
	assert.Equal(t, http.StatusNoContent, res.status)
	assert.Empty(t, res.body)

	res = callResource(t, http.MethodPost, "/annotations/prepare",
		`{"name":"deploys","enable":true,"target":{"programId":"abc","queryType":"programDeployments"}}`)
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"programId":"abc","queryType":"programDeployments"}`, string(res.body))
}
