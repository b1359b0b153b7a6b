package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/gitdag/pkg/ancestry"
	"github.com/matzehuels/gitdag/pkg/ancestry/ancestrytest"
	"github.com/matzehuels/gitdag/pkg/cache"
	"github.com/matzehuels/gitdag/pkg/errors"
	"github.com/matzehuels/gitdag/pkg/observability"
	"github.com/matzehuels/gitdag/pkg/render/nodelink"
	"github.com/matzehuels/gitdag/pkg/report"
)

// releaseHistory has master and release forked at fork.
func releaseHistory() *ancestrytest.History {
	return ancestrytest.New().
		Commit("root").
		Commit("fork", "root").
		Commit("m1", "fork").
		Commit("m2", "m1").
		Commit("r1", "fork").
		Commit("hotfix", "r1").
		Ref("master", "m2").
		Ref("release", "hotfix").
		Ref("v1.0.1", "hotfix")
}

func newTestServer(t *testing.T, h *ancestrytest.History, opts ...Option) (*Server, *report.Builder) {
	t.Helper()
	b := report.NewBuilder(h, report.WithCaption("Branches"))
	return New(b, opts...), b
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, r)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body.Error
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, releaseHistory())

	rr := do(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp healthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Zero(t, resp.Nodes)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Server"), "gitdag/"))
}

func TestAddCommit(t *testing.T) {
	s, _ := newTestServer(t, releaseHistory())

	rr := do(t, s, http.MethodPost, "/commits", `{"ref": "master"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var added addResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&added))
	assert.Equal(t, ancestry.CommitID("m2"), added.ID)
	assert.Equal(t, 1, added.Nodes)

	rr = do(t, s, http.MethodPost, "/commits", `{"ref": "release", "name": "Release 1.0"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&added))
	assert.Equal(t, ancestry.CommitID("hotfix"), added.ID)
	assert.Equal(t, 3, added.Nodes, "merge base fork is discovered")

	rr = do(t, s, http.MethodGet, "/commits", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list commitsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	assert.Equal(t, []ancestry.CommitID{"fork", "hotfix", "m2"}, list.Commits)
}

func TestAddCommitErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"duplicate", `{"ref": "v1.0.1"}`, http.StatusConflict, errors.ErrCodeDuplicateCommit},
		{"unknown ref", `{"ref": "nope"}`, http.StatusNotFound, errors.ErrCodeRefNotFound},
		{"option as ref", `{"ref": "--all"}`, http.StatusBadRequest, errors.ErrCodeInvalidRef},
		{"empty ref", `{}`, http.StatusBadRequest, errors.ErrCodeInvalidRef},
		{"malformed body", `{"ref": `, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", `{"ref": "master", "force": true}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad url", `{"ref": "master", "url": "ftp://x"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, b := newTestServer(t, releaseHistory())
			_, err := b.Add(context.Background(), report.RefSpec{Ref: "release"})
			require.NoError(t, err)

			rr := do(t, s, http.MethodPost, "/commits", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rr).Code)
			assert.Equal(t, 1, b.Graph().Len(), "failed add must not change the graph")
		})
	}
}

func TestAddCommitInconsistent(t *testing.T) {
	// x <- y in the graph; the backend claims a sits above x but below y.
	h := ancestrytest.Linear("x", "y").Commit("a")
	s, b := newTestServer(t, h)
	ctx := context.Background()
	_, err := b.Add(ctx, report.RefSpec{Ref: "x"})
	require.NoError(t, err)
	_, err = b.Add(ctx, report.RefSpec{Ref: "y"})
	require.NoError(t, err)
	h.Override = func(a, b ancestry.CommitID) (ancestry.CommitID, bool) {
		switch {
		case a == "a" && b == "x":
			return "a", true
		case a == "a" && b == "y":
			return "y", true
		}
		return "", false
	}

	rr := do(t, s, http.MethodPost, "/commits", `{"ref": "a"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	assert.Equal(t, errors.ErrCodeInconsistentHistory, decodeError(t, rr).Code)
	assert.False(t, b.Graph().Has("a"))
}

func TestRelatives(t *testing.T) {
	h := releaseHistory().Ref("base", "root")
	s, b := newTestServer(t, h)
	ctx := context.Background()
	for _, ref := range []string{"master", "release", "base"} {
		_, err := b.Add(ctx, report.RefSpec{Ref: ref})
		require.NoError(t, err)
	}

	tests := []struct {
		target string
		want   []ancestry.CommitID
	}{
		{"/commits/m2/predecessors", []ancestry.CommitID{"fork"}},
		{"/commits/m2/predecessors?all=true", []ancestry.CommitID{"fork", "root"}},
		{"/commits/root/successors", []ancestry.CommitID{"fork"}},
		{"/commits/root/successors?all=1", []ancestry.CommitID{"fork", "hotfix", "m2"}},
		{"/commits/root/predecessors", []ancestry.CommitID{}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr := do(t, s, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			var resp relativesResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.want, resp.Commits)
		})
	}

	rr := do(t, s, http.MethodGet, "/commits/zzz/successors", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, errors.ErrCodeUnknownCommit, decodeError(t, rr).Code)

	rr = do(t, s, http.MethodGet, "/commits/m2/successors?all=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGraph(t *testing.T) {
	s, b := newTestServer(t, releaseHistory())
	require.NoError(t, b.AddAll(context.Background(), []report.RefSpec{{Ref: "master"}, {Ref: "release"}}))

	rr := do(t, s, http.MethodGet, "/graph", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var doc struct {
		Caption string `json:"caption"`
		Nodes   []struct {
			ID string `json:"id"`
		} `json:"nodes"`
		Edges []struct {
			Source   string `json:"source"`
			Target   string `json:"target"`
			Distance int    `json:"distance"`
		} `json:"edges"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&doc))
	assert.Equal(t, "Branches", doc.Caption)
	assert.Len(t, doc.Nodes, 3)
	require.Len(t, doc.Edges, 2)
	for _, e := range doc.Edges {
		assert.Equal(t, "fork", e.Source)
		assert.Equal(t, 2, e.Distance, "%s..%s", e.Source, e.Target)
	}

	rr = do(t, s, http.MethodGet, "/graph?format=dot", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"fork" -> "m2" [label="2"];`)

	rr = do(t, s, http.MethodGet, "/graph?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, rr).Code)
}

func TestGraphSVGUsesRenderCache(t *testing.T) {
	mem, err := cache.NewMemoryCache(16)
	require.NoError(t, err)
	keyer := cache.NewScopedKeyer(nil, "test:")
	s, b := newTestServer(t, releaseHistory(), WithRenderCache(mem, keyer))
	ctx := context.Background()
	require.NoError(t, b.AddAll(ctx, []report.RefSpec{{Ref: "master"}}))

	rep, err := b.Report(ctx)
	require.NoError(t, err)
	key := keyer.RenderKey(nodelink.ToDOT(rep, nodelink.Options{}), "svg")
	cached := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><text>cached</text></svg>`)
	require.NoError(t, mem.Set(ctx, key, cached, 0))

	rr := do(t, s, http.MethodGet, "/graph?format=svg", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.Equal(cached, rr.Body.Bytes()))
}

func TestMetrics(t *testing.T) {
	t.Cleanup(observability.Reset)
	reg := prometheus.NewRegistry()
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetHTTPHooks(hooks)
	observability.SetGraphHooks(hooks)

	s, _ := newTestServer(t, releaseHistory(), WithMetrics(reg))
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/commits", `{"ref": "master"}`).Code)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/commits/m2/predecessors", "").Code)

	rr := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "gitdag_")
	assert.Contains(t, body, `route="/commits/{id}/predecessors"`)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, releaseHistory())
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodDelete, "/commits", "").Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, statusFor(errors.ErrCodeBackend))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(errors.ErrCodeTimeout))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.ErrCodeInternal))
}
