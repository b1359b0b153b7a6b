package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gitdag/pkg/ancestry"
	"github.com/matzehuels/gitdag/pkg/buildinfo"
	"github.com/matzehuels/gitdag/pkg/errors"
	pkgio "github.com/matzehuels/gitdag/pkg/io"
	"github.com/matzehuels/gitdag/pkg/observability"
	"github.com/matzehuels/gitdag/pkg/render/nodelink"
	"github.com/matzehuels/gitdag/pkg/report"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Nodes   int    `json:"nodes"`
}

type commitsResponse struct {
	Commits []ancestry.CommitID `json:"commits"`
}

type addResponse struct {
	ID    ancestry.CommitID `json:"id"`
	Ref   string            `json:"ref"`
	Nodes int               `json:"nodes"`
}

type relativesResponse struct {
	ID        ancestry.CommitID   `json:"id"`
	Direction string              `json:"direction"`
	All       bool                `json:"all"`
	Commits   []ancestry.CommitID `json:"commits"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: buildinfo.Version,
		Nodes:   s.builder.Graph().Len(),
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	rep, err := s.builder.Report(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		var buf bytes.Buffer
		if err := pkgio.WriteJSON(rep, &buf); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(nodelink.ToDOT(rep, nodelink.Options{})))
	case "svg":
		svg, err := s.renderSVG(r.Context(), rep)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		w.Write(svg)
	default:
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want json, dot or svg)", format))
	}
}

// renderSVG renders rep, reusing an earlier rendering of identical DOT.
func (s *Server) renderSVG(ctx context.Context, rep *report.Report) ([]byte, error) {
	dot := nodelink.ToDOT(rep, nodelink.Options{})
	key := s.keyer.RenderKey(dot, "svg")
	hooks := observability.Cache()

	if data, ok, err := s.render.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, "render")
		return data, nil
	}
	hooks.OnCacheMiss(ctx, "render")

	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render graph")
	}
	if err := s.render.Set(ctx, key, svg, 0); err != nil {
		s.logger.Warn("caching rendered graph failed", "err", err)
	} else {
		hooks.OnCacheSet(ctx, "render", len(svg))
	}
	return svg, nil
}

func (s *Server) handleListCommits(w http.ResponseWriter, r *http.Request) {
	ids := s.builder.Graph().IDs()
	if ids == nil {
		ids = []ancestry.CommitID{}
	}
	writeJSON(w, http.StatusOK, commitsResponse{Commits: ids})
}

func (s *Server) handleAddCommit(w http.ResponseWriter, r *http.Request) {
	var spec report.RefSpec
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	if err := errors.ValidateRef(spec.Ref); err != nil {
		s.writeError(w, r, err)
		return
	}
	if spec.URL != "" {
		if err := errors.ValidateURL(spec.URL); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	id, err := s.builder.Add(r.Context(), spec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("added commit", "ref", spec.Ref, "id", id.Short())
	writeJSON(w, http.StatusCreated, addResponse{ID: id, Ref: spec.Ref, Nodes: s.builder.Graph().Len()})
}

func (s *Server) handlePredecessors(w http.ResponseWriter, r *http.Request) {
	g := s.builder.Graph()
	s.relatives(w, r, "predecessors", g.DirectPredecessors, g.AllPredecessors)
}

func (s *Server) handleSuccessors(w http.ResponseWriter, r *http.Request) {
	g := s.builder.Graph()
	s.relatives(w, r, "successors", g.DirectSuccessors, g.AllSuccessors)
}

type relativesFunc func(ancestry.CommitID) ([]ancestry.CommitID, error)

func (s *Server) relatives(w http.ResponseWriter, r *http.Request, direction string, direct, all relativesFunc) {
	id := ancestry.CommitID(chi.URLParam(r, "id"))

	transitive := false
	if v := r.URL.Query().Get("all"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "all must be a boolean, got %q", v))
			return
		}
		transitive = b
	}

	query := direct
	if transitive {
		query = all
	}
	ids, err := query(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []ancestry.CommitID{}
	}
	writeJSON(w, http.StatusOK, relativesResponse{ID: id, Direction: direction, All: transitive, Commits: ids})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	err = errors.FromGraph(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: errors.UserMessage(err)}})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidRef, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeRefNotFound, errors.ErrCodeUnknownCommit:
		return http.StatusNotFound
	case errors.ErrCodeDuplicateCommit:
		return http.StatusConflict
	case errors.ErrCodeInconsistentHistory:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeBackend:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
