package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cartoflow/cartoflow/pkg/cache"
	"github.com/cartoflow/cartoflow/pkg/errors"
	flowio "github.com/cartoflow/cartoflow/pkg/io"
	"github.com/cartoflow/cartoflow/pkg/layout"
	"github.com/cartoflow/cartoflow/pkg/model"
	"github.com/cartoflow/cartoflow/pkg/pipeline"
	"github.com/cartoflow/cartoflow/pkg/store"
)

// maxRequestBody caps request payloads at 8 MiB.
const maxRequestBody = 8 << 20

// layoutRequest is the body of POST /api/layout.
type layoutRequest struct {
	// Format is csv or json; Data is the flow data in that format.
	Format string `json:"format"`
	Data   string `json:"data"`

	// Name labels the run; required when Save is set.
	Name string `json:"name,omitempty"`
	Save bool   `json:"save,omitempty"`

	// Iterations overrides the default when positive.
	Iterations int `json:"iterations,omitempty"`

	// Output selection.
	Formats []string `json:"formats,omitempty"`
	Width   int      `json:"width,omitempty"`
	Height  int      `json:"height,omitempty"`
}

// layoutResponse is the body of a successful POST /api/layout.
type layoutResponse struct {
	ID        string            `json:"id,omitempty"`
	ModelHash string            `json:"model_hash"`
	NodeCount int               `json:"node_count"`
	FlowCount int               `json:"flow_count"`
	Grade     layout.Grade      `json:"grade"`
	Artifacts map[string]string `json:"artifacts"`
}

// documentResponse wraps a stored layout with its metadata.
type documentResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Layout    json.RawMessage `json:"layout,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req layoutRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.Data == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "data is required"))
		return
	}
	if req.Save && req.Name == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidName, "name is required to save"))
		return
	}

	params := model.DefaultParams()
	if req.Iterations > 0 {
		params.Iterations = req.Iterations
	}

	var m *model.Model
	var err error
	switch req.Format {
	case pipeline.InputCSV:
		m, err = flowio.ReadCSV(strings.NewReader(req.Data), params)
	case pipeline.InputJSON:
		m, err = flowio.ReadJSON(strings.NewReader(req.Data), params)
	default:
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be csv or json)", req.Format))
		return
	}
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", req.Format))
		return
	}

	name := req.Name
	if name == "" {
		name = "inline"
	}
	opts := pipeline.Options{
		Input:   name + "." + req.Format,
		Formats: req.Formats,
		Width:   req.Width,
		Height:  req.Height,
	}

	laidOut, err := s.runner.Layout(ctx, m, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artifacts, err := s.runner.Render(ctx, laidOut, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := layoutResponse{
		NodeCount: laidOut.NodeCount(),
		FlowCount: laidOut.FlowCount(),
		Grade:     layout.GradeModel(laidOut),
		Artifacts: make(map[string]string, len(artifacts)),
	}
	for format, data := range artifacts {
		resp.Artifacts[format] = string(data)
	}

	var payload strings.Builder
	if err := flowio.WriteJSON(laidOut, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp.ModelHash = cache.Hash([]byte(payload.String()))

	if req.Save {
		if s.store == nil {
			s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no layout store configured"))
			return
		}
		doc, err := store.NewDocument(req.Name, []byte(payload.String()))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.store.Put(ctx, doc); err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.ID = doc.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no layout store configured"))
		return
	}
	docs, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentResponse{
			ID:        doc.ID,
			Name:      doc.Name,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no layout store configured"))
		return
	}
	doc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{
		ID:        doc.ID,
		Name:      doc.Name,
		Layout:    json.RawMessage(doc.Payload),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	})
}

func (s *Server) handlePutLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.store == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no layout store configured"))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	// The payload must parse as a layout document before it replaces one.
	if _, err := flowio.ReadJSON(strings.NewReader(string(payload)), model.DefaultParams()); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse layout document"))
		return
	}

	doc, err := s.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc.Payload = payload
	if err := s.store.Put(ctx, doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{
		ID:        doc.ID,
		Name:      doc.Name,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	})
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"id", requestIDFrom(r.Context()),
			"path", r.URL.Path,
			"err", err)
	}

	var resp errorResponse
	resp.Error.Code = string(code)
	resp.Error.Message = errors.UserMessage(err)
	writeJSON(w, status, resp)
}

// statusFor maps error codes onto HTTP status codes.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidParams,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidGeometry,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidName:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound,
		errors.ErrCodeFlowNotFound, errors.ErrCodeLayoutNotFound,
		errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeLayoutCanceled:
		return 499 // client closed request
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
