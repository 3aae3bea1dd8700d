package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/matzehuels/pagesetter/pkg/buildinfo"
	"github.com/matzehuels/pagesetter/pkg/cache"
	"github.com/matzehuels/pagesetter/pkg/compose"
	"github.com/matzehuels/pagesetter/pkg/document"
	errs "github.com/matzehuels/pagesetter/pkg/errors"
	"github.com/matzehuels/pagesetter/pkg/pipeline"
	"github.com/matzehuels/pagesetter/pkg/planner"
	"github.com/matzehuels/pagesetter/pkg/render/sink"
)

// Request is the body shared by every POST endpoint. Fields that an
// endpoint does not use are ignored.
type Request struct {
	Source   string                 `json:"source,omitempty"`
	Input    json.RawMessage        `json:"input"`
	Zoom     float64                `json:"zoom,omitempty"`
	Preset   string                 `json:"preset,omitempty"`
	Template *document.PageTemplate `json:"template,omitempty"`
	Refresh  bool                   `json:"refresh,omitempty"`

	// Render
	Format string `json:"format,omitempty"`
	Labels *bool  `json:"labels,omitempty"`

	// Diff and apply
	Operations []planner.Operation `json:"operations,omitempty"`
}

// ComposeResponse is the body of /v1/compose.
type ComposeResponse struct {
	Hash   string         `json:"hash"`
	Result compose.Result `json:"result"`
	Stats  compose.Stats  `json:"stats"`
	Cached bool           `json:"cached"`
}

// PlanResponse is the body of /v1/plan.
type PlanResponse struct {
	Plan     planner.Plan      `json:"plan"`
	Warnings []compose.Warning `json:"warnings"`
	Cached   bool              `json:"cached"`
}

// DiffResponse is the body of /v1/diff.
type DiffResponse struct {
	Entries []planner.DiffEntry    `json:"entries"`
	Summary map[planner.Status]int `json:"summary"`
}

// ApplyResponse is the body of /v1/apply. Only pending operations are
// applied; Skipped lists the diff entries of the applied and blocked ones.
type ApplyResponse struct {
	Document document.Tree       `json:"document"`
	Applied  []string            `json:"applied"`
	Skipped  []planner.DiffEntry `json:"skipped"`
}

var contentTypes = map[string]string{
	sink.FormatJSON: "application/json",
	sink.FormatSVG:  "image/svg+xml",
	sink.FormatPDF:  "application/pdf",
}

// HeaderPageCount reports the page count of a /v1/render artifact.
const HeaderPageCount = "X-Page-Count"

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (Request, error) {
	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, err
		}
		return req, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode request")
	}
	if len(bytes.TrimSpace(req.Input)) == 0 || bytes.Equal(bytes.TrimSpace(req.Input), []byte("null")) {
		return req, errs.New(errs.ErrCodeInvalidInput, "input is required")
	}
	return req, nil
}

// options merges the request into the server defaults.
func (s *Server) options(req Request) (pipeline.Options, error) {
	opts := s.opts.Defaults
	opts.Source = req.Source
	opts.Refresh = req.Refresh
	opts.Logger = s.log

	input := []byte(req.Input)
	if trimmed := bytes.TrimSpace(input); len(trimmed) > 0 && trimmed[0] == '"' {
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return opts, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode input")
		}
		input = []byte(str)
	}
	opts.Input = input

	if req.Zoom != 0 {
		opts.Zoom = req.Zoom
	}
	if req.Preset != "" {
		opts.Preset = req.Preset
		opts.Template = nil
	}
	if req.Template != nil {
		opts.Template = req.Template
	}
	if req.Labels != nil {
		opts.Labels = *req.Labels
	}
	return opts, nil
}

// load decodes the request and loads its document.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (Request, pipeline.Options, document.Document, error) {
	req, err := s.decode(w, r)
	if err != nil {
		return req, pipeline.Options{}, document.Document{}, err
	}
	opts, err := s.options(req)
	if err != nil {
		return req, opts, document.Document{}, err
	}
	doc, err := s.runner.Load(r.Context(), opts)
	return req, opts, doc, err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Current(),
	})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	type preset struct {
		document.PageTemplate
		UsableHeight float64 `json:"usableHeight"`
	}
	out := make([]preset, 0, len(document.PresetNames()))
	for _, name := range document.PresetNames() {
		t, _ := document.Preset(name)
		out = append(out, preset{PageTemplate: t, UsableHeight: t.UsableHeight()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": out})
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	_, opts, doc, err := s.load(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	hash, err := cache.HashJSON(doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, hit, err := s.runner.ComposeWithCacheInfo(r.Context(), doc, opts.Refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ComposeResponse{Hash: hash, Result: res, Stats: res.Stats(), Cached: hit})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.options(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := req.Format
	if format == "" {
		format = sink.FormatJSON
	}
	opts.Formats = []string{format}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set(HeaderPageCount, strconv.Itoa(len(result.Rendered.Pages)))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Artifacts[format])
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	_, opts, doc, err := s.load(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, _, err := s.runner.ComposeWithCacheInfo(r.Context(), doc, opts.Refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, hit, err := s.runner.PlanWithCacheInfo(r.Context(), doc, res, opts.Refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PlanResponse{Plan: plan, Warnings: res.Warnings, Cached: hit})
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	req, _, doc, err := s.load(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries := planner.DiffPlanOperations(req.Operations, planner.NewDocumentContext(&doc))
	writeJSON(w, http.StatusOK, DiffResponse{Entries: entries, Summary: planner.Summary(entries)})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	req, _, doc, err := s.load(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries := planner.DiffPlanOperations(req.Operations, planner.NewDocumentContext(&doc))
	pending, skipped := planner.Pending(req.Operations, entries)
	patched, err := planner.Apply(doc, pending)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	applied := make([]string, len(pending))
	for i, op := range pending {
		applied[i] = op.ID
	}
	if skipped == nil {
		skipped = []planner.DiffEntry{}
	}
	writeJSON(w, http.StatusOK, ApplyResponse{
		Document: document.ToTree(&patched),
		Applied:  applied,
		Skipped:  skipped,
	})
}
