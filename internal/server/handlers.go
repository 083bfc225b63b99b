package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mindmap/pkg/document"
	apperrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/pipeline"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// =============================================================================
// Browser editor backend
// =============================================================================

type saveRequest struct {
	ModelData json.RawMessage `json:"modelData"`
	Filename  string          `json:"filename"`
}

// handleSave stores a model exactly as the editor sent it. modelData may be
// the model object or its JSON text.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeBody(w, r, &req); err != nil {
		legacyError(w, err)
		return
	}
	if err := apperrors.ValidateMapName(req.Filename); err != nil {
		legacyError(w, err)
		return
	}
	doc, err := decodeModel(req.ModelData)
	if err != nil {
		legacyError(w, err)
		return
	}
	if err := s.sessions.Save(r.Context(), req.Filename, doc); err != nil {
		legacyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "filename")); err != nil {
		legacyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGetMindmap(w http.ResponseWriter, r *http.Request) {
	s.writeMap(w, r, chi.URLParam(r, "filename"))
}

func (s *Server) writeMap(w http.ResponseWriter, r *http.Request, name string) {
	doc, err := s.sessions.Document(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeDocument(w, http.StatusOK, doc)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	names, err := s.sessions.Store().List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// =============================================================================
// Map resources
// =============================================================================

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	names, err := s.sessions.Store().List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"maps": names})
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	s.writeMap(w, r, chi.URLParam(r, "name"))
}

// handlePutMap stores a new or replacement map, balanced and laid out.
func (s *Server) handlePutMap(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := apperrors.ValidateMapName(name); err != nil {
		writeError(w, err)
		return
	}
	doc, err := readDocument(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := s.sessions.Put(r.Context(), name, doc)
	if err != nil {
		writeError(w, apperrors.FromTree(err))
		return
	}
	writeDocument(w, http.StatusOK, out)
}

func (s *Server) handleDeleteMap(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statsResponse struct {
	Nodes   int `json:"nodes"`
	Height  int `json:"height"`
	Left    int `json:"left"`
	Right   int `json:"right"`
	Visible int `json:"visible"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var resp statsResponse
	err := s.sessions.View(r.Context(), chi.URLParam(r, "name"), func(ed *mindmap.Editor) error {
		resp.Nodes = ed.Len()
		resp.Height = ed.Height()
		resp.Left, resp.Right = ed.Sums()
		resp.Visible = len(ed.VisibleSet())
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

// handleRender draws the map as it currently stands, without rebalancing.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		writeError(w, apperrors.New(apperrors.ErrCodeUnsupported, "rendering is disabled"))
		return
	}
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "unsupported format %q", format))
		return
	}
	doc, err := s.sessions.Document(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	opts := pipeline.Options{
		Formats:  []string{format},
		All:      q.Get("all") == "true",
		Detailed: q.Get("detailed") == "true",
		Refresh:  q.Get("refresh") == "true",
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid scale %q", v))
			return
		}
		opts.PNGScale = scale
	}
	artifacts, _, hit, err := s.runner.RenderWithCacheInfo(r.Context(), doc.Nodes, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Cache", cacheHeader(hit))
	w.WriteHeader(http.StatusOK)
	w.Write(artifacts[format])
}

// handleBalance balances and lays out a posted map without storing it.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	opts := pipeline.Options{
		Collapse: q.Get("collapse") == "true",
		Paint:    q.Get("paint") == "true",
		Logger:   s.log,
	}
	if v := q.Get("depth"); v != "" {
		depth, err := parseDepth(v)
		if err != nil {
			writeError(w, err)
			return
		}
		opts.ExpandDepth = depth
	}
	ed, err := pipeline.GenerateLayout(r.Context(), doc, opts)
	if err != nil {
		writeError(w, apperrors.FromTree(err))
		return
	}
	out := document.New(ed.Snapshot())
	out.Extra = doc.Extra
	writeDocument(w, http.StatusOK, out)
}

// =============================================================================
// Whole-map operations
// =============================================================================

func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, ed *mindmap.Editor) error) {
	doc, err := s.sessions.Edit(r.Context(), chi.URLParam(r, "name"), fn)
	if err != nil {
		writeError(w, apperrors.FromTree(err))
		return
	}
	writeDocument(w, http.StatusOK, doc)
}

func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ctx context.Context, ed *mindmap.Editor) error {
		return ed.RebalanceAndLayout(ctx)
	})
}

func (s *Server) handleExpandAll(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ctx context.Context, ed *mindmap.Editor) error {
		return ed.ExpandAll(ctx)
	})
}

func (s *Server) handleCollapseAll(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ctx context.Context, ed *mindmap.Editor) error {
		return ed.CollapseAll(ctx)
	})
}

// =============================================================================
// Node operations
// =============================================================================

type visibilityRequest struct {
	Expand bool `json:"expand"`
	Depth  int  `json:"depth"`
}

type childRequest struct {
	Text string `json:"text"`
}

type moveRequest struct {
	Side string `json:"side"`
}

type dropRequest struct {
	Loc string `json:"loc"`
}

type textRequest struct {
	Text string `json:"text"`
}

type sourceResponse struct {
	Key   tree.Key `json:"key"`
	Title string   `json:"title"`
	URL   string   `json:"url"`
}

// editNode parses the key path parameter and runs fn through edit.
func (s *Server) editNode(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, ed *mindmap.Editor, key tree.Key) error) {
	key, err := nodeKey(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.edit(w, r, func(ctx context.Context, ed *mindmap.Editor) error {
		return fn(ctx, ed, key)
	})
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := apperrors.ValidateDepth(req.Depth); err != nil {
		writeError(w, err)
		return
	}
	s.editNode(w, r, func(ctx context.Context, ed *mindmap.Editor, key tree.Key) error {
		return ed.SetVisibility(ctx, key, req.Expand, req.Depth)
	})
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	depth := mindmap.DefaultExpandDepth
	if v := r.URL.Query().Get("depth"); v != "" {
		var err error
		if depth, err = parseDepth(v); err != nil {
			writeError(w, err)
			return
		}
	}
	s.editNode(w, r, func(ctx context.Context, ed *mindmap.Editor, key tree.Key) error {
		return ed.SetVisibility(ctx, key, true, depth)
	})
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	s.editNode(w, r, func(ctx context.Context, ed *mindmap.Editor, key tree.Key) error {
		return ed.Collapse(ctx, key)
	})
}

func (s *Server) handleLayoutSubtree(w http.ResponseWriter, r *http.Request) {
	s.editNode(w, r, func(ctx context.Context, ed *mindmap.Editor, key tree.Key) error {
		return ed.LayoutSubtree(ctx, key)
	})
}

func (s *Server) handleAddChild(w http.ResponseWriter, r *http.Request) {
	var req childRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	parent, err := nodeKey(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var child tree.Key
	doc, err := s.sessions.Edit(r.Context(), chi.URLParam(r, "name"), func(ctx context.Context, ed *mindmap.Editor) error {
		var err error
		child, err = ed.AddChild(ctx, parent, req.Text)
		return err
	})
	if err != nil {
		writeError(w, apperrors.FromTree(err))
		return
	}
	name := chi.URLParam(r, "name")
	w.Header().Set("Location", fmt.Sprintf("/api/maps/%s/nodes/%d", url.PathEscape(name), child))
	writeJSON(w, http.StatusCreated, struct {
		Key tree.Key        `json:"key"`
		Map json.RawMessage `json:"map"`
	}{child, mustMarshal(doc)})
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	s.editNode(w, r, func(ctx context.Context, ed *mindmap.Editor, key tree.Key) error {
		return ed.Delete(ctx, key)
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	side, err := tree.ParseDirection(req.Side)
	if err != nil || side == tree.None {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "side must be left or right"))
		return
	}
	s.editNode(w, r, func(ctx context.Context, ed *mindmap.Editor, key tree.Key) error {
		return ed.MoveBranch(ctx, key, side)
	})
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if _, _, err := mindmap.ParseLoc(req.Loc); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid location %q", req.Loc))
		return
	}
	s.editNode(w, r, func(ctx context.Context, ed *mindmap.Editor, key tree.Key) error {
		_, err := ed.Drop(ctx, key, req.Loc)
		return err
	})
}

func (s *Server) handleSetText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.editNode(w, r, func(ctx context.Context, ed *mindmap.Editor, key tree.Key) error {
		return ed.SetText(ctx, key, req.Text)
	})
}

// handleSource resolves the page a node was generated from and links to the
// section named by ?section=, or to the node's own text.
func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	key, err := nodeKey(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var resp sourceResponse
	err = s.sessions.View(r.Context(), chi.URLParam(r, "name"), func(ed *mindmap.Editor) error {
		n, ok := ed.Node(key)
		if !ok {
			return apperrors.FromTree(&tree.UnknownNodeError{Key: key})
		}
		title, ok := ed.ResolveSourceTitle(key)
		if !ok {
			return apperrors.New(apperrors.ErrCodeNotFound, "node %d has no source page", key)
		}
		section := r.URL.Query().Get("section")
		if section == "" {
			section = n.Text
		}
		resp = sourceResponse{Key: key, Title: title, URL: mindmap.SectionURL(s.sourceBase, title, section)}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Helpers
// =============================================================================

func nodeKey(r *http.Request) (tree.Key, error) {
	raw := chi.URLParam(r, "key")
	k, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid node key %q", raw)
	}
	return tree.Key(k), nil
}

func parseDepth(v string) (int, error) {
	d, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.New(apperrors.ErrCodeInvalidDepth, "depth must be an integer, got %q", v)
	}
	return d, apperrors.ValidateDepth(d)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func readDocument(w http.ResponseWriter, r *http.Request) (*document.Document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	doc, err := document.Read(r.Body)
	if err != nil {
		return nil, modelError(err)
	}
	return doc, nil
}

// decodeModel accepts a model object or a JSON string holding one.
func decodeModel(raw json.RawMessage) (*document.Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "modelData is required")
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid modelData")
		}
		raw = []byte(text)
	}
	doc, err := document.Unmarshal(raw)
	if err != nil {
		return nil, modelError(err)
	}
	return doc, nil
}

func modelError(err error) error {
	if errors.Is(err, document.ErrUnsupportedModel) {
		return apperrors.Wrap(apperrors.ErrCodeUnsupported, err, "only tree models are supported")
	}
	return apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "invalid map document")
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
