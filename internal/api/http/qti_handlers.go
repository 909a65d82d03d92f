package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-qti/internal/metrics"
	"github.com/mind-engage/mindengage-qti/internal/project"
	"github.com/mind-engage/mindengage-qti/internal/qti"
	"github.com/mind-engage/mindengage-qti/internal/qti/convert"
	"github.com/mind-engage/mindengage-qti/internal/qti/edit"
	"github.com/mind-engage/mindengage-qti/internal/qti/export"
	"github.com/mind-engage/mindengage-qti/internal/qti/format"
	"github.com/mind-engage/mindengage-qti/internal/qti/parser"
	"github.com/mind-engage/mindengage-qti/internal/scoring"
)

type docRequest struct {
	Content string `json:"content"`
	Version string `json:"version,omitempty"`
}

// pick honours an explicit version and otherwise detects one from content.
func pick(w http.ResponseWriter, req docRequest) (*parser.Parser, bool) {
	if req.Version == "" {
		return parser.FromContent(req.Content), true
	}
	v, err := qti.ParseVersion(req.Version)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return parser.MustGet(v), true
}

// POST /qti/detect {content}
func (s *Server) detect(w http.ResponseWriter, r *http.Request) {
	var req docRequest
	if !s.decode(w, r, &req) {
		return
	}
	compatible := map[qti.Version]bool{}
	for _, v := range parser.Versions() {
		compatible[v] = parser.MustGet(v).IsCompatible(req.Content)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"format":     format.Detect(req.Content),
		"version":    parser.FromContent(req.Content).Version(),
		"compatible": compatible,
	})
}

// POST /qti/parse {content, version?}
// Parse failures are reported inside the result, never as HTTP errors.
func (s *Server) parse(w http.ResponseWriter, r *http.Request) {
	var req docRequest
	if !s.decode(w, r, &req) {
		return
	}
	ps, ok := pick(w, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.parseWith(ps, req.Content))
}

func (s *Server) parseWith(ps *parser.Parser, content string) qti.ParseResult {
	start := time.Now()
	res := ps.WithLogger(s.logger()).Parse(content)
	metrics.ObserveParse(string(ps.Version()), len(res.Items), len(res.Errors), time.Since(start))
	return res
}

// POST /qti/format {content}
func (s *Server) format(w http.ResponseWriter, r *http.Request) {
	var req docRequest
	if !s.decode(w, r, &req) {
		return
	}
	metrics.Mutations.WithLabelValues("format").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"content": edit.Format(req.Content)})
}

// POST /qti/convert {content, to: "json"|"xml"}; to defaults to the other format.
func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string        `json:"content"`
		To      format.Format `json:"to,omitempty"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	to := format.Format(strings.ToLower(string(req.To)))
	if to == "" {
		to = format.JSON
		if format.IsJSON(req.Content) {
			to = format.XML
		}
	}
	var (
		out string
		err error
	)
	switch to {
	case format.JSON:
		out, err = convert.XMLToJSON(req.Content)
	case format.XML:
		out, err = convert.JSONToXML(req.Content)
	default:
		http.Error(w, fmt.Sprintf("unknown target format %q", req.To), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	metrics.Mutations.WithLabelValues("convert").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"content": out, "format": to})
}

// POST /qti/items/insert {content, newItemXML | item, insertAfter?, version?}
// A missing insertAfter appends.
func (s *Server) insertItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		docRequest
		NewItemXML  string    `json:"newItemXML,omitempty"`
		Item        *qti.Item `json:"item,omitempty"`
		InsertAfter *int      `json:"insertAfter,omitempty"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	ps, ok := pick(w, req.docRequest)
	if !ok {
		return
	}
	newItem := req.NewItemXML
	if newItem == "" && req.Item != nil {
		newItem = export.BuildItem(*req.Item, ps.Version())
	}
	if strings.TrimSpace(newItem) == "" {
		http.Error(w, "newItemXML or item required", http.StatusBadRequest)
		return
	}
	at := edit.AppendIndex
	if req.InsertAfter != nil {
		at = *req.InsertAfter
	}
	metrics.Mutations.WithLabelValues("insert").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"content": ps.InsertItem(req.Content, newItem, at)})
}

// POST /qti/items/reorder {content, from, to, version?}
func (s *Server) reorderItems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		docRequest
		From int `json:"from"`
		To   int `json:"to"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	ps, ok := pick(w, req.docRequest)
	if !ok {
		return
	}
	metrics.Mutations.WithLabelValues("reorder").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"content": ps.ReorderItems(req.Content, req.From, req.To)})
}

// POST /qti/items/correct-response {content, itemId, value, version?}
func (s *Server) correctResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		docRequest
		ItemID string     `json:"itemId"`
		Value  *qti.Value `json:"value"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.ItemID == "" || req.Value == nil {
		http.Error(w, "itemId and value required", http.StatusBadRequest)
		return
	}
	ps, ok := pick(w, req.docRequest)
	if !ok {
		return
	}
	metrics.Mutations.WithLabelValues("correct_response").Inc()
	writeJSON(w, http.StatusOK, map[string]string{
		"content": ps.UpdateCorrectResponse(req.Content, req.ItemID, *req.Value),
	})
}

type override struct {
	Points float64 `json:"points"`
	Note   string  `json:"note,omitempty"`
}

// POST /qti/score {content, responses: {itemId: value}, overrides?: {itemId: {points, note}}}
func (s *Server) score(w http.ResponseWriter, r *http.Request) {
	var req struct {
		docRequest
		Responses map[string]qti.Value `json:"responses"`
		Overrides map[string]override  `json:"overrides,omitempty"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	ps, ok := pick(w, req.docRequest)
	if !ok {
		return
	}
	res := s.parseWith(ps, req.Content)
	eng := s.scorer()
	scores := make([]scoring.ItemScore, 0, len(res.Items))
	for _, it := range res.Items {
		var resp *qti.Value
		if v, ok := req.Responses[it.ID]; ok {
			resp = &v
		}
		sc := eng.ItemScore(it, resp)
		if o, ok := req.Overrides[it.ID]; ok {
			sc = scoring.Override(sc, o.Points, o.Note)
		}
		metrics.ScoredItems.WithLabelValues(scoreResult(sc)).Inc()
		scores = append(scores, sc)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"score":  eng.TotalScore(scores),
		"errors": res.Errors,
	})
}

func scoreResult(sc scoring.ItemScore) string {
	switch {
	case sc.RequiresManualScoring:
		return "manual"
	case sc.IsCorrect != nil && *sc.IsCorrect:
		return "correct"
	}
	return "incorrect"
}

// GET /qti/templates/{version}
func (s *Server) template(w http.ResponseWriter, r *http.Request) {
	v, err := qti.ParseVersion(chi.URLParam(r, "version"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = io.WriteString(w, parser.MustGet(v).BlankTemplate())
}

// POST /qti/import (multipart: file=package.zip, name?)
// The package is kept in blob storage and its items become one project.
func (s *Server) importPackage(w http.ResponseWriter, r *http.Request) {
	limit := s.Config.MaxUploadBytes
	if limit <= 0 {
		limit = 20 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file required", http.StatusBadRequest)
		return
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		http.Error(w, "read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	pkg, err := parser.ReadPackage(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, parser.ErrNoManifest) && !errors.Is(err, parser.ErrUnsafePath) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, "package: "+err.Error(), status)
		return
	}
	if len(pkg.Items) == 0 {
		http.Error(w, "package holds no items", http.StatusUnprocessableEntity)
		return
	}

	content := ""
	for _, it := range pkg.Items {
		content = edit.InsertItem(content, it.Content, edit.AppendIndex)
	}
	name := r.FormValue("name")
	if name == "" {
		name = strings.TrimSuffix(hdr.Filename, ".zip")
	}
	p := project.New(name, content, s.Config.DefaultQTIVersion)

	key := ""
	if s.Blobs != nil {
		if key, err = s.Blobs.Put("imports/"+uuid.NewString()+".zip", bytes.NewReader(b)); err != nil {
			http.Error(w, "store package: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}
	p, err = s.Projects.Put(r.Context(), p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger().Info("qti package imported", "project", p.ID, "items", len(pkg.Items), "file", hdr.Filename)
	writeJSON(w, http.StatusCreated, map[string]any{
		"projectId":  p.ID,
		"itemCount":  p.ItemCount,
		"packageKey": key,
		"filename":   hdr.Filename,
	})
}
