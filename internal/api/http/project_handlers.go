package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-qti/internal/project"
	"github.com/mind-engage/mindengage-qti/internal/qti/convert"
	"github.com/mind-engage/mindengage-qti/internal/qti/edit"
	"github.com/mind-engage/mindengage-qti/internal/qti/export"
	"github.com/mind-engage/mindengage-qti/internal/qti/format"
	"github.com/mind-engage/mindengage-qti/internal/qti/parser"
)

func (s *Server) projectError(w http.ResponseWriter, err error) {
	if errors.Is(err, project.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.logger().Error("project store", "err", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// GET /projects?limit=&offset=
func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	ps, err := s.Projects.List(r.Context(), project.ListOpts{Limit: limit, Offset: offset})
	if err != nil {
		s.projectError(w, err)
		return
	}
	if ps == nil {
		ps = []project.Project{}
	}
	writeJSON(w, http.StatusOK, ps)
}

type projectRequest struct {
	Name    *string `json:"name"`
	Content *string `json:"content"`
}

// POST /projects {name, content?}
func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !s.decode(w, r, &req) {
		return
	}
	var name, content string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Content != nil {
		content = *req.Content
	}
	p, err := s.Projects.Put(r.Context(), project.New(name, content, s.Config.DefaultQTIVersion))
	if err != nil {
		s.projectError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.Projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.projectError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PUT /projects/{id} {name?, content?}
func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.Projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.projectError(w, err)
		return
	}
	if req.Name != nil && *req.Name != "" {
		p.Name = *req.Name
	}
	if req.Content != nil {
		p.SetContent(*req.Content)
	}
	if p, err = s.Projects.Put(r.Context(), p); err != nil {
		s.projectError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.Projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.projectError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /projects/{id}/export
// Every item of the project becomes one file of an IMS content package.
func (s *Server) exportProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.Projects.Get(r.Context(), id)
	if err != nil {
		s.projectError(w, err)
		return
	}
	pkg, err := PackageProject(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if s.Blobs != nil {
		if _, err := s.Blobs.Put("exports/"+p.ID+".zip", bytes.NewReader(pkg)); err != nil {
			s.logger().Warn("export: store package failed", "project", p.ID, "err", err)
		}
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+p.ID+".zip\"")
	http.ServeContent(w, r, p.ID+".zip", time.Now(), bytes.NewReader(pkg))
}

// PackageProject splits the project document into standalone items and zips
// them with a manifest.
func PackageProject(p project.Project) ([]byte, error) {
	xml := p.Content
	if p.Format == format.JSON {
		var err error
		if xml, err = convert.JSONToXML(p.Content); err != nil {
			return nil, err
		}
	}
	items := edit.SplitItems(xml)
	if len(items) == 0 {
		return nil, fmt.Errorf("project %s holds no items", p.ID)
	}
	entries := make([]export.Entry, 0, len(items))
	for i, it := range items {
		e := export.Entry{Content: it}
		if res := parser.FromContent(it).Parse(it); len(res.Items) == 1 {
			e.Identifier = res.Items[0].ID
		}
		if e.Identifier == "" {
			e.Identifier = fmt.Sprintf("item-%d", i+1)
		}
		entries = append(entries, e)
	}
	return export.BuildPackage(entries, p.Version)
}
