// Package project persists QTI documents being edited.
package project

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-qti/internal/qti"
	"github.com/mind-engage/mindengage-qti/internal/qti/export"
	"github.com/mind-engage/mindengage-qti/internal/qti/format"
	"github.com/mind-engage/mindengage-qti/internal/qti/parser"
)

var ErrNotFound = errors.New("project not found")

// Project is one editable QTI document. Content is the source of truth; the
// item count is refreshed whenever content changes.
type Project struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Version   qti.Version   `json:"version"`
	Format    format.Format `json:"format"`
	Content   string        `json:"content,omitempty"`
	ItemCount int           `json:"itemCount"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type ListOpts struct {
	Limit  int
	Offset int
}

func (o ListOpts) normalized() ListOpts {
	if o.Limit <= 0 || o.Limit > 500 {
		o.Limit = 100
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Store keeps projects. List returns projects most recently updated first
// without their content.
type Store interface {
	Put(ctx context.Context, p Project) (Project, error)
	Get(ctx context.Context, id string) (Project, error)
	List(ctx context.Context, opts ListOpts) ([]Project, error)
	Delete(ctx context.Context, id string) error
}

// New builds a project around content. Empty content starts from the blank
// item template of def.
func New(name, content string, def qti.Version) Project {
	p := Project{ID: uuid.NewString(), Name: strings.TrimSpace(name)}
	if p.Name == "" {
		p.Name = "Untitled Project"
	}
	if strings.TrimSpace(content) == "" {
		content = export.BlankItem(def)
	}
	p.SetContent(content)
	return p
}

// SetContent replaces the document and re-derives version, format and item count.
func (p *Project) SetContent(content string) {
	ps := parser.FromContent(content)
	p.Content = content
	p.Format = format.Detect(content)
	p.Version = ps.Version()
	p.ItemCount = len(ps.Parse(content).Items)
}
