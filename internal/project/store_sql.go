package project

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-qti/internal/qti"
	"github.com/mind-engage/mindengage-qti/internal/qti/format"
)

// SQLStore works against the projects table of internal/db on sqlite and
// postgres; both accept $n placeholders.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Put(ctx context.Context, p Project) (Project, error) {
	now := s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `INSERT INTO projects (id,name,version,format,content,item_count,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, version=EXCLUDED.version, format=EXCLUDED.format,
			content=EXCLUDED.content, item_count=EXCLUDED.item_count, updated_at=EXCLUDED.updated_at`,
		p.ID, p.Name, string(p.Version), string(p.Format), p.Content, p.ItemCount,
		p.CreatedAt.UnixMilli(), p.UpdatedAt.UnixMilli())
	if err != nil {
		return Project{}, err
	}
	// created_at is kept on conflict; read it back.
	return s.Get(ctx, p.ID)
}

type scanner interface{ Scan(dest ...any) error }

func scanProject(r scanner, withContent bool) (Project, error) {
	var (
		p                Project
		version, fmtName string
		created, updated int64
	)
	dest := []any{&p.ID, &p.Name, &version, &fmtName, &p.ItemCount, &created, &updated}
	if withContent {
		dest = append(dest, &p.Content)
	}
	if err := r.Scan(dest...); err != nil {
		return Project{}, err
	}
	p.Version = qti.Version(version)
	p.Format = format.Format(fmtName)
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return p, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,version,format,item_count,created_at,updated_at,content
		FROM projects WHERE id=$1`, id)
	p, err := scanProject(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	return p, err
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Project, error) {
	opts = opts.normalized()
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,version,format,item_count,created_at,updated_at
		FROM projects ORDER BY updated_at DESC, id ASC LIMIT $1 OFFSET $2`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Project{}
	for rows.Next() {
		p, err := scanProject(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
