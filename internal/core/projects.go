package core

import (
	"context"

	"github.com/JonMunkholm/polyglot/internal/logging"
	"github.com/JonMunkholm/polyglot/internal/store"
)

const projectColumns = `id, slug, name, created_at`

type projectRow struct {
	ID        string `db:"id"`
	Slug      string `db:"slug"`
	Name      string `db:"name"`
	CreatedAt int64  `db:"created_at"`
}

func (r projectRow) toProject() Project {
	return Project{ID: r.ID, Slug: r.Slug, Name: r.Name, CreatedAt: fromMillis(r.CreatedAt)}
}

// CreateProject registers a new project. The slug is lowercased and must be
// unique.
func (s *Service) CreateProject(ctx context.Context, slug, name string) (Project, error) {
	slug, err := normalizeSlug(slug)
	if err != nil {
		return Project{}, err
	}
	name, err = validateProjectName(name)
	if err != nil {
		return Project{}, err
	}

	row := projectRow{ID: newID(), Slug: slug, Name: name, CreatedAt: s.nowMillis()}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO i18n_projects (id, slug, name, created_at) VALUES (?, ?, ?, ?)`,
		row.ID, row.Slug, row.Name, row.CreatedAt)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Project{}, duplicateSlug(slug)
		}
		return Project{}, storageErr("create project", err)
	}

	logging.FromContext(ctx).Info("project created", "project_id", row.ID, "slug", slug)
	return row.toProject(), nil
}

// ListProjects returns all projects ordered by slug.
func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	var rows []projectRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+projectColumns+` FROM i18n_projects ORDER BY slug`); err != nil {
		return nil, storageErr("list projects", err)
	}

	projects := make([]Project, len(rows))
	for i, r := range rows {
		projects[i] = r.toProject()
	}
	return projects, nil
}

// ProjectBySlug looks a project up by its (case-insensitive) slug.
func (s *Service) ProjectBySlug(ctx context.Context, slug string) (Project, error) {
	normalized, err := normalizeSlug(slug)
	if err != nil {
		return Project{}, notFound("project", slug)
	}

	var row projectRow
	err = s.db.GetContext(ctx, &row,
		`SELECT `+projectColumns+` FROM i18n_projects WHERE slug = ?`, normalized)
	if err != nil {
		if store.IsNotFound(err) {
			return Project{}, notFound("project", slug)
		}
		return Project{}, storageErr("get project", err)
	}
	return row.toProject(), nil
}

// projectByID loads a project inside an operation.
func projectByID(ctx context.Context, q store.Querier, id string) (Project, error) {
	var row projectRow
	err := q.GetContext(ctx, &row,
		`SELECT `+projectColumns+` FROM i18n_projects WHERE id = ?`, id)
	if err != nil {
		if store.IsNotFound(err) {
			return Project{}, notFound("project", id)
		}
		return Project{}, storageErr("get project", err)
	}
	return row.toProject(), nil
}
