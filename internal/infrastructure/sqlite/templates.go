package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flyerkit/backend/internal/domain"
)

const templateColumns = `id, name, theme_color_hex, theme_hero_path, theme_bg_path, created_at, updated_at`

func scanTemplate(row rowScanner) (*domain.Template, error) {
	var t domain.Template
	err := row.Scan(&t.ID, &t.Name, &t.Theme.ColorHex, &t.Theme.HeroPath, &t.Theme.BackgroundPath, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTemplate inserts a template and sets its id and timestamps
func (s *Store) CreateTemplate(ctx context.Context, template *domain.Template) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO templates (name, theme_color_hex, theme_hero_path, theme_bg_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		template.Name, template.Theme.ColorHex, template.Theme.HeroPath, template.Theme.BackgroundPath, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read template id: %w", err)
	}
	template.ID = id
	template.CreatedAt = ts
	template.UpdatedAt = ts
	return nil
}

// GetTemplate returns the template with the given id
func (s *Store) GetTemplate(ctx context.Context, id int64) (*domain.Template, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

// ListTemplates returns all templates, newest first
func (s *Store) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM templates ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []domain.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// UpdateTemplate overwrites name and theme
func (s *Store) UpdateTemplate(ctx context.Context, template *domain.Template) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE templates SET name = ?, theme_color_hex = ?, theme_hero_path = ?, theme_bg_path = ?, updated_at = ? WHERE id = ?`,
		template.Name, template.Theme.ColorHex, template.Theme.HeroPath, template.Theme.BackgroundPath, ts, template.ID)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTemplateNotFound
	}
	template.UpdatedAt = ts
	return nil
}

// DeleteTemplate removes a template
func (s *Store) DeleteTemplate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}
