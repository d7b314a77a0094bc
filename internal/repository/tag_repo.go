package repository

import (
	"context"
	"database/sql"

	"github.com/conduit-api/internal/database"
	"github.com/conduit-api/internal/models"
)

// tagRepo is the concrete implementation of TagRepository
type tagRepo struct {
	db database.Querier
}

// NewTagRepo creates a new tag catalog repository
func NewTagRepo(db database.Querier) TagRepository {
	return &tagRepo{db: db}
}

// GetByText retrieves the catalog entry with exactly this text
func (r *tagRepo) GetByText(ctx context.Context, text string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.QueryRowContext(ctx,
		"SELECT id, tag, created_at FROM tags WHERE tag = $1", text,
	).Scan(&tag.ID, &tag.Tag, &tag.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// CreateIfAbsent relies on the UNIQUE(tag) constraint: a concurrent insert of
// the same text is skipped rather than duplicated
func (r *tagRepo) CreateIfAbsent(ctx context.Context, tag *models.Tag) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO tags (id, tag, created_at) VALUES ($1, $2, $3) ON CONFLICT (tag) DO NOTHING",
		tag.ID, tag.Tag, tag.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// ListTexts returns every catalog entry's text in alphabetical order
func (r *tagRepo) ListTexts(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT tag FROM tags ORDER BY tag")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
