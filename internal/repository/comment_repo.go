package repository

import (
	"context"

	"github.com/conduit-api/internal/database"
	"github.com/conduit-api/internal/models"
)

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db database.Querier
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db database.Querier) CommentRepository {
	return &commentRepo{db: db}
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, article_id, author_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		comment.ID, comment.ArticleID, comment.AuthorID, comment.Body,
		comment.CreatedAt, comment.UpdatedAt,
	)
	return err
}

// DeleteFromArticle removes a comment only if it is attached to the article
func (r *commentRepo) DeleteFromArticle(ctx context.Context, articleID, commentID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM comments WHERE id = $1 AND article_id = $2", commentID, articleID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListByArticle returns the article's comments in insertion order
func (r *commentRepo) ListByArticle(ctx context.Context, articleID string) ([]*models.Comment, error) {
	query := `
		SELECT id, article_id, author_id, body, created_at, updated_at
		FROM comments WHERE article_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(
			&comment.ID, &comment.ArticleID, &comment.AuthorID, &comment.Body,
			&comment.CreatedAt, &comment.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		comments = append(comments, &comment)
	}

	return comments, rows.Err()
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
	return count, err
}
