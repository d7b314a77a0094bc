package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/conduit-api/internal/database"
	"github.com/conduit-api/internal/models"
	"github.com/lib/pq"
)

const articleColumns = `a.id, a.slug, a.title, a.description, a.body, a.tag_list,
	a.favorites_count, a.author_id, a.created_at, a.updated_at`

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db database.Querier
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db database.Querier) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles (id, slug, title, description, body, tag_list, favorites_count, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		article.ID, article.Slug, article.Title, article.Description, article.Body,
		pq.Array(nonNil(article.TagList)), article.FavoritesCount, article.AuthorID,
		article.CreatedAt, article.UpdatedAt,
	)
	return translate(err)
}

// Update writes the editable fields. favorites_count is never written here;
// it only moves through AdjustFavoritesCount.
func (r *articleRepo) Update(ctx context.Context, article *models.Article) error {
	query := `
		UPDATE articles SET title = $1, description = $2, body = $3, tag_list = $4, updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query,
		article.Title, article.Description, article.Body,
		pq.Array(nonNil(article.TagList)), article.UpdatedAt, article.ID,
	)
	return err
}

// DeleteBySlug removes the article and returns the number of rows affected
func (r *articleRepo) DeleteBySlug(ctx context.Context, slug string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE slug = $1", slug)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetBySlug retrieves an article by slug
func (r *articleRepo) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles a WHERE a.slug = $1`, slug)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return article, err
}

// SlugExists checks if an article with the given slug exists
func (r *articleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}

// List returns one page of matching articles ordered newest first; ties on
// created_at fall back to id so pages stay stable.
func (r *articleRepo) List(ctx context.Context, q models.ArticleQuery) ([]*models.Article, error) {
	where, args := articleWhere(q)

	var sb strings.Builder
	sb.WriteString(`SELECT ` + articleColumns + ` FROM articles a`)
	sb.WriteString(where)
	sb.WriteString(` ORDER BY a.created_at DESC, a.id DESC`)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := make([]*models.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// CheckPattern compiles pattern with the database's regex engine, the one
// the tag filter runs on
func (r *articleRepo) CheckPattern(ctx context.Context, pattern string) error {
	var matched bool
	err := r.db.QueryRowContext(ctx, "SELECT '' ~ $1", pattern).Scan(&matched)
	return translate(err)
}

// CountMatching applies the same filters as List without pagination
func (r *articleRepo) CountMatching(ctx context.Context, q models.ArticleQuery) (int, error) {
	where, args := articleWhere(q)

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles a`+where, args...).Scan(&count)
	return count, err
}

// AdjustFavoritesCount moves the cached counter in place so concurrent
// adjustments never overwrite each other
func (r *articleRepo) AdjustFavoritesCount(ctx context.Context, id string, delta int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE articles SET favorites_count = favorites_count + $1 WHERE id = $2", delta, id)
	return err
}

// Count returns the total number of articles
func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

// articleWhere renders the filter part of a listing query
func articleWhere(q models.ArticleQuery) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if q.TagPattern != "" {
		add(`EXISTS (SELECT 1 FROM unnest(a.tag_list) AS t(tag) WHERE t.tag ~ $%d)`, q.TagPattern)
	}
	if q.AuthorID != "" {
		add(`a.author_id = $%d`, q.AuthorID)
	}
	if q.FavoritedBy != "" {
		add(`EXISTS (SELECT 1 FROM favorites f WHERE f.article_id = a.id AND f.user_id = $%d)`, q.FavoritedBy)
	}
	if q.FollowedBy != "" {
		add(`a.author_id IN (SELECT fo.followee_id FROM follows fo WHERE fo.follower_id = $%d)`, q.FollowedBy)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var article models.Article
	var tags pq.StringArray

	err := row.Scan(
		&article.ID, &article.Slug, &article.Title, &article.Description, &article.Body,
		&tags, &article.FavoritesCount, &article.AuthorID, &article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	article.TagList = nonNil([]string(tags))
	return &article, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
