package repository

import (
	"context"

	"github.com/conduit-api/internal/database"
	"github.com/lib/pq"
)

// favoriteRepo is the concrete implementation of FavoriteRepository
type favoriteRepo struct {
	db database.Querier
}

// NewFavoriteRepo creates a new favorite relation repository
func NewFavoriteRepo(db database.Querier) FavoriteRepository {
	return &favoriteRepo{db: db}
}

// Add inserts the edge; the (user_id, article_id) primary key makes a
// repeated or racing insert a no-op
func (r *favoriteRepo) Add(ctx context.Context, userID, articleID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO favorites (user_id, article_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, articleID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Remove deletes the edge if present
func (r *favoriteRepo) Remove(ctx context.Context, userID, articleID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id = $1 AND article_id = $2",
		userID, articleID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// FavoritedSet reports which of articleIDs the user has favorited
func (r *favoriteRepo) FavoritedSet(ctx context.Context, userID string, articleIDs []string) (map[string]bool, error) {
	set := make(map[string]bool)
	if userID == "" || len(articleIDs) == 0 {
		return set, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT article_id FROM favorites WHERE user_id = $1 AND article_id = ANY($2::uuid[])",
		userID, pq.Array(articleIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = true
	}
	return set, rows.Err()
}

// ArticleIDsByUser lists every article the user has favorited
func (r *favoriteRepo) ArticleIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT article_id FROM favorites WHERE user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
