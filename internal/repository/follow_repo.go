package repository

import (
	"context"

	"github.com/conduit-api/internal/database"
	"github.com/lib/pq"
)

// followRepo is the concrete implementation of FollowRepository
type followRepo struct {
	db database.Querier
}

// NewFollowRepo creates a new follow graph repository
func NewFollowRepo(db database.Querier) FollowRepository {
	return &followRepo{db: db}
}

// Add inserts the follower -> followee edge
func (r *followRepo) Add(ctx context.Context, followerID, followeeID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		followerID, followeeID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Remove deletes the follower -> followee edge
func (r *followRepo) Remove(ctx context.Context, followerID, followeeID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2",
		followerID, followeeID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// FollowingSet reports which of candidateIDs the follower follows
func (r *followRepo) FollowingSet(ctx context.Context, followerID string, candidateIDs []string) (map[string]bool, error) {
	set := make(map[string]bool)
	if followerID == "" || len(candidateIDs) == 0 {
		return set, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT followee_id FROM follows WHERE follower_id = $1 AND followee_id = ANY($2::uuid[])",
		followerID, pq.Array(candidateIDs),
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
