package repository

import (
	"context"
	"database/sql"

	"github.com/conduit-api/internal/database"
	"github.com/conduit-api/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) (int64, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// LockByID takes a row lock on the user until the enclosing transaction
	// ends and reports whether the user exists.
	LockByID(ctx context.Context, id string) (bool, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	DeleteBySlug(ctx context.Context, slug string) (int64, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// CheckPattern returns ErrInvalidPattern when the tag filter engine
	// rejects pattern.
	CheckPattern(ctx context.Context, pattern string) error
	// List returns one page of articles matching q, newest first.
	List(ctx context.Context, q models.ArticleQuery) ([]*models.Article, error)
	// CountMatching counts every article matching q, ignoring Limit and Offset.
	CountMatching(ctx context.Context, q models.ArticleQuery) (int, error)
	AdjustFavoritesCount(ctx context.Context, id string, delta int) error
	Count(ctx context.Context) (int, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	// DeleteFromArticle removes the comment only when it belongs to articleID.
	DeleteFromArticle(ctx context.Context, articleID, commentID string) (int64, error)
	ListByArticle(ctx context.Context, articleID string) ([]*models.Comment, error)
	Count(ctx context.Context) (int, error)
}

// TagRepository defines the interface for the tag catalog
type TagRepository interface {
	GetByText(ctx context.Context, text string) (*models.Tag, error)
	// CreateIfAbsent inserts the tag unless the text already exists and
	// reports whether a row was written.
	CreateIfAbsent(ctx context.Context, tag *models.Tag) (bool, error)
	ListTexts(ctx context.Context) ([]string, error)
}

// FavoriteRepository defines the interface for the user-article favorite relation
type FavoriteRepository interface {
	// Add inserts the edge and reports whether it was new.
	Add(ctx context.Context, userID, articleID string) (bool, error)
	// Remove deletes the edge and reports whether it existed.
	Remove(ctx context.Context, userID, articleID string) (bool, error)
	FavoritedSet(ctx context.Context, userID string, articleIDs []string) (map[string]bool, error)
	ArticleIDsByUser(ctx context.Context, userID string) ([]string, error)
}

// FollowRepository defines the interface for the directed follow graph
type FollowRepository interface {
	Add(ctx context.Context, followerID, followeeID string) (bool, error)
	Remove(ctx context.Context, followerID, followeeID string) (bool, error)
	FollowingSet(ctx context.Context, followerID string, candidateIDs []string) (map[string]bool, error)
}

// TxFunc runs fn against repositories bound to a single transaction
type TxFunc func(ctx context.Context, fn func(repos *Repositories) error) error

// Repositories holds all repository interfaces
type Repositories struct {
	User     UserRepository
	Article  ArticleRepository
	Comment  CommentRepository
	Tag      TagRepository
	Favorite FavoriteRepository
	Follow   FollowRepository

	atomic   TxFunc
	snapshot TxFunc
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	repos := bind(db)
	repos.atomic = func(ctx context.Context, fn func(repos *Repositories) error) error {
		return db.WithTx(ctx, func(tx *sql.Tx) error {
			return fn(bind(tx))
		})
	}
	repos.snapshot = func(ctx context.Context, fn func(repos *Repositories) error) error {
		return db.WithSnapshotTx(ctx, func(tx *sql.Tx) error {
			return fn(bind(tx))
		})
	}
	return repos
}

// WithAtomic returns a copy of r whose Atomic calls go through txFn
func (r *Repositories) WithAtomic(txFn TxFunc) *Repositories {
	clone := *r
	clone.atomic = txFn
	return &clone
}

// Atomic runs fn as one unit of work. Without a transaction runner
// (in-memory repositories) fn runs directly against r.
func (r *Repositories) Atomic(ctx context.Context, fn func(repos *Repositories) error) error {
	if r.atomic == nil {
		return fn(r)
	}
	return r.atomic(ctx, fn)
}

// WithSnapshot returns a copy of r whose Snapshot calls go through txFn
func (r *Repositories) WithSnapshot(txFn TxFunc) *Repositories {
	clone := *r
	clone.snapshot = txFn
	return &clone
}

// Snapshot runs read-only fn so that all of its reads observe one consistent
// state. Without a runner fn runs directly against r.
func (r *Repositories) Snapshot(ctx context.Context, fn func(repos *Repositories) error) error {
	if r.snapshot == nil {
		return fn(r)
	}
	return r.snapshot(ctx, fn)
}

func bind(q database.Querier) *Repositories {
	return &Repositories{
		User:     NewUserRepo(q),
		Article:  NewArticleRepo(q),
		Comment:  NewCommentRepo(q),
		Tag:      NewTagRepo(q),
		Favorite: NewFavoriteRepo(q),
		Follow:   NewFollowRepo(q),
	}
}
