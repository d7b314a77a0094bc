package service

import (
	"context"
	"time"

	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
	"github.com/conduit-api/internal/validation"
	"github.com/rs/zerolog"
)

// ArticleService lists, personalizes and edits articles
type ArticleService interface {
	List(ctx context.Context, viewerID string, filter models.ArticleFilter) (*models.ArticleList, error)
	Feed(ctx context.Context, viewerID string, limit, offset int) (*models.ArticleList, error)
	Get(ctx context.Context, viewerID, slug string) (*models.ArticleView, error)
	Create(ctx context.Context, authorID string, input models.CreateArticleInput) (*models.ArticleView, error)
	Update(ctx context.Context, viewerID, slug string, input models.UpdateArticleInput) (*models.ArticleView, error)
	Delete(ctx context.Context, slug string) (int64, error)
}

// FavoriteService maintains the favorite relation and its per-article counter
type FavoriteService interface {
	Favorite(ctx context.Context, userID, slug string) (*models.ArticleView, error)
	Unfavorite(ctx context.Context, userID, slug string) (*models.ArticleView, error)
}

// TagService maintains the deduplicated tag catalog
type TagService interface {
	EnsureTag(ctx context.Context, text string) (*models.Tag, error)
	List(ctx context.Context) ([]string, error)
}

// CommentService manages comments attached to an article
type CommentService interface {
	Add(ctx context.Context, authorID, slug string, input models.CreateCommentInput) (*models.CommentResult, error)
	Remove(ctx context.Context, userID, slug, commentID string) (*models.ArticleView, error)
	List(ctx context.Context, viewerID, slug string) ([]models.CommentView, error)
}

// ProfileService exposes public profiles and the follow graph
type ProfileService interface {
	Get(ctx context.Context, viewerID, username string) (*models.Profile, error)
	Follow(ctx context.Context, viewerID, username string) (*models.Profile, error)
	Unfollow(ctx context.Context, viewerID, username string) (*models.Profile, error)
}

// UserService manages user rows for identities provisioned upstream
type UserService interface {
	Create(ctx context.Context, input models.CreateUserInput) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, input models.UpdateUserInput) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// StatsService reports row counts per resource
type StatsService interface {
	GetCount(ctx context.Context, resource string) (int, error)
}

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services holds all service interfaces
type Services struct {
	Article  ArticleService
	Favorite FavoriteService
	Tag      TagService
	Comment  CommentService
	Profile  ProfileService
	User     UserService
	Stats    StatsService
	Health   HealthChecker
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, log zerolog.Logger) *Services {
	v := validation.New()
	clock := func() time.Time { return time.Now().UTC() }

	tagSvc := newTagService(repos, clock, log)

	return &Services{
		Article:  newArticleService(repos, tagSvc, v, clock, log),
		Favorite: newFavoriteService(repos, log),
		Tag:      tagSvc,
		Comment:  newCommentService(repos, v, clock, log),
		Profile:  newProfileService(repos, log),
		User:     newUserService(repos, v, clock, log),
		Stats:    newStatsService(repos),
	}
}
