package service

import (
	"context"
	"fmt"

	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
	"github.com/rs/zerolog"
)

// favoriteService is the concrete implementation of FavoriteService
type favoriteService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newFavoriteService(repos *repository.Repositories, log zerolog.Logger) *favoriteService {
	return &favoriteService{
		repos: repos,
		log:   log.With().Str("component", "favorite_service").Logger(),
	}
}

// Favorite marks the article as favorited by userID. Repeating the call is a
// no-op; the counter only moves when the relation actually changes.
func (s *favoriteService) Favorite(ctx context.Context, userID, slug string) (*models.ArticleView, error) {
	return s.toggle(ctx, userID, slug, true)
}

// Unfavorite is the inverse of Favorite and is equally idempotent
func (s *favoriteService) Unfavorite(ctx context.Context, userID, slug string) (*models.ArticleView, error) {
	return s.toggle(ctx, userID, slug, false)
}

func (s *favoriteService) toggle(ctx context.Context, userID, slug string, on bool) (*models.ArticleView, error) {
	var article *models.Article
	changed := false

	err := s.repos.Atomic(ctx, func(tx *repository.Repositories) error {
		if _, err := requireViewer(ctx, tx.User, userID); err != nil {
			return err
		}

		var err error
		article, err = loadArticle(ctx, tx.Article, slug)
		if err != nil {
			return err
		}

		delta := 1
		if on {
			changed, err = tx.Favorite.Add(ctx, userID, article.ID)
		} else {
			delta = -1
			changed, err = tx.Favorite.Remove(ctx, userID, article.ID)
		}
		if err != nil {
			return fmt.Errorf("update favorite: %w", err)
		}
		if !changed {
			return nil
		}

		if err := tx.Article.AdjustFavoritesCount(ctx, article.ID, delta); err != nil {
			return fmt.Errorf("adjust favorites count: %w", err)
		}

		// Re-read so the returned counter reflects concurrent writers too.
		article, err = loadArticle(ctx, tx.Article, slug)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.log.Debug().
			Str("user_id", userID).
			Str("slug", slug).
			Bool("favorited", on).
			Int("favorites_count", article.FavoritesCount).
			Msg("Favorite toggled")
	}

	return renderArticle(ctx, s.repos, userID, article)
}
