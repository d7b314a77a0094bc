package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainerrors "github.com/conduit-api/internal/errors"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
	"github.com/conduit-api/internal/slug"
	"github.com/conduit-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxSlugAttempts bounds regeneration when a random slug suffix collides
const maxSlugAttempts = 5

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repos     *repository.Repositories
	tags      *tagService
	validator *validation.Validator
	now       func() time.Time
	log       zerolog.Logger
}

func newArticleService(repos *repository.Repositories, tags *tagService, v *validation.Validator, now func() time.Time, log zerolog.Logger) *articleService {
	return &articleService{
		repos:     repos,
		tags:      tags,
		validator: v,
		now:       now,
		log:       log.With().Str("component", "article_service").Logger(),
	}
}

// List returns a filtered page of articles. Filtering by an author or
// favoriting user that does not exist yields an empty page, not an error.
func (s *articleService) List(ctx context.Context, viewerID string, filter models.ArticleFilter) (*models.ArticleList, error) {
	if err := checkPage(filter.Limit, filter.Offset); err != nil {
		return nil, err
	}
	if filter.Tag != "" {
		if err := s.repos.Article.CheckPattern(ctx, filter.Tag); err != nil {
			if errors.Is(err, repository.ErrInvalidPattern) {
				return nil, domainerrors.Validation(fmt.Sprintf("tag %q is not a valid pattern", filter.Tag))
			}
			return nil, fmt.Errorf("check tag pattern: %w", err)
		}
	}
	if _, err := loadViewer(ctx, s.repos.User, viewerID); err != nil {
		return nil, err
	}

	q := models.ArticleQuery{
		TagPattern: filter.Tag,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}

	if filter.Author != "" {
		author, err := s.repos.User.GetByUsername(ctx, filter.Author)
		if err != nil {
			return nil, fmt.Errorf("resolve author filter: %w", err)
		}
		if author == nil {
			return models.EmptyArticleList(), nil
		}
		q.AuthorID = author.ID
	}

	if filter.Favorited != "" {
		user, err := s.repos.User.GetByUsername(ctx, filter.Favorited)
		if err != nil {
			return nil, fmt.Errorf("resolve favorited filter: %w", err)
		}
		if user == nil {
			return models.EmptyArticleList(), nil
		}
		q.FavoritedBy = user.ID
	}

	return s.page(ctx, viewerID, q)
}

// Feed lists articles by authors the viewer follows. Anonymous callers are
// rejected rather than treated as following nobody.
func (s *articleService) Feed(ctx context.Context, viewerID string, limit, offset int) (*models.ArticleList, error) {
	if err := checkPage(limit, offset); err != nil {
		return nil, err
	}
	if _, err := requireViewer(ctx, s.repos.User, viewerID); err != nil {
		return nil, err
	}

	return s.page(ctx, viewerID, models.ArticleQuery{
		FollowedBy: viewerID,
		Limit:      limit,
		Offset:     offset,
	})
}

// Get resolves one article by slug
func (s *articleService) Get(ctx context.Context, viewerID, slug string) (*models.ArticleView, error) {
	if _, err := loadViewer(ctx, s.repos.User, viewerID); err != nil {
		return nil, err
	}
	article, err := loadArticle(ctx, s.repos.Article, slug)
	if err != nil {
		return nil, err
	}
	return renderArticle(ctx, s.repos, viewerID, article)
}

// Create stores a new article and registers its tags in the catalog in the
// same unit of work
func (s *articleService) Create(ctx context.Context, authorID string, input models.CreateArticleInput) (*models.ArticleView, error) {
	if authorID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	var article *models.Article
	err := s.repos.Atomic(ctx, func(tx *repository.Repositories) error {
		if _, err := loadUser(ctx, tx.User, authorID); err != nil {
			return err
		}

		for _, text := range input.TagList {
			if _, err := s.tags.ensure(ctx, tx.Tag, text); err != nil {
				return err
			}
		}

		articleSlug, err := s.uniqueSlug(ctx, tx.Article, input.Title)
		if err != nil {
			return err
		}

		now := s.now()
		article = &models.Article{
			ID:             uuid.New().String(),
			Slug:           articleSlug,
			Title:          input.Title,
			Description:    input.Description,
			Body:           input.Body,
			TagList:        append([]string{}, input.TagList...),
			FavoritesCount: 0,
			AuthorID:       authorID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Article.Create(ctx, article); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domainerrors.AlreadyExists("article slug %q already taken", articleSlug)
			}
			return fmt.Errorf("create article: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("slug", article.Slug).
		Str("author_id", authorID).
		Int("tags", len(article.TagList)).
		Msg("Article created")

	return renderArticle(ctx, s.repos, authorID, article)
}

// Update applies the non-nil fields of input. The slug never changes, so
// existing links and uniqueness stay intact.
func (s *articleService) Update(ctx context.Context, viewerID, slug string, input models.UpdateArticleInput) (*models.ArticleView, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	var article *models.Article
	err := s.repos.Atomic(ctx, func(tx *repository.Repositories) error {
		if _, err := requireViewer(ctx, tx.User, viewerID); err != nil {
			return err
		}

		var err error
		article, err = loadArticle(ctx, tx.Article, slug)
		if err != nil {
			return err
		}

		if input.Title != nil {
			article.Title = *input.Title
		}
		if input.Description != nil {
			article.Description = *input.Description
		}
		if input.Body != nil {
			article.Body = *input.Body
		}
		if input.TagList != nil {
			for _, text := range *input.TagList {
				if _, err := s.tags.ensure(ctx, tx.Tag, text); err != nil {
					return err
				}
			}
			article.TagList = append([]string{}, (*input.TagList)...)
		}
		article.UpdatedAt = s.now()

		if err := tx.Article.Update(ctx, article); err != nil {
			return fmt.Errorf("update article: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("slug", slug).Msg("Article updated")

	return renderArticle(ctx, s.repos, viewerID, article)
}

// Delete removes the article and reports how many rows went away; a missing
// slug is not an error
func (s *articleService) Delete(ctx context.Context, slug string) (int64, error) {
	n, err := s.repos.Article.DeleteBySlug(ctx, slug)
	if err != nil {
		return 0, fmt.Errorf("delete article: %w", err)
	}

	s.log.Info().Str("slug", slug).Int64("deleted", n).Msg("Article delete requested")
	return n, nil
}

// page fetches one page and the unpaginated total for q from one snapshot,
// so the count always agrees with the page
func (s *articleService) page(ctx context.Context, viewerID string, q models.ArticleQuery) (*models.ArticleList, error) {
	var list *models.ArticleList
	err := s.repos.Snapshot(ctx, func(tx *repository.Repositories) error {
		articles, err := tx.Article.List(ctx, q)
		if err != nil {
			return fmt.Errorf("list articles: %w", err)
		}

		count, err := tx.Article.CountMatching(ctx, q)
		if err != nil {
			return fmt.Errorf("count articles: %w", err)
		}

		views, err := renderArticles(ctx, tx, viewerID, articles)
		if err != nil {
			return err
		}

		list = &models.ArticleList{Articles: views, ArticlesCount: count}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *articleService) uniqueSlug(ctx context.Context, articles repository.ArticleRepository, title string) (string, error) {
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate, err := slug.New(title)
		if err != nil {
			return "", err
		}
		exists, err := articles.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", domainerrors.Internal("could not allocate a unique slug", nil)
}

func checkPage(limit, offset int) error {
	if limit < 0 {
		return domainerrors.Validation("limit must not be negative")
	}
	if offset < 0 {
		return domainerrors.Validation("offset must not be negative")
	}
	return nil
}
