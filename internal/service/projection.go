package service

import (
	"context"
	"fmt"

	domainerrors "github.com/conduit-api/internal/errors"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
	"github.com/google/uuid"
)

// renderArticles builds viewer-aware projections. Authors, follow flags and
// favorite flags are loaded in three batch calls; nothing is fetched lazily.
func renderArticles(ctx context.Context, repos *repository.Repositories, viewerID string, articles []*models.Article) ([]models.ArticleView, error) {
	views := make([]models.ArticleView, 0, len(articles))
	if len(articles) == 0 {
		return views, nil
	}

	articleIDs := make([]string, 0, len(articles))
	authorIDs := make([]string, 0, len(articles))
	seen := make(map[string]bool, len(articles))
	for _, a := range articles {
		articleIDs = append(articleIDs, a.ID)
		if !seen[a.AuthorID] {
			seen[a.AuthorID] = true
			authorIDs = append(authorIDs, a.AuthorID)
		}
	}

	authors, err := repos.User.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}

	following := map[string]bool{}
	favorited := map[string]bool{}
	if viewerID != "" {
		if following, err = repos.Follow.FollowingSet(ctx, viewerID, authorIDs); err != nil {
			return nil, fmt.Errorf("load follow flags: %w", err)
		}
		if favorited, err = repos.Favorite.FavoritedSet(ctx, viewerID, articleIDs); err != nil {
			return nil, fmt.Errorf("load favorite flags: %w", err)
		}
	}

	for _, a := range articles {
		author, ok := authors[a.AuthorID]
		if !ok {
			return nil, domainerrors.Internal(fmt.Sprintf("author %s of article %s missing", a.AuthorID, a.Slug), nil)
		}
		views = append(views, models.ArticleView{
			Slug:           a.Slug,
			Title:          a.Title,
			Description:    a.Description,
			Body:           a.Body,
			TagList:        tagListOf(a),
			CreatedAt:      a.CreatedAt,
			UpdatedAt:      a.UpdatedAt,
			Favorited:      favorited[a.ID],
			FavoritesCount: a.FavoritesCount,
			Author:         models.ProfileOf(author, following[author.ID]),
		})
	}
	return views, nil
}

func renderArticle(ctx context.Context, repos *repository.Repositories, viewerID string, article *models.Article) (*models.ArticleView, error) {
	views, err := renderArticles(ctx, repos, viewerID, []*models.Article{article})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// renderComments attaches author profiles to comments, in the given order
func renderComments(ctx context.Context, repos *repository.Repositories, viewerID string, comments []*models.Comment) ([]models.CommentView, error) {
	views := make([]models.CommentView, 0, len(comments))
	if len(comments) == 0 {
		return views, nil
	}

	var authorIDs []string
	seen := make(map[string]bool)
	for _, c := range comments {
		if !seen[c.AuthorID] {
			seen[c.AuthorID] = true
			authorIDs = append(authorIDs, c.AuthorID)
		}
	}

	authors, err := repos.User.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load comment authors: %w", err)
	}
	following := map[string]bool{}
	if viewerID != "" {
		if following, err = repos.Follow.FollowingSet(ctx, viewerID, authorIDs); err != nil {
			return nil, fmt.Errorf("load follow flags: %w", err)
		}
	}

	for _, c := range comments {
		author, ok := authors[c.AuthorID]
		if !ok {
			return nil, domainerrors.Internal(fmt.Sprintf("author %s of comment %s missing", c.AuthorID, c.ID), nil)
		}
		views = append(views, models.CommentView{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			Body:      c.Body,
			Author:    models.ProfileOf(author, following[author.ID]),
		})
	}
	return views, nil
}

func tagListOf(a *models.Article) []string {
	if a.TagList == nil {
		return []string{}
	}
	return append([]string{}, a.TagList...)
}

// loadUser resolves a user id that must exist. Ids that are not UUIDs cannot
// exist and are reported as not found without touching storage.
func loadUser(ctx context.Context, users repository.UserRepository, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domainerrors.NotFound("user %q not found", id)
	}
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, domainerrors.NotFound("user %q not found", id)
	}
	return user, nil
}

// loadViewer is loadUser for an optional identity: an empty id means anonymous
func loadViewer(ctx context.Context, users repository.UserRepository, viewerID string) (*models.User, error) {
	if viewerID == "" {
		return nil, nil
	}
	return loadUser(ctx, users, viewerID)
}

// requireViewer rejects anonymous callers before resolving the identity
func requireViewer(ctx context.Context, users repository.UserRepository, viewerID string) (*models.User, error) {
	if viewerID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	return loadUser(ctx, users, viewerID)
}

func loadArticle(ctx context.Context, articles repository.ArticleRepository, slug string) (*models.Article, error) {
	article, err := articles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}
	if article == nil {
		return nil, domainerrors.NotFound("article %q not found", slug)
	}
	return article, nil
}
