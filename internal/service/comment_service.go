package service

import (
	"context"
	"fmt"
	"time"

	domainerrors "github.com/conduit-api/internal/errors"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
	"github.com/conduit-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	now       func() time.Time
	log       zerolog.Logger
}

func newCommentService(repos *repository.Repositories, v *validation.Validator, now func() time.Time, log zerolog.Logger) *commentService {
	return &commentService{
		repos:     repos,
		validator: v,
		now:       now,
		log:       log.With().Str("component", "comment_service").Logger(),
	}
}

// Add attaches a new comment to the article and returns it together with the
// article it was attached to
func (s *commentService) Add(ctx context.Context, authorID, slug string, input models.CreateCommentInput) (*models.CommentResult, error) {
	if authorID == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	var (
		article *models.Article
		comment *models.Comment
	)
	err := s.repos.Atomic(ctx, func(tx *repository.Repositories) error {
		if _, err := loadUser(ctx, tx.User, authorID); err != nil {
			return err
		}

		var err error
		article, err = loadArticle(ctx, tx.Article, slug)
		if err != nil {
			return err
		}

		now := s.now()
		comment = &models.Comment{
			ID:        uuid.New().String(),
			ArticleID: article.ID,
			AuthorID:  authorID,
			Body:      input.Body,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Comment.Create(ctx, comment); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("comment_id", comment.ID).
		Str("slug", slug).
		Str("author_id", authorID).
		Msg("Comment added")

	views, err := renderComments(ctx, s.repos, authorID, []*models.Comment{comment})
	if err != nil {
		return nil, err
	}
	articleView, err := renderArticle(ctx, s.repos, authorID, article)
	if err != nil {
		return nil, err
	}

	return &models.CommentResult{Comment: views[0], Article: *articleView}, nil
}

// Remove detaches commentID from the article. A comment that does not exist
// or belongs to another article is left alone and the call still succeeds.
func (s *commentService) Remove(ctx context.Context, userID, slug, commentID string) (*models.ArticleView, error) {
	if _, err := loadViewer(ctx, s.repos.User, userID); err != nil {
		return nil, err
	}
	article, err := loadArticle(ctx, s.repos.Article, slug)
	if err != nil {
		return nil, err
	}

	if _, err := uuid.Parse(commentID); err == nil {
		n, err := s.repos.Comment.DeleteFromArticle(ctx, article.ID, commentID)
		if err != nil {
			return nil, fmt.Errorf("delete comment: %w", err)
		}
		s.log.Info().
			Str("comment_id", commentID).
			Str("slug", slug).
			Int64("deleted", n).
			Msg("Comment delete requested")
	}

	return renderArticle(ctx, s.repos, userID, article)
}

// List returns the article's comments in insertion order
func (s *commentService) List(ctx context.Context, viewerID, slug string) ([]models.CommentView, error) {
	if _, err := loadViewer(ctx, s.repos.User, viewerID); err != nil {
		return nil, err
	}
	article, err := loadArticle(ctx, s.repos.Article, slug)
	if err != nil {
		return nil, err
	}

	comments, err := s.repos.Comment.ListByArticle(ctx, article.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return renderComments(ctx, s.repos, viewerID, comments)
}
