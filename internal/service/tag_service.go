package service

import (
	"context"
	"fmt"
	"time"

	domainerrors "github.com/conduit-api/internal/errors"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// tagService is the concrete implementation of TagService
type tagService struct {
	repos *repository.Repositories
	now   func() time.Time
	log   zerolog.Logger
}

func newTagService(repos *repository.Repositories, now func() time.Time, log zerolog.Logger) *tagService {
	return &tagService{
		repos: repos,
		now:   now,
		log:   log.With().Str("component", "tag_service").Logger(),
	}
}

// EnsureTag returns the catalog entry for text, creating it if absent
func (s *tagService) EnsureTag(ctx context.Context, text string) (*models.Tag, error) {
	var tag *models.Tag
	err := s.repos.Atomic(ctx, func(tx *repository.Repositories) error {
		var err error
		tag, err = s.ensure(ctx, tx.Tag, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// ensure is the unit-of-work form of EnsureTag: it runs against whatever
// repository the caller's transaction is bound to. Texts are stored verbatim
// and matched exactly; no case or whitespace folding.
func (s *tagService) ensure(ctx context.Context, tags repository.TagRepository, text string) (*models.Tag, error) {
	if text == "" {
		return nil, domainerrors.Validation("tag must not be empty")
	}

	existing, err := tags.GetByText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("lookup tag: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	tag := &models.Tag{ID: uuid.New().String(), Tag: text, CreatedAt: s.now()}
	created, err := tags.CreateIfAbsent(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	if created {
		s.log.Debug().Str("tag", text).Msg("Tag added to catalog")
		return tag, nil
	}

	// Another writer inserted the same text between our read and insert.
	existing, err = tags.GetByText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("lookup tag: %w", err)
	}
	if existing == nil {
		return nil, domainerrors.Internal(fmt.Sprintf("tag %q neither created nor found", text), nil)
	}
	return existing, nil
}

// List returns the catalog texts in alphabetical order
func (s *tagService) List(ctx context.Context) ([]string, error) {
	tags, err := s.repos.Tag.ListTexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}
