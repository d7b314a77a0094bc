package service

import (
	"context"
	"fmt"

	domainerrors "github.com/conduit-api/internal/errors"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
	"github.com/rs/zerolog"
)

// profileService is the concrete implementation of ProfileService
type profileService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newProfileService(repos *repository.Repositories, log zerolog.Logger) *profileService {
	return &profileService{
		repos: repos,
		log:   log.With().Str("component", "profile_service").Logger(),
	}
}

// Get renders username's profile; following is false for anonymous viewers
func (s *profileService) Get(ctx context.Context, viewerID, username string) (*models.Profile, error) {
	if _, err := loadViewer(ctx, s.repos.User, viewerID); err != nil {
		return nil, err
	}
	target, err := s.byUsername(ctx, s.repos.User, username)
	if err != nil {
		return nil, err
	}

	following := false
	if viewerID != "" {
		set, err := s.repos.Follow.FollowingSet(ctx, viewerID, []string{target.ID})
		if err != nil {
			return nil, fmt.Errorf("load follow flag: %w", err)
		}
		following = set[target.ID]
	}

	profile := models.ProfileOf(target, following)
	return &profile, nil
}

// Follow adds the edge viewer -> username. Following twice is a no-op.
func (s *profileService) Follow(ctx context.Context, viewerID, username string) (*models.Profile, error) {
	return s.setFollow(ctx, viewerID, username, true)
}

// Unfollow removes the edge viewer -> username if present
func (s *profileService) Unfollow(ctx context.Context, viewerID, username string) (*models.Profile, error) {
	return s.setFollow(ctx, viewerID, username, false)
}

func (s *profileService) setFollow(ctx context.Context, viewerID, username string, on bool) (*models.Profile, error) {
	var target *models.User
	err := s.repos.Atomic(ctx, func(tx *repository.Repositories) error {
		if _, err := requireViewer(ctx, tx.User, viewerID); err != nil {
			return err
		}

		var err error
		target, err = s.byUsername(ctx, tx.User, username)
		if err != nil {
			return err
		}
		var changed bool
		if on {
			changed, err = tx.Follow.Add(ctx, viewerID, target.ID)
		} else {
			changed, err = tx.Follow.Remove(ctx, viewerID, target.ID)
		}
		if err != nil {
			return fmt.Errorf("update follow: %w", err)
		}
		if changed {
			s.log.Debug().
				Str("follower_id", viewerID).
				Str("followee", username).
				Bool("following", on).
				Msg("Follow toggled")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	profile := models.ProfileOf(target, on)
	return &profile, nil
}

func (s *profileService) byUsername(ctx context.Context, users repository.UserRepository, username string) (*models.User, error) {
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if user == nil {
		return nil, domainerrors.NotFound("profile %q not found", username)
	}
	return user, nil
}
