package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainerrors "github.com/conduit-api/internal/errors"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
	"github.com/conduit-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// userService is the concrete implementation of UserService
type userService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	now       func() time.Time
	log       zerolog.Logger
}

func newUserService(repos *repository.Repositories, v *validation.Validator, now func() time.Time, log zerolog.Logger) *userService {
	return &userService{
		repos:     repos,
		validator: v,
		now:       now,
		log:       log.With().Str("component", "user_service").Logger(),
	}
}

// Create provisions a user row. Username and email must be unused.
func (s *userService) Create(ctx context.Context, input models.CreateUserInput) (*models.User, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	if err := s.checkUnique(ctx, input.Username, input.Email); err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		ID:        uuid.New().String(),
		Username:  input.Username,
		Email:     input.Email,
		Bio:       input.Bio,
		Image:     input.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domainerrors.AlreadyExists("username or email already taken")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User created")
	return user, nil
}

// Get returns the user with the given id
func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	return loadUser(ctx, s.repos.User, id)
}

// Update applies the non-nil fields of input
func (s *userService) Update(ctx context.Context, id string, input models.UpdateUserInput) (*models.User, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	username, email := "", ""
	if input.Username != nil && *input.Username != user.Username {
		username = *input.Username
	}
	if input.Email != nil && *input.Email != user.Email {
		email = *input.Email
	}
	if err := s.checkUnique(ctx, username, email); err != nil {
		return nil, err
	}

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Image != nil {
		user.Image = *input.Image
	}
	user.UpdatedAt = s.now()

	if err := s.repos.User.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domainerrors.AlreadyExists("username or email already taken")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("User updated")
	return user, nil
}

// Delete removes the user and everything they own. Favorite counters of
// articles the user had favorited are decremented in the same unit of work.
func (s *userService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domainerrors.Unauthorized("authentication required")
	}
	err := s.repos.Atomic(ctx, func(tx *repository.Repositories) error {
		if _, err := uuid.Parse(id); err != nil {
			return domainerrors.NotFound("user %q not found", id)
		}

		// Lock before reading favorites: a favorite committed after the read
		// would be cascaded away without its counter being decremented.
		found, err := tx.User.LockByID(ctx, id)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		if !found {
			return domainerrors.NotFound("user %q not found", id)
		}

		favorited, err := tx.Favorite.ArticleIDsByUser(ctx, id)
		if err != nil {
			return fmt.Errorf("list favorites: %w", err)
		}
		for _, articleID := range favorited {
			if err := tx.Article.AdjustFavoritesCount(ctx, articleID, -1); err != nil {
				return fmt.Errorf("adjust favorites count: %w", err)
			}
		}

		if _, err := tx.User.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("user_id", id).Msg("User deleted")
	return nil
}

// checkUnique reports AlreadyExists for a non-empty username or email that is
// already in use
func (s *userService) checkUnique(ctx context.Context, username, email string) error {
	if username != "" {
		taken, err := s.repos.User.UsernameExists(ctx, username)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken {
			return domainerrors.AlreadyExists("username %q already taken", username)
		}
	}
	if email != "" {
		taken, err := s.repos.User.EmailExists(ctx, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return domainerrors.AlreadyExists("email %q already taken", email)
		}
	}
	return nil
}
