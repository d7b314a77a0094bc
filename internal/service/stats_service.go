package service

import (
	"context"

	domainerrors "github.com/conduit-api/internal/errors"
	"github.com/conduit-api/internal/repository"
)

// Resources reported by StatsService.GetCount
var Resources = []string{"users", "articles", "comments"}

type statsService struct {
	repos *repository.Repositories
}

func newStatsService(repos *repository.Repositories) *statsService {
	return &statsService{repos: repos}
}

// GetCount returns the row count for a resource
func (s *statsService) GetCount(ctx context.Context, resource string) (int, error) {
	switch resource {
	case "users":
		return s.repos.User.Count(ctx)
	case "articles":
		return s.repos.Article.Count(ctx)
	case "comments":
		return s.repos.Comment.Count(ctx)
	default:
		return 0, domainerrors.Validation("unknown resource: " + resource)
	}
}
