package mocks

import (
	"context"

	"github.com/conduit-api/internal/models"
)

// Interface assertions for these mocks live in the api tests; mocks must not
// import service.

// MockArticleService is a mock implementation of ArticleService. Unset funcs
// return zero values.
type MockArticleService struct {
	ListFunc   func(ctx context.Context, viewerID string, filter models.ArticleFilter) (*models.ArticleList, error)
	FeedFunc   func(ctx context.Context, viewerID string, limit, offset int) (*models.ArticleList, error)
	GetFunc    func(ctx context.Context, viewerID, slug string) (*models.ArticleView, error)
	CreateFunc func(ctx context.Context, authorID string, input models.CreateArticleInput) (*models.ArticleView, error)
	UpdateFunc func(ctx context.Context, viewerID, slug string, input models.UpdateArticleInput) (*models.ArticleView, error)
	DeleteFunc func(ctx context.Context, slug string) (int64, error)

	// Filters records every filter passed to List
	Filters []models.ArticleFilter
}

func NewMockArticleService() *MockArticleService {
	return &MockArticleService{}
}

func (m *MockArticleService) List(ctx context.Context, viewerID string, filter models.ArticleFilter) (*models.ArticleList, error) {
	m.Filters = append(m.Filters, filter)
	if m.ListFunc != nil {
		return m.ListFunc(ctx, viewerID, filter)
	}
	return models.EmptyArticleList(), nil
}

func (m *MockArticleService) Feed(ctx context.Context, viewerID string, limit, offset int) (*models.ArticleList, error) {
	if m.FeedFunc != nil {
		return m.FeedFunc(ctx, viewerID, limit, offset)
	}
	return models.EmptyArticleList(), nil
}

func (m *MockArticleService) Get(ctx context.Context, viewerID, slug string) (*models.ArticleView, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, viewerID, slug)
	}
	return &models.ArticleView{Slug: slug, TagList: []string{}}, nil
}

func (m *MockArticleService) Create(ctx context.Context, authorID string, input models.CreateArticleInput) (*models.ArticleView, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, authorID, input)
	}
	return &models.ArticleView{Title: input.Title, TagList: input.TagList}, nil
}

func (m *MockArticleService) Update(ctx context.Context, viewerID, slug string, input models.UpdateArticleInput) (*models.ArticleView, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, viewerID, slug, input)
	}
	return &models.ArticleView{Slug: slug, TagList: []string{}}, nil
}

func (m *MockArticleService) Delete(ctx context.Context, slug string) (int64, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, slug)
	}
	return 0, nil
}

// MockStatsService is a mock implementation of StatsService
type MockStatsService struct {
	Counts map[string]int
	Err    error
}

func NewMockStatsService() *MockStatsService {
	return &MockStatsService{
		Counts: map[string]int{
			"users":    0,
			"articles": 0,
			"comments": 0,
		},
	}
}

func (m *MockStatsService) GetCount(ctx context.Context, resource string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Counts[resource], nil
}

// MockHealthChecker reports Err from every check
type MockHealthChecker struct {
	Err   error
	Calls int
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	m.Calls++
	return m.Err
}
