package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/conduit-api/internal/api"
	"github.com/conduit-api/internal/config"
	"github.com/conduit-api/internal/mocks"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ service.ArticleService = (*mocks.MockArticleService)(nil)
	_ service.StatsService   = (*mocks.MockStatsService)(nil)
	_ service.HealthChecker  = (*mocks.MockHealthChecker)(nil)
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "3000", GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:4200"}},
		Auth:   config.AuthConfig{IdentityHeader: "X-User-ID"},
	}
}

// setupTestRouter serves real services over the in-memory repositories
func setupTestRouter(t *testing.T) (*gin.Engine, *service.Services) {
	t.Helper()
	repos, _ := mocks.NewRepositories()
	services := service.NewServices(repos, zerolog.Nop())
	return api.NewRouter(services, testConfig(), zerolog.Nop()), services
}

func do(router *gin.Engine, method, path, viewer string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if viewer != "" {
		req.Header.Set("X-User-ID", viewer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type articleEnvelope struct {
	Article models.ArticleView `json:"article"`
}

type userEnvelope struct {
	User models.User `json:"user"`
}

func createUser(t *testing.T, router *gin.Engine, name string) string {
	t.Helper()
	w := do(router, http.MethodPost, "/api/users", "", gin.H{"user": gin.H{
		"username": name,
		"email":    name + "@example.com",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[userEnvelope](t, w).User.ID
}

func createArticle(t *testing.T, router *gin.Engine, viewer, title string, tags ...string) models.ArticleView {
	t.Helper()
	w := do(router, http.MethodPost, "/api/articles", viewer, gin.H{"article": gin.H{
		"title":       title,
		"description": "about " + title,
		"body":        "body",
		"tagList":     tags,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[articleEnvelope](t, w).Article
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := do(router, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "conduit-api", body["service"])
}

func TestHealthEndpoint_StorageDown(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	services := service.NewServices(repos, zerolog.Nop())
	checker := &mocks.MockHealthChecker{Err: errors.New("connection refused")}
	services.Health = checker
	router := api.NewRouter(services, testConfig(), zerolog.Nop())

	w := do(router, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 1, checker.Calls)
	assert.Equal(t, "unhealthy", decode[map[string]any](t, w)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	services := service.NewServices(repos, zerolog.Nop())
	stats := mocks.NewMockStatsService()
	stats.Counts["users"] = 3
	stats.Counts["articles"] = 5
	services.Stats = stats
	router := api.NewRouter(services, testConfig(), zerolog.Nop())

	w := do(router, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Database map[string]int `json:"database"`
	}](t, w)
	assert.Equal(t, map[string]int{"users": 3, "articles": 5, "comments": 0}, body.Database)

	stats.Err = errors.New("db gone")
	w = do(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestArticleLifecycle(t *testing.T) {
	router, _ := setupTestRouter(t)
	jake := createUser(t, router, "jake")
	anna := createUser(t, router, "anna")

	article := createArticle(t, router, jake, "How to train your dragon", "dragons", "training")
	assert.Equal(t, []string{"dragons", "training"}, article.TagList)
	assert.Equal(t, "jake", article.Author.Username)

	w := do(router, http.MethodGet, "/api/articles/"+article.Slug, anna, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[articleEnvelope](t, w).Article.Favorited)

	w = do(router, http.MethodPost, "/api/articles/"+article.Slug+"/favorite", anna, nil)
	require.Equal(t, http.StatusOK, w.Code)
	fav := decode[articleEnvelope](t, w).Article
	assert.True(t, fav.Favorited)
	assert.Equal(t, 1, fav.FavoritesCount)

	w = do(router, http.MethodGet, "/api/articles?favorited=anna", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.ArticleList](t, w)
	assert.Equal(t, 1, list.ArticlesCount)

	w = do(router, http.MethodDelete, "/api/articles/"+article.Slug+"/favorite", anna, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[articleEnvelope](t, w).Article.FavoritesCount)

	title := "Renamed"
	w = do(router, http.MethodPut, "/api/articles/"+article.Slug, jake, gin.H{"article": gin.H{"title": title}})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[articleEnvelope](t, w).Article
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, article.Slug, updated.Slug)

	w = do(router, http.MethodGet, "/api/tags", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"dragons", "training"}, decode[struct {
		Tags []string `json:"tags"`
	}](t, w).Tags)

	w = do(router, http.MethodDelete, "/api/articles/"+article.Slug, jake, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/articles/"+article.Slug, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentsEndpoints(t *testing.T) {
	router, _ := setupTestRouter(t)
	jake := createUser(t, router, "jake")
	article := createArticle(t, router, jake, "Talk")

	w := do(router, http.MethodPost, "/api/articles/"+article.Slug+"/comments", jake, gin.H{"comment": gin.H{"body": "hello"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	added := decode[models.CommentResult](t, w)
	assert.Equal(t, "hello", added.Comment.Body)
	assert.Equal(t, article.Slug, added.Article.Slug)

	w = do(router, http.MethodGet, "/api/articles/"+article.Slug+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decode[struct {
		Comments []models.CommentView `json:"comments"`
	}](t, w).Comments
	require.Len(t, comments, 1)

	w = do(router, http.MethodDelete, "/api/articles/"+article.Slug+"/comments/"+added.Comment.ID, jake, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/articles/"+article.Slug+"/comments", "", nil)
	assert.Empty(t, decode[struct {
		Comments []models.CommentView `json:"comments"`
	}](t, w).Comments)
}

func TestProfilesAndFeed(t *testing.T) {
	router, _ := setupTestRouter(t)
	jake := createUser(t, router, "jake")
	anna := createUser(t, router, "anna")
	createArticle(t, router, jake, "Jake writes")

	w := do(router, http.MethodGet, "/api/articles/feed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/api/profiles/jake/follow", anna, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[struct {
		Profile models.Profile `json:"profile"`
	}](t, w).Profile
	assert.True(t, profile.Following)

	w = do(router, http.MethodGet, "/api/articles/feed", anna, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.ArticleList](t, w).ArticlesCount)

	w = do(router, http.MethodDelete, "/api/profiles/jake/follow", anna, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/profiles/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserEndpoints(t *testing.T) {
	router, _ := setupTestRouter(t)
	jake := createUser(t, router, "jake")

	w := do(router, http.MethodPost, "/api/users", "", gin.H{"user": gin.H{"username": "jake", "email": "x@example.com"}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodGet, "/api/user", jake, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jake", decode[userEnvelope](t, w).User.Username)

	w = do(router, http.MethodPut, "/api/user", jake, gin.H{"user": gin.H{"bio": "dragon rider"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dragon rider", decode[userEnvelope](t, w).User.Bio)

	w = do(router, http.MethodGet, "/api/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodDelete, "/api/user", jake, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodGet, "/api/user", jake, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidationErrors(t *testing.T) {
	router, _ := setupTestRouter(t)
	jake := createUser(t, router, "jake")

	w := do(router, http.MethodPost, "/api/articles", jake, gin.H{"article": gin.H{"title": "", "body": "b"}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[struct {
		Errors map[string][]string `json:"errors"`
	}](t, w)
	assert.Equal(t, []string{"can't be blank"}, body.Errors["title"])

	w = do(router, http.MethodPost, "/api/articles", "", gin.H{"article": gin.H{"title": "t", "body": "b"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tests := []struct {
		name string
		path string
	}{
		{"non-numeric limit", "/api/articles?limit=ten"},
		{"negative offset", "/api/articles?offset=-1"},
		{"bad tag pattern", "/api/articles?tag=%28%5B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodGet, tt.path, "", nil)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		})
	}
}

func TestListQueryParameters(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	services := service.NewServices(repos, zerolog.Nop())
	articles := mocks.NewMockArticleService()
	services.Article = articles
	router := api.NewRouter(services, testConfig(), zerolog.Nop())

	w := do(router, http.MethodGet, "/api/articles", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/articles?tag=go&author=jake&favorited=anna&limit=5&offset=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, articles.Filters, 2)
	assert.Equal(t, models.ArticleFilter{Limit: 20}, articles.Filters[0])
	assert.Equal(t, models.ArticleFilter{Tag: "go", Author: "jake", Favorited: "anna", Limit: 5, Offset: 10}, articles.Filters[1])

	empty := decode[map[string]any](t, w)
	assert.Equal(t, []any{}, empty["articles"])
	assert.Equal(t, float64(0), empty["articlesCount"])
}

func TestInternalErrorsAreMasked(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	services := service.NewServices(repos, zerolog.Nop())
	services.Article = &mocks.MockArticleService{
		GetFunc: func(ctx context.Context, viewerID, slug string) (*models.ArticleView, error) {
			return nil, errors.New("pq: connection reset")
		},
	}
	router := api.NewRouter(services, testConfig(), zerolog.Nop())

	w := do(router, http.MethodGet, "/api/articles/anything", "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestCORSHeaders(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/articles", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "http://localhost:4200", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowsConfiguredIdentityHeader(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	services := service.NewServices(repos, zerolog.Nop())
	cfg := testConfig()
	cfg.Auth.IdentityHeader = "X-Gateway-User"
	router := api.NewRouter(services, cfg, zerolog.Nop())

	req := httptest.NewRequest(http.MethodOptions, "/api/articles", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-Gateway-User")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Gateway-User")

	// The identity itself is read from the configured header.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/articles/feed", nil)
	req.Header.Set("X-User-ID", "00000000-0000-0000-0000-000000000001")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
