package mocks

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"

	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
)

// Store is the shared in-memory state behind the mock repositories.
// Relations live here so filters can join across entities the way SQL does.
type Store struct {
	mu        sync.Mutex
	Users     map[string]*models.User
	Articles  map[string]*models.Article
	Comments  map[string]*models.Comment
	Tags      map[string]*models.Tag // keyed by text
	Favorites map[[2]string]bool     // {userID, articleID}
	Follows   map[[2]string]bool     // {followerID, followeeID}

	commentSeq  int
	commentSeqs map[string]int

	// FailWith, when set, is returned by every repository call
	FailWith error
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		Users:       make(map[string]*models.User),
		Articles:    make(map[string]*models.Article),
		Comments:    make(map[string]*models.Comment),
		Tags:        make(map[string]*models.Tag),
		Favorites:   make(map[[2]string]bool),
		Follows:     make(map[[2]string]bool),
		commentSeqs: make(map[string]int),
	}
}

// NewRepositories wires every mock repository over one store
func NewRepositories() (*repository.Repositories, *Store) {
	s := NewStore()
	return &repository.Repositories{
		User:     &MockUserRepository{s: s},
		Article:  &MockArticleRepository{s: s},
		Comment:  &MockCommentRepository{s: s},
		Tag:      &MockTagRepository{s: s},
		Favorite: &MockFavoriteRepository{s: s},
		Follow:   &MockFollowRepository{s: s},
	}, s
}

func (s *Store) lock() (func(), error) {
	s.mu.Lock()
	if s.FailWith != nil {
		s.mu.Unlock()
		return nil, s.FailWith
	}
	return s.mu.Unlock, nil
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct{ s *Store }

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	unlock, err := m.s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	for _, u := range m.s.Users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	stored := *user
	m.s.Users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	unlock, err := m.s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	for _, u := range m.s.Users {
		if u.ID != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return repository.ErrDuplicate
		}
	}
	if _, ok := m.s.Users[user.ID]; ok {
		stored := *user
		m.s.Users[user.ID] = &stored
	}
	return nil
}

// Delete cascades to owned articles, comments and relation edges like the
// ON DELETE CASCADE foreign keys do
func (m *MockUserRepository) Delete(ctx context.Context, id string) (int64, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()

	if _, ok := m.s.Users[id]; !ok {
		return 0, nil
	}
	delete(m.s.Users, id)

	for articleID, a := range m.s.Articles {
		if a.AuthorID == id {
			m.s.deleteArticle(articleID)
		}
	}
	for commentID, c := range m.s.Comments {
		if c.AuthorID == id {
			delete(m.s.Comments, commentID)
		}
	}
	for key := range m.s.Favorites {
		if key[0] == id {
			delete(m.s.Favorites, key)
		}
	}
	for key := range m.s.Follows {
		if key[0] == id || key[1] == id {
			delete(m.s.Follows, key)
		}
	}
	return 1, nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	return copyUser(m.s.Users[id]), nil
}

func (m *MockUserRepository) LockByID(ctx context.Context, id string) (bool, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()

	_, ok := m.s.Users[id]
	return ok, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	for _, u := range m.s.Users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	users := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := m.s.Users[id]; ok {
			users[id] = copyUser(u)
		}
	}
	return users, nil
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	u, err := m.GetByUsername(ctx, username)
	return u != nil, err
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()

	for _, u := range m.s.Users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()

	return len(m.s.Users), nil
}

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct{ s *Store }

var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	unlock, err := m.s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	for _, a := range m.s.Articles {
		if a.Slug == article.Slug {
			return repository.ErrDuplicate
		}
	}
	m.s.Articles[article.ID] = copyArticle(article)
	return nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	unlock, err := m.s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	stored, ok := m.s.Articles[article.ID]
	if !ok {
		return nil
	}
	stored.Title = article.Title
	stored.Description = article.Description
	stored.Body = article.Body
	stored.TagList = append([]string{}, article.TagList...)
	stored.UpdatedAt = article.UpdatedAt
	return nil
}

func (m *MockArticleRepository) DeleteBySlug(ctx context.Context, slug string) (int64, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()

	for id, a := range m.s.Articles {
		if a.Slug == slug {
			m.s.deleteArticle(id)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *MockArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	for _, a := range m.s.Articles {
		if a.Slug == slug {
			return copyArticle(a), nil
		}
	}
	return nil, nil
}

func (m *MockArticleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	a, err := m.GetBySlug(ctx, slug)
	return a != nil, err
}

// CheckPattern compiles with RE2; Postgres accepts a wider ARE syntax
func (m *MockArticleRepository) CheckPattern(ctx context.Context, pattern string) error {
	unlock, err := m.s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := regexp.Compile(pattern); err != nil {
		return errors.Join(repository.ErrInvalidPattern, err)
	}
	return nil
}

func (m *MockArticleRepository) List(ctx context.Context, q models.ArticleQuery) ([]*models.Article, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	matched, err := m.s.matchArticles(q)
	if err != nil {
		return nil, err
	}

	start := q.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}

	page := make([]*models.Article, 0, end-start)
	for _, a := range matched[start:end] {
		page = append(page, copyArticle(a))
	}
	return page, nil
}

func (m *MockArticleRepository) CountMatching(ctx context.Context, q models.ArticleQuery) (int, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()

	matched, err := m.s.matchArticles(q)
	return len(matched), err
}

func (m *MockArticleRepository) AdjustFavoritesCount(ctx context.Context, id string, delta int) error {
	unlock, err := m.s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if a, ok := m.s.Articles[id]; ok {
		a.FavoritesCount += delta
	}
	return nil
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()

	return len(m.s.Articles), nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct{ s *Store }

var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	unlock, err := m.s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := m.s.Articles[comment.ArticleID]; !ok {
		return errors.New("comments_article_id_fkey violation")
	}
	stored := *comment
	m.s.Comments[comment.ID] = &stored
	m.s.commentSeq++
	m.s.commentSeqs[comment.ID] = m.s.commentSeq
	return nil
}

func (m *MockCommentRepository) DeleteFromArticle(ctx context.Context, articleID, commentID string) (int64, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()

	c, ok := m.s.Comments[commentID]
	if !ok || c.ArticleID != articleID {
		return 0, nil
	}
	delete(m.s.Comments, commentID)
	return 1, nil
}

func (m *MockCommentRepository) ListByArticle(ctx context.Context, articleID string) ([]*models.Comment, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	comments := make([]*models.Comment, 0)
	for _, c := range m.s.Comments {
		if c.ArticleID == articleID {
			stored := *c
			comments = append(comments, &stored)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return m.s.commentSeqs[comments[i].ID] < m.s.commentSeqs[comments[j].ID]
	})
	return comments, nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()

	return len(m.s.Comments), nil
}

// MockTagRepository is a mock implementation of TagRepository
type MockTagRepository struct{ s *Store }

var _ repository.TagRepository = (*MockTagRepository)(nil)

func (m *MockTagRepository) GetByText(ctx context.Context, text string) (*models.Tag, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	if t, ok := m.s.Tags[text]; ok {
		stored := *t
		return &stored, nil
	}
	return nil, nil
}

func (m *MockTagRepository) CreateIfAbsent(ctx context.Context, tag *models.Tag) (bool, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()

	if _, ok := m.s.Tags[tag.Tag]; ok {
		return false, nil
	}
	stored := *tag
	m.s.Tags[tag.Tag] = &stored
	return true, nil
}

func (m *MockTagRepository) ListTexts(ctx context.Context) ([]string, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	texts := make([]string, 0, len(m.s.Tags))
	for text := range m.s.Tags {
		texts = append(texts, text)
	}
	sort.Strings(texts)
	return texts, nil
}

// MockFavoriteRepository is a mock implementation of FavoriteRepository
type MockFavoriteRepository struct{ s *Store }

var _ repository.FavoriteRepository = (*MockFavoriteRepository)(nil)

func (m *MockFavoriteRepository) Add(ctx context.Context, userID, articleID string) (bool, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()

	key := [2]string{userID, articleID}
	if m.s.Favorites[key] {
		return false, nil
	}
	m.s.Favorites[key] = true
	return true, nil
}

func (m *MockFavoriteRepository) Remove(ctx context.Context, userID, articleID string) (bool, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()

	key := [2]string{userID, articleID}
	if !m.s.Favorites[key] {
		return false, nil
	}
	delete(m.s.Favorites, key)
	return true, nil
}

func (m *MockFavoriteRepository) FavoritedSet(ctx context.Context, userID string, articleIDs []string) (map[string]bool, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	set := make(map[string]bool)
	for _, id := range articleIDs {
		if m.s.Favorites[[2]string{userID, id}] {
			set[id] = true
		}
	}
	return set, nil
}

func (m *MockFavoriteRepository) ArticleIDsByUser(ctx context.Context, userID string) ([]string, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	var ids []string
	for key := range m.s.Favorites {
		if key[0] == userID {
			ids = append(ids, key[1])
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// MockFollowRepository is a mock implementation of FollowRepository
type MockFollowRepository struct{ s *Store }

var _ repository.FollowRepository = (*MockFollowRepository)(nil)

func (m *MockFollowRepository) Add(ctx context.Context, followerID, followeeID string) (bool, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()

	key := [2]string{followerID, followeeID}
	if m.s.Follows[key] {
		return false, nil
	}
	m.s.Follows[key] = true
	return true, nil
}

func (m *MockFollowRepository) Remove(ctx context.Context, followerID, followeeID string) (bool, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()

	key := [2]string{followerID, followeeID}
	if !m.s.Follows[key] {
		return false, nil
	}
	delete(m.s.Follows, key)
	return true, nil
}

func (m *MockFollowRepository) FollowingSet(ctx context.Context, followerID string, candidateIDs []string) (map[string]bool, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	set := make(map[string]bool)
	for _, id := range candidateIDs {
		if m.s.Follows[[2]string{followerID, id}] {
			set[id] = true
		}
	}
	return set, nil
}

// matchArticles filters and orders articles; callers hold s.mu
func (s *Store) matchArticles(q models.ArticleQuery) ([]*models.Article, error) {
	var pattern *regexp.Regexp
	if q.TagPattern != "" {
		var err error
		if pattern, err = regexp.Compile(q.TagPattern); err != nil {
			return nil, err
		}
	}

	matched := make([]*models.Article, 0)
	for _, a := range s.Articles {
		if pattern != nil && !anyMatch(pattern, a.TagList) {
			continue
		}
		if q.AuthorID != "" && a.AuthorID != q.AuthorID {
			continue
		}
		if q.FavoritedBy != "" && !s.Favorites[[2]string{q.FavoritedBy, a.ID}] {
			continue
		}
		if q.FollowedBy != "" && !s.Follows[[2]string{q.FollowedBy, a.AuthorID}] {
			continue
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return matched, nil
}

// deleteArticle removes an article with its comments and favorites; callers hold s.mu
func (s *Store) deleteArticle(id string) {
	delete(s.Articles, id)
	for commentID, c := range s.Comments {
		if c.ArticleID == id {
			delete(s.Comments, commentID)
		}
	}
	for key := range s.Favorites {
		if key[1] == id {
			delete(s.Favorites, key)
		}
	}
}

func anyMatch(pattern *regexp.Regexp, tags []string) bool {
	for _, tag := range tags {
		if pattern.MatchString(tag) {
			return true
		}
	}
	return false
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func copyArticle(a *models.Article) *models.Article {
	if a == nil {
		return nil
	}
	c := *a
	c.TagList = append([]string{}, a.TagList...)
	return &c
}
