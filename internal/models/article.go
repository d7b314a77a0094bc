package models

import (
	"time"
)

// Article represents an article in the system
type Article struct {
	ID             string    `json:"id" db:"id"`
	Slug           string    `json:"slug" db:"slug"`
	Title          string    `json:"title" db:"title"`
	Description    string    `json:"description" db:"description"`
	Body           string    `json:"body" db:"body"`
	TagList        []string  `json:"tagList" db:"tag_list"`
	FavoritesCount int       `json:"favoritesCount" db:"favorites_count"`
	AuthorID       string    `json:"author_id" db:"author_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// ArticleView is the viewer-aware projection of an article
type ArticleView struct {
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	TagList        []string  `json:"tagList"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int       `json:"favoritesCount"`
	Author         Profile   `json:"author"`
}

// ArticleList is a page of articles plus the filtered total
type ArticleList struct {
	Articles      []ArticleView `json:"articles"`
	ArticlesCount int           `json:"articlesCount"`
}

// EmptyArticleList is returned when a filter names a user that does not exist
func EmptyArticleList() *ArticleList {
	return &ArticleList{Articles: []ArticleView{}, ArticlesCount: 0}
}

// ArticleFilter holds the listing parameters accepted from callers.
// Author and Favorited are usernames; Limit <= 0 means no limit.
type ArticleFilter struct {
	Tag       string
	Author    string
	Favorited string
	Limit     int
	Offset    int
}

// ArticleQuery is the resolved, storage-level form of a listing request
type ArticleQuery struct {
	TagPattern  string
	AuthorID    string
	FavoritedBy string
	FollowedBy  string
	Limit       int
	Offset      int
}

// CreateArticleInput is the payload for creating an article
type CreateArticleInput struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description" validate:"max=1000"`
	Body        string   `json:"body" validate:"required"`
	TagList     []string `json:"tagList" validate:"omitempty,dive,required,max=255"`
}

// UpdateArticleInput carries only the fields to change; nil fields are left untouched
type UpdateArticleInput struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string   `json:"description" validate:"omitempty,max=1000"`
	Body        *string   `json:"body" validate:"omitempty,min=1"`
	TagList     *[]string `json:"tagList" validate:"omitempty,dive,required,max=255"`
}
