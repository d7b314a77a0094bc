package models

import (
	"time"
)

// Comment represents a comment on an article
type Comment struct {
	ID        string    `json:"id" db:"id"`
	ArticleID string    `json:"article_id" db:"article_id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CommentView is a comment rendered with its author's profile
type CommentView struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Body      string    `json:"body"`
	Author    Profile   `json:"author"`
}

// CommentResult is returned when a comment is added
type CommentResult struct {
	Comment CommentView `json:"comment"`
	Article ArticleView `json:"article"`
}

// CreateCommentInput is the payload for adding a comment
type CreateCommentInput struct {
	Body string `json:"body" validate:"required"`
}
