package models

import "time"

// Tag is an entry of the global tag catalog; Tag text is the natural key
type Tag struct {
	ID        string    `json:"id" db:"id"`
	Tag       string    `json:"tag" db:"tag"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
