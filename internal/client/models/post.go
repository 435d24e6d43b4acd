package models

import "time"

// UserID identifies an account on the server. Zero means "no identity".
type UserID uint64

// Post is the read-only client copy of a server post.
type Post struct {
	ID         uint64    `json:"id"`
	AuthorID   UserID    `json:"userId"`
	AuthorName string    `json:"userName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Edited reports whether the post changed after creation.
func (p Post) Edited() bool {
	return p.UpdatedAt.After(p.CreatedAt)
}

// AuthResult is the payload of a successful login or refresh.
type AuthResult struct {
	ID          UserID `json:"id"`
	AccessToken string `json:"accessToken"`
}
