package model

import "time"

// MaxTagNameLength is the longest tag name accepted, in characters
const MaxTagNameLength = 50

// Tag is a per-user label. Names are unique per user and case-sensitive.
type Tag struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
