package model

import "time"

// Project represents a collection of tasks
type Project struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectPatch holds the fields of a partial project update
type ProjectPatch struct {
	Name        Optional[string]  `json:"name"`
	Description Optional[*string] `json:"description"`
}
