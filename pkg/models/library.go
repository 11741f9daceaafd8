package models

import "time"

// LibraryItem is one watchlist entry.
type LibraryItem struct {
	UserID    string    `json:"user_id"`
	AnimeID   int       `json:"anime_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Favorite struct {
	UserID  string    `json:"user_id"`
	AnimeID int       `json:"anime_id"`
	AddedAt time.Time `json:"added_at"`
}
