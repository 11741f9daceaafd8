package models

import "time"

type WatchHistoryEntry struct {
	UserID    string    `json:"user_id"`
	AnimeID   int       `json:"anime_id"`
	Episode   *int      `json:"episode,omitempty"`
	WatchedAt time.Time `json:"watched_at"`
}
