package sync

import "time"

const (
	EventWatchlistUpdate = "watchlist.update"
	EventWatchlistDelete = "watchlist.delete"
	EventFavoriteAdd     = "favorite.add"
	EventFavoriteDelete  = "favorite.delete"
)

// ActivityEvent is one line on the activity feed.
type ActivityEvent struct {
	Type    string    `json:"type"`
	UserID  string    `json:"user_id"`
	AnimeID int       `json:"anime_id"`
	Status  string    `json:"status,omitempty"`
	At      time.Time `json:"at"`
}

func NewEvent(typ, userID string, animeID int, status string) ActivityEvent {
	return ActivityEvent{Type: typ, UserID: userID, AnimeID: animeID, Status: status, At: time.Now().UTC()}
}
