package models

// User is the read-only profile view handed to personalization features.
type User struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Email        string              `json:"email,omitempty"`
	Watchlist    []int               `json:"watchlist"`
	Favorites    []int               `json:"favorites"`
	WatchHistory []WatchHistoryEntry `json:"watch_history"`
	Ratings      []Rating            `json:"ratings"`
}

// Excludes reports whether animeID is already on the watchlist or favorites.
func (u User) Excludes(animeID int) bool {
	for _, id := range u.Watchlist {
		if id == animeID {
			return true
		}
	}
	for _, id := range u.Favorites {
		if id == animeID {
			return true
		}
	}
	return false
}
