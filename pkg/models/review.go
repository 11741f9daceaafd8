package models

import "time"

type Rating struct {
	UserID  string    `json:"user_id"`
	AnimeID int       `json:"anime_id"`
	Rating  int       `json:"rating"`
	RatedAt time.Time `json:"rated_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	AnimeID   int       `json:"anime_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
