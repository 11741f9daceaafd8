package models

import "strings"

// CanonicalAnime is the normalized, source-agnostic form of an anime entry.
//
// Every upstream catalog is decoded into its own shape first and then mapped
// into this structure. ID comes from the primary catalog's numbering; when only
// the secondary catalog had the title its native id is reused as-is, so ids from
// different sources may collide.
type CanonicalAnime struct {
	ID           int        `json:"mal_id"`
	Title        string     `json:"title"`
	TitleEnglish string     `json:"title_english,omitempty"`
	TitleNative  string     `json:"title_japanese,omitempty"`
	Images       Images     `json:"images"`
	Synopsis     string     `json:"synopsis"`
	Score        *float64   `json:"score,omitempty"` // 0-10
	ScoredBy     *int       `json:"scored_by,omitempty"`
	Rank         *int       `json:"rank,omitempty"`
	Popularity   *int       `json:"popularity,omitempty"`
	Members      *int       `json:"members,omitempty"`
	Favorites    *int       `json:"favorites,omitempty"`
	Status       string     `json:"status"`
	Rating       string     `json:"rating,omitempty"`
	Source       string     `json:"source,omitempty"`
	Episodes     *int       `json:"episodes,omitempty"`
	Duration     string     `json:"duration,omitempty"`
	Year         *int       `json:"year,omitempty"`
	Season       string     `json:"season,omitempty"`
	Studios      []NamedRef `json:"studios,omitempty"`
	Genres       []NamedRef `json:"genres,omitempty"`
	Themes       []NamedRef `json:"themes,omitempty"`
	Demographics []NamedRef `json:"demographics,omitempty"`
	Aired        *Aired     `json:"aired,omitempty"`
	Trailer      *Trailer   `json:"trailer,omitempty"`
	BannerImage  string     `json:"bannerImage,omitempty"`
}

// Images holds the display image variants. JPG is always present, even if its
// URL is empty.
type Images struct {
	JPG  ImageSet  `json:"jpg"`
	WebP *ImageSet `json:"webp,omitempty"`
}

type ImageSet struct {
	ImageURL      string `json:"image_url"`
	SmallImageURL string `json:"small_image_url,omitempty"`
	LargeImageURL string `json:"large_image_url,omitempty"`
}

// NamedRef is a {id, name} pair used for genres, studios, themes and demographics.
type NamedRef struct {
	ID   int    `json:"mal_id"`
	Name string `json:"name"`
}

type Aired struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	String string `json:"string,omitempty"`
}

type Trailer struct {
	YoutubeID string `json:"youtube_id,omitempty"`
	URL       string `json:"url,omitempty"`
	EmbedURL  string `json:"embed_url,omitempty"`
}

// UnknownTitle is the placeholder title for records with no usable title.
const UnknownTitle = "Unknown Title"

// DisplayTitle returns the title used for free-text lookups in other catalogs:
// the canonical title as-is, then the English and native variants. It is
// empty when the record only carries the placeholder.
func (a CanonicalAnime) DisplayTitle() string {
	for _, t := range []string{a.Title, a.TitleEnglish, a.TitleNative} {
		if t = strings.TrimSpace(t); t != "" && t != UnknownTitle {
			return t
		}
	}
	return ""
}

// Character is a cast entry from the primary catalog.
type Character struct {
	ID       int    `json:"mal_id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
	Role     string `json:"role"`
}

// Recommendation is a "viewers also liked" entry from the primary catalog.
type Recommendation struct {
	ID       int    `json:"mal_id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url,omitempty"`
	Votes    int    `json:"votes"`
}

// AnimeSnapshot is the row stored in the local `anime` table.
type AnimeSnapshot struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	Genres    []string `json:"genres"`
	Status    string   `json:"status,omitempty"`
	Episodes  int      `json:"episodes,omitempty"`
	Score     float64  `json:"score,omitempty"`
	Synopsis  string   `json:"synopsis,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
	Year      int      `json:"year,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}
