package models

// SeriesBreakdown is the per-season episode listing resolved from the
// localization catalog.
type SeriesBreakdown struct {
	Seasons       []Season `json:"seasons"`
	TotalEpisodes int      `json:"total_episodes"`
	OriginalName  string   `json:"original_name,omitempty"`
	Status        string   `json:"status,omitempty"`
	FirstAirDate  string   `json:"first_air_date,omitempty"`
}

type Season struct {
	Name     string    `json:"name"`
	Number   int       `json:"number"`
	Episodes []Episode `json:"episodes"`
}

type Episode struct {
	Number        int    `json:"number"`
	Name          string `json:"name"`
	StillImageURL string `json:"still_image_url,omitempty"`
}

// EnrichedAnime is a resolved record plus whatever the enrichment pass found.
// PlaceholderEpisodes is sized to Anime.Episodes; consumers pick it or Breakdown.
type EnrichedAnime struct {
	Anime               CanonicalAnime   `json:"anime"`
	Breakdown           *SeriesBreakdown `json:"breakdown,omitempty"`
	PlaceholderEpisodes []Episode        `json:"placeholder_episodes,omitempty"`
}
