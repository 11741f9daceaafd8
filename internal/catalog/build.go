package catalog

import "animehub/internal/config"

// FromConfig wires the three upstream adapters into a pipeline. The
// localizer is left out when no TMDB key is configured.
func FromConfig(cfg *config.Config) (*Pipeline, *Jikan) {
	jikan := NewJikan(cfg.Jikan.BaseURL, cfg.Jikan.Timeout)
	jikan.Throttle(cfg.Jikan.RatePerSecond)
	anilist := NewAniList(cfg.AniList.Endpoint, cfg.AniList.Timeout)

	p := NewPipeline(jikan, anilist, nil)
	tmdb := NewTMDB(cfg.TMDB.BaseURL, cfg.TMDB.APIKey, cfg.TMDB.Language, cfg.TMDB.Timeout)
	if tmdb.Enabled() {
		p.Localizer = tmdb
		p.ShareTitleMatch = cfg.TMDB.ShareMatch
	}
	return p, jikan
}

func HydrateFromConfig(cfg *config.Config) HydrateOptions {
	return HydrateOptions{BatchSize: cfg.Hydrate.BatchSize, Delay: cfg.Hydrate.Delay}
}
