package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"animehub/internal/config"
)

func TestFromConfigSkipsLocalizerWithoutKey(t *testing.T) {
	cfg := config.Defaults()
	p, jikan := FromConfig(cfg)
	assert.NotNil(t, jikan)
	assert.Nil(t, p.Localizer)
	assert.NotNil(t, p.Secondary)
}

func TestFromConfigWiresLocalizer(t *testing.T) {
	cfg := config.Defaults()
	cfg.TMDB.APIKey = "k"
	cfg.TMDB.ShareMatch = true

	p, _ := FromConfig(cfg)
	assert.NotNil(t, p.Localizer)
	assert.True(t, p.ShareTitleMatch)

	opts := HydrateFromConfig(cfg)
	assert.Equal(t, 5, opts.BatchSize)
}
