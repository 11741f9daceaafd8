package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"animehub/pkg/models"
)

const (
	UnknownTitle  = models.UnknownTitle
	UnknownStatus = "Unknown"
)

// ErrMalformedTitle is returned when a title is neither a string nor a
// variants object.
var ErrMalformedTitle = errors.New("malformed title: want string or object")

type TitleVariants struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

// TitleField holds either a plain title string or a set of title variants.
// At most one of Plain and Variants is set; both nil means the title was
// missing or null.
type TitleField struct {
	Plain    *string
	Variants *TitleVariants
}

func PlainTitle(s string) TitleField { return TitleField{Plain: &s} }

func (t *TitleField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = TitleField{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("title string: %w", err)
		}
		*t = TitleField{Plain: &s}
	case '{':
		var v TitleVariants
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("title variants: %w", err)
		}
		*t = TitleField{Variants: &v}
	default:
		return ErrMalformedTitle
	}
	return nil
}

func (t TitleField) MarshalJSON() ([]byte, error) {
	switch {
	case t.Plain != nil:
		return json.Marshal(*t.Plain)
	case t.Variants != nil:
		return json.Marshal(t.Variants)
	}
	return []byte("null"), nil
}

// RawAnime is the decoded upstream record before normalization. Field names
// follow the primary catalog; the secondary adapter fills the camelCase ones.
type RawAnime struct {
	ID            int               `json:"mal_id"`
	Title         TitleField        `json:"title"`
	TitleEnglish  string            `json:"title_english"`
	TitleJapanese string            `json:"title_japanese"`
	Images        *models.Images    `json:"images"`
	Synopsis      string            `json:"synopsis"`
	Description   string            `json:"description"`
	Score         *float64          `json:"score"`
	AverageScore  *float64          `json:"averageScore"`
	ScoredBy      *int              `json:"scored_by"`
	Rank          *int              `json:"rank"`
	Popularity    *int              `json:"popularity"`
	Members       *int              `json:"members"`
	Favorites     *int              `json:"favorites"`
	Status        string            `json:"status"`
	Rating        string            `json:"rating"`
	Source        string            `json:"source"`
	Episodes      *int              `json:"episodes"`
	Duration      string            `json:"duration"`
	Year          *int              `json:"year"`
	Season        string            `json:"season"`
	Studios       []models.NamedRef `json:"studios"`
	Genres        []models.NamedRef `json:"genres"`
	Themes        []models.NamedRef `json:"themes"`
	Demographics  []models.NamedRef `json:"demographics"`
	Aired         *models.Aired     `json:"aired"`
	Trailer       *models.Trailer   `json:"trailer"`
	BannerImage   string            `json:"bannerImage"`
}

// DecodeRaw decodes one upstream record. A shape mismatch is an error.
func DecodeRaw(data []byte) (RawAnime, error) {
	var raw RawAnime
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawAnime{}, fmt.Errorf("decode anime: %w", err)
	}
	return raw, nil
}

// Normalize maps a raw record into its canonical form. Missing fields get
// their documented defaults; nothing is synthesized.
func Normalize(raw RawAnime) models.CanonicalAnime {
	a := models.CanonicalAnime{
		ID:           raw.ID,
		Title:        resolveTitle(raw.Title),
		TitleEnglish: raw.TitleEnglish,
		TitleNative:  raw.TitleJapanese,
		Synopsis:     raw.Synopsis,
		Score:        raw.Score,
		ScoredBy:     raw.ScoredBy,
		Rank:         raw.Rank,
		Popularity:   raw.Popularity,
		Members:      raw.Members,
		Favorites:    raw.Favorites,
		Status:       raw.Status,
		Rating:       raw.Rating,
		Source:       raw.Source,
		Episodes:     raw.Episodes,
		Duration:     raw.Duration,
		Year:         raw.Year,
		Season:       raw.Season,
		Studios:      raw.Studios,
		Genres:       raw.Genres,
		Themes:       raw.Themes,
		Demographics: raw.Demographics,
		Aired:        raw.Aired,
		Trailer:      raw.Trailer,
		BannerImage:  raw.BannerImage,
	}

	if v := raw.Title.Variants; v != nil {
		if a.TitleEnglish == "" {
			a.TitleEnglish = v.English
		}
		if a.TitleNative == "" {
			a.TitleNative = v.Native
		}
	}

	if a.Score == nil && raw.AverageScore != nil {
		s := *raw.AverageScore / 10
		a.Score = &s
	}

	if a.Year == nil && raw.Aired != nil {
		if y, ok := yearFrom(raw.Aired.From); ok {
			a.Year = &y
		}
	}

	if a.Synopsis == "" {
		a.Synopsis = raw.Description
	}
	if a.Status == "" {
		a.Status = UnknownStatus
	}
	if raw.Images != nil {
		a.Images = *raw.Images
	} else {
		a.Images = models.Images{JPG: models.ImageSet{ImageURL: ""}}
	}

	return a
}

func NormalizeAll(raws []RawAnime) []models.CanonicalAnime {
	out := make([]models.CanonicalAnime, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

func resolveTitle(t TitleField) string {
	if t.Plain != nil && *t.Plain != "" {
		return *t.Plain
	}
	if v := t.Variants; v != nil {
		for _, s := range []string{v.English, v.Romaji, v.Native} {
			if s != "" {
				return s
			}
		}
	}
	return UnknownTitle
}

// yearFrom reads the calendar year from an RFC3339 timestamp or a
// YYYY-MM-DD prefixed date.
func yearFrom(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Year(), true
	}
	if len(s) < 4 || (len(s) > 4 && s[4] != '-') {
		return 0, false
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil || y <= 0 {
		return 0, false
	}
	return y, true
}
